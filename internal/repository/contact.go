// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/contactshq/contacts-api/internal/models"
)

// CreateContact inserts a new contact for the owner and fills in the
// generated id and timestamps.
func (r *Repository) CreateContact(ctx context.Context, contact *models.Contact) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone, birthday, extra, owner_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		contact.FirstName, contact.LastName, contact.Email, contact.Phone,
		contact.Birthday, contact.Extra, contact.OwnerID)
	if err != nil {
		return wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.db.GetContext(ctx, contact, `SELECT * FROM contacts WHERE id = ?`, id)
}

// GetContact retrieves a contact by id, scoped to the owner.
func (r *Repository) GetContact(ctx context.Context, ownerID, contactID int64) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.GetContext(ctx, &contact,
		`SELECT * FROM contacts WHERE id = ? AND owner_id = ?`, contactID, ownerID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &contact, nil
}

// ListContacts returns the owner's contacts in insertion order with an
// offset/limit window.
func (r *Repository) ListContacts(ctx context.Context, ownerID int64, offset, limit int) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := r.db.SelectContext(ctx, &contacts,
		`SELECT * FROM contacts WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, wrapError(err)
	}
	return contacts, nil
}

// ListContactsByOwner returns all of the owner's contacts in insertion
// order.
func (r *Repository) ListContactsByOwner(ctx context.Context, ownerID int64) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := r.db.SelectContext(ctx, &contacts,
		`SELECT * FROM contacts WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, wrapError(err)
	}
	return contacts, nil
}

// SearchContacts returns the owner's contacts whose first name, last
// name or email contains the query, case-insensitively.
func (r *Repository) SearchContacts(ctx context.Context, ownerID int64, query string) ([]models.Contact, error) {
	pattern := "%" + escapeLike(query) + "%"
	contacts := []models.Contact{}
	err := r.db.SelectContext(ctx, &contacts,
		`SELECT * FROM contacts
		 WHERE owner_id = ?
		   AND (first_name LIKE ? ESCAPE '\'
		     OR last_name LIKE ? ESCAPE '\'
		     OR email LIKE ? ESCAPE '\')
		 ORDER BY id`,
		ownerID, pattern, pattern, pattern)
	if err != nil {
		return nil, wrapError(err)
	}
	return contacts, nil
}

// UpdateContact replaces all mutable fields of a contact, scoped to
// the owner. Returns ErrNotFound if the contact is absent or not owned.
func (r *Repository) UpdateContact(ctx context.Context, contact *models.Contact) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts
		 SET first_name = ?, last_name = ?, email = ?, phone = ?, birthday = ?, extra = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		contact.FirstName, contact.LastName, contact.Email, contact.Phone,
		contact.Birthday, contact.Extra, contact.ID, contact.OwnerID)
	if err != nil {
		return wrapError(err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return r.db.GetContext(ctx, contact, `SELECT * FROM contacts WHERE id = ?`, contact.ID)
}

// DeleteContact removes a contact scoped to the owner and returns the
// deleted snapshot. Returns ErrNotFound if absent or not owned.
func (r *Repository) DeleteContact(ctx context.Context, ownerID, contactID int64) (*models.Contact, error) {
	contact, err := r.GetContact(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND owner_id = ?`, contactID, ownerID)
	if err != nil {
		return nil, wrapError(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return contact, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
