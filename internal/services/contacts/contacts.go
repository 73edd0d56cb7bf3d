// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package contacts provides owner-scoped CRUD and queries over contact
// records.
package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/repository"
)

const (
	// DefaultLimit is the list window when the caller does not pass one.
	DefaultLimit = 100
	// MaxLimit clamps caller-supplied list windows.
	MaxLimit = 500
	// BirthdayWindowDays is the forward window of the upcoming-birthday
	// query, inclusive on both ends.
	BirthdayWindowDays = 7
)

// Service wraps the contact repository with input normalization and
// the birthday window query.
type Service struct {
	repo *repository.Repository
}

// NewService creates the contacts service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Fields are the mutable fields of a contact.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  models.Birthday
	Extra     *string
}

// Create inserts a new contact owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID int64, fields Fields) (*models.Contact, error) {
	contact := &models.Contact{
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Birthday:  fields.Birthday,
		Extra:     fields.Extra,
		OwnerID:   ownerID,
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}
	return contact, nil
}

// Get returns the contact iff it is owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, contactID int64) (*models.Contact, error) {
	return s.repo.GetContact(ctx, ownerID, contactID)
}

// List returns a window of the owner's contacts in insertion order.
// Negative offsets and out-of-range limits fall back to sane values.
func (s *Service) List(ctx context.Context, ownerID int64, offset, limit int) ([]models.Contact, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return s.repo.ListContacts(ctx, ownerID, offset, limit)
}

// Search returns the owner's contacts matching the query
// case-insensitively over first name, last name and email.
func (s *Service) Search(ctx context.Context, ownerID int64, query string) ([]models.Contact, error) {
	return s.repo.SearchContacts(ctx, ownerID, query)
}

// Update replaces all mutable fields of the contact iff owned.
func (s *Service) Update(ctx context.Context, ownerID, contactID int64, fields Fields) (*models.Contact, error) {
	contact := &models.Contact{
		ID:        contactID,
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Birthday:  fields.Birthday,
		Extra:     fields.Extra,
		OwnerID:   ownerID,
	}
	if err := s.repo.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Delete removes the contact iff owned and returns the deleted
// snapshot.
func (s *Service) Delete(ctx context.Context, ownerID, contactID int64) (*models.Contact, error) {
	return s.repo.DeleteContact(ctx, ownerID, contactID)
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls
// within the inclusive window [today, today+7] of UTC calendar dates.
// For each contact the birthday occurrence in today's year and the
// next is checked, which handles windows spanning a year end. Feb 29
// birthdays are observed on Mar 1 in non-leap years via time.Date
// normalization.
func (s *Service) UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time) ([]models.Contact, error) {
	all, err := s.repo.ListContactsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, BirthdayWindowDays)

	upcoming := make([]models.Contact, 0)
	for _, contact := range all {
		if birthdayInWindow(contact.Birthday.Time, start, end) {
			upcoming = append(upcoming, contact)
		}
	}
	return upcoming, nil
}

func birthdayInWindow(birthday, start, end time.Time) bool {
	for _, year := range []int{start.Year(), start.Year() + 1} {
		occurrence := time.Date(year, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
		if !occurrence.Before(start) && !occurrence.After(end) {
			return true
		}
	}
	return false
}
