// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/contactshq/contacts-api/internal/models"
)

// CreateUser inserts a new user. Returns ErrConflict if the username or
// email is already taken.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, is_verified, role)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.IsVerified, user.Role)
	if err != nil {
		return wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return r.db.GetContext(ctx, user, `SELECT * FROM users WHERE id = ?`, id)
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE username = ?`, username); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByResetToken retrieves the user holding the given reset token.
func (r *Repository) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE reset_token = ?`, token)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// SetUserVerified flips the verification flag. The flag is one-way;
// there is no unverify path.
func (r *Repository) SetUserVerified(ctx context.Context, id int64) error {
	return r.touchUser(ctx, id, `UPDATE users SET is_verified = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
}

// SetUserAvatar stores the avatar URL for a user.
func (r *Repository) SetUserAvatar(ctx context.Context, id int64, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, avatarURL, id)
	if err != nil {
		return wrapError(err)
	}
	return requireAffected(res)
}

// SetUserResetToken stores a pending password reset token on the user.
func (r *Repository) SetUserResetToken(ctx context.Context, id int64, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, token, id)
	if err != nil {
		return wrapError(err)
	}
	return requireAffected(res)
}

// ResetUserPassword replaces the password hash and clears the reset
// token in one statement, consuming the token.
func (r *Repository) ResetUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, reset_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id)
	if err != nil {
		return wrapError(err)
	}
	return requireAffected(res)
}

// SetUserRole changes the authorization tier of a user.
func (r *Repository) SetUserRole(ctx context.Context, id int64, role models.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, role, id)
	if err != nil {
		return wrapError(err)
	}
	return requireAffected(res)
}

func (r *Repository) touchUser(ctx context.Context, id int64, query string) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapError(err)
	}
	return requireAffected(res)
}
