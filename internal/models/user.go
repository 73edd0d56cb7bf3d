// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package models

import "time"

// Role is the authorization tier of a user. Tiers are compared with
// Satisfies, never with ==, so the tier logic stays in one place.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Satisfies reports whether the role meets the required tier. The
// comparison is strict: each route declares its exact minimum tier and
// admin does not implicitly satisfy RoleUser.
func (r Role) Satisfies(required Role) bool {
	return r == required
}

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the authoritative identity record. Username and email are
// globally unique. ResetToken, when set, identifies at most one user
// and is cleared after a single successful password reset.
//
// Only the fields carried by cache.UserProjection are exposed over
// JSON; the timestamps are store-internal.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	Avatar       *string   `db:"avatar" json:"avatar"`
	Role         Role      `db:"role" json:"role"`
	ResetToken   *string   `db:"reset_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}
