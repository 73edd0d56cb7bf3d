// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package cache provides the read-through identity cache contract and
// its backends.
package cache

import (
	"context"
	"time"

	"github.com/contactshq/contacts-api/internal/models"
)

// TTL bounds the staleness window of a cached identity. Entries are
// also deleted explicitly on every mutation of the user they shadow.
const TTL = time.Hour

// UserProjection is the cached shape of a user, keyed by username.
//
// Invariant: every field of models.User exposed to callers must appear
// here AND every write path touching one of these fields must
// invalidate the entry. A field added to one side only turns the cache
// into a correctness hazard.
type UserProjection struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	IsVerified bool        `json:"is_verified"`
	Avatar     *string     `json:"avatar"`
	Role       models.Role `json:"role"`
}

// ProjectUser builds the cached projection from an authoritative user.
func ProjectUser(u *models.User) *UserProjection {
	return &UserProjection{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		Avatar:     u.Avatar,
		Role:       u.Role,
	}
}

// User reconstructs a user from the projection. The result must be
// observably equivalent to the stored user for all exposed fields.
func (p *UserProjection) User() *models.User {
	return &models.User{
		ID:         p.ID,
		Username:   p.Username,
		Email:      p.Email,
		IsVerified: p.IsVerified,
		Avatar:     p.Avatar,
		Role:       p.Role,
	}
}

// Cache is the identity cache contract: read-through on resolution,
// delete-on-write everywhere else. The cache is a performance
// optimization only and never a source of truth for existence.
type Cache interface {
	// GetUser returns the cached projection and whether it was present.
	GetUser(ctx context.Context, username string) (*UserProjection, bool, error)
	// SetUser stores the projection with the fixed TTL.
	SetUser(ctx context.Context, p *UserProjection) error
	// Invalidate removes the entry for the username, if any.
	Invalidate(ctx context.Context, username string) error
}

func userKey(username string) string {
	return "user:" + username
}
