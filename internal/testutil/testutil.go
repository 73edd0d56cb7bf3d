// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/contactshq/contacts-api/internal/cache"
	"github.com/contactshq/contacts-api/internal/database"
	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/repository"
	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/contactshq/contacts-api/internal/services/token"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// TestJWTSecret signs tokens in tests.
const TestJWTSecret = "test-secret-key-for-tests-only"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTokenService creates a token service with short, test-friendly
// defaults.
func NewTokenService(t *testing.T) *token.Service {
	t.Helper()
	return token.New([]byte(TestJWTSecret), 30*time.Minute, 7*24*time.Hour, 24*time.Hour)
}

// NewIdentityService builds an identity service over an in-memory
// database and cache. The cache is returned for direct inspection.
func NewIdentityService(t *testing.T) (*identity.Service, *repository.Repository, *cache.Memory) {
	t.Helper()
	_, repo := NewTestDB(t)
	mem := cache.NewMemory()
	return identity.NewService(repo, mem, NewTokenService(t)), repo, mem
}

// NewTestUser creates a verified test user with the given username and
// password "password123".
func NewTestUser(t *testing.T, repo *repository.Repository, username string) *models.User {
	t.Helper()
	ctx := context.Background()
	hash, err := identity.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsVerified:   true,
		Role:         models.RoleUser,
	}
	require.NoError(t, repo.CreateUser(ctx, user))
	return user
}

// NewTestContact creates a contact for the owner with a fixed shape.
func NewTestContact(t *testing.T, repo *repository.Repository, ownerID int64, firstName string) *models.Contact {
	t.Helper()
	ctx := context.Background()
	contact := &models.Contact{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     firstName + "@example.com",
		Phone:     "+380441234567",
		Birthday:  models.NewBirthday(1990, time.May, 15),
		OwnerID:   ownerID,
	}
	require.NoError(t, repo.CreateContact(ctx, contact))
	return contact
}

// RecordingSender is an email.Sender fake that records what was sent.
type RecordingSender struct {
	Verifications []RecordedVerification
	Resets        []RecordedReset
	Err           error
}

type RecordedVerification struct {
	To       string
	Username string
	Token    string
}

type RecordedReset struct {
	To    string
	Token string
}

func (s *RecordingSender) SendVerification(_ context.Context, to, username, actionToken string) error {
	if s.Err != nil {
		return s.Err
	}
	s.Verifications = append(s.Verifications, RecordedVerification{To: to, Username: username, Token: actionToken})
	return nil
}

func (s *RecordingSender) SendPasswordReset(_ context.Context, to, resetToken string) error {
	if s.Err != nil {
		return s.Err
	}
	s.Resets = append(s.Resets, RecordedReset{To: to, Token: resetToken})
	return nil
}

// FakeUploader is an avatar.Uploader fake returning a deterministic URL.
type FakeUploader struct {
	Uploads int
	Err     error
}

func (u *FakeUploader) Upload(_ context.Context, body io.Reader, _ string, userID int64) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	_, _ = io.Copy(io.Discard, body)
	u.Uploads++
	return "https://assets.example.com/avatars/" + strconv.FormatInt(userID, 10), nil
}
