// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package identity resolves credentials to users and owns every write
// to the user table, including the cache invalidation that goes with
// it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/contactshq/contacts-api/internal/cache"
	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/repository"
	"github.com/contactshq/contacts-api/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUnverified         = errors.New("email not verified")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidActionToken = errors.New("invalid or expired action token")
	ErrUserExists         = errors.New("user already exists")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Service orchestrates password verification, token-based principal
// resolution and the user write paths.
type Service struct {
	repo   *repository.Repository
	cache  cache.Cache
	tokens *token.Service
}

// NewService constructs the identity service with its collaborators.
func NewService(repo *repository.Repository, c cache.Cache, tokens *token.Service) *Service {
	return &Service{repo: repo, cache: c, tokens: tokens}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored hash
// using bcrypt's own comparison, never hash equality.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// RegisterParams holds the parameters for user registration.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// Register creates a new unverified user with role "user".
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies a username/password pair against the store.
// The cache is never consulted here; login always reads current truth.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "username", username, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		slog.Warn("login_failed", "username", username, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", user.ID, "username", username)
	return user, nil
}

// ResolvePrincipal resolves a bearer access token to a user, cache
// first. On a miss the store is read and the cache populated before
// returning. The cache is never a source of truth for existence, and
// a stale hit is bounded by the TTL plus explicit invalidation on
// every user write.
func (s *Service) ResolvePrincipal(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.Validate(accessToken, token.KindAccess)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if p, ok, err := s.cache.GetUser(ctx, claims.Subject); err != nil {
		// Cache failures degrade to a store read, never to a request failure.
		slog.Warn("identity_cache_read_failed", "username", claims.Subject, "error", err)
	} else if ok {
		return p.User(), nil
	}

	user, err := s.repo.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if err := s.cache.SetUser(ctx, cache.ProjectUser(user)); err != nil {
		slog.Warn("identity_cache_write_failed", "username", user.Username, "error", err)
	}
	return user, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access
// token for the same subject.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Validate(refreshToken, token.KindRefresh)
	if err != nil {
		return "", ErrUnauthenticated
	}
	// The subject must still exist; refresh must not resurrect a
	// deleted account from a long-lived token.
	if _, err := s.repo.GetUserByUsername(ctx, claims.Subject); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("getting user: %w", err)
	}
	return s.tokens.IssueAccessToken(claims.Subject, 0)
}

// IssueSessionTokens issues an access/refresh token pair for the
// username.
func (s *Service) IssueSessionTokens(username string) (access, refresh string, err error) {
	access, err = s.tokens.IssueAccessToken(username, 0)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.tokens.IssueRefreshToken(username)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueVerificationToken issues the signed single-action token sent in
// verification emails. The subject is the email address.
func (s *Service) IssueVerificationToken(email string) (string, error) {
	return s.tokens.IssueActionToken(email)
}

// RequireVerified passes through iff the user's email is verified.
func (s *Service) RequireVerified(user *models.User) error {
	if !user.IsVerified {
		return ErrUnverified
	}
	return nil
}

// RequireRole passes through iff the user's role satisfies the required
// tier. The comparison is strict per tier, not hierarchical.
func (s *Service) RequireRole(user *models.User, required models.Role) error {
	if !user.Role.Satisfies(required) {
		return ErrInsufficientRole
	}
	return nil
}

// VerifyEmail consumes an action token and flips the verification flag
// of the user holding the token's email address.
func (s *Service) VerifyEmail(ctx context.Context, actionToken string) (*models.User, error) {
	claims, err := s.tokens.Validate(actionToken, token.KindAction)
	if err != nil {
		return nil, ErrInvalidActionToken
	}

	user, err := s.repo.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if err := s.repo.SetUserVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("verifying user: %w", err)
	}
	s.InvalidateCachedIdentity(ctx, user.Username)

	slog.Info("email_verified", "user_id", user.ID, "username", user.Username)
	user.IsVerified = true
	return user, nil
}

// CreatePasswordResetToken stores a fresh opaque reset token on the
// user with the given email and returns it, or ("", nil) when no such
// user exists so callers can answer uniformly.
func (s *Service) CreatePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting user: %w", err)
	}

	resetToken, err := token.GenerateOpaqueSecret()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetUserResetToken(ctx, user.ID, resetToken); err != nil {
		return "", fmt.Errorf("storing reset token: %w", err)
	}
	s.InvalidateCachedIdentity(ctx, user.Username)

	slog.Info("password_reset_requested", "user_id", user.ID)
	return resetToken, nil
}

// ResetPassword consumes a reset token: the matching user gets the new
// password hash and the token is cleared in the same statement, so a
// second confirm with the same token fails.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return ErrInvalidActionToken
	}
	user, err := s.repo.GetUserByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidActionToken
		}
		return fmt.Errorf("getting user: %w", err)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.ResetUserPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	s.InvalidateCachedIdentity(ctx, user.Username)

	slog.Info("password_reset", "user_id", user.ID)
	return nil
}

// UpdateAvatar stores the uploaded avatar URL on the user.
func (s *Service) UpdateAvatar(ctx context.Context, user *models.User, avatarURL string) (*models.User, error) {
	if err := s.repo.SetUserAvatar(ctx, user.ID, avatarURL); err != nil {
		return nil, fmt.Errorf("storing avatar: %w", err)
	}
	s.InvalidateCachedIdentity(ctx, user.Username)

	updated, err := s.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return updated, nil
}

// InvalidateCachedIdentity removes the cached projection for the
// username. Called after every user mutation.
func (s *Service) InvalidateCachedIdentity(ctx context.Context, username string) {
	if err := s.cache.Invalidate(ctx, username); err != nil {
		slog.Warn("identity_cache_invalidate_failed", "username", username, "error", err)
	}
}
