// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package token issues and validates signed, time-bound bearer tokens.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the three token purposes. A token of one kind is
// never accepted where another kind is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	// KindAction authorizes a single email-driven action such as
	// address verification. The subject is the email, not the username.
	KindAction Kind = "action"
)

// ErrInvalidToken covers malformed, badly signed and expired tokens
// alike. The causes are deliberately not distinguished at the API
// surface to avoid oracle leakage.
var ErrInvalidToken = errors.New("invalid token")

// OpaqueSecretLength is the number of random bytes in opaque secrets.
const OpaqueSecretLength = 32

// Claims are the decoded contents of a valid token.
type Claims struct {
	Subject   string
	Kind      Kind
	ExpiresAt time.Time
}

type kindClaims struct {
	Kind Kind `json:"knd"`
	jwt.RegisteredClaims
}

// Service signs and validates HS256 tokens. It performs no I/O.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	actionTTL  time.Duration
}

// New creates a token service. Zero TTLs fall back to the defaults
// (30m access, 7d refresh, 24h action).
func New(secret []byte, accessTTL, refreshTTL, actionTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if actionTTL <= 0 {
		actionTTL = 24 * time.Hour
	}
	return &Service{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		actionTTL:  actionTTL,
	}
}

// IssueAccessToken signs a short-lived session token for the subject.
// A positive ttl overrides the configured default.
func (s *Service) IssueAccessToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.accessTTL
	}
	return s.issue(subject, KindAccess, ttl)
}

// IssueRefreshToken signs a long-lived session token for the subject.
func (s *Service) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, KindRefresh, s.refreshTTL)
}

// IssueActionToken signs a single-action token. The subject is an
// email address.
func (s *Service) IssueActionToken(email string) (string, error) {
	return s.issue(email, KindAction, s.actionTTL)
}

func (s *Service) issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := kindClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate decodes a token, verifying signature, structure and expiry.
// Any failure, including a kind mismatch, collapses to ErrInvalidToken.
func (s *Service) Validate(tokenString string, expected Kind) (*Claims, error) {
	var claims kindClaims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != expected {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return &Claims{
		Subject:   claims.Subject,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GenerateOpaqueSecret returns a cryptographically random URL-safe
// string. Opaque secrets are validated by existence in the store, not
// by decoding.
func GenerateOpaqueSecret() (string, error) {
	buf := make([]byte, OpaqueSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
