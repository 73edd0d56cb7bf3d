// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"testing"

	"github.com/contactshq/contacts-api/internal/config"
	"github.com/contactshq/contacts-api/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Contacts API",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://example.com")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg, "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg, "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestNewService_TrailingSlashTrimmed(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://example.com/")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestLogSender(t *testing.T) {
	var s email.LogSender

	// The fallback sender never fails; it only logs.
	assert.NoError(t, s.SendVerification(context.Background(), "a@example.com", "alice", "tok"))
	assert.NoError(t, s.SendPasswordReset(context.Background(), "a@example.com", "tok"))
}
