// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package email delivers verification and password-reset messages over
// SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/contactshq/contacts-api/internal/config"
	"github.com/contactshq/contacts-api/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Sender is the notification gateway contract. The SMTP implementation
// below is swapped for a recording fake in tests.
type Sender interface {
	SendVerification(ctx context.Context, toEmail, username, actionToken string) error
	SendPasswordReset(ctx context.Context, toEmail, resetToken string) error
}

// LogSender is the fallback Sender used when no SMTP host is
// configured. It logs the would-be message instead of delivering it.
type LogSender struct{}

func (LogSender) SendVerification(_ context.Context, toEmail, username, actionToken string) error {
	slog.Info("verification_email_skipped", "to", toEmail, "username", username, "token", actionToken)
	return nil
}

func (LogSender) SendPasswordReset(_ context.Context, toEmail, resetToken string) error {
	slog.Info("password_reset_email_skipped", "to", toEmail, "token", resetToken)
	return nil
}

// Service sends transactional email via SMTP.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendVerification sends the email-verification message carrying the
// signed action token.
func (s *Service) SendVerification(ctx context.Context, toEmail, username, actionToken string) error {
	verifyURL := fmt.Sprintf("%s/auth/verify-email/%s", s.baseURL, actionToken)

	subject := i18n.T(ctx, "email_verification_subject")
	body := i18n.TData(ctx, "email_verification_body", map[string]any{
		"Username":  username,
		"VerifyURL": verifyURL,
	})

	return s.send(toEmail, subject, body)
}

// SendPasswordReset sends the password-reset message carrying the
// opaque reset token.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, resetToken string) error {
	resetURL := fmt.Sprintf("%s/auth/password-reset/confirm?token=%s", s.baseURL, resetToken)

	subject := i18n.T(ctx, "email_password_reset_subject")
	body := i18n.TData(ctx, "email_password_reset_body", map[string]any{
		"ResetURL": resetURL,
	})

	return s.send(toEmail, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	// Build client options
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
