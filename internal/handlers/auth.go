// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new unverified user and sends the verification
// email. The registration stands even if the email cannot be sent.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username, email and password are required")
	}

	user, err := h.identity.Register(c.Request().Context(), identity.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return serviceError(c, err)
	}

	actionToken, err := h.identity.IssueVerificationToken(user.Email)
	if err != nil {
		slog.Error("verification_token_failed", "user_id", user.ID, "error", err)
	} else if err := h.mail.SendVerification(c.Request().Context(), user.Email, user.Username, actionToken); err != nil {
		// The user exists either way; there is no resend endpoint, so a
		// lost email currently needs operator help.
		slog.Error("verification_email_failed", "user_id", user.ID, "error", err)
	}

	return c.JSON(http.StatusCreated, user)
}

// Login exchanges a username/password pair for access and refresh
// tokens.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
	}

	user, err := h.identity.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	access, refresh, err := h.identity.IssueSessionTokens(user.Username)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *Handlers) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "refresh_token is required")
	}

	access, err := h.identity.RefreshAccessToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
	})
}

// VerifyEmail consumes the action token from the verification link.
func (h *Handlers) VerifyEmail(c echo.Context) error {
	if _, err := h.identity.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

// RequestPasswordReset stores a reset token and emails it. The answer
// is the same whether or not the email is registered, to avoid
// enumeration.
func (h *Handlers) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
	}

	resetToken, err := h.identity.CreatePasswordResetToken(c.Request().Context(), req.Email)
	if err != nil {
		return serviceError(c, err)
	}
	if resetToken != "" {
		if err := h.mail.SendPasswordReset(c.Request().Context(), req.Email, resetToken); err != nil {
			slog.Error("password_reset_email_failed", "error", err)
		}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "If email exists, reset instructions have been sent"})
}

// ConfirmPasswordReset consumes the reset token and replaces the
// password.
func (h *Handlers) ConfirmPasswordReset(c echo.Context) error {
	var req passwordResetConfirmRequest
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "token and new_password are required")
	}

	if err := h.identity.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successfully"})
}
