// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/contactshq/contacts-api/internal/repository"
	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/labstack/echo/v4"
)

// errorBody is the JSON error envelope. Responses never carry stack
// traces or internal identifiers.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]errorBody{
		"error": {Code: code, Message: message},
	})
}

// serviceError maps domain sentinels to HTTP responses. Unknown errors
// are logged and answered with an opaque 500.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")
	case errors.Is(err, identity.ErrUnauthenticated):
		return writeError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Could not validate credentials")
	case errors.Is(err, identity.ErrUnverified):
		return writeError(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Email not verified")
	case errors.Is(err, identity.ErrInsufficientRole):
		return writeError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
	case errors.Is(err, identity.ErrUserExists):
		return writeError(c, http.StatusConflict, "ALREADY_REGISTERED", "Username or email already registered")
	case errors.Is(err, identity.ErrInvalidEmail):
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email format")
	case errors.Is(err, identity.ErrInvalidActionToken):
		return writeError(c, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired token")
	case errors.Is(err, repository.ErrNotFound):
		return writeError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		return writeError(c, http.StatusConflict, "CONFLICT", "Record already exists")
	default:
		slog.Error("request_failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return writeError(c, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
