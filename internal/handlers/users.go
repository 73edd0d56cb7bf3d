// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/contactshq/contacts-api/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Me returns the authenticated user.
func (h *Handlers) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateAvatar uploads a new avatar image from a multipart form and
// stores its URL on the user. The upload happens before the repository
// write; a failed upload never mutates the user.
func (h *Handlers) UpdateAvatar(c echo.Context) error {
	user := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is not readable")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	avatarURL, err := h.avatars.Upload(c.Request().Context(), file, contentType, user.ID)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "UPLOAD_FAILED", "Failed to upload avatar")
	}

	updated, err := h.identity.UpdateAvatar(c.Request().Context(), user, avatarURL)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}
