// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers. They deserialize input,
// call the services and map results to status codes; no business logic
// lives here.
package handlers

import (
	"net/http"

	"github.com/contactshq/contacts-api/internal/services/avatar"
	"github.com/contactshq/contacts-api/internal/services/contacts"
	"github.com/contactshq/contacts-api/internal/services/email"
	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	identity *identity.Service
	contacts *contacts.Service
	mail     email.Sender
	avatars  avatar.Uploader
}

// New creates a new Handlers instance.
func New(id *identity.Service, cs *contacts.Service, mail email.Sender, avatars avatar.Uploader) *Handlers {
	return &Handlers{
		identity: id,
		contacts: cs,
		mail:     mail,
		avatars:  avatars,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
