// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/contactshq/contacts-api/internal/middleware"
	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/services/contacts"
	"github.com/labstack/echo/v4"
)

type contactRequest struct {
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Birthday  models.Birthday `json:"birthday"`
	Extra     *string         `json:"extra"`
}

func (r *contactRequest) validate() string {
	switch {
	case r.FirstName == "":
		return "first_name is required"
	case r.LastName == "":
		return "last_name is required"
	case r.Email == "":
		return "email is required"
	case r.Phone == "":
		return "phone is required"
	case r.Birthday.IsZero():
		return "birthday is required"
	default:
		return ""
	}
}

func (r *contactRequest) fields() contacts.Fields {
	return contacts.Fields{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Birthday:  r.Birthday,
		Extra:     r.Extra,
	}
}

// CreateContact inserts a contact owned by the caller.
func (h *Handlers) CreateContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
	}

	contact, err := h.contacts.Create(c.Request().Context(), middleware.CurrentUser(c).ID, req.fields())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, contact)
}

// ListContacts lists or searches the caller's contacts. With a search
// query the skip/limit window is ignored, matching search semantics.
func (h *Handlers) ListContacts(c echo.Context) error {
	ownerID := middleware.CurrentUser(c).ID

	if query := c.QueryParam("search"); query != "" {
		found, err := h.contacts.Search(c.Request().Context(), ownerID, query)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, found)
	}

	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	listed, err := h.contacts.List(c.Request().Context(), ownerID, skip, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, listed)
}

// GetContact returns one of the caller's contacts by id.
func (h *Handlers) GetContact(c echo.Context) error {
	contactID, err := contactID(c)
	if err != nil {
		return writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found")
	}

	contact, err := h.contacts.Get(c.Request().Context(), middleware.CurrentUser(c).ID, contactID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// UpdateContact fully replaces one of the caller's contacts.
func (h *Handlers) UpdateContact(c echo.Context) error {
	contactID, err := contactID(c)
	if err != nil {
		return writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found")
	}

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
	}

	contact, err := h.contacts.Update(c.Request().Context(), middleware.CurrentUser(c).ID, contactID, req.fields())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// DeleteContact removes one of the caller's contacts and returns the
// deleted snapshot.
func (h *Handlers) DeleteContact(c echo.Context) error {
	contactID, err := contactID(c)
	if err != nil {
		return writeError(c, http.StatusNotFound, "NOT_FOUND", "Contact not found")
	}

	contact, err := h.contacts.Delete(c.Request().Context(), middleware.CurrentUser(c).ID, contactID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// UpcomingBirthdays returns the caller's contacts with a birthday in
// the next seven days.
func (h *Handlers) UpcomingBirthdays(c echo.Context) error {
	found, err := h.contacts.UpcomingBirthdays(c.Request().Context(), middleware.CurrentUser(c).ID, time.Now().UTC())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, found)
}

func contactID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
