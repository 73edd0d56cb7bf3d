// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package middleware provides the bearer-token authentication chain and
// the per-tier authorization gates.
package middleware

import (
	"net/http"
	"strings"

	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/labstack/echo/v4"
)

// userContextKey is the echo context key holding the resolved user.
const userContextKey = "auth.user"

// CurrentUser returns the principal resolved by RequireUser, or nil on
// routes outside the authenticated group.
func CurrentUser(c echo.Context) *models.User {
	if user, ok := c.Get(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
		"error": {"code": "UNAUTHENTICATED", "message": message},
	})
}

func forbidden(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, map[string]map[string]string{
		"error": {"code": "FORBIDDEN", "message": message},
	})
}

// RequireUser resolves the Authorization bearer token to a user via the
// identity service and stores it in the context. Missing, malformed,
// expired and tampered tokens are all answered with the same 401.
func RequireUser(id *identity.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return unauthorized(c, "Missing or invalid token")
			}

			user, err := id.ResolvePrincipal(c.Request().Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return unauthorized(c, "Could not validate credentials")
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireVerified gates routes on the email verification flag. Must
// run after RequireUser.
func RequireVerified(id *identity.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return unauthorized(c, "Could not validate credentials")
			}
			if err := id.RequireVerified(user); err != nil {
				return forbidden(c, "Email not verified")
			}
			return next(c)
		}
	}
}

// RequireRole gates routes on an exact authorization tier. Must run
// after RequireUser; composes with RequireVerified in route order.
func RequireRole(id *identity.Service, role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return unauthorized(c, "Could not validate credentials")
			}
			if err := id.RequireRole(user, role); err != nil {
				return forbidden(c, "Admin access required")
			}
			return next(c)
		}
	}
}
