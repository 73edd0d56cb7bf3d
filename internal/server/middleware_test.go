// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contactshq/contacts-api/internal/i18n"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Init())

	e := echo.New()
	e.Use(i18nMiddleware())

	var locale string
	e.GET("/", func(c echo.Context) error {
		locale = i18n.GetLocale(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	t.Run("English header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "en"), "expected locale to start with 'en', got %s", locale)
	})

	t.Run("Ukrainian header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "uk-UA")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "uk"), "expected locale to start with 'uk', got %s", locale)
	})

	t.Run("unknown language falls back to English", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr-FR")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "en"), "expected locale to start with 'en', got %s", locale)
	})
}

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	e.POST("/limited", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, rateLimiter(5))

	hit := func() int {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.RemoteAddr = "192.0.2.1:4711"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	// The burst allows the configured number of immediate requests.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(), "request %d within burst", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit())
}

func TestRateLimiter_PerClient(t *testing.T) {
	e := echo.New()
	e.GET("/limited", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, rateLimiter(1))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("192.0.2.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, hit("192.0.2.1:1001"))

	// A different client address has its own budget.
	assert.Equal(t, http.StatusOK, hit("192.0.2.2:1000"))
}
