// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contactshq/contacts-api/internal/config"
	"github.com/contactshq/contacts-api/internal/handlers"
	"github.com/contactshq/contacts-api/internal/i18n"
	"github.com/contactshq/contacts-api/internal/services/contacts"
	"github.com/contactshq/contacts-api/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer assembles the real middleware stack and route table
// over in-memory backends.
func newTestServer(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	require.NoError(t, i18n.Init())

	idSvc, repo, _ := testutil.NewIdentityService(t)
	testutil.NewTestUser(t, repo, "alice")
	access, _, err := idSvc.IssueSessionTokens("alice")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.MaxBodySize = 8

	e := echo.New()
	setupMiddleware(e, cfg)
	h := handlers.New(idSvc, contacts.NewService(repo), &testutil.RecordingSender{}, &testutil.FakeUploader{})
	setupRoutes(e, idSvc, h)
	return e, access
}

func TestCollectionRoutes_TrailingSlash(t *testing.T) {
	e, access := newTestServer(t)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	// Both spellings of the collection path reach the same handlers.
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/contacts", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/contacts/", "").Code)

	body := `{"first_name":"John","last_name":"Doe","email":"john@example.com","phone":"+380501234567","birthday":"1990-05-15"}`
	assert.Equal(t, http.StatusCreated, do(http.MethodPost, "/contacts/", body).Code)

	rec := do(http.MethodGet, "/contacts/?search=joh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"first_name":"John"`)
}
