// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contactshq/contacts-api/internal/handlers"
	"github.com/contactshq/contacts-api/internal/middleware"
	"github.com/contactshq/contacts-api/internal/models"
	"github.com/contactshq/contacts-api/internal/repository"
	"github.com/contactshq/contacts-api/internal/services/contacts"
	"github.com/contactshq/contacts-api/internal/services/identity"
	"github.com/contactshq/contacts-api/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	e      *echo.Echo
	id     *identity.Service
	repo   *repository.Repository
	mail   *testutil.RecordingSender
	upload *testutil.FakeUploader
}

// newAPI wires the handlers into an echo instance with the same route
// layout and gates as the server.
func newAPI(t *testing.T) *api {
	t.Helper()
	idSvc, repo, _ := testutil.NewIdentityService(t)
	mail := &testutil.RecordingSender{}
	upload := &testutil.FakeUploader{}
	h := handlers.New(idSvc, contacts.NewService(repo), mail, upload)

	e := echo.New()
	e.GET("/health", h.Health)

	auth := e.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.GET("/verify-email/:token", h.VerifyEmail)
	auth.POST("/password-reset", h.RequestPasswordReset)
	auth.POST("/password-reset/confirm", h.ConfirmPasswordReset)

	users := e.Group("/users", middleware.RequireUser(idSvc))
	users.GET("/me", h.Me)
	users.PATCH("/me/avatar", h.UpdateAvatar,
		middleware.RequireVerified(idSvc), middleware.RequireRole(idSvc, models.RoleAdmin))

	cg := e.Group("/contacts", middleware.RequireUser(idSvc), middleware.RequireVerified(idSvc))
	cg.POST("", h.CreateContact)
	cg.GET("", h.ListContacts)
	cg.GET("/birthdays/upcoming", h.UpcomingBirthdays)
	cg.GET("/:id", h.GetContact)
	cg.PUT("/:id", h.UpdateContact)
	cg.DELETE("/:id", h.DeleteContact)

	return &api{e: e, id: idSvc, repo: repo, mail: mail, upload: upload}
}

func (a *api) request(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// login returns an access token for an existing verified test user.
func (a *api) login(t *testing.T, username string) string {
	t.Helper()
	access, _, err := a.id.IssueSessionTokens(username)
	require.NoError(t, err)
	return access
}

func contactBody(firstName string) map[string]any {
	return map[string]any{
		"first_name": firstName,
		"last_name":  "Doe",
		"email":      strings.ToLower(firstName) + "@example.com",
		"phone":      "+380501234567",
		"birthday":   "1990-05-15",
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.request(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRegisterEndpoint(t *testing.T) {
	a := newAPI(t)

	rec := a.request(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "password", "hash never leaves the API")

	require.Len(t, a.mail.Verifications, 1)
	assert.Equal(t, "alice@example.com", a.mail.Verifications[0].To)
	assert.NotEmpty(t, a.mail.Verifications[0].Token)
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	a := newAPI(t)

	rec := a.request(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = a.request(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "s3cret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpoint_Duplicate(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")

	rec := a.request(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "fresh@example.com",
		"password": "s3cret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_REGISTERED")
}

func TestRegisterEndpoint_EmailFailureStillCreates(t *testing.T) {
	a := newAPI(t)
	a.mail.Err = fmt.Errorf("smtp down")

	rec := a.request(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	_, err := a.repo.GetUserByUsername(context.Background(), "alice")
	assert.NoError(t, err)
}

func TestLoginEndpoint(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")

	rec := a.request(http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)

	rec = a.request(http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestRefreshEndpoint(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")

	rec := a.request(http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var session struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	rec = a.request(http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")
	assert.NotContains(t, rec.Body.String(), "refresh_token")

	rec = a.request(http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerificationGatesContacts(t *testing.T) {
	a := newAPI(t)

	rec := a.request(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	access := a.login(t, "bob")

	// Unverified accounts can read their profile but not touch contacts.
	rec = a.request(http.MethodGet, "/users/me", access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.request(http.MethodPost, "/contacts", access, contactBody("John"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Follow the emailed verification link.
	require.Len(t, a.mail.Verifications, 1)
	rec = a.request(http.MethodGet, "/auth/verify-email/"+a.mail.Verifications[0].Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.request(http.MethodPost, "/contacts", access, contactBody("John"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestVerifyEmailEndpoint_BadToken(t *testing.T) {
	a := newAPI(t)
	rec := a.request(http.MethodGet, "/auth/verify-email/garbage", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetEndpoints(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")

	rec := a.request(http.MethodPost, "/auth/password-reset", "", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.mail.Resets, 1)

	rec = a.request(http.MethodPost, "/auth/password-reset/confirm", "", map[string]string{
		"token":        a.mail.Resets[0].Token,
		"new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.request(http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "brand-new-pass",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// A second confirm with the consumed token fails.
	rec = a.request(http.MethodPost, "/auth/password-reset/confirm", "", map[string]string{
		"token":        a.mail.Resets[0].Token,
		"new_password": "yet-another",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetEndpoint_UnknownEmailUniformAnswer(t *testing.T) {
	a := newAPI(t)

	rec := a.request(http.MethodPost, "/auth/password-reset", "", map[string]string{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "If email exists")
	assert.Empty(t, a.mail.Resets, "no email is sent for unknown addresses")
}

func TestMeEndpoint(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")

	rec := a.request(http.MethodGet, "/users/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = a.request(http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint_CacheHitMatchesStoreRead(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")

	// First resolution misses the cache and reads the store.
	first := a.request(http.MethodGet, "/users/me", access, nil)
	require.Equal(t, http.StatusOK, first.Code)

	// The second is served from the cached projection and must be
	// indistinguishable from the store read.
	second := a.request(http.MethodGet, "/users/me", access, nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestContactEndpoints(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")

	rec := a.request(http.MethodPost, "/contacts", access, contactBody("John"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	rec = a.request(http.MethodGet, "/contacts", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	path := fmt.Sprintf("/contacts/%d", created.ID)
	rec = a.request(http.MethodGet, path, access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	update := contactBody("Johnny")
	rec = a.request(http.MethodPut, path, access, update)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"first_name":"Johnny"`)

	rec = a.request(http.MethodDelete, path, access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"first_name":"Johnny"`)

	rec = a.request(http.MethodGet, path, access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactEndpoints_Validation(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")

	rec := a.request(http.MethodPost, "/contacts", access, map[string]any{
		"first_name": "John",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "last_name is required")

	// A non-numeric id never reaches the database.
	rec = a.request(http.MethodGet, "/contacts/abc", access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactSearchEndpoint(t *testing.T) {
	a := newAPI(t)
	owner := testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")

	testutil.NewTestContact(t, a.repo, owner.ID, "John")
	testutil.NewTestContact(t, a.repo, owner.ID, "Mary")

	rec := a.request(http.MethodGet, "/contacts?search=joh", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "John", found[0].FirstName)
}

func TestUpcomingBirthdaysEndpoint(t *testing.T) {
	a := newAPI(t)
	owner := testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")
	testutil.NewTestContact(t, a.repo, owner.ID, "John")

	rec := a.request(http.MethodGet, "/contacts/birthdays/upcoming", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.NotNil(t, found)
}

func avatarForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestAvatarEndpoint(t *testing.T) {
	a := newAPI(t)
	admin := testutil.NewTestUser(t, a.repo, "boss")
	require.NoError(t, a.repo.SetUserRole(context.Background(), admin.ID, models.RoleAdmin))
	access := a.login(t, "boss")

	body, contentType := avatarForm(t)
	req := httptest.NewRequest(http.MethodPatch, "/users/me/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, a.upload.Uploads)

	stored, err := a.repo.GetUserByID(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Avatar)
	assert.Contains(t, *stored.Avatar, "avatars/")
}

func TestAvatarEndpoint_RequiresAdmin(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "alice")
	access := a.login(t, "alice")

	body, contentType := avatarForm(t)
	req := httptest.NewRequest(http.MethodPatch, "/users/me/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, a.upload.Uploads, "upload never happens for forbidden callers")
}

func TestAvatarEndpoint_UploadFailure(t *testing.T) {
	a := newAPI(t)
	admin := testutil.NewTestUser(t, a.repo, "boss")
	require.NoError(t, a.repo.SetUserRole(context.Background(), admin.ID, models.RoleAdmin))
	access := a.login(t, "boss")
	a.upload.Err = fmt.Errorf("bucket unavailable")

	body, contentType := avatarForm(t)
	req := httptest.NewRequest(http.MethodPatch, "/users/me/avatar", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPLOAD_FAILED")

	// A failed upload leaves the user untouched.
	stored, err := a.repo.GetUserByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Avatar)
}

func TestContactOwnershipAcrossUsers(t *testing.T) {
	a := newAPI(t)
	alice := testutil.NewTestUser(t, a.repo, "alice")
	testutil.NewTestUser(t, a.repo, "bob")
	contact := testutil.NewTestContact(t, a.repo, alice.ID, "John")
	bobAccess := a.login(t, "bob")

	path := fmt.Sprintf("/contacts/%d", contact.ID)
	rec := a.request(http.MethodGet, path, bobAccess, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "foreign contacts look nonexistent")

	rec = a.request(http.MethodDelete, path, bobAccess, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
