package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/general/logger"
	identityservice "ride-dispatch/internal/software/identity/service"
	"ride-dispatch/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthMux() *http.ServeMux {
	log := logger.New("identity-handler-test")
	svc := identityservice.NewIdentityService(log, memory.NewUserStore(), jwt.NewManager("test-secret", time.Hour))

	mux := http.NewServeMux()
	NewIdentityHTTPHandler(svc, log).RegisterRoutes(mux)
	return mux
}

func postJSON(mux *http.ServeMux, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	mux := newAuthMux()

	rec := postJSON(mux, "/auth/register", `{"email":"Rider@Example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "U-1", res.User.ID)
	assert.Equal(t, "rider@example.com", res.User.Email)

	// the password hash never appears on the wire
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	mux := newAuthMux()

	rec := postJSON(mux, "/auth/register", `{"email":"rider@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(mux, "/auth/register", `{"email":"RIDER@example.com","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpointValidation(t *testing.T) {
	mux := newAuthMux()

	rec := postJSON(mux, "/auth/register", `{"email":"","password":"hunter22"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(mux, "/auth/register", `{"email":"rider@example.com","password":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown fields are rejected outright
	rec = postJSON(mux, "/auth/register", `{"email":"a@b.c","password":"x","admin":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpointRequiresJSON(t *testing.T) {
	mux := newAuthMux()

	r := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("email=a@b.c"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	mux := newAuthMux()

	rec := postJSON(mux, "/auth/register", `{"email":"rider@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(mux, "/auth/login", `{"email":"rider@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	mux := newAuthMux()

	rec := postJSON(mux, "/auth/register", `{"email":"rider@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(mux, "/auth/login", `{"email":"rider@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(mux, "/auth/login", `{"email":"nobody@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
