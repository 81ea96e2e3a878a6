package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ride-dispatch/internal/bus"
	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/general/websocket"
	dispatchservice "ride-dispatch/internal/software/dispatch/service"
	"ride-dispatch/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rideBody = `{"pickup":{"lat":37.776,"lng":-122.417,"address":"Hayes St"},"dropoff":{"lat":37.784,"lng":-122.409}}`

type httpFixture struct {
	mux   *http.ServeMux
	token string
	auth  *jwt.Manager
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()

	log := logger.New("handler-test")
	rides := memory.NewRideStore()
	drivers := memory.NewDriverRegistry(memory.SeedDrivers())
	feed := bus.New(log)
	auth := jwt.NewManager("test-secret", time.Hour)

	svc := dispatchservice.NewDispatchService(log, rides, drivers, feed, nil, nil)
	livefeed := websocket.NewLiveFeed(log, auth, feed, rides)

	mux := http.NewServeMux()
	NewDispatchHTTPHandler(svc, log, auth, livefeed).RegisterRoutes(mux)

	token, _, err := auth.IssueUserToken("U-1", "rider@example.com")
	require.NoError(t, err)

	return &httpFixture{mux: mux, token: token, auth: auth}
}

func (fx *httpFixture) do(method, target, body, token string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	fx.mux.ServeHTTP(rec, r)
	return rec
}

func decodeRide(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRequestRideEndpoint(t *testing.T) {
	fx := newHTTPFixture(t)

	rec := fx.do(http.MethodPost, "/rides", rideBody, fx.token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	payload := decodeRide(t, rec)
	assert.Equal(t, "R-1000", payload["id"])
	assert.Equal(t, "assigned", payload["status"])
	assert.Equal(t, "U-1", payload["userId"])
	assert.Equal(t, "D-1001", payload["driverId"])
	assert.NotNil(t, payload["price"])
}

func TestRequestRideEndpointRejectsAnonymous(t *testing.T) {
	fx := newHTTPFixture(t)

	rec := fx.do(http.MethodPost, "/rides", rideBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestRideEndpointRequiresJSON(t *testing.T) {
	fx := newHTTPFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(rideBody))
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Set("Authorization", "Bearer "+fx.token)
	rec := httptest.NewRecorder()
	fx.mux.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRequestRideEndpointRejectsUnknownFields(t *testing.T) {
	fx := newHTTPFixture(t)

	body := `{"pickup":{"lat":1,"lng":2},"dropoff":{"lat":3,"lng":4},"tip":5}`
	rec := fx.do(http.MethodPost, "/rides", body, fx.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestRideEndpointRejectsMissingAxis(t *testing.T) {
	fx := newHTTPFixture(t)

	body := `{"pickup":{"lat":37.776},"dropoff":{"lat":37.784,"lng":-122.409}}`
	rec := fx.do(http.MethodPost, "/rides", body, fx.token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pickup must carry numeric lat and lng")
}

func TestRequestRideEndpointExhaustedFleet(t *testing.T) {
	fx := newHTTPFixture(t)

	// four available seed drivers
	for i := 0; i < 4; i++ {
		rec := fx.do(http.MethodPost, "/rides", rideBody, fx.token)
		require.Equal(t, http.StatusCreated, rec.Code, "request %d", i)
	}

	rec := fx.do(http.MethodPost, "/rides", rideBody, fx.token)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no drivers available")
}

func TestGetRideEndpointScopedToOwner(t *testing.T) {
	fx := newHTTPFixture(t)

	created := decodeRide(t, fx.do(http.MethodPost, "/rides", rideBody, fx.token))
	id := created["id"].(string)

	rec := fx.do(http.MethodGet, "/rides/"+id, "", fx.token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// someone else's token sees a 404, not a 403
	otherToken, _, err := fx.auth.IssueUserToken("U-2", "other@example.com")
	require.NoError(t, err)
	rec = fx.do(http.MethodGet, "/rides/"+id, "", otherToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelRideEndpoint(t *testing.T) {
	fx := newHTTPFixture(t)

	created := decodeRide(t, fx.do(http.MethodPost, "/rides", rideBody, fx.token))
	target := fmt.Sprintf("/rides/%s/cancel", created["id"])

	rec := fx.do(http.MethodPost, target, "", fx.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decodeRide(t, rec)["status"])

	// cancelling a finished ride conflicts
	rec = fx.do(http.MethodPost, target, "", fx.token)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelUnknownRideEndpoint(t *testing.T) {
	fx := newHTTPFixture(t)

	rec := fx.do(http.MethodPost, "/rides/R-404/cancel", "", fx.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRidesEndpoint(t *testing.T) {
	fx := newHTTPFixture(t)

	_ = fx.do(http.MethodPost, "/rides", rideBody, fx.token)
	_ = fx.do(http.MethodPost, "/rides", rideBody, fx.token)

	rec := fx.do(http.MethodGet, "/rides", "", fx.token)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	// newest first
	assert.Equal(t, "R-1001", listed[0]["id"])

	rec = fx.do(http.MethodGet, "/rides?limit=1&offset=1", "", fx.token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "R-1000", listed[0]["id"])
}

func TestListRidesEndpointRejectsBadPagination(t *testing.T) {
	fx := newHTTPFixture(t)

	rec := fx.do(http.MethodGet, "/rides?limit=abc", "", fx.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(http.MethodGet, "/rides?offset=1.5", "", fx.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpointNeedsNoAuth(t *testing.T) {
	fx := newHTTPFixture(t)

	rec := fx.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
