package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ride-dispatch/internal/general/jwt"
)

// ----- Handler: GET /rides/{ride_id} -----

func (handler *DispatchHTTPHandler) handleGetRide(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", nil)
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	found, err := handler.svc.GetRide(ctxWithTimeout, rideID, strings.TrimSpace(claims.Subject))
	if err != nil {
		handler.httpError(ctxWithTimeout, w, mapError(err), err.Error(), err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, found)
}

// ----- Handler: GET /rides -----

func (handler *DispatchHTTPHandler) handleListRides(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "limit must be an integer", err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "offset must be an integer", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rides, err := handler.svc.ListRides(ctxWithTimeout, strings.TrimSpace(claims.Subject), limit, offset)
	if err != nil {
		handler.httpError(ctxWithTimeout, w, mapError(err), err.Error(), err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, rides)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
