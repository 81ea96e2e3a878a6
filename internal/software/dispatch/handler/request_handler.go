package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ride-dispatch/internal/domain/geo"
	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type requestRideRequest struct {
	Pickup  coordinatePayload `json:"pickup"`
	Dropoff coordinatePayload `json:"dropoff"`
}

type coordinatePayload struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

func (p coordinatePayload) toCoordinate() (geo.Coordinate, error) {
	if p.Lat == nil || p.Lng == nil {
		return geo.Coordinate{}, geo.ErrInvalidCoordinate
	}
	c := geo.Coordinate{Lat: *p.Lat, Lng: *p.Lng, Address: strings.TrimSpace(p.Address)}
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}

// ----- Handler: POST /rides -----

func (handler *DispatchHTTPHandler) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	// generate a context with request ID
	ctx := handler.withReqID(r.Context(), r)

	// check the content type
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	// limit body size
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	// decode strictly
	var req requestRideRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	// obtain the JWT claims
	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	pickup, err := req.Pickup.toCoordinate()
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "pickup must carry numeric lat and lng", err)
		return
	}
	dropoff, err := req.Dropoff.toCoordinate()
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "dropoff must carry numeric lat and lng", err)
		return
	}

	in := ports.RequestRideInput{
		UserID:  strings.TrimSpace(claims.Subject),
		Pickup:  pickup,
		Dropoff: dropoff,
	}

	// bound service call
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	created, err := handler.svc.RequestRide(ctxWithTimeout, in)
	if err != nil {
		status := mapError(err)
		msg := err.Error()
		if status == http.StatusServiceUnavailable {
			msg = "no drivers available"
		}
		handler.httpError(ctxWithTimeout, w, status, msg, err)
		return
	}
	ctxWithTimeout = handler.logger.WithRideID(ctxWithTimeout, created.ID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, created)
}
