package handler

import (
	"context"
	"net/http"
	"time"
)

// ----- Handler: POST /auth/register -----

func (handler *IdentityHTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	req, ok := handler.decodeCredentials(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.Register(ctxWithTimeout, req.Email, req.Password)
	if err != nil {
		handler.httpError(ctxWithTimeout, w, mapAuthError(err), err.Error(), err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: POST /auth/login -----

func (handler *IdentityHTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	req, ok := handler.decodeCredentials(ctx, w, r)
	if !ok {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.Login(ctxWithTimeout, req.Email, req.Password)
	if err != nil {
		handler.httpError(ctxWithTimeout, w, mapAuthError(err), err.Error(), err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
