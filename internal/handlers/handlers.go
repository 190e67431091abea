// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the services as a JSON API. Successful
// responses are {"data": ...} or a page {"data": [...], "meta": {...}};
// failures are {"error": {"code": ..., "message": ...}}.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"threadline/internal/apperr"
	"threadline/internal/middleware"
	"threadline/internal/models"
)

// maxBodyBytes bounds request bodies. Post content may hold five million
// runes of up to four bytes each.
const maxBodyBytes = 24 << 20

type envelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error *apperr.Error `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, envelope{Data: v})
}

// writeError maps err onto the error envelope. Uncoded errors are logged
// and reported as INTERNAL without their details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, apperr.HTTPStatus(code), errorEnvelope{
		Error: &apperr.Error{Code: code, Message: apperr.Message(err)},
	})
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		default:
			return apperr.Wrap(apperr.CodeValidationFailed, "invalid request body", err)
		}
	}
	return nil
}

// pagination reads the page and limit query parameters. Missing values
// take the defaults; non-numeric ones are rejected.
func pagination(r *http.Request) (models.Pagination, error) {
	var p models.Pagination
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"limit", &p.Limit},
	} {
		raw := r.URL.Query().Get(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apperr.Validation(q.name + " must be a number")
		}
		*q.dst = n
	}
	return p.Normalize(), nil
}

// idParam parses a uuid path parameter. A malformed id names nothing, so it
// is reported as NOT_FOUND.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound("resource not found")
	}
	return id, nil
}

// actor returns the identified user. Routes using it run behind
// middleware.RequireUser.
func actor(r *http.Request) *models.User {
	return middleware.UserFromCtx(r.Context())
}

func viewerID(r *http.Request) *uuid.UUID {
	if u := actor(r); u != nil {
		return &u.ID
	}
	return nil
}

// servePage handles the common "parse pagination, list, write page" shape.
func servePage[T any](w http.ResponseWriter, r *http.Request, list func(models.Pagination) (models.Page[T], error)) {
	p, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := list(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
