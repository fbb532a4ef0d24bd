package devapi

// RESPONSE FORMAT:
// Every error leaves the API as {"detail": ...}. Most handlers put a string
// there; validation failures put a list of {loc, msg, type} items, one per
// problem, which the client joins into a single message.
//
//	{"detail": "post with id: 7 does not exist"}
//	{"detail": [{"loc": ["body", "title"], "msg": "field required", "type": "value_error"}]}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-feed/internal/apperror"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// FieldError is one item of a validation detail list.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; once the body starts they are frozen.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// deny is the 401 answer of auth.RequireAuth.
func deny(w http.ResponseWriter, _ *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

// writeError maps a domain error to its HTTP status.
//
//	ErrValidation   → 422 (detail list)
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	anything else   → 500, logged, never shown to the caller
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: fieldErrors(appErr)})
			return
		case errors.Is(err, apperror.ErrUnauthorized):
			deny(w, r, appErr.Message)
			return
		case errors.Is(err, apperror.ErrForbidden):
			writeDetail(w, http.StatusForbidden, appErr.Message)
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeDetail(w, http.StatusNotFound, appErr.Message)
			return
		case errors.Is(err, apperror.ErrConflict):
			writeDetail(w, http.StatusConflict, appErr.Message)
			return
		}
	}

	a.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}

// fieldErrors turns a validation error into the detail list. Each entry of
// Details becomes its own item; without details the message is the only one.
func fieldErrors(e *apperror.AppError) []FieldError {
	loc := []string{"body"}
	if e.Field != "" {
		loc = append(loc, e.Field)
	}
	msgs := e.Details
	if len(msgs) == 0 {
		msgs = []string{e.Message}
	}
	out := make([]FieldError, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, FieldError{Loc: loc, Msg: m, Type: "value_error"})
	}
	return out
}

// decodeJSON reads a JSON body into v. A missing or malformed body is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.ValidationFailed("", "JSON decode error")
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "value is not a valid integer")
	}
	return id, nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(key, "value is not a valid integer")
	}
	return n, nil
}
