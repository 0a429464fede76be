// Package httpx provides JSON response helpers and the mapping from
// domain errors to HTTP status codes (RFC 7807 problem details).
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hesabu-biz/hesabu/internal/docgen/money"
)

// Sentinel errors shared by the domain packages.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("conflict")
)

// ProblemDetail is the RFC 7807 error body.
type ProblemDetail struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem writes an RFC 7807 problem response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{Title: title, Status: status, Detail: detail})
}

// RespondError maps domain errors onto problem responses. Unrecognized
// errors become opaque 500s; their detail stays in the server log.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, money.ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// DecodeJSON decodes a request body into target, rejecting unknown
// fields so typos surface as 400s instead of silently dropped input.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
