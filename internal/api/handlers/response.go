package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/projecthub-be/internal/apperrors"
	"github.com/rs/zerolog/log"
)

var errEmptyBody = fmt.Errorf("%w: request body is empty", apperrors.ErrInvalidInput)

// Request bodies larger than this are rejected before decoding.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details []apperrors.FieldError) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

func statusFor(kind error) (int, string) {
	switch kind {
	case apperrors.ErrInvalidInput:
		return http.StatusBadRequest, "invalid_request"
	case apperrors.ErrUnauthenticated:
		return http.StatusUnauthorized, "unauthorized"
	case apperrors.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case apperrors.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.ErrConflict:
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError maps an error from the services layer to its HTTP status.
// Internal failures are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.Kind(err)
	status, code := statusFor(kind)
	if kind == apperrors.ErrInternal {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeError(w, status, code, "internal server error", nil)
		return
	}
	writeError(w, status, code, err.Error(), apperrors.Details(err))
}

// Unauthorized answers a request the token middleware rejected.
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
	writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

// decodePatch is decodeJSON for partial updates: an empty body is an empty
// patch.
func decodePatch(w http.ResponseWriter, r *http.Request, dst any) error {
	err := decodeJSON(w, r, dst)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperrors.Invalid("request body too large")
		case errors.Is(err, io.EOF):
			return errEmptyBody
		default:
			return apperrors.Invalid("invalid request body")
		}
	}
	return nil
}
