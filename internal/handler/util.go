// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON decodes and validates a request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := middleware.Validate(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// pathID validates a record id from the URL.
func pathID(w http.ResponseWriter, kind, id string) bool {
	if err := middleware.ValidateID(kind, id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// RespondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a 500 with fallback as the message.
func RespondError(log *logger.Logger, fallback string) middleware.ErrorResponder {
	return func(w http.ResponseWriter, err error) {
		respondError(w, log, err, fallback)
	}
}

func respondError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	var nf *service.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidCallback):
		writeError(w, http.StatusBadRequest, service.ErrInvalidCallback.Error())
	case errors.Is(err, service.ErrEmptyUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
