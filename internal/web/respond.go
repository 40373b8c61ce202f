// Package web holds the JSON response helpers shared by module handlers.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
)

// WriteJSON writes a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a JSON error envelope
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Fail maps a domain error to its HTTP status and writes the envelope.
// Unrecognized errors become 500s with a generic message so internal
// details never leak to the client.
func Fail(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		WriteError(w, http.StatusNotFound, err.Error())
	case isBusinessRule(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isBusinessRule(err error) bool {
	for _, sentinel := range []error{
		domain.ErrInsufficientFunds,
		domain.ErrInsufficientShares,
		domain.ErrNoPriceData,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
