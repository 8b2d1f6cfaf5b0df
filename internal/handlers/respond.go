package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"clickstart/internal/service"
	"clickstart/internal/validation"
)

// respondJSON writes v as a JSON response
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError writes a JSON error body. The optional err is logged but
// never shown to the client.
func respondError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, map[string]string{"error": userMsg})
}

// decodeBody parses a JSON request body into v
func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// respondProfileError maps profile-service failures onto HTTP statuses
func respondProfileError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	switch {
	case errors.Is(err, service.ErrChildNotFound):
		respondError(w, http.StatusNotFound, "child not found", nil)
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "access denied", nil)
	case errors.Is(err, service.ErrRewardAlreadyClaimed):
		respondError(w, http.StatusConflict, "daily reward already claimed", nil)
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "internal server error", err)
	}
}
