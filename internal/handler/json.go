package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amellin794/delish/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func isValidationError(err error) bool {
	var verr *validation.Error
	return errors.As(err, &verr)
}
