package middleware

import (
	"encoding/json"
	"net/http"

	"threadline/internal/apperr"
)

// writeError writes the API error envelope for code.
func writeError(w http.ResponseWriter, code apperr.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(code))
	json.NewEncoder(w).Encode(map[string]any{
		"error": apperr.Error{Code: code, Message: message},
	})
}
