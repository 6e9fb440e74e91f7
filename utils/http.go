package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorsResponse is the body of every error response
type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with the given body
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 Created response with the given body
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteErrors writes an {"errors": [...]} response with the given status
func WriteErrors(w http.ResponseWriter, status int, messages ...string) error {
	if messages == nil {
		messages = []string{}
	}
	return WriteJSON(w, status, ErrorsResponse{Errors: messages})
}

// WriteInternalServerError writes a 500 response that reveals nothing about the cause
func WriteInternalServerError(w http.ResponseWriter) error {
	return WriteErrors(w, http.StatusInternalServerError, "An unexpected error has occurred!")
}
