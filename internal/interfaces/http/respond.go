package http

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorBody is the wire shape of every error response: a stable snake_case
// code clients can switch on.
type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, errorBody{Error: code})
}
