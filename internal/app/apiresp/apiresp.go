package apiresp

import (
	"encoding/json"
	"net/http"
)

// ErrorPayload is the error shape every endpoint returns: a single
// user-facing message, never internal detail.
type ErrorPayload struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, ErrorPayload{Error: msg})
}
