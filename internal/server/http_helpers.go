package server

import (
	"encoding/json"
	"io"
	"net/http"

	"topic-rush/internal/game"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func writeGameError(w http.ResponseWriter, err error) {
	gameErr := game.AsError(err)
	writeError(w, gameErr.Code, gameErr.Message)
}
