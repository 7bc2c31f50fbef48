package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MarkusShepherd/diris-server/internal/game"
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

// writeGameError maps a rule violation from the core to the matching 4xx
// response.
func writeGameError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errMatchNotFound),
		errors.Is(err, errPlayerNotFound),
		errors.Is(err, game.ErrRoundNotFound),
		errors.Is(err, game.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotInMatch):
		return http.StatusForbidden
	case errors.Is(err, game.ErrMissingInput),
		errors.Is(err, game.ErrInvalidMatchSize),
		errors.Is(err, game.ErrStoryRejected):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}
