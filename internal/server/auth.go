package server

import (
	"errors"
	"net/http"
	"strings"
)

var errUnauthorized = errors.New("authentication required")

// authenticate resolves the player behind a Bearer token. Websocket
// clients cannot set headers, so a token query parameter is accepted as a
// fallback.
func (s *Server) authenticate(r *http.Request) (*Player, error) {
	token := ""
	if header := r.Header.Get("Authorization"); header != "" {
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return nil, errUnauthorized
	}
	player, ok := s.store.FindPlayerByToken(token)
	if !ok {
		return nil, errors.New("invalid auth token")
	}
	return player, nil
}

func (s *Server) requirePlayer(w http.ResponseWriter, r *http.Request) (*Player, bool) {
	player, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return player, true
}
