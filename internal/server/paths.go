package server

import (
	"strconv"
	"strings"
)

// parseMatchPath splits /api/matches/{id} and /api/matches/{id}/{action}.
func parseMatchPath(path string) (uint, string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/matches/")
	if !ok || rest == "" {
		return 0, "", false
	}
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id, err := parseID(parts[0])
	if err != nil {
		return 0, "", false
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, true
}

// parseRoundAction splits the rounds/{number}/{action} tail of a match
// path.
func parseRoundAction(action string) (int, string, bool) {
	rest, ok := strings.CutPrefix(action, "rounds/")
	if !ok {
		return 0, "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	number, err := strconv.Atoi(parts[0])
	if err != nil || number < 1 {
		return 0, "", false
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	return number, sub, true
}

// parsePlayerPath splits /api/players/{id} and /api/players/{id}/{action}.
func parsePlayerPath(path string) (uint, string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/players/")
	if !ok || rest == "" {
		return 0, "", false
	}
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id, err := parseID(parts[0])
	if err != nil {
		return 0, "", false
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, true
}

func parseImagePath(path string) (uint, bool) {
	rest, ok := strings.CutPrefix(path, "/api/images/")
	if !ok || rest == "" {
		return 0, false
	}
	id, err := parseID(strings.Trim(rest, "/"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseWebsocketPath(path string) (uint, bool) {
	rest, ok := strings.CutPrefix(path, "/ws/matches/")
	if !ok || rest == "" {
		return 0, false
	}
	id, err := parseID(strings.Trim(rest, "/"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
