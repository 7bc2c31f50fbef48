package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MarkusShepherd/diris-server/internal/config"
	"github.com/MarkusShepherd/diris-server/internal/notify"
)

const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8/x8AAwMBAp4pWZkAAAAASUVORK5CYII="

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(nil, config.Default(), notify.LogSender{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRegisterPlayer(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/players", "", map[string]string{
		"name": "Ada",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if _, ok := body["auth_token"].(string); !ok {
		t.Fatalf("expected auth_token string, got %T", body["auth_token"])
	}
	if body["name"] != "Ada" {
		t.Fatalf("expected name Ada, got %v", body["name"])
	}
}

func TestRegisterPlayerDuplicateName(t *testing.T) {
	ts := newTestServer(t)

	registerPlayer(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/players", "", map[string]string{
		"name": "ada",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestGetPlayerRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	id, _ := registerPlayer(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodGet, playerPath(id), "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t)

	id, token := registerPlayer(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodGet, playerPath(id), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["name"] != "Ada" {
		t.Fatalf("expected name Ada, got %v", body["name"])
	}
	if body["total_matches"] != float64(0) {
		t.Fatalf("expected zero matches, got %v", body["total_matches"])
	}
}

func TestUploadAndFetchImage(t *testing.T) {
	ts := newTestServer(t)

	_, token := registerPlayer(t, ts, "Ada")
	imageID := uploadImage(t, ts, token)

	resp := doRequest(t, ts, http.MethodGet, imagePath(imageID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
}

func TestFetchForeignImageForbidden(t *testing.T) {
	ts := newTestServer(t)

	_, owner := registerPlayer(t, ts, "Ada")
	_, other := registerPlayer(t, ts, "Bob")
	imageID := uploadImage(t, ts, owner)

	resp := doRequest(t, ts, http.MethodGet, imagePath(imageID), other, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}
}

func TestUploadImageStoresMetadata(t *testing.T) {
	srv := New(nil, config.Default(), notify.LogSender{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	_, token := registerPlayer(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/images", token, map[string]any{
		"image_data": tinyPNG,
		"info":       map[string]any{"source": "camera", "filter": "noir"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	imageID := uint(body["image_id"].(float64))

	image, ok := srv.store.GetImage(imageID)
	if !ok {
		t.Fatal("image missing from store")
	}
	if image.Info["source"] != "camera" || image.Info["filter"] != "noir" {
		t.Fatalf("unexpected image info %v", image.Info)
	}
	if image.RandomOrder == 0 {
		t.Fatal("expected a random order to be drawn on upload")
	}
}

func TestUploadImageRejectsGarbage(t *testing.T) {
	ts := newTestServer(t)

	_, token := registerPlayer(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/images", token, map[string]string{
		"image_data": "bm90IGFuIGltYWdl",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCreateMatch(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	resp := doRequest(t, ts, http.MethodPost, "/api/matches", tokens[0], map[string]any{
		"players": players,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "waiting" {
		t.Fatalf("expected waiting match, got %v", body["status"])
	}
	if body["total_rounds"] != float64(4) {
		t.Fatalf("expected 4 rounds, got %v", body["total_rounds"])
	}
	if body["deadline_response"] == nil {
		t.Fatal("expected response deadline to be set")
	}
}

func TestCreateMatchTooFewPlayers(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo")
	resp := doRequest(t, ts, http.MethodPost, "/api/matches", tokens[0], map[string]any{
		"players": players,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCreateMatchDuplicateGroup(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	createMatch(t, ts, tokens[0], players, 0)

	resp := doRequest(t, ts, http.MethodPost, "/api/matches", tokens[1], map[string]any{
		"players": players,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestCreateMatchUnknownPlayer(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo")
	players = append(players, 999)
	resp := doRequest(t, ts, http.MethodPost, "/api/matches", tokens[0], map[string]any{
		"players": players,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestAcceptAllStartsMatch(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	matchID := createMatch(t, ts, tokens[0], players, 0)

	for _, token := range tokens[1:] {
		resp := doRequest(t, ts, http.MethodPost, matchPath(matchID)+"/accept", token, map[string]any{})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
		}
	}

	view := getMatch(t, ts, tokens[0], matchID)
	if view["status"] != "in-progress" {
		t.Fatalf("expected in-progress, got %v", view["status"])
	}
	rounds := view["rounds"].([]any)
	first := rounds[0].(map[string]any)
	if first["status"] != "submit-story" {
		t.Fatalf("expected submit-story, got %v", first["status"])
	}
	if view["deadline_action"] == nil {
		t.Fatal("expected action deadline once in progress")
	}
}

func TestAcceptTwiceConflicts(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	matchID := createMatch(t, ts, tokens[0], players, 0)

	doRequest(t, ts, http.MethodPost, matchPath(matchID)+"/accept", tokens[1], map[string]any{})
	resp := doRequest(t, ts, http.MethodPost, matchPath(matchID)+"/accept", tokens[1], map[string]any{})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestDeclineDeletesMatch(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	matchID := createMatch(t, ts, tokens[0], players, 0)

	resp := doRequest(t, ts, http.MethodPost, matchPath(matchID)+"/decline", tokens[1], map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "delete" {
		t.Fatalf("expected delete, got %v", body["status"])
	}

	resp = doRequest(t, ts, http.MethodGet, matchPath(matchID), tokens[0], nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestMatchViewRequiresParticipant(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	matchID := createMatch(t, ts, tokens[0], players, 0)
	_, outsider := registerPlayer(t, ts, "Eve")

	resp := doRequest(t, ts, http.MethodGet, matchPath(matchID), outsider, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}
}

func TestListMatchesPagination(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan", "Eve")
	createMatch(t, ts, tokens[0], players[:4], 0)
	createMatch(t, ts, tokens[0], append([]uint{players[0]}, players[1], players[2], players[4]), 0)

	resp := doRequest(t, ts, http.MethodGet, "/api/matches?per_page=1", tokens[0], nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	matches := body["matches"].([]any)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match on page, got %d", len(matches))
	}
	pagination := body["pagination"].(map[string]any)
	if pagination["total"] != float64(2) {
		t.Fatalf("expected 2 total, got %v", pagination["total"])
	}
	if pagination["has_next"] != true {
		t.Fatal("expected next page")
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/matches", tokens[4], nil)
	body = decodeBody(t, resp)
	if len(body["matches"].([]any)) != 1 {
		t.Fatalf("expected Eve in 1 match, got %d", len(body["matches"].([]any)))
	}
}

func TestChecksEndpoint(t *testing.T) {
	ts := newTestServer(t)

	players, tokens := registerPlayers(t, ts, "Ada", "Bob", "Cleo", "Dan")
	createMatch(t, ts, tokens[0], players, 0)

	resp := doRequest(t, ts, http.MethodPost, "/api/checks", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["checked"] != float64(1) {
		t.Fatalf("expected 1 checked, got %v", body["checked"])
	}
}

func registerPlayer(t *testing.T, ts *httptest.Server, name string) (uint, string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/players", "", map[string]string{
		"name": name,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return uint(body["player_id"].(float64)), body["auth_token"].(string)
}

func registerPlayers(t *testing.T, ts *httptest.Server, names ...string) ([]uint, []string) {
	t.Helper()
	ids := make([]uint, len(names))
	tokens := make([]string, len(names))
	for i, name := range names {
		ids[i], tokens[i] = registerPlayer(t, ts, name)
	}
	return ids, tokens
}

func uploadImage(t *testing.T, ts *httptest.Server, token string) uint {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/images", token, map[string]string{
		"image_data": tinyPNG,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return uint(body["image_id"].(float64))
}

func createMatch(t *testing.T, ts *httptest.Server, token string, players []uint, totalRounds int) uint {
	t.Helper()
	payload := map[string]any{"players": players}
	if totalRounds > 0 {
		payload["total_rounds"] = totalRounds
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/matches", token, payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return uint(body["match_id"].(float64))
}

func getMatch(t *testing.T, ts *httptest.Server, token string, matchID uint) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, matchPath(matchID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
