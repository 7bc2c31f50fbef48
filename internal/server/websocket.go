package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"

	"github.com/gorilla/websocket"
)

// wsHub tracks the live connections per match, remembering which player is
// behind each one so broadcasts can be masked per viewer.
type wsHub struct {
	mu     sync.Mutex
	groups map[uint]map[*websocket.Conn]uint
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[uint]map[*websocket.Conn]uint),
	}
}

func (h *wsHub) Add(matchID uint, conn *websocket.Conn, viewer uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[matchID]
	if group == nil {
		group = make(map[*websocket.Conn]uint)
		h.groups[matchID] = group
	}
	group[conn] = viewer
}

func (h *wsHub) Remove(matchID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[matchID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, matchID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

type wsClient struct {
	conn   *websocket.Conn
	viewer uint
}

func (h *wsHub) clients(matchID uint) []wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[matchID]
	clients := make([]wsClient, 0, len(group))
	for conn, viewer := range group {
		clients = append(clients, wsClient{conn: conn, viewer: viewer})
	}
	return clients
}

type wsPayload struct {
	conn *websocket.Conn
	data []byte
}

// renderMatchUpdate marshals the match once per connected viewer, so each
// client only ever receives what its player may see. Callers render while
// holding the store lock and hand the payloads to sendPayloads afterwards,
// keeping network writes out of the critical section.
func (s *Server) renderMatchUpdate(match *game.Match) []wsPayload {
	clients := s.ws.clients(match.ID)
	payloads := make([]wsPayload, 0, len(clients))
	for _, client := range clients {
		data, err := json.Marshal(matchView(match, client.viewer))
		if err != nil {
			continue
		}
		payloads = append(payloads, wsPayload{conn: client.conn, data: data})
	}
	return payloads
}

func (h *wsHub) sendPayloads(matchID uint, payloads []wsPayload) {
	for _, payload := range payloads {
		if err := payload.conn.WriteMessage(websocket.TextMessage, payload.data); err != nil {
			h.Remove(matchID, payload.conn)
		}
	}
}

// BroadcastRaw sends the same payload to every connection; used for chat,
// which has no per-viewer masking.
func (h *wsHub) BroadcastRaw(matchID uint, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, client := range h.clients(matchID) {
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(matchID, client.conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	viewer, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	isMember := false
	if err := s.store.WithMatch(matchID, func(match *game.Match) error {
		isMember = matchHasPlayer(match, viewer.ID)
		return nil
	}); err != nil {
		http.NotFound(w, r)
		return
	}
	if !isMember {
		writeGameError(w, game.ErrNotInMatch)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	logger.Log.Infow("ws connected", "match", matchID, "player", viewer.ID, "remote", r.RemoteAddr)
	s.ws.Add(matchID, conn, viewer.ID)
	var initial map[string]any
	if err := s.store.WithMatch(matchID, func(match *game.Match) error {
		initial = matchView(match, viewer.ID)
		return nil
	}); err == nil {
		s.ws.Send(conn, initial)
	}
	go s.readWS(matchID, conn)
}

func (s *Server) readWS(matchID uint, conn *websocket.Conn) {
	defer s.ws.Remove(matchID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Log.Debugw("ws disconnected", "match", matchID, "error", err)
			return
		}
	}
}
