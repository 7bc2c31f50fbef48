package server

import (
	"net/http"
	"strconv"

	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"
)

type chatMessageRequest struct {
	Text string `json:"text"`
}

// AppendChat adds a message to the group, starting a fresh sequence once
// the current one holds the maximum. Returns the sequence and messages to
// persist.
func (s *Store) AppendChat(groupID int64, message ChatMessage) (int, []ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.chats[groupID]
	if group == nil {
		group = &chatGroup{}
		s.chats[groupID] = group
	}
	if len(group.Messages) >= maxChatMessages {
		group.Sequence++
		group.Messages = nil
	}
	group.Messages = append(group.Messages, message)
	messages := make([]ChatMessage, len(group.Messages))
	copy(messages, group.Messages)
	return group.Sequence, messages
}

func (s *Store) GetChat(groupID int64) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.chats[groupID]
	if group == nil {
		return []ChatMessage{}
	}
	messages := make([]ChatMessage, len(group.Messages))
	copy(messages, group.Messages)
	return messages
}

func (s *Store) RestoreChat(groupID int64, sequence int, messages []ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[groupID] = &chatGroup{Sequence: sequence, Messages: messages}
}

func (s *Server) handleGetChat(w http.ResponseWriter, matchID uint, groupID int64) {
	writeJSON(w, http.StatusOK, map[string]any{
		"match_id": matchID,
		"group_id": groupID,
		"messages": s.store.GetChat(groupID),
	})
}

func (s *Server) handlePostChat(w http.ResponseWriter, r *http.Request, matchID uint, groupID int64, players []uint, viewer *Player) {
	var req chatMessageRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	text, err := validateMessage(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	message := ChatMessage{Player: viewer.ID, Text: text, Sent: timeNowUTC()}
	sequence, messages := s.store.AppendChat(groupID, message)
	if err := s.persistChat(groupID, sequence, messages); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save message")
		return
	}
	logger.Log.Infow("chat message", "match", matchID, "player", viewer.ID)

	s.ws.BroadcastRaw(matchID, map[string]any{
		"type":    "chat",
		"message": message,
	})
	recipients := make([]uint, 0, len(players))
	for _, player := range players {
		if player != viewer.ID {
			recipients = append(recipients, player)
		}
	}
	if s.notifier != nil && len(recipients) > 0 {
		s.notifier.Send(recipients, "New message from "+viewer.Name, text, map[string]string{
			"match": strconv.FormatUint(uint64(matchID), 10),
			"kind":  "chat",
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": message})
}

func matchHasPlayer(match *game.Match, player uint) bool {
	for _, id := range match.Players {
		if id == player {
			return true
		}
	}
	return false
}
