package server

import (
	"encoding/json"
	"net/http"

	"github.com/MarkusShepherd/diris-server/internal/db"
	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"

	"github.com/google/uuid"
)

type registerRequest struct {
	Name      string `json:"name"`
	PushToken string `json:"push_token"`
}

type settingsRequest struct {
	PushToken *string `json:"push_token"`
	Avatar    *uint   `json:"avatar"`
}

type uploadImageRequest struct {
	ImageData string         `json:"image_data"`
	Copyright string         `json:"copyright"`
	Info      map[string]any `json:"info"`
}

type createMatchRequest struct {
	Players        []uint `json:"players"`
	TotalRounds    int    `json:"total_rounds"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type submitImageRequest struct {
	Image uint   `json:"image"`
	Story string `json:"story"`
}

type submitVoteRequest struct {
	Image uint `json:"image"`
}

func (s *Server) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.store.NameTaken(name) {
		writeError(w, http.StatusConflict, "name already taken")
		return
	}

	player := &Player{
		Name:      name,
		AuthToken: uuid.NewString(),
		PushToken: req.PushToken,
	}
	if err := s.persistPlayer(player); err != nil {
		writeError(w, http.StatusConflict, "name already taken")
		return
	}
	if err := s.store.AddPlayer(player); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	logger.Log.Infow("player registered", "player", player.ID, "name", player.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"player_id":  player.ID,
		"name":       player.Name,
		"auth_token": player.AuthToken,
	})
}

func (s *Server) handlePlayerSubroutes(w http.ResponseWriter, r *http.Request) {
	id, action, ok := parsePlayerPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case r.Method == http.MethodGet && action == "":
		s.handleGetPlayer(w, r, id)
	case r.Method == http.MethodPost && action == "settings":
		s.handlePlayerSettings(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request, id uint) {
	if _, ok := s.requirePlayer(w, r); !ok {
		return
	}
	player, ok := s.store.GetPlayer(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, playerView(player))
}

func (s *Server) handlePlayerSettings(w http.ResponseWriter, r *http.Request, id uint) {
	viewer, ok := s.requirePlayer(w, r)
	if !ok {
		return
	}
	if viewer.ID != id {
		writeError(w, http.StatusForbidden, "players can only change their own settings")
		return
	}
	var req settingsRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings")
		return
	}
	if req.Avatar != nil && *req.Avatar != 0 {
		if _, err := s.getImage(*req.Avatar); err != nil {
			writeError(w, http.StatusNotFound, "avatar image not found")
			return
		}
	}
	player, err := s.store.UpdatePlayer(id, func(player *Player) error {
		if req.PushToken != nil {
			player.PushToken = *req.PushToken
		}
		if req.Avatar != nil {
			player.AvatarID = *req.Avatar
		}
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	if err := s.persistPlayerUpdate(player); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, playerView(player))
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.requirePlayer(w, r)
	if !ok {
		return
	}
	var req uploadImageRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "image_data is required")
		return
	}
	data, err := decodeImageData(req.ImageData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image data")
		return
	}
	if len(data) > maxImageBytes {
		writeError(w, http.StatusBadRequest, "image exceeds size limit")
		return
	}
	width, height, err := imageDimensions(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}
	copyright, err := validateCopyright(req.Copyright)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image := &Image{
		Data:        data,
		Width:       width,
		Height:      height,
		Size:        len(data),
		Owner:       viewer.ID,
		Copyright:   copyright,
		Info:        req.Info,
		RandomOrder: randomImageOrder(),
		Created:     timeNowUTC(),
	}
	if err := s.persistImage(image); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	s.store.AddImage(image)
	logger.Log.Infow("image uploaded", "image", image.ID, "player", viewer.ID, "size", image.Size)
	writeJSON(w, http.StatusCreated, map[string]any{
		"image_id": image.ID,
		"width":    image.Width,
		"height":   image.Height,
		"size":     image.Size,
	})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseImagePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	viewer, ok := s.requirePlayer(w, r)
	if !ok {
		return
	}
	image, err := s.getImage(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if image.Owner != viewer.ID && !imagePubliclyAvailable(image) &&
		!s.store.MatchWithImage(viewer.ID, image.ID) {
		writeError(w, http.StatusForbidden, "image not available")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(image.Data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Data)
}

// getImage serves from the store, falling back to the database for images
// uploaded before the last restart.
func (s *Server) getImage(id uint) (*Image, error) {
	if image, ok := s.store.GetImage(id); ok {
		return image, nil
	}
	if s.db == nil {
		return nil, game.ErrImageNotFound
	}
	var record db.Image
	if err := s.db.First(&record, id).Error; err != nil {
		return nil, game.ErrImageNotFound
	}
	image := &Image{
		ID:          record.ID,
		Data:        record.Data,
		Width:       record.Width,
		Height:      record.Height,
		Size:        record.Size,
		Owner:       idValue(record.OwnerID),
		Copyright:   record.Copyright,
		RandomOrder: record.RandomOrder,
		Created:     record.CreatedAt,
	}
	if len(record.Info) > 0 {
		if err := json.Unmarshal(record.Info, &image.Info); err != nil {
			logger.Log.Warnw("image info unreadable", "image", record.ID, "error", err)
		}
	}
	return s.store.AddImage(image), nil
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.requirePlayer(w, r)
	if !ok {
		return
	}
	var req createMatchRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "players are required")
		return
	}

	now := timeNowUTC()
	opts := game.MatchOptions{
		InvitingPlayer: viewer.ID,
		TotalRounds:    req.TotalRounds,
	}
	if req.TimeoutSeconds > 0 {
		opts.Timeout = secondsToDuration(req.TimeoutSeconds)
	} else {
		opts.Timeout = secondsToDuration(s.cfg.MatchTimeoutSeconds)
	}

	match, err := game.NewMatch(req.Players, opts, now)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if !s.store.HasPlayers(match.Players) {
		writeError(w, http.StatusNotFound, "unknown player in list")
		return
	}
	match.CheckStatus(now)
	match.UpdateDeadlines(now)

	if err := s.store.AddMatch(match); err != nil {
		writeGameError(w, err)
		return
	}
	if err := s.persistMatch(match); err != nil {
		s.store.RemoveMatch(match.ID)
		writeError(w, http.StatusInternalServerError, "failed to create match")
		return
	}
	// Notifications, the durable save and the response view all run as
	// one locked unit, the same pipeline every later mutation uses.
	view, _, err := s.mutateMatch(match.ID, viewer.ID, now, nil)
	if err != nil {
		writeGameError(w, err)
		return
	}
	logger.Log.Infow("match created", "match", match.ID, "players", req.Players)
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.requirePlayer(w, r)
	if !ok {
		return
	}
	summaries := s.store.ListMatches(viewer.ID, r.URL.Query().Get("status"))
	page, perPage := parsePagination(r, defaultMatchesPage, maxMatchesPage)
	start, end := pageBounds(page, perPage, len(summaries))
	writeJSON(w, http.StatusOK, map[string]any{
		"matches":    summaries[start:end],
		"pagination": buildPaginationData(page, perPage, len(summaries)),
	})
}

func (s *Server) handleMatchSubroutes(w http.ResponseWriter, r *http.Request) {
	matchID, action, ok := parseMatchPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	viewer, ok := s.requirePlayer(w, r)
	if !ok {
		return
	}
	// Membership and the chat coordinates are read under the store lock;
	// the handlers re-enter the lock for anything beyond these.
	var isMember bool
	var groupID int64
	var players []uint
	err := s.store.WithMatch(matchID, func(match *game.Match) error {
		isMember = matchHasPlayer(match, viewer.ID)
		groupID = match.GroupID
		players = append([]uint(nil), match.Players...)
		return nil
	})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !isMember {
		writeGameError(w, game.ErrNotInMatch)
		return
	}

	if number, sub, isRound := parseRoundAction(action); isRound {
		switch {
		case r.Method == http.MethodGet && sub == "images":
			s.handleRoundImages(w, r, matchID, viewer, number)
		case r.Method == http.MethodPost && sub == "image":
			s.handleSubmitImage(w, r, matchID, viewer, number)
		case r.Method == http.MethodPost && sub == "vote":
			s.handleSubmitVote(w, r, matchID, viewer, number)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		s.handleGetMatch(w, r, matchID, viewer)
	case r.Method == http.MethodGet && action == "chat":
		s.handleGetChat(w, matchID, groupID)
	case r.Method == http.MethodPost && action == "chat":
		s.handlePostChat(w, r, matchID, groupID, players, viewer)
	case r.Method == http.MethodPost && action == "accept":
		s.handleRespond(w, r, matchID, viewer, true)
	case r.Method == http.MethodPost && action == "decline":
		s.handleRespond(w, r, matchID, viewer, false)
	case r.Method == http.MethodPost && action == "check":
		s.handleCheckMatch(w, r, matchID, viewer)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request, matchID uint, viewer *Player) {
	var view map[string]any
	err := s.store.WithMatch(matchID, func(match *game.Match) error {
		view = matchView(match, viewer.ID)
		return nil
	})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request, matchID uint, viewer *Player, accept bool) {
	now := timeNowUTC()
	view, deleted, err := s.mutateMatch(matchID, viewer.ID, now, func(match *game.Match) error {
		return match.Respond(viewer.ID, accept, now)
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	logger.Log.Infow("invitation response", "match", matchID, "player", viewer.ID, "accepted", accept)
	if deleted {
		// A decline dissolves the whole match.
		writeJSON(w, http.StatusOK, map[string]any{
			"match_id": matchID,
			"status":   game.MatchDelete,
		})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmitImage(w http.ResponseWriter, r *http.Request, matchID uint, viewer *Player, roundNumber int) {
	var req submitImageRequest
	if err := readJSON(r.Body, &req); err != nil || req.Image == 0 {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	image, err := s.getImage(req.Image)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if image.Owner != viewer.ID && !imagePubliclyAvailable(image) {
		writeError(w, http.StatusForbidden, "image not available")
		return
	}

	now := timeNowUTC()
	view, deleted, err := s.mutateMatch(matchID, viewer.ID, now, func(match *game.Match) error {
		return match.SubmitImage(roundNumber, viewer.ID, req.Image, req.Story, now)
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	logger.Log.Infow("image submitted", "match", matchID, "round", roundNumber, "player", viewer.ID)
	writeMatchResult(w, matchID, view, deleted)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request, matchID uint, viewer *Player, roundNumber int) {
	var req submitVoteRequest
	if err := readJSON(r.Body, &req); err != nil || req.Image == 0 {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	now := timeNowUTC()
	view, deleted, err := s.mutateMatch(matchID, viewer.ID, now, func(match *game.Match) error {
		return match.SubmitVote(roundNumber, viewer.ID, req.Image, now)
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	logger.Log.Infow("vote submitted", "match", matchID, "round", roundNumber, "player", viewer.ID)
	writeMatchResult(w, matchID, view, deleted)
}

func (s *Server) handleRoundImages(w http.ResponseWriter, r *http.Request, matchID uint, viewer *Player, roundNumber int) {
	var payload map[string]any
	err := s.store.WithMatch(matchID, func(match *game.Match) error {
		if roundNumber < 1 || roundNumber > len(match.Rounds) {
			return game.ErrRoundNotFound
		}
		round := match.Rounds[roundNumber-1]
		payload = map[string]any{
			"match_id": match.ID,
			"round":    round.Number,
			"status":   round.Status,
			"story":    round.Story,
			"images":   roundImages(round, viewer.ID),
		}
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleCheckMatch forces a recompute of one match, the same unit of work
// the periodic sweep applies.
func (s *Server) handleCheckMatch(w http.ResponseWriter, r *http.Request, matchID uint, viewer *Player) {
	view, deleted, err := s.mutateMatch(matchID, viewer.ID, timeNowUTC(), nil)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeMatchResult(w, matchID, view, deleted)
}

// writeMatchResult answers a mutation with the caller's view, or the
// terminal delete marker when the match dissolved.
func writeMatchResult(w http.ResponseWriter, matchID uint, view map[string]any, deleted bool) {
	if deleted {
		writeJSON(w, http.StatusOK, map[string]any{
			"match_id": matchID,
			"status":   game.MatchDelete,
		})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleChecks sweeps every live match; wired to a cron-style caller.
func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	checked, deleted := s.RunSweep(timeNowUTC())
	writeJSON(w, http.StatusOK, map[string]any{
		"checked": checked,
		"deleted": deleted,
	})
}
