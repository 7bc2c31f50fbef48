package server

import (
	"encoding/json"
	"time"

	"github.com/MarkusShepherd/diris-server/internal/db"
	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"

	"gorm.io/gorm"
)

// Restore loads players, live matches and chat history from the database
// into the store. Finished and deleted matches stay out of memory; image
// bytes are loaded lazily on first request.
func (s *Server) Restore() error {
	if s.db == nil {
		return nil
	}

	var players []db.Player
	if err := s.db.Order("id asc").Find(&players).Error; err != nil {
		return err
	}
	for i := range players {
		record := &players[i]
		avatar := uint(0)
		if record.AvatarID != nil {
			avatar = *record.AvatarID
		}
		_ = s.store.AddPlayer(&Player{
			ID:           record.ID,
			Name:         record.Name,
			AuthToken:    record.AuthToken,
			AvatarID:     avatar,
			PushToken:    record.PushToken,
			TotalMatches: record.TotalMatches,
		})
	}

	var matches []db.Match
	err := s.db.
		Where("status IN ?", []string{game.MatchWaiting, game.MatchInProgress}).
		Preload("Invitations", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("Rounds", func(tx *gorm.DB) *gorm.DB { return tx.Order("number asc") }).
		Preload("Rounds.Participations").
		Order("id asc").
		Find(&matches).Error
	if err != nil {
		return err
	}
	restored := 0
	for i := range matches {
		match := matchFromRecord(&matches[i])
		if err := s.store.AddMatch(match); err != nil {
			logger.Log.Warnw("match restore skipped", "match", matches[i].ID, "error", err)
			continue
		}
		// AddMatch bumps the in-memory counters, but the database rows
		// already carry the final numbers: put them back.
		for _, player := range match.Players {
			_, _ = s.store.UpdatePlayer(player, func(p *Player) error {
				p.TotalMatches--
				return nil
			})
		}
		restored++
	}

	var chats []db.ChatGroup
	if err := s.db.Order("group_id asc, sequence asc").Find(&chats).Error; err != nil {
		return err
	}
	for i := range chats {
		record := &chats[i]
		var messages []ChatMessage
		if err := json.Unmarshal(record.Messages, &messages); err != nil {
			logger.Log.Warnw("chat restore skipped", "group", record.GroupID, "error", err)
			continue
		}
		// Rows are ordered by sequence, so the last row per group wins.
		s.store.RestoreChat(record.GroupID, record.Sequence, messages)
	}

	logger.Log.Infow("state restored", "players", len(players), "matches", restored)
	return nil
}

func matchFromRecord(record *db.Match) *game.Match {
	players := make([]uint, 0, len(record.Invitations))
	invitations := make(map[uint]*game.MatchInvitation, len(record.Invitations))
	for i := range record.Invitations {
		row := &record.Invitations[i]
		players = append(players, row.PlayerID)
		invitations[row.PlayerID] = &game.MatchInvitation{
			Player:           row.PlayerID,
			IsInvitingPlayer: row.IsInvitingPlayer,
			Status:           row.Status,
			DateInvited:      row.DateInvited,
			DateResponded:    row.DateResponded,
			Score:            row.Score,
			NotificationSent: row.NotificationSent,
		}
	}

	images := make(map[uint]struct{})
	rounds := make([]*game.Round, 0, len(record.Rounds))
	for i := range record.Rounds {
		row := &record.Rounds[i]
		participations := make(map[uint]*game.RoundParticipation, len(row.Participations))
		for j := range row.Participations {
			p := &row.Participations[j]
			participation := &game.RoundParticipation{
				Player:                   p.PlayerID,
				IsStoryteller:            p.IsStoryteller,
				Image:                    idValue(p.ImageID),
				Score:                    p.Score,
				Vote:                     idValue(p.VoteImageID),
				VotePlayer:               idValue(p.VotePlayerID),
				NotificationImageSent:    p.NotificationImageSent,
				NotificationVoteSent:     p.NotificationVoteSent,
				NotificationFinishedSent: p.NotificationFinishedSent,
			}
			if participation.Image != 0 {
				images[participation.Image] = struct{}{}
			}
			participations[p.PlayerID] = participation
		}
		rounds = append(rounds, &game.Round{
			Number:         row.Number,
			Storyteller:    row.StorytellerID,
			Participations: participations,
			IsCurrentRound: row.IsCurrentRound,
			Status:         row.Status,
			Story:          row.Story,
			DeadlineStory:  row.DeadlineStory,
			DeadlineOthers: row.DeadlineOthers,
			DeadlineVotes:  row.DeadlineVotes,
		})
	}

	return &game.Match{
		ID:               record.ID,
		Players:          players,
		InvitingPlayer:   record.InvitingPlayerID,
		GroupID:          record.GroupID,
		Invitations:      invitations,
		Rounds:           rounds,
		TotalRounds:      record.TotalRounds,
		CurrentRound:     record.CurrentRound,
		Images:           images,
		Status:           record.Status,
		Timeout:          time.Duration(record.TimeoutSeconds) * time.Second,
		DeadlineResponse: record.DeadlineResponse,
		DeadlineAction:   record.DeadlineAction,
		Created:          record.CreatedAt,
		LastModified:     record.UpdatedAt,
		Finished:         record.Finished,
	}
}

func idValue(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
