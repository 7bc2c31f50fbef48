package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkusShepherd/diris-server/internal/db"
	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// persistMatch writes a freshly created match. The database row id becomes
// the match id, replacing the store's provisional one.
func (s *Server) persistMatch(match *game.Match) error {
	if s.db == nil {
		return nil
	}
	record := matchRecord(match)
	record.ID = 0
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	s.store.UpdateMatchID(match, record.ID)
	if err := s.saveMatch(match); err != nil {
		return err
	}
	if err := s.db.Model(&db.Player{}).Where("id IN ?", match.Players).
		UpdateColumn("total_matches", gorm.Expr("total_matches + 1")).Error; err != nil {
		return err
	}
	return s.persistEvent(&match.ID, &match.InvitingPlayer, "match_created", map[string]any{
		"players": match.Players,
		"rounds":  match.TotalRounds,
	})
}

// saveMatch overwrites the database copy of the aggregate: the match row
// is upserted and every nested row recreated from the in-memory state.
// Writing wholesale keeps the mapping trivial and makes saves idempotent.
func (s *Server) saveMatch(match *game.Match) error {
	if s.db == nil {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		record := matchRecord(match)
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		if err := deleteMatchRows(tx, match.ID); err != nil {
			return err
		}
		for _, player := range match.Players {
			invitation := match.Invitations[player]
			row := db.MatchInvitation{
				MatchID:          match.ID,
				PlayerID:         invitation.Player,
				IsInvitingPlayer: invitation.IsInvitingPlayer,
				Status:           invitation.Status,
				DateInvited:      invitation.DateInvited,
				DateResponded:    invitation.DateResponded,
				Score:            invitation.Score,
				NotificationSent: invitation.NotificationSent,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, round := range match.Rounds {
			roundRow := db.Round{
				MatchID:        match.ID,
				Number:         round.Number,
				StorytellerID:  round.Storyteller,
				Status:         round.Status,
				Story:          round.Story,
				IsCurrentRound: round.IsCurrentRound,
				DeadlineStory:  round.DeadlineStory,
				DeadlineOthers: round.DeadlineOthers,
				DeadlineVotes:  round.DeadlineVotes,
			}
			if err := tx.Create(&roundRow).Error; err != nil {
				return err
			}
			for _, player := range match.Players {
				participation := round.Participations[player]
				row := db.RoundParticipation{
					RoundID:                  roundRow.ID,
					PlayerID:                 participation.Player,
					IsStoryteller:            participation.IsStoryteller,
					ImageID:                  idPtr(participation.Image),
					Score:                    participation.Score,
					VoteImageID:              idPtr(participation.Vote),
					VotePlayerID:             idPtr(participation.VotePlayer),
					NotificationImageSent:    participation.NotificationImageSent,
					NotificationVoteSent:     participation.NotificationVoteSent,
					NotificationFinishedSent: participation.NotificationFinishedSent,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// deleteMatch removes the aggregate and gives every player their match
// count back.
func (s *Server) deleteMatch(match *game.Match) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteMatchRows(tx, match.ID); err != nil {
			return err
		}
		if err := tx.Delete(&db.Match{}, match.ID).Error; err != nil {
			return err
		}
		return tx.Model(&db.Player{}).
			Where("id IN ? AND total_matches > 0", match.Players).
			UpdateColumn("total_matches", gorm.Expr("total_matches - 1")).Error
	})
	if err != nil {
		return err
	}
	return s.persistEvent(nil, nil, "match_deleted", map[string]any{
		"match":   match.ID,
		"players": match.Players,
	})
}

func deleteMatchRows(tx *gorm.DB, matchID uint) error {
	roundIDs := tx.Model(&db.Round{}).Select("id").Where("match_id = ?", matchID)
	if err := tx.Where("round_id IN (?)", roundIDs).Delete(&db.RoundParticipation{}).Error; err != nil {
		return err
	}
	if err := tx.Where("match_id = ?", matchID).Delete(&db.Round{}).Error; err != nil {
		return err
	}
	return tx.Where("match_id = ?", matchID).Delete(&db.MatchInvitation{}).Error
}

func (s *Server) persistPlayer(player *Player) error {
	if s.db == nil {
		return nil
	}
	record := db.Player{
		Name:      player.Name,
		AuthToken: player.AuthToken,
		AvatarID:  idPtr(player.AvatarID),
		PushToken: player.PushToken,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	player.ID = record.ID
	return s.persistEvent(nil, &player.ID, "player_registered", map[string]any{
		"name": player.Name,
	})
}

func (s *Server) persistPlayerUpdate(player *Player) error {
	if s.db == nil {
		return nil
	}
	return s.db.Model(&db.Player{}).Where("id = ?", player.ID).Updates(map[string]any{
		"avatar_id":  idPtr(player.AvatarID),
		"push_token": player.PushToken,
	}).Error
}

func (s *Server) persistImage(image *Image) error {
	if s.db == nil {
		return nil
	}
	record := db.Image{
		Data:        image.Data,
		Width:       image.Width,
		Height:      image.Height,
		Size:        image.Size,
		OwnerID:     idPtr(image.Owner),
		Copyright:   image.Copyright,
		RandomOrder: image.RandomOrder,
	}
	if image.Info != nil {
		info, err := json.Marshal(image.Info)
		if err != nil {
			return err
		}
		record.Info = datatypes.JSON(info)
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	image.ID = record.ID
	return nil
}

func (s *Server) persistChat(groupID int64, sequence int, messages []ChatMessage) error {
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	var record db.ChatGroup
	err = s.db.Where("group_id = ? AND sequence = ?", groupID, sequence).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = db.ChatGroup{GroupID: groupID, Sequence: sequence}
	} else if err != nil {
		return err
	}
	record.Messages = datatypes.JSON(data)
	return s.db.Save(&record).Error
}

func (s *Server) persistEvent(matchID, playerID *uint, eventType string, payload map[string]any) error {
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		MatchID:  matchID,
		PlayerID: playerID,
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	if err := s.db.Create(&event).Error; err != nil {
		logger.Log.Warnw("event write failed", "type", eventType, "error", err)
		return err
	}
	return nil
}

func matchRecord(match *game.Match) db.Match {
	return db.Match{
		ID:               match.ID,
		GroupID:          match.GroupID,
		InvitingPlayerID: match.InvitingPlayer,
		Status:           match.Status,
		TimeoutSeconds:   int(match.Timeout / time.Second),
		TotalRounds:      match.TotalRounds,
		CurrentRound:     match.CurrentRound,
		DeadlineResponse: match.DeadlineResponse,
		DeadlineAction:   match.DeadlineAction,
		Finished:         match.Finished,
		CreatedAt:        match.Created,
		UpdatedAt:        match.LastModified,
	}
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	value := id
	return &value
}
