package server

import (
	"sort"
	"time"

	"github.com/MarkusShepherd/diris-server/internal/game"
)

// matchView renders the aggregate as the given viewer is allowed to see
// it. Unrevealed images and votes are reduced to submitted booleans; the
// round image list stays nil until voting opens.
func matchView(m *game.Match, viewer uint) map[string]any {
	invitations := make([]map[string]any, 0, len(m.Players))
	for _, player := range m.Players {
		invitations = append(invitations, invitationView(m.Invitations[player]))
	}
	rounds := make([]map[string]any, 0, len(m.Rounds))
	for _, round := range m.Rounds {
		rounds = append(rounds, roundView(m, round, viewer))
	}
	return map[string]any{
		"match_id":          m.ID,
		"players":           m.Players,
		"inviting_player":   m.InvitingPlayer,
		"status":            m.Status,
		"total_rounds":      m.TotalRounds,
		"current_round":     m.CurrentRound,
		"timeout_seconds":   int(m.Timeout / time.Second),
		"deadline_response": m.DeadlineResponse,
		"deadline_action":   m.DeadlineAction,
		"created":           m.Created,
		"last_modified":     m.LastModified,
		"finished":          m.Finished,
		"invitations":       invitations,
		"rounds":            rounds,
	}
}

func invitationView(invitation *game.MatchInvitation) map[string]any {
	return map[string]any{
		"player":             invitation.Player,
		"is_inviting_player": invitation.IsInvitingPlayer,
		"status":             invitation.Status,
		"date_invited":       invitation.DateInvited,
		"date_responded":     invitation.DateResponded,
		"score":              invitation.Score,
	}
}

func roundView(m *game.Match, r *game.Round, viewer uint) map[string]any {
	participations := make([]map[string]any, 0, len(m.Players))
	for _, player := range m.Players {
		participations = append(participations, participationView(r, r.Participations[player], viewer))
	}
	return map[string]any{
		"number":           r.Number,
		"storyteller":      r.Storyteller,
		"status":           r.Status,
		"is_current_round": r.IsCurrentRound,
		"story":            r.Story,
		"deadline_story":   r.DeadlineStory,
		"deadline_others":  r.DeadlineOthers,
		"deadline_votes":   r.DeadlineVotes,
		"images":           roundImages(r, viewer),
		"participations":   participations,
	}
}

func participationView(r *game.Round, p *game.RoundParticipation, viewer uint) map[string]any {
	view := map[string]any{
		"player":         p.Player,
		"is_storyteller": p.IsStoryteller,
		"score":          p.Score,
	}
	if r.DisplayVoteTo(p, viewer) {
		view["image"] = idOrNil(p.Image)
		view["vote"] = idOrNil(p.Vote)
		view["vote_player"] = idOrNil(p.VotePlayer)
	} else {
		view["image_submitted"] = p.Image != 0
		view["vote_submitted"] = p.Vote != 0
	}
	return view
}

// roundImages lists the round's submitted images in ascending id order, so
// nothing about submission order or ownership leaks during voting.
func roundImages(r *game.Round, viewer uint) []uint {
	if !r.DisplayImagesTo(viewer) {
		return nil
	}
	images := make([]uint, 0, len(r.Participations))
	for _, participation := range r.Participations {
		if participation.Image != 0 {
			images = append(images, participation.Image)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i] < images[j] })
	return images
}

// matchSummaryView is the list-endpoint rendering: enough to sort and pick
// a match, nothing round-level.
func matchSummaryView(m *game.Match) map[string]any {
	return map[string]any{
		"match_id":        m.ID,
		"players":         m.Players,
		"inviting_player": m.InvitingPlayer,
		"status":          m.Status,
		"total_rounds":    m.TotalRounds,
		"current_round":   m.CurrentRound,
		"deadline_action": m.DeadlineAction,
		"last_modified":   m.LastModified,
	}
}

func playerView(player *Player) map[string]any {
	return map[string]any{
		"player_id":     player.ID,
		"name":          player.Name,
		"avatar":        idOrNil(player.AvatarID),
		"total_matches": player.TotalMatches,
	}
}

func idOrNil(id uint) any {
	if id == 0 {
		return nil
	}
	return id
}
