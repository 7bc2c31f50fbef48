package game

import (
	"strconv"
	"time"
)

// Notifier pushes a message to a set of players. Implementations report
// whether delivery was acknowledged; only then is the corresponding
// sent stamp recorded, so an unacknowledged send is retried on the next
// status recompute.
type Notifier interface {
	Send(players []uint, title, message string, data map[string]string) bool
}

// SendNotifications pushes whatever the current state calls for: pending
// invitations while waiting, otherwise the per-round prompts. Marking is
// at-most-once per player and notification type.
func (m *Match) SendNotifications(n Notifier, now time.Time) {
	if n == nil {
		return
	}

	if m.Status == MatchWaiting {
		var pending []uint
		for _, player := range m.Players {
			if m.Invitations[player].NotificationSent == nil {
				pending = append(pending, player)
			}
		}
		if len(pending) == 0 {
			return
		}
		ok := n.Send(pending, "New invitation",
			"You got an invitation to a new match. Do you want to accept it?",
			m.notificationData())
		if ok {
			for _, player := range pending {
				sent := now
				m.Invitations[player].NotificationSent = &sent
			}
		}
		return
	}

	for _, round := range m.Rounds {
		round.sendNotifications(m, n, now)
	}
}

func (r *Round) sendNotifications(m *Match, n Notifier, now time.Time) {
	data := m.notificationData()
	data["round"] = strconv.Itoa(r.Number)

	switch r.Status {
	case RoundSubmitStory:
		storyteller := r.Participations[r.Storyteller]
		if storyteller.NotificationImageSent != nil {
			return
		}
		if n.Send([]uint{r.Storyteller}, "Tell your story!",
			"A new round has started - tell us your story", data) {
			sent := now
			storyteller.NotificationImageSent = &sent
		}

	case RoundSubmitOthers:
		var pending []uint
		for _, player := range m.Players {
			participation := r.Participations[player]
			if !participation.IsStoryteller && participation.NotificationImageSent == nil {
				pending = append(pending, player)
			}
		}
		if len(pending) == 0 {
			return
		}
		if n.Send(pending, "Submit your image!",
			"The storyteller has told their story, now find an image that fits", data) {
			for _, player := range pending {
				sent := now
				r.Participations[player].NotificationImageSent = &sent
			}
		}

	case RoundSubmitVotes:
		var pending []uint
		for _, player := range m.Players {
			participation := r.Participations[player]
			if !participation.IsStoryteller && participation.NotificationVoteSent == nil {
				pending = append(pending, player)
			}
		}
		if len(pending) == 0 {
			return
		}
		if n.Send(pending, "Vote for the right image!",
			"Everybody has submitted their image, now find the one that fits the story", data) {
			for _, player := range pending {
				sent := now
				r.Participations[player].NotificationVoteSent = &sent
			}
		}

	case RoundFinished:
		var pending []uint
		for _, player := range m.Players {
			if r.Participations[player].NotificationFinishedSent == nil {
				pending = append(pending, player)
			}
		}
		if len(pending) == 0 {
			return
		}
		title := "The round has finished"
		message := "Everybody has submitted their votes, now check out the scores!"
		if m.Status == MatchFinished {
			title = "The match has finished"
			message = "The last round has finished - check out the votes and the final scores!"
		}
		if n.Send(pending, title, message, data) {
			for _, player := range pending {
				sent := now
				r.Participations[player].NotificationFinishedSent = &sent
			}
		}
	}
}

func (m *Match) notificationData() map[string]string {
	return map[string]string{
		"match": strconv.FormatUint(uint64(m.ID), 10),
	}
}
