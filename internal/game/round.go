package game

import "time"

// Round phases, in strict order. A round never regresses: checkStatus picks
// the furthest phase the recorded submissions (or expired deadlines)
// justify.
const (
	RoundWaiting      = "waiting"
	RoundSubmitStory  = "submit-story"
	RoundSubmitOthers = "submit-others"
	RoundSubmitVotes  = "submit-votes"
	RoundFinished     = "finished"
)

// RoundParticipation is one player's record for one round: their submitted
// image, their vote and the resolved vote target, plus the stamps marking
// which notifications were already delivered. Score is overwritten each
// time scoring runs.
type RoundParticipation struct {
	Player        uint
	IsStoryteller bool
	Image         uint
	Score         int
	Vote          uint
	VotePlayer    uint

	NotificationImageSent    *time.Time
	NotificationVoteSent     *time.Time
	NotificationFinishedSent *time.Time
}

// Round holds one round's storyteller, story, per-player participations and
// phase deadlines. Exactly one participation has IsStoryteller set.
type Round struct {
	Number         int
	Storyteller    uint
	Participations map[uint]*RoundParticipation
	IsCurrentRound bool
	Status         string
	Story          string

	DeadlineStory  *time.Time
	DeadlineOthers *time.Time
	DeadlineVotes  *time.Time
}

// checkStatus derives the round's phase from its submissions and deadlines.
// The rules are evaluated top-down; the first match wins. A story deadline
// expiring before the storyteller submitted closes the round early, which
// scoring treats as a no-story round.
func (r *Round) checkStatus(m *Match, prev *Round, now time.Time) {
	switch {
	case r.allVotesIn() || deadlinePassed(r.DeadlineVotes, now):
		r.Status = RoundFinished

	case r.allImagesIn() || deadlinePassed(r.DeadlineOthers, now):
		r.Status = RoundSubmitVotes

	case r.Participations[r.Storyteller].Image != 0 && r.Story != "":
		r.Status = RoundSubmitOthers

	case deadlinePassed(r.DeadlineStory, now):
		r.Status = RoundFinished

	case r.Number == 1:
		if m.Status == MatchInProgress {
			r.Status = RoundSubmitStory
		} else {
			r.Status = RoundWaiting
		}

	default:
		if prev != nil && prev.Status == RoundFinished {
			r.Status = RoundSubmitStory
		} else {
			r.Status = RoundWaiting
		}
	}

	r.IsCurrentRound = r.Status != RoundWaiting && r.Status != RoundFinished
}

func (r *Round) allVotesIn() bool {
	for player, participation := range r.Participations {
		if player == r.Storyteller {
			continue
		}
		if participation.Vote == 0 {
			return false
		}
	}
	return true
}

func (r *Round) allImagesIn() bool {
	for _, participation := range r.Participations {
		if participation.Image == 0 {
			return false
		}
	}
	return true
}

func deadlinePassed(deadline *time.Time, now time.Time) bool {
	return deadline != nil && now.After(*deadline)
}

// submitImage records a player's image for this round. The storyteller must
// also supply a valid story and may only submit during submit-story; other
// players may only submit during submit-others. The phase is recomputed
// before validating (so an expired deadline is enforced first) and again
// after the mutation (so the last needed submission advances the phase
// immediately).
func (r *Round) submitImage(m *Match, player, image uint, story string, now time.Time) error {
	if player == 0 || image == 0 {
		return ErrMissingInput
	}

	r.checkStatus(m, m.previous(r), now)

	participation, ok := r.Participations[player]
	if !ok {
		return ErrNotInMatch
	}

	if participation.IsStoryteller {
		if r.Status != RoundSubmitStory {
			return ErrNotReady
		}
		if participation.Image != 0 && r.Story != "" {
			return ErrAlreadySubmitted
		}
		validated, err := ValidateStory(story)
		if err != nil {
			return err
		}
		r.Story = validated
		r.Status = RoundSubmitOthers
	} else {
		if r.Status != RoundSubmitOthers {
			return ErrNotReady
		}
		if participation.Image != 0 {
			return ErrAlreadySubmitted
		}
	}

	participation.Image = image
	m.Images[image] = struct{}{}

	r.checkStatus(m, m.previous(r), now)
	return nil
}

// submitVote records a vote for one of the round's images. The voted-for
// player is resolved from the image; a missing or ambiguous owner means the
// image does not belong to this round.
func (r *Round) submitVote(m *Match, player, image uint, now time.Time) error {
	if player == 0 || image == 0 {
		return ErrMissingInput
	}

	r.checkStatus(m, m.previous(r), now)

	participation, ok := r.Participations[player]
	if !ok {
		return ErrNotInMatch
	}
	if participation.IsStoryteller {
		return ErrStorytellerCannotVote
	}
	if participation.Vote != 0 {
		return ErrAlreadyVoted
	}
	if r.Status != RoundSubmitVotes {
		return ErrNotReady
	}

	var owner uint
	owners := 0
	for _, other := range r.Participations {
		if other.Image == image {
			owner = other.Player
			owners++
		}
	}
	if owners != 1 {
		return ErrImageNotFound
	}
	if owner == player {
		return ErrSelfVote
	}

	participation.Vote = image
	participation.VotePlayer = owner

	r.checkStatus(m, m.previous(r), now)
	return nil
}

// previous returns the round before r, or nil for round 1.
func (m *Match) previous(r *Round) *Round {
	if r.Number < 2 || r.Number-2 >= len(m.Rounds) {
		return nil
	}
	return m.Rounds[r.Number-2]
}

func (r *Round) updateDeadlines(timeout time.Duration, now time.Time) {
	deadline := now.Add(timeout)
	switch r.Status {
	case RoundSubmitStory:
		if r.DeadlineStory == nil {
			r.DeadlineStory = &deadline
		}
	case RoundSubmitOthers:
		if r.DeadlineOthers == nil {
			r.DeadlineOthers = &deadline
		}
	case RoundSubmitVotes:
		if r.DeadlineVotes == nil {
			r.DeadlineVotes = &deadline
		}
	}
}

func (r *Round) currentDeadline() *time.Time {
	switch r.Status {
	case RoundSubmitStory:
		return r.DeadlineStory
	case RoundSubmitOthers:
		return r.DeadlineOthers
	case RoundSubmitVotes:
		return r.DeadlineVotes
	}
	return nil
}
