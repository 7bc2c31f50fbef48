package game

// Scoring constants. The scheme rewards the storyteller for a story of
// medium ambiguity (a split vote), rewards truth-finders more when the
// story was hard, and rewards players whose decoy image fooled other
// voters.
const (
	DeceivedVoteScore    = 1
	MaxDeceivedVoteScore = 3

	AllCorrectScore            = 2
	AllCorrectStorytellerScore = 0

	AllWrongScore            = 2
	AllWrongStorytellerScore = 0

	NotAllCorrectOrWrongScore            = 3
	NotAllCorrectOrWrongStorytellerScore = 3

	NoStoryScore            = 3
	NoStoryStorytellerScore = 0
)

// Score computes this round's per-player point deltas and writes them onto
// each participation. A round that is not finished scores all zeros. The
// result fully replaces earlier scores, so rescoring a round any number of
// times is safe.
func (r *Round) Score() map[uint]int {
	scores := make(map[uint]int, len(r.Participations))
	for player := range r.Participations {
		scores[player] = 0
	}

	if r.Status != RoundFinished {
		return scores
	}

	// Round closed before the storyteller completed submission: everyone
	// but the storyteller gets the consolation score.
	if r.Story == "" || r.Participations[r.Storyteller].Image == 0 {
		for player, participation := range r.Participations {
			if participation.IsStoryteller {
				participation.Score = NoStoryStorytellerScore
			} else {
				participation.Score = NoStoryScore
			}
			scores[player] = participation.Score
		}
		return scores
	}

	// Deception bonus first. Voters are walked in ascending player id so
	// the per-recipient cap is deterministic.
	voters := sortedPlayerIDs(r.Participations)
	for _, player := range voters {
		participation := r.Participations[player]
		if participation.IsStoryteller {
			continue
		}
		target := participation.VotePlayer
		if target != 0 && target != r.Storyteller && scores[target] < MaxDeceivedVoteScore {
			scores[target] += DeceivedVoteScore
		}
	}

	allCorrect := true
	allWrong := true
	for _, player := range voters {
		participation := r.Participations[player]
		if participation.IsStoryteller {
			continue
		}
		if participation.VotePlayer == r.Storyteller {
			allWrong = false
		} else {
			allCorrect = false
		}
	}

	switch {
	case allCorrect:
		scores[r.Storyteller] += AllCorrectStorytellerScore
		for _, player := range voters {
			if player != r.Storyteller {
				scores[player] += AllCorrectScore
			}
		}
	case allWrong:
		scores[r.Storyteller] += AllWrongStorytellerScore
		for _, player := range voters {
			if player != r.Storyteller && r.Participations[player].Vote != 0 {
				scores[player] += AllWrongScore
			}
		}
	default:
		scores[r.Storyteller] += NotAllCorrectOrWrongStorytellerScore
		for _, player := range voters {
			if player != r.Storyteller && r.Participations[player].VotePlayer == r.Storyteller {
				scores[player] += NotAllCorrectOrWrongScore
			}
		}
	}

	for player, participation := range r.Participations {
		participation.Score = scores[player]
	}
	return scores
}
