package game

// DisplayImagesTo reports whether the round's full image list may be shown
// to the viewer. Images stay hidden until voting opens, except to the
// storyteller, who submitted the seed image and may always see.
func (r *Round) DisplayImagesTo(viewer uint) bool {
	if r.Status == RoundSubmitVotes || r.Status == RoundFinished {
		return true
	}
	return viewer != 0 && viewer == r.Storyteller
}

// DisplayVoteTo reports whether a participation's image, vote and vote
// target may be revealed to the viewer. Everything is visible once the
// round is finished, and players always see their own record. While the
// round is open, only viewers who are the storyteller or have already voted
// may peek at others; everyone else gets presence-only booleans.
func (r *Round) DisplayVoteTo(p *RoundParticipation, viewer uint) bool {
	if r.Status == RoundFinished {
		return true
	}
	if viewer != 0 && viewer == p.Player {
		return true
	}
	if viewer == 0 {
		return false
	}
	own, ok := r.Participations[viewer]
	return ok && (own.IsStoryteller || own.Vote != 0)
}
