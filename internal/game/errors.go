package game

import "errors"

// Rule violations returned by match and round operations. All of them are
// caller mistakes, not system failures; the HTTP layer maps them to 4xx
// responses.
var (
	ErrInvalidMatchSize      = errors.New("player count outside the allowed range")
	ErrDuplicateMatch        = errors.New("match with these players already in progress")
	ErrInvitationResolved    = errors.New("player already responded to this invitation")
	ErrNotInMatch            = errors.New("player does not participate in this match")
	ErrMissingInput          = errors.New("player and image are required")
	ErrNotReady              = errors.New("not ready for submission")
	ErrAlreadySubmitted      = errors.New("image already submitted")
	ErrAlreadyVoted          = errors.New("vote already submitted")
	ErrStorytellerCannotVote = errors.New("storyteller cannot vote")
	ErrSelfVote              = errors.New("players cannot vote for themselves")
	ErrImageNotFound         = errors.New("image not found in this round")
	ErrStoryRejected         = errors.New("story failed validation")
	ErrRoundNotFound         = errors.New("round not found in this match")
)
