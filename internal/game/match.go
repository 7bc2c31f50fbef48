package game

import (
	"math/rand"
	"time"
)

// Match statuses. A match is a pure function of its invitation and round
// statuses; CheckStatus recomputes it from scratch on every call.
const (
	MatchWaiting    = "waiting"
	MatchInProgress = "in-progress"
	MatchFinished   = "finished"
	MatchDelete     = "delete"
)

// Invitation statuses.
const (
	InvitationInvited  = "invited"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

const (
	MinimumPlayers  = 4
	MaximumPlayers  = 10
	StandardTimeout = 36 * time.Hour
)

// MatchInvitation tracks one player's response to a match invitation and
// their aggregate score. Immutable once declined or once the match leaves
// the waiting state.
type MatchInvitation struct {
	Player           uint
	IsInvitingPlayer bool
	Status           string
	DateInvited      time.Time
	DateResponded    *time.Time
	Score            int
	NotificationSent *time.Time
}

// Match is the aggregate root: the ordered player list, one invitation per
// player and the full sequence of rounds. Derived fields (status, current
// round, images used, deadlines) are overwritten wholesale by CheckStatus,
// Score and UpdateDeadlines rather than patched incrementally.
type Match struct {
	ID             uint
	Players        []uint
	InvitingPlayer uint
	GroupID        int64
	Invitations    map[uint]*MatchInvitation
	Rounds         []*Round
	TotalRounds    int
	CurrentRound   int
	Images         map[uint]struct{}
	Status         string
	Timeout        time.Duration

	DeadlineResponse *time.Time
	DeadlineAction   *time.Time
	Created          time.Time
	LastModified     time.Time
	Finished         *time.Time
}

// MatchOptions are the optional knobs for NewMatch.
type MatchOptions struct {
	InvitingPlayer uint
	TotalRounds    int
	Timeout        time.Duration
}

// NewMatch builds a match for the given players. The inviting player is
// auto-accepted; everyone else starts invited. Storytellers are assigned by
// shuffling a copy of the player list once, so with the default round count
// every player tells a story exactly once.
func NewMatch(players []uint, opts MatchOptions, now time.Time) (*Match, error) {
	players = ClearList(players)

	if opts.InvitingPlayer != 0 && !containsPlayer(players, opts.InvitingPlayer) {
		players = append([]uint{opts.InvitingPlayer}, players...)
	}

	if len(players) < MinimumPlayers || len(players) > MaximumPlayers {
		return nil, ErrInvalidMatchSize
	}

	inviting := opts.InvitingPlayer
	if inviting == 0 {
		inviting = players[0]
	}

	invitations := make(map[uint]*MatchInvitation, len(players))
	for _, player := range players {
		invitation := &MatchInvitation{
			Player:      player,
			Status:      InvitationInvited,
			DateInvited: now,
		}
		if player == inviting {
			responded := now
			sent := now
			invitation.IsInvitingPlayer = true
			invitation.Status = InvitationAccepted
			invitation.DateResponded = &responded
			invitation.NotificationSent = &sent
		}
		invitations[player] = invitation
	}

	totalRounds := opts.TotalRounds
	if totalRounds <= 0 {
		totalRounds = len(players)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = StandardTimeout
	}

	storytellers := make([]uint, len(players))
	copy(storytellers, players)
	rand.Shuffle(len(storytellers), func(i, j int) {
		storytellers[i], storytellers[j] = storytellers[j], storytellers[i]
	})

	rounds := make([]*Round, totalRounds)
	for i := range rounds {
		storyteller := storytellers[i%len(storytellers)]
		participations := make(map[uint]*RoundParticipation, len(players))
		for _, player := range players {
			participation := &RoundParticipation{
				Player:        player,
				IsStoryteller: player == storyteller,
			}
			if participation.IsStoryteller {
				sent := now
				participation.NotificationVoteSent = &sent
			}
			participations[player] = participation
		}
		rounds[i] = &Round{
			Number:         i + 1,
			Storyteller:    storyteller,
			Participations: participations,
			IsCurrentRound: i == 0,
			Status:         RoundWaiting,
		}
	}

	return &Match{
		Players:        players,
		InvitingPlayer: inviting,
		GroupID:        GroupID(players),
		Invitations:    invitations,
		Rounds:         rounds,
		TotalRounds:    totalRounds,
		CurrentRound:   1,
		Images:         make(map[uint]struct{}),
		Status:         MatchWaiting,
		Timeout:        timeout,
		Created:        now,
		LastModified:   now,
	}, nil
}

// Respond records a player's invitation response. Responding twice, or after
// the response deadline auto-declined the invitation, fails.
func (m *Match) Respond(player uint, accept bool, now time.Time) error {
	m.CheckStatus(now)

	invitation, ok := m.Invitations[player]
	if !ok {
		return ErrNotInMatch
	}
	if m.Status != MatchWaiting || invitation.Status != InvitationInvited {
		return ErrInvitationResolved
	}

	responded := now
	invitation.DateResponded = &responded
	if accept {
		invitation.Status = InvitationAccepted
	} else {
		invitation.Status = InvitationDeclined
	}

	m.CheckStatus(now)
	return nil
}

// CheckStatus recomputes the match status, the images-used set, every
// round's status and the current round number from the stored facts. It is
// idempotent and safe to call repeatedly; expired deadlines are enforced
// here rather than by timers.
func (m *Match) CheckStatus(now time.Time) {
	if m.anyDeclined() {
		m.Status = MatchDelete
		return
	}

	m.Status = MatchInProgress
	for _, player := range m.Players {
		if m.Invitations[player].Status != InvitationAccepted {
			m.Status = MatchWaiting
			break
		}
	}

	if m.Status == MatchWaiting && m.DeadlineResponse != nil && now.After(*m.DeadlineResponse) {
		for _, player := range m.Players {
			invitation := m.Invitations[player]
			if invitation.Status == InvitationInvited {
				responded := now
				invitation.Status = InvitationDeclined
				invitation.DateResponded = &responded
			}
		}
		if m.anyDeclined() {
			m.Status = MatchDelete
			return
		}
	}

	m.Images = make(map[uint]struct{})
	currentFound := false

	var prev *Round
	for _, round := range m.Rounds {
		round.checkStatus(m, prev, now)
		if round.IsCurrentRound {
			m.CurrentRound = round.Number
			currentFound = true
		}
		for _, player := range m.Players {
			if image := round.Participations[player].Image; image != 0 {
				m.Images[image] = struct{}{}
			}
		}
		prev = round
	}

	if prev != nil && prev.Status == RoundFinished {
		m.Status = MatchFinished
		if m.Finished == nil {
			finished := now
			m.Finished = &finished
		}
	}

	if !currentFound {
		if m.Status == MatchFinished {
			m.CurrentRound = m.TotalRounds
		} else {
			m.CurrentRound = 1
		}
	}
}

func (m *Match) anyDeclined() bool {
	for _, player := range m.Players {
		if m.Invitations[player].Status == InvitationDeclined {
			return true
		}
	}
	return false
}

// SubmitImage records an image (and, for the storyteller, the story) for
// the given round. See Round.submitImage for the phase rules.
func (m *Match) SubmitImage(roundNumber int, player, image uint, story string, now time.Time) error {
	round, err := m.round(roundNumber)
	if err != nil {
		return err
	}
	return round.submitImage(m, player, image, story, now)
}

// SubmitVote records a non-storyteller's vote for the given round.
func (m *Match) SubmitVote(roundNumber int, player, image uint, now time.Time) error {
	round, err := m.round(roundNumber)
	if err != nil {
		return err
	}
	return round.submitVote(m, player, image, now)
}

func (m *Match) round(number int) (*Round, error) {
	if number < 1 || number > len(m.Rounds) {
		return nil, ErrRoundNotFound
	}
	return m.Rounds[number-1], nil
}

// Score recomputes every round's scores and sums them into each invitation.
// The per-player totals are overwritten, never accumulated.
func (m *Match) Score() map[uint]int {
	totals := make(map[uint]int, len(m.Players))
	for _, player := range m.Players {
		totals[player] = 0
	}

	for _, round := range m.Rounds {
		for player, score := range round.Score() {
			totals[player] += score
		}
	}

	for _, player := range m.Players {
		m.Invitations[player].Score = totals[player]
	}
	return totals
}

// UpdateDeadlines sets the response deadline while waiting and the
// per-phase round deadlines once in progress. A deadline is only set the
// first time its phase is entered. DeadlineAction mirrors whichever
// deadline currently gates progress; it drives the match list ordering and
// the periodic sweep.
func (m *Match) UpdateDeadlines(now time.Time) {
	if m.Status == MatchWaiting {
		if m.DeadlineResponse == nil {
			deadline := now.Add(m.Timeout)
			m.DeadlineResponse = &deadline
		}
		m.DeadlineAction = m.DeadlineResponse
		return
	}

	for _, round := range m.Rounds {
		round.updateDeadlines(m.Timeout, now)
	}

	m.DeadlineAction = nil
	if m.Status == MatchInProgress {
		if round, err := m.round(m.CurrentRound); err == nil {
			m.DeadlineAction = round.currentDeadline()
		}
	}
}

func containsPlayer(players []uint, player uint) bool {
	for _, p := range players {
		if p == player {
			return true
		}
	}
	return false
}
