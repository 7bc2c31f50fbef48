package game

import (
	"errors"
	"testing"
	"time"
)

func newWaitingMatch(t *testing.T, players ...uint) *Match {
	t.Helper()
	if len(players) == 0 {
		players = []uint{1, 2, 3, 4}
	}
	match, err := NewMatch(players, MatchOptions{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewMatch failed: %v", err)
	}
	return match
}

func acceptAll(t *testing.T, match *Match) {
	t.Helper()
	now := time.Now().UTC()
	for _, player := range match.Players {
		if player == match.InvitingPlayer {
			continue
		}
		if err := match.Respond(player, true, now); err != nil {
			t.Fatalf("accept for player %d failed: %v", player, err)
		}
	}
}

func TestNewMatchDefaults(t *testing.T) {
	match := newWaitingMatch(t)

	if match.Status != MatchWaiting {
		t.Fatalf("expected status %q, got %q", MatchWaiting, match.Status)
	}
	if match.TotalRounds != len(match.Players) {
		t.Fatalf("expected %d rounds, got %d", len(match.Players), match.TotalRounds)
	}
	if match.CurrentRound != 1 {
		t.Fatalf("expected current round 1, got %d", match.CurrentRound)
	}
	if match.Timeout != StandardTimeout {
		t.Fatalf("expected standard timeout, got %v", match.Timeout)
	}
	if !match.Rounds[0].IsCurrentRound {
		t.Fatal("expected round 1 to be current")
	}
	for _, round := range match.Rounds[1:] {
		if round.IsCurrentRound {
			t.Fatalf("round %d should not be current", round.Number)
		}
	}
}

func TestNewMatchInvitations(t *testing.T) {
	match := newWaitingMatch(t)

	inviting := match.Invitations[match.InvitingPlayer]
	if inviting.Status != InvitationAccepted {
		t.Fatalf("inviting player should be accepted, got %q", inviting.Status)
	}
	if inviting.DateResponded == nil {
		t.Fatal("inviting player should have a response timestamp")
	}
	for _, player := range match.Players {
		if player == match.InvitingPlayer {
			continue
		}
		if match.Invitations[player].Status != InvitationInvited {
			t.Fatalf("player %d should be invited, got %q", player, match.Invitations[player].Status)
		}
	}
}

func TestNewMatchStorytellerRotation(t *testing.T) {
	match := newWaitingMatch(t, 1, 2, 3, 4, 5)

	seen := make(map[uint]int)
	for _, round := range match.Rounds {
		storytellers := 0
		for _, participation := range round.Participations {
			if participation.IsStoryteller {
				storytellers++
				if participation.Player != round.Storyteller {
					t.Fatalf("round %d storyteller flag on wrong player", round.Number)
				}
			}
		}
		if storytellers != 1 {
			t.Fatalf("round %d has %d storytellers", round.Number, storytellers)
		}
		seen[round.Storyteller]++
	}
	for _, player := range match.Players {
		if seen[player] != 1 {
			t.Fatalf("player %d is storyteller in %d rounds, expected 1", player, seen[player])
		}
	}
}

func TestNewMatchSizeBounds(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewMatch([]uint{1, 2, 3}, MatchOptions{}, now); !errors.Is(err, ErrInvalidMatchSize) {
		t.Fatalf("expected ErrInvalidMatchSize for 3 players, got %v", err)
	}

	big := make([]uint, 11)
	for i := range big {
		big[i] = uint(i + 1)
	}
	if _, err := NewMatch(big, MatchOptions{}, now); !errors.Is(err, ErrInvalidMatchSize) {
		t.Fatalf("expected ErrInvalidMatchSize for 11 players, got %v", err)
	}

	if _, err := NewMatch(big[:10], MatchOptions{}, now); err != nil {
		t.Fatalf("expected 10 players to be allowed, got %v", err)
	}
}

func TestNewMatchDeduplicatesPlayers(t *testing.T) {
	match := newWaitingMatch(t, 1, 2, 0, 2, 3, 4, 1)

	want := []uint{1, 2, 3, 4}
	if len(match.Players) != len(want) {
		t.Fatalf("expected %d players, got %d", len(want), len(match.Players))
	}
	for i, player := range want {
		if match.Players[i] != player {
			t.Fatalf("expected player %d at index %d, got %d", player, i, match.Players[i])
		}
	}
}

func TestNewMatchPrependsInvitingPlayer(t *testing.T) {
	match, err := NewMatch([]uint{2, 3, 4}, MatchOptions{InvitingPlayer: 9}, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewMatch failed: %v", err)
	}
	if match.Players[0] != 9 {
		t.Fatalf("expected inviting player first, got %d", match.Players[0])
	}
	if match.InvitingPlayer != 9 {
		t.Fatalf("expected inviting player 9, got %d", match.InvitingPlayer)
	}
}

func TestGroupIDIgnoresOrder(t *testing.T) {
	a := GroupID([]uint{4, 2, 3, 1})
	b := GroupID([]uint{1, 2, 3, 4})
	if a != b {
		t.Fatalf("group ids differ: %d vs %d", a, b)
	}
	c := GroupID([]uint{1, 2, 3, 5})
	if a == c {
		t.Fatal("different player sets should not collide")
	}
	if a < 0 {
		t.Fatalf("group id should be non-negative, got %d", a)
	}
}

func TestRespondAcceptAllStartsMatch(t *testing.T) {
	match := newWaitingMatch(t)
	acceptAll(t, match)

	if match.Status != MatchInProgress {
		t.Fatalf("expected status %q, got %q", MatchInProgress, match.Status)
	}
	if match.Rounds[0].Status != RoundSubmitStory {
		t.Fatalf("expected round 1 status %q, got %q", RoundSubmitStory, match.Rounds[0].Status)
	}
	if match.CurrentRound != 1 {
		t.Fatalf("expected current round 1, got %d", match.CurrentRound)
	}
}

func TestRespondTwiceFails(t *testing.T) {
	match := newWaitingMatch(t)
	now := time.Now().UTC()
	player := match.Players[1]

	if err := match.Respond(player, true, now); err != nil {
		t.Fatalf("first response failed: %v", err)
	}
	if err := match.Respond(player, true, now); !errors.Is(err, ErrInvitationResolved) {
		t.Fatalf("expected ErrInvitationResolved, got %v", err)
	}
}

func TestRespondUnknownPlayer(t *testing.T) {
	match := newWaitingMatch(t)
	if err := match.Respond(99, true, time.Now().UTC()); !errors.Is(err, ErrNotInMatch) {
		t.Fatalf("expected ErrNotInMatch, got %v", err)
	}
}

func TestDeclineMarksMatchForDeletion(t *testing.T) {
	for _, size := range []int{4, 6, 10} {
		players := make([]uint, size)
		for i := range players {
			players[i] = uint(i + 1)
		}
		match := newWaitingMatch(t, players...)

		if err := match.Respond(match.Players[2], false, time.Now().UTC()); err != nil {
			t.Fatalf("decline failed: %v", err)
		}
		if match.Status != MatchDelete {
			t.Fatalf("size %d: expected status %q, got %q", size, MatchDelete, match.Status)
		}
	}
}

func TestDeclineBeforeImagesKeepsImagesEmpty(t *testing.T) {
	match := newWaitingMatch(t)
	if err := match.Respond(match.Players[1], false, time.Now().UTC()); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	match.CheckStatus(time.Now().UTC())
	if len(match.Images) != 0 {
		t.Fatalf("expected no images used, got %d", len(match.Images))
	}
}

func TestCheckStatusIdempotent(t *testing.T) {
	match := newWaitingMatch(t)
	acceptAll(t, match)

	now := time.Now().UTC()
	match.CheckStatus(now)
	status := match.Status
	current := match.CurrentRound
	roundStatuses := make([]string, len(match.Rounds))
	for i, round := range match.Rounds {
		roundStatuses[i] = round.Status
	}

	match.CheckStatus(now)
	if match.Status != status || match.CurrentRound != current {
		t.Fatalf("second check changed match: %q/%d vs %q/%d",
			status, current, match.Status, match.CurrentRound)
	}
	for i, round := range match.Rounds {
		if round.Status != roundStatuses[i] {
			t.Fatalf("second check changed round %d: %q vs %q", round.Number, roundStatuses[i], round.Status)
		}
	}
}

func TestResponseDeadlineAutoDeclines(t *testing.T) {
	match := newWaitingMatch(t)
	past := time.Now().UTC().Add(-time.Hour)
	match.DeadlineResponse = &past

	match.CheckStatus(time.Now().UTC())

	if match.Status != MatchDelete {
		t.Fatalf("expected status %q, got %q", MatchDelete, match.Status)
	}
	for _, player := range match.Players {
		if player == match.InvitingPlayer {
			continue
		}
		invitation := match.Invitations[player]
		if invitation.Status != InvitationDeclined {
			t.Fatalf("player %d should be auto-declined, got %q", player, invitation.Status)
		}
		if invitation.DateResponded == nil {
			t.Fatalf("player %d should have a response timestamp", player)
		}
	}
}

func TestUpdateDeadlinesWhileWaiting(t *testing.T) {
	match := newWaitingMatch(t)
	now := time.Now().UTC()

	match.UpdateDeadlines(now)
	if match.DeadlineResponse == nil {
		t.Fatal("expected response deadline to be set")
	}
	want := now.Add(match.Timeout)
	if !match.DeadlineResponse.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, match.DeadlineResponse)
	}
	if match.DeadlineAction == nil || !match.DeadlineAction.Equal(want) {
		t.Fatal("expected action deadline to mirror response deadline")
	}

	// Set once, never overwritten.
	match.UpdateDeadlines(now.Add(time.Hour))
	if !match.DeadlineResponse.Equal(want) {
		t.Fatal("response deadline should not move on repeat calls")
	}
}

func TestUpdateDeadlinesInProgress(t *testing.T) {
	match := newWaitingMatch(t)
	acceptAll(t, match)
	now := time.Now().UTC()

	match.UpdateDeadlines(now)
	round := match.Rounds[0]
	if round.DeadlineStory == nil {
		t.Fatal("expected story deadline for the current round")
	}
	if match.DeadlineAction == nil || !match.DeadlineAction.Equal(*round.DeadlineStory) {
		t.Fatal("expected action deadline to track the story deadline")
	}
	if round.DeadlineOthers != nil || round.DeadlineVotes != nil {
		t.Fatal("later phase deadlines should not be set yet")
	}
}

func TestMatchFinishesAfterLastRound(t *testing.T) {
	match := newWaitingMatch(t)
	acceptAll(t, match)
	now := time.Now().UTC()

	playMatch(t, match, now)

	if match.Status != MatchFinished {
		t.Fatalf("expected status %q, got %q", MatchFinished, match.Status)
	}
	if match.Finished == nil {
		t.Fatal("expected finished timestamp")
	}
	finished := *match.Finished
	match.CheckStatus(now.Add(time.Hour))
	if !match.Finished.Equal(finished) {
		t.Fatal("finished timestamp should not be overwritten")
	}
	if match.CurrentRound != match.TotalRounds {
		t.Fatalf("expected current round %d, got %d", match.TotalRounds, match.CurrentRound)
	}
}

func TestMatchScoreAggregatesRounds(t *testing.T) {
	match := newWaitingMatch(t)
	acceptAll(t, match)
	now := time.Now().UTC()

	playMatch(t, match, now)
	totals := match.Score()

	want := make(map[uint]int, len(match.Players))
	for _, round := range match.Rounds {
		for player, score := range round.Score() {
			want[player] += score
		}
	}
	for _, player := range match.Players {
		if totals[player] != want[player] {
			t.Fatalf("player %d total %d, expected %d", player, totals[player], want[player])
		}
		if match.Invitations[player].Score != want[player] {
			t.Fatalf("player %d invitation score %d, expected %d",
				player, match.Invitations[player].Score, want[player])
		}
	}
}

// playMatch drives every round to completion: the storyteller submits, the
// others submit, everyone votes for the storyteller's image.
func playMatch(t *testing.T, match *Match, now time.Time) {
	t.Helper()
	image := uint(100)
	for _, round := range match.Rounds {
		match.CheckStatus(now)
		storytellerImage := image
		if err := match.SubmitImage(round.Number, round.Storyteller, image, "a story to tell", now); err != nil {
			t.Fatalf("round %d storyteller submit failed: %v", round.Number, err)
		}
		image++
		for _, player := range match.Players {
			if player == round.Storyteller {
				continue
			}
			if err := match.SubmitImage(round.Number, player, image, "", now); err != nil {
				t.Fatalf("round %d submit for player %d failed: %v", round.Number, player, err)
			}
			image++
		}
		for _, player := range match.Players {
			if player == round.Storyteller {
				continue
			}
			if err := match.SubmitVote(round.Number, player, storytellerImage, now); err != nil {
				t.Fatalf("round %d vote for player %d failed: %v", round.Number, player, err)
			}
		}
		match.CheckStatus(now)
	}
}
