package server

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/MarkusShepherd/diris-server/internal/game"
)

var (
	errMatchNotFound  = errors.New("match not found")
	errPlayerNotFound = errors.New("player not found")
	errNameTaken      = errors.New("name already taken")
)

// Store keeps the live aggregates in memory and serializes all mutations
// under one lock. Persistence is write-through: callers save or delete the
// database copy after a successful mutation, so the in-memory state is
// always at least as fresh as the database.
type Store struct {
	mu           sync.Mutex
	nextPlayerID uint
	nextImageID  uint
	nextMatchID  uint
	players      map[uint]*Player
	tokens       map[string]uint
	names        map[string]uint
	images       map[uint]*Image
	matches      map[uint]*game.Match
	chats        map[int64]*chatGroup
}

func NewStore() *Store {
	return &Store{
		nextPlayerID: 1,
		nextImageID:  1,
		nextMatchID:  1,
		players:      make(map[uint]*Player),
		tokens:       make(map[string]uint),
		names:        make(map[string]uint),
		images:       make(map[uint]*Image),
		matches:      make(map[uint]*game.Match),
		chats:        make(map[int64]*chatGroup),
	}
}

// AddPlayer registers a player. A zero ID is allocated; a non-zero ID (from
// a database row or a restore) is kept and the allocator bumped past it.
func (s *Store) AddPlayer(player *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(player.Name)
	if _, taken := s.names[key]; taken {
		return errNameTaken
	}
	if player.ID == 0 {
		player.ID = s.nextPlayerID
	}
	if player.ID >= s.nextPlayerID {
		s.nextPlayerID = player.ID + 1
	}
	s.players[player.ID] = player
	s.tokens[player.AuthToken] = player.ID
	s.names[key] = player.ID
	return nil
}

func (s *Store) NameTaken(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, taken := s.names[strings.ToLower(name)]
	return taken
}

func (s *Store) GetPlayer(id uint) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	return player, ok
}

func (s *Store) FindPlayerByToken(token string) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return nil, false
	}
	player, ok := s.players[id]
	return player, ok
}

func (s *Store) UpdatePlayer(id uint, update func(player *Player) error) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, errPlayerNotFound
	}
	if err := update(player); err != nil {
		return nil, err
	}
	return player, nil
}

// HasPlayers reports whether every given id is a registered player.
func (s *Store) HasPlayers(ids []uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.players[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Store) AddImage(image *Image) *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if image.ID == 0 {
		image.ID = s.nextImageID
	}
	if image.ID >= s.nextImageID {
		s.nextImageID = image.ID + 1
	}
	s.images[image.ID] = image
	return image
}

func (s *Store) GetImage(id uint) (*Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	image, ok := s.images[id]
	return image, ok
}

// AddMatch registers a match after checking for a live duplicate: two
// matches over the same player set may not be waiting or in progress at the
// same time.
func (s *Store) AddMatch(match *game.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.matches {
		if existing.GroupID == match.GroupID &&
			(existing.Status == game.MatchWaiting || existing.Status == game.MatchInProgress) {
			return game.ErrDuplicateMatch
		}
	}
	if match.ID == 0 {
		match.ID = s.nextMatchID
	}
	if match.ID >= s.nextMatchID {
		s.nextMatchID = match.ID + 1
	}
	s.matches[match.ID] = match
	for _, id := range match.Players {
		if player, ok := s.players[id]; ok {
			player.TotalMatches++
		}
	}
	return nil
}

func (s *Store) GetMatch(id uint) (*game.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	return match, ok
}

// WithMatch runs fn on the match while holding the store lock. Every read
// of a live aggregate goes through here, so views are never rendered from
// a half-recomputed match.
func (s *Store) WithMatch(id uint, fn func(match *game.Match) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return errMatchNotFound
	}
	return fn(match)
}

// MutateMatch runs one full unit of work against the match under the store
// lock. When fn reports remove, the match leaves the store and each player
// gets their match count back, still inside the same critical section. The
// removal happens even when fn also returns an error, since a deadline
// discovered during a failed mutation still dissolves the match.
func (s *Store) MutateMatch(id uint, fn func(match *game.Match) (remove bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return errMatchNotFound
	}
	remove, err := fn(match)
	if remove {
		delete(s.matches, id)
		for _, player := range match.Players {
			if record, ok := s.players[player]; ok && record.TotalMatches > 0 {
				record.TotalMatches--
			}
		}
	}
	return err
}

func (s *Store) UpdateMatchID(match *game.Match, newID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if match.ID == newID {
		return
	}
	delete(s.matches, match.ID)
	match.ID = newID
	s.matches[newID] = match
	if newID >= s.nextMatchID {
		s.nextMatchID = newID + 1
	}
}

// RemoveMatch drops the match and gives each player their match count back.
func (s *Store) RemoveMatch(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return
	}
	delete(s.matches, id)
	for _, player := range match.Players {
		if record, ok := s.players[player]; ok && record.TotalMatches > 0 {
			record.TotalMatches--
		}
	}
}

// MatchIDs returns the ids of all live matches ordered by action deadline,
// soonest first and undated matches last. The sweep works through this
// list.
func (s *Store) MatchIDs() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := make([]*game.Match, 0, len(s.matches))
	for _, match := range s.matches {
		matches = append(matches, match)
	}
	sortMatchesByDeadline(matches)
	ids := make([]uint, len(matches))
	for i, match := range matches {
		ids[i] = match.ID
	}
	return ids
}

// ListMatches renders a summary of every match the player participates in,
// ordered by action deadline and optionally filtered by status. Summaries
// are built under the lock so a concurrent mutation cannot bleed into them.
func (s *Store) ListMatches(player uint, status string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := make([]*game.Match, 0)
	for _, match := range s.matches {
		if status != "" && match.Status != status {
			continue
		}
		for _, id := range match.Players {
			if id == player {
				matches = append(matches, match)
				break
			}
		}
	}
	sortMatchesByDeadline(matches)
	summaries := make([]map[string]any, len(matches))
	for i, match := range matches {
		summaries[i] = matchSummaryView(match)
	}
	return summaries
}

// MatchWithImage reports whether the player shares a live match that uses
// the image. Gate for serving match images to non-owners.
func (s *Store) MatchWithImage(player, image uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, match := range s.matches {
		if _, used := match.Images[image]; !used {
			continue
		}
		for _, id := range match.Players {
			if id == player {
				return true
			}
		}
	}
	return false
}

func sortMatchesByDeadline(matches []*game.Match) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i].DeadlineAction, matches[j].DeadlineAction
		switch {
		case a == nil && b == nil:
			return matches[i].ID < matches[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return matches[i].ID < matches[j].ID
		default:
			return a.Before(*b)
		}
	})
}
