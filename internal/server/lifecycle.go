package server

import (
	"time"

	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"
)

// mutateMatch runs one logical unit of work against a match: the mutation,
// the full derived-state recompute (status, scores, deadlines), then
// notifications, a single aggregate save and a websocket broadcast. The
// whole pipeline runs inside the store lock, including the view rendered
// for the caller, so nothing ever observes a half-recomputed aggregate.
// A match that recomputes to delete is removed instead of saved.
//
// Deadline-driven transitions discovered by the recompute are committed
// even when the mutation itself failed: the caller gets the error, but an
// expired match still dissolves right away instead of waiting for the
// next sweep.
func (s *Server) mutateMatch(id, viewer uint, now time.Time, mutate func(match *game.Match) error) (view map[string]any, deleted bool, err error) {
	var fanout []wsPayload
	err = s.store.MutateMatch(id, func(match *game.Match) (bool, error) {
		var mutErr error
		if mutate != nil {
			mutErr = mutate(match)
		}
		match.CheckStatus(now)
		match.Score()
		match.UpdateDeadlines(now)
		if mutErr == nil {
			match.LastModified = now
		}
		match.SendNotifications(s.notifier, now)

		if match.Status == game.MatchDelete {
			if err := s.deleteMatch(match); err != nil {
				logger.Log.Errorw("match delete failed", "match", match.ID, "error", err)
				if mutErr == nil {
					return false, err
				}
				return false, mutErr
			}
			logger.Log.Infow("match deleted", "match", match.ID)
			deleted = true
			fanout = s.renderMatchUpdate(match)
			return true, mutErr
		}

		if err := s.saveMatch(match); err != nil {
			logger.Log.Errorw("match save failed", "match", match.ID, "error", err)
			if mutErr == nil {
				return false, err
			}
		}
		if mutErr == nil && viewer != 0 {
			view = matchView(match, viewer)
		}
		fanout = s.renderMatchUpdate(match)
		return false, mutErr
	})
	s.ws.sendPayloads(id, fanout)
	if err != nil {
		return nil, deleted, err
	}
	return view, deleted, nil
}

// RunSweep recomputes up to one batch of matches, soonest deadline first.
// Deadline enforcement is lazy, so a periodic sweep is what actually times
// out unresponsive matches and retries unacknowledged notifications.
func (s *Server) RunSweep(now time.Time) (checked, deleted int) {
	ids := s.store.MatchIDs()
	if s.cfg.SweepBatchSize > 0 && len(ids) > s.cfg.SweepBatchSize {
		ids = ids[:s.cfg.SweepBatchSize]
	}
	for _, id := range ids {
		_, removed, err := s.mutateMatch(id, 0, now, nil)
		if err != nil {
			continue
		}
		checked++
		if removed {
			deleted++
		}
	}
	logger.Log.Infow("sweep complete", "checked", checked, "deleted", deleted)
	return checked, deleted
}

// StartSweeper runs RunSweep on the given interval until the returned stop
// function is called.
func (s *Server) StartSweeper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.RunSweep(timeNowUTC())
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
