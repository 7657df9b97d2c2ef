package service

import (
	"context"
	"time"

	"dismoment/internal/backend"
	"dismoment/internal/logger"
	"dismoment/internal/models"
	"dismoment/internal/repository"
)

const defaultSweepBatch = 50

type fileDeleter interface {
	DeleteFile(ctx context.Context, fileID string) error
}

type sessionPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// SweeperService retries the deletes that failed compensations left behind
// and drops expired sessions.
type SweeperService struct {
	orphans  repository.OrphanRepo
	files    fileDeleter
	sessions sessionPurger
	activity *activity
	log      *logger.Logger
	batch    int
	now      func() time.Time
}

func NewSweeperService(orphans repository.OrphanRepo, files fileDeleter, sessions sessionPurger, a *activity, log *logger.Logger, batch int) *SweeperService {
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &SweeperService{
		orphans:  orphans,
		files:    files,
		sessions: sessions,
		activity: a,
		log:      log,
		batch:    batch,
		now:      time.Now,
	}
}

// Run sweeps at the given interval until ctx is canceled.
func (s *SweeperService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce handles one batch of pending orphans and returns how many were
// cleared. A file the backend no longer has counts as cleared.
func (s *SweeperService) sweepOnce(ctx context.Context) int {
	if s.sessions != nil {
		if n, err := s.sessions.Purge(ctx); err != nil {
			s.logError("sweeper_purge_sessions_failed", "err", err)
		} else if n > 0 {
			s.logInfo("sweeper_sessions_purged", "count", n)
		}
	}

	pending, err := s.orphans.Pending(ctx, s.batch)
	if err != nil {
		s.logError("sweeper_load_orphans_failed", "err", err)
		return 0
	}

	cleared := 0
	for _, o := range pending {
		if ctx.Err() != nil {
			break
		}
		err := s.files.DeleteFile(ctx, o.FileID)
		if err != nil && !backend.IsNotFound(err) {
			if mErr := s.orphans.MarkAttempt(ctx, o.FileID, err); mErr != nil {
				s.logError("sweeper_mark_attempt_failed", "file_id", o.FileID, "err", mErr)
			}
			continue
		}
		if err := s.orphans.Resolve(ctx, o.FileID, s.now().UTC()); err != nil {
			s.logError("sweeper_resolve_failed", "file_id", o.FileID, "err", err)
			continue
		}
		cleared++
		s.activity.record(ctx, models.EventOrphanCleared, "", "orphaned file deleted", map[string]any{
			"file_id":  o.FileID,
			"attempts": o.Attempts + 1,
		})
	}
	return cleared
}

func (s *SweeperService) logError(event string, kv ...any) {
	if s.log != nil {
		s.log.Errorw(event, kv...)
	}
}

func (s *SweeperService) logInfo(event string, kv ...any) {
	if s.log != nil {
		s.log.Infow(event, kv...)
	}
}
