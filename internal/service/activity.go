package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dismoment/internal/api"
	"dismoment/internal/logger"
	"dismoment/internal/models"
	"dismoment/internal/repository"
)

// activity appends to the activity log. A failed write is logged and never
// fails the user's request.
type activity struct {
	repo repository.ActivityRepo
	log  *logger.Logger
}

func newActivity(repo repository.ActivityRepo, log *logger.Logger) *activity {
	return &activity{repo: repo, log: log}
}

func (a *activity) record(ctx context.Context, typ, userID, description string, meta any) {
	if a == nil || a.repo == nil {
		return
	}
	err := a.repo.Append(context.WithoutCancel(ctx), models.ActivityEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		UserID:      userID,
		Description: description,
		Metadata:    meta,
	})
	if err != nil && a.log != nil {
		a.log.Errorw("activity_append_failed", "type", typ, "err", err)
	}
}

// orphanLedger records files a failed compensation left behind so the
// sweeper can retry the delete.
type orphanLedger struct {
	repo     repository.OrphanRepo
	activity *activity
	log      *logger.Logger
}

func newOrphanLedger(repo repository.OrphanRepo, a *activity, log *logger.Logger) *orphanLedger {
	return &orphanLedger{repo: repo, activity: a, log: log}
}

func (l *orphanLedger) RecordOrphan(ctx context.Context, ce *api.CompensationError) {
	if ce == nil || ce.File == nil {
		return
	}
	err := l.repo.Record(context.WithoutCancel(ctx), models.OrphanFile{
		FileID:    ce.File.ID,
		BucketID:  ce.File.BucketID,
		Reason:    ce.Op,
		LastError: errorText(ce.CleanupErr),
	})
	if err != nil && l.log != nil {
		l.log.Errorw("orphan_record_failed", "file_id", ce.File.ID, "err", err)
	}
	l.activity.record(ctx, models.EventCompensation, "", "cleanup failed after "+ce.Op, map[string]string{
		"file_id":     ce.File.ID,
		"bucket_id":   ce.File.BucketID,
		"cause":       errorText(ce.Cause),
		"cleanup_err": errorText(ce.CleanupErr),
	})
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SIGN_UP", "SIGN_IN", "POST_CREATED", "FOLLOW", ...
}

type EventLogService struct {
	activityRepo repository.ActivityRepo
}

func NewEventLogService(activityRepo repository.ActivityRepo) *EventLogService {
	return &EventLogService{activityRepo: activityRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}
	return from, to, normalizeEventType(f.Type), nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ActivityEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.activityRepo.List(ctx, from, to, typ)
}
