package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"dismoment/internal/backend"
	"dismoment/internal/models"
)

func seedOrphans(t *testing.T, repo *memOrphanRepo, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := repo.Record(context.Background(), models.OrphanFile{FileID: id, BucketID: "media", Reason: "create post"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestSweepOnce(t *testing.T) {
	fa := newFakeAdapter()
	fa.deleteErrs["gone"] = &backend.Error{Status: http.StatusNotFound, Message: "File not found"}
	fa.deleteErrs["stuck"] = errors.New("connection reset")

	orphans := newMemOrphanRepo()
	seedOrphans(t, orphans, "ok", "gone", "stuck")
	acts := &memActivityRepo{}
	sessions := newFakeSessions(models.User{})
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := NewSweeperService(orphans, fa, sessions, newActivity(acts, nil), nil, 10)
	svc.now = func() time.Time { return fixed }

	if got := svc.sweepOnce(context.Background()); got != 2 {
		t.Fatalf("expected 2 cleared, got %d", got)
	}
	if sessions.purged != 1 {
		t.Fatalf("expected sessions purged once, got %d", sessions.purged)
	}
	if !orphans.rows["ok"].ResolvedAt.Equal(fixed) || !orphans.rows["gone"].Resolved() {
		t.Fatalf("expected ok and gone resolved: %+v %+v", orphans.rows["ok"], orphans.rows["gone"])
	}
	stuck := orphans.rows["stuck"]
	if stuck.Resolved() || stuck.Attempts != 1 || stuck.LastError != "connection reset" {
		t.Fatalf("unexpected stuck row: %+v", stuck)
	}
	if got := acts.types(); len(got) != 2 || got[0] != models.EventOrphanCleared {
		t.Fatalf("unexpected activity: %v", got)
	}

	// Only the stuck file is retried next time.
	svc.sweepOnce(context.Background())
	calls := fa.recorded()
	if last := calls[len(calls)-1]; len(calls) != 4 || last != "delete_file:stuck" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestSweepOnce_BatchLimit(t *testing.T) {
	fa := newFakeAdapter()
	orphans := newMemOrphanRepo()
	seedOrphans(t, orphans, "a", "b", "c")

	svc := NewSweeperService(orphans, fa, nil, nil, nil, 2)
	if got := svc.sweepOnce(context.Background()); got != 2 {
		t.Fatalf("expected batch of 2, got %d", got)
	}
}

func TestSweepOnce_PendingError(t *testing.T) {
	fa := newFakeAdapter()
	orphans := newMemOrphanRepo()
	orphans.pendErr = errors.New("db locked")

	svc := NewSweeperService(orphans, fa, nil, nil, nil, 0)
	if got := svc.sweepOnce(context.Background()); got != 0 {
		t.Fatalf("expected nothing cleared, got %d", got)
	}
	if len(fa.recorded()) != 0 {
		t.Fatalf("expected no deletes, got %v", fa.recorded())
	}
}

func TestSweeperService_RunStopsOnCancel(t *testing.T) {
	fa := newFakeAdapter()
	orphans := newMemOrphanRepo()
	seedOrphans(t, orphans, "x")
	svc := NewSweeperService(orphans, fa, nil, nil, nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for orphans.resolvedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
