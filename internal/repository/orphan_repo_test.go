package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"dismoment/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestOrphanSQLite_RecordAndResolve(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	repo := NewOrphanSQLite(db)

	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	resolved := created.Add(time.Minute)

	mock.ExpectExec(regexp.QuoteMeta(upsertOrphanSQL)).
		WithArgs("f1", "media", "create post", "delete failed", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(markOrphanAttemptSQL)).
		WithArgs("still failing", "f1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(resolveOrphanSQL)).
		WithArgs(resolved, "f1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Record(testCtx(t), models.OrphanFile{
		FileID: "f1", BucketID: "media", Reason: "create post", LastError: "delete failed", CreatedAt: created,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.MarkAttempt(testCtx(t), "f1", errors.New("still failing")); err != nil {
		t.Fatalf("MarkAttempt: %v", err)
	}
	if err := repo.Resolve(testCtx(t), "f1", resolved); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestOrphanSQLite_Pending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"file_id", "bucket_id", "reason", "attempts", "last_error", "created_at"}).
		AddRow("f1", "media", "create post", 2, "timeout", created).
		AddRow("f2", "media", "edit profile", 0, nil, created.Add(time.Second))
	mock.ExpectQuery(regexp.QuoteMeta(selectPendingOrphansSQL)).
		WithArgs(10).
		WillReturnRows(rows)

	got, err := NewOrphanSQLite(db).Pending(testCtx(t), 10)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 orphans, got %d", len(got))
	}
	if got[0].FileID != "f1" || got[0].Attempts != 2 || got[0].LastError != "timeout" {
		t.Fatalf("unexpected first orphan: %+v", got[0])
	}
	if got[1].LastError != "" || got[1].Resolved() {
		t.Fatalf("unexpected second orphan: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestOrphanSQLite_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT file_id").WillReturnError(errors.New("boom"))
	if _, err := NewOrphanSQLite(db).Pending(testCtx(t), 5); err == nil {
		t.Fatalf("expected error")
	}
}
