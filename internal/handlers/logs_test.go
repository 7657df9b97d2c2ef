package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dismoment/internal/models"
	"dismoment/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.ActivityEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventSignIn, Description: "signed in"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventFollow, Description: "followed bob"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseSessionID: "s1"}, EventLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=notatime", nil), "valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Lowercase type is normalized before reaching the service.
	q := "/api/v1/logs?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=follow"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, q, nil), "valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                    `json:"count"`
		Events []models.ActivityEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "FOLLOW" {
		t.Fatalf("expected lastType FOLLOW, got %q", logs.lastType)
	}
	if !logs.lastFrom.Equal(now) {
		t.Fatalf("from = %v; want %v", logs.lastFrom, now)
	}
}

func TestLogsHandler_DateOnlyAndErrors(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseSessionID: "s1"}, EventLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=2026-03-01&to=2026-03-01", nil), "valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	wantTo := time.Date(2026, 3, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("to = %v; want end of day", logs.lastTo)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=2026-03-02&to=2026-03-01", nil), "valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}

	logs.err = errors.New("db locked")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, withAuth(httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil), "valid"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in       string
		dateOnly bool
	}{
		{"2026-03-01T10:00:00Z", false},
		{"2026-03-01 10:00:00", false},
		{"2026-03-01", true},
	}
	for _, tc := range cases {
		_, dateOnly, err := parseQueryTime(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if dateOnly != tc.dateOnly {
			t.Fatalf("parse %q: dateOnly=%v", tc.in, dateOnly)
		}
	}
	if _, _, err := parseQueryTime("01/03/2026"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}
