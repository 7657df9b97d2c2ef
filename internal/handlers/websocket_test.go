package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"dismoment/internal/service"
	"dismoment/internal/view"

	"github.com/gorilla/websocket"
)

func searchURL(t *testing.T, srv *httptest.Server, token string) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws/search"
	if token != "" {
		q := u.Query()
		q.Set("access_token", token)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func TestWebSocket_SearchStream(t *testing.T) {
	search := &mockSearch{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseSessionID: "s1"}, SearchOverlay: search})
	srv := httptest.NewServer(r)
	defer srv.Close()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(searchURL(t, srv, "valid"), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	// Trending is pushed on connect.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg view.SearchResult
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Type != view.SearchTrending {
		t.Fatalf("expected trending first, got %+v", msg)
	}

	if err := conn.WriteJSON(wsInbound{Type: wsInput, Value: "cat"}); err != nil {
		t.Fatalf("write input: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	msg = view.SearchResult{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read results: %v", err)
	}
	if msg.Type != view.SearchResults || msg.Term != "cat" {
		t.Fatalf("unexpected results: %+v", msg)
	}

	_ = conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for !search.wasClosed() {
		if time.Now().After(deadline) {
			t.Fatal("search session was not closed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_RequiresToken(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseSessionID: "s1"}, SearchOverlay: &mockSearch{}})
	srv := httptest.NewServer(r)
	defer srv.Close()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	_, resp, err := dialer.Dial(searchURL(t, srv, ""), nil)
	if err == nil {
		t.Fatal("expected handshake to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}
