package handlers

import (
	"context"
	"net/http"
	"time"

	"dismoment/internal/service"
	"dismoment/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	maxMsgSize  = 1 << 12 // 4 KB
	outboxDepth = 8
)

// Client -> server message types.
const (
	wsInput    = "input"
	wsTrending = "trending"
)

// wsInbound is what the overlay sends: {"type":"input","value":"cat"}.
type wsInbound struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Search overlay stream
// @Description  WebSocket. Send {"type":"input","value":"..."}; results arrive as {"type":"results"|"trending"|"error",...} after the debounce window. Trending posts are pushed on connect.
// @Tags         posts
// @Param        access_token  query  string  false  "Bearer token when the Authorization header cannot be set"
// @Router       /ws/search [get]
// @Security     BearerAuth
func (h *Handler) wsSearch(c *gin.Context) {
	sc := currentSession(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	defer h.metrics.SearchStreamOpened()()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	outbox := make(chan view.SearchResult, outboxDepth)
	emit := func(r view.SearchResult) {
		select {
		case outbox <- r:
		case <-ctx.Done():
		}
	}

	search := h.services.Open(ctx, sc, emit)
	defer search.Close()

	done := make(chan struct{})
	go h.startReader(conn, search, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case r := <-outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(r); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// startReader feeds keystrokes to the overlay until the client goes away.
func (h *Handler) startReader(conn *websocket.Conn, search service.SearchSession, done chan<- struct{}) {
	defer close(done)
	for {
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		switch msg.Type {
		case wsInput:
			search.Input(msg.Value)
		case wsTrending:
			search.Trending()
		default:
			if h.log != nil {
				h.log.Infow("ws_unknown_message", "type", msg.Type)
			}
		}
	}
}
