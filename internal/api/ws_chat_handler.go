package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tamilbot/internal/assistant"
	"tamilbot/internal/auth"
	"tamilbot/internal/chat"
)

const (
	defaultWSPongWait = 60 * time.Second
	wsWriteWait       = 10 * time.Second

	// requests accepted while an answer is still being produced
	wsQueueSize = 4
)

// WSChatRequest is one client frame. Exactly one of Query, Event or
// QuickStart is expected.
type WSChatRequest struct {
	Query      string `json:"query,omitempty"`
	Event      string `json:"event,omitempty"`
	QuickStart *int   `json:"quickstart,omitempty"`
}

// WSChatEvent is one server frame.
type WSChatEvent struct {
	Event string           `json:"event"`
	Reply *assistant.Reply `json:"reply,omitempty"`
	Turns []chat.Turn      `json:"turns,omitempty"`
	Error string           `json:"error,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// GET /ws/chat?token=
//
// The read loop only reads, so pongs keep arriving while an answer is being
// produced. Requests are answered in order by a single worker goroutine.
func (h *handlers) wsChatHandler(c *gin.Context) {
	session := auth.SessionFrom(c)

	rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &safeWSConn{conn: rawConn}
	defer rawConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a failed write means the peer is gone; closing the socket ends the
	// read loop
	drop := func(err error) {
		h.logger.Debug("websocket write failed", zap.String("session", session.ID), zap.Error(err))
		cancel()
		rawConn.Close()
	}

	pongWait := h.deps.WSKeepalive
	if pongWait <= 0 {
		pongWait = defaultWSPongWait
	}
	rawConn.SetReadDeadline(time.Now().Add(pongWait))
	rawConn.SetPongHandler(func(string) error {
		return rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		ticker := time.NewTicker(pongWait * 5 / 6)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					drop(err)
					return
				}
			}
		}
	}()

	if err := conn.WriteJSON(WSChatEvent{Event: "history", Turns: session.Turns()}); err != nil {
		drop(err)
		return
	}

	jobs := make(chan WSChatRequest, wsQueueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for req := range jobs {
			if ctx.Err() != nil {
				continue
			}
			if err := h.handleWSRequest(ctx, conn, session, req); err != nil {
				drop(err)
			}
		}
	}()
	defer func() {
		cancel()
		close(jobs)
		wg.Wait()
	}()

	for {
		_, msg, err := rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", zap.String("session", session.ID), zap.Error(err))
			}
			return
		}
		rawConn.SetReadDeadline(time.Now().Add(pongWait))

		var req WSChatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if err := conn.WriteJSON(WSChatEvent{Event: "error", Error: "invalid JSON"}); err != nil {
				drop(err)
				return
			}
			continue
		}
		select {
		case jobs <- req:
		default:
			if err := conn.WriteJSON(WSChatEvent{Event: "error", Error: "busy"}); err != nil {
				drop(err)
				return
			}
		}
	}
}

// handleWSRequest answers one frame. The returned error is a write failure.
func (h *handlers) handleWSRequest(ctx context.Context, conn *safeWSConn, session *chat.Session, req WSChatRequest) error {
	var run func(conv *chat.Conversation) (*assistant.Reply, error)
	switch {
	case req.Event == "reset":
		session.Do(func(conv *chat.Conversation) { conv.Reset() })
		return conn.WriteJSON(WSChatEvent{Event: "reset"})
	case req.QuickStart != nil:
		index := *req.QuickStart
		run = func(conv *chat.Conversation) (*assistant.Reply, error) {
			return h.deps.Assistant.AskQuickStart(ctx, conv, index)
		}
	case req.Query != "":
		run = func(conv *chat.Conversation) (*assistant.Reply, error) {
			return h.deps.Assistant.Ask(ctx, conv, req.Query)
		}
	default:
		return conn.WriteJSON(WSChatEvent{Event: "error", Error: "missing query"})
	}

	if err := conn.WriteJSON(WSChatEvent{Event: "thinking"}); err != nil {
		return err
	}
	reply, err := h.ask(session, run)
	if err != nil {
		_, body := h.errorStatus(err)
		msg := "failed to answer"
		if e, ok := body["error"].(gin.H); ok {
			if m, ok := e["message"].(string); ok {
				msg = m
			}
		}
		return conn.WriteJSON(WSChatEvent{Event: "error", Error: msg})
	}
	resp := h.toResponse(reply)
	return conn.WriteJSON(WSChatEvent{Event: "reply", Reply: &resp})
}
