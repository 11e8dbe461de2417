package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tamilbot/internal/assistant"
	"tamilbot/internal/auth"
	"tamilbot/internal/chat"
)

type sendMessageRequest struct {
	Query string `json:"query"`
}

// toResponse copies r for the wire. The prompt is only sent when
// server.expose_prompt is set.
func (h *handlers) toResponse(r *assistant.Reply) assistant.Reply {
	resp := *r
	if !h.deps.Config.Server.ExposePrompt {
		resp.Prompt = ""
	}
	return resp
}

// ask runs one question with exclusive access to the session's
// conversation.
func (h *handlers) ask(s *chat.Session, run func(conv *chat.Conversation) (*assistant.Reply, error)) (*assistant.Reply, error) {
	var reply *assistant.Reply
	var err error
	s.Do(func(conv *chat.Conversation) {
		reply, err = run(conv)
	})
	return reply, err
}

// errorStatus maps pipeline errors to HTTP. Generation failures never get
// here; they are apology turns.
func (h *handlers) errorStatus(err error) (int, gin.H) {
	switch {
	case errors.Is(err, assistant.ErrEmptyQuery):
		return http.StatusBadRequest, gin.H{"error": gin.H{"message": "Query must not be empty"}}
	case errors.Is(err, assistant.ErrConfiguration):
		return http.StatusServiceUnavailable, gin.H{"error": gin.H{
			"message": "Assistant is not configured",
			"missing": h.deps.Config.MissingCredentials(),
		}}
	case errors.Is(err, assistant.ErrUnknownQuickStart):
		return http.StatusNotFound, gin.H{"error": gin.H{"message": "Unknown quick start"}}
	default:
		return http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to answer"}}
	}
}

// POST /sessions
func (h *handlers) createSessionHandler(c *gin.Context) {
	cfg := h.deps.Config
	session := h.deps.Store.Create()

	ttl := cfg.Server.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := auth.GenerateJWT(cfg.Server.JWTSecret, session.ID)
	if err != nil {
		h.deps.Store.Delete(session.ID)
		h.logger.Error("token signing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to create session"}})
		return
	}
	if h.deps.Redis != nil {
		if err := auth.SetSession(c.Request.Context(), h.deps.Redis, session.ID, token, ttl); err != nil {
			h.deps.Store.Delete(session.ID)
			h.logger.Error("session presence write failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to create session"}})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":   session.ID,
		"token":        token,
		"quick_starts": h.deps.Assistant.QuickStarts(),
		"configured":   h.deps.Assistant.Configured(),
	})
}

// DELETE /sessions
func (h *handlers) endSessionHandler(c *gin.Context) {
	session := auth.SessionFrom(c)
	h.deps.Store.Delete(session.ID)
	if h.deps.Redis != nil {
		_ = auth.DeleteSession(c.Request.Context(), h.deps.Redis, session.ID)
	}
	c.Status(http.StatusNoContent)
}

// GET /sessions/turns
func (h *handlers) listTurnsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"turns": auth.SessionFrom(c).Turns()})
}

// DELETE /sessions/turns
func (h *handlers) resetTurnsHandler(c *gin.Context) {
	auth.SessionFrom(c).Do(func(conv *chat.Conversation) { conv.Reset() })
	c.JSON(http.StatusOK, gin.H{"turns": []chat.Turn{}})
}

// POST /sessions/messages
func (h *handlers) sendMessageHandler(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request body"}})
		return
	}
	ctx := c.Request.Context()
	reply, err := h.ask(auth.SessionFrom(c), func(conv *chat.Conversation) (*assistant.Reply, error) {
		return h.deps.Assistant.Ask(ctx, conv, req.Query)
	})
	if err != nil {
		c.JSON(h.errorStatus(err))
		return
	}
	c.JSON(http.StatusOK, h.toResponse(reply))
}

// POST /sessions/quickstart/:index
func (h *handlers) quickStartHandler(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid quick start index"}})
		return
	}
	ctx := c.Request.Context()
	reply, err := h.ask(auth.SessionFrom(c), func(conv *chat.Conversation) (*assistant.Reply, error) {
		return h.deps.Assistant.AskQuickStart(ctx, conv, index)
	})
	if err != nil {
		c.JSON(h.errorStatus(err))
		return
	}
	c.JSON(http.StatusOK, h.toResponse(reply))
}
