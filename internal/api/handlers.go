package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tamilbot/internal/auth"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /config
func (h *handlers) configHandler(c *gin.Context) {
	cfg := h.deps.Config
	missing := cfg.MissingCredentials()
	if missing == nil {
		missing = []string{}
	}
	provider := cfg.Search.Provider
	if h.deps.Searcher != nil {
		provider = h.deps.Searcher.ProviderName()
	}
	search := gin.H{
		"provider":      provider,
		"providers":     h.deps.Providers,
		"language_bias": cfg.Search.LanguageBias,
		"max_results":   cfg.Search.MaxResults,
		"max_chars":     cfg.Search.MaxChars,
	}
	if h.deps.Searcher != nil && h.deps.Searcher.Breaker() != nil {
		search["circuit_breaker"] = h.deps.Searcher.Breaker().Stats()
	}
	// Only non-sensitive fields; secrets are tagged json:"-"
	c.JSON(http.StatusOK, gin.H{
		"server": gin.H{
			"subpath":     cfg.Server.Subpath,
			"session_ttl": cfg.Server.SessionTTL.String(),
		},
		"wikipedia":           cfg.Wikipedia,
		"search":              search,
		"grounding":           cfg.Grounding,
		"generation":          cfg.Generation,
		"quick_starts":        cfg.QuickStarts,
		"missing_credentials": missing,
		"configured":          len(missing) == 0,
	})
}

// GET /quickstart
func (h *handlers) quickStartListHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quick_starts": h.deps.Assistant.QuickStarts()})
}

// GET /sessions/online
func (h *handlers) onlineSessionsHandler(c *gin.Context) {
	if h.deps.Redis == nil {
		c.JSON(http.StatusOK, gin.H{"online": h.deps.Store.Count(), "source": "memory"})
		return
	}
	count, err := auth.OnlineSessionCount(c.Request.Context(), h.deps.Redis)
	if err != nil {
		h.logger.Warn("online count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to count online sessions"}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": count, "source": "redis"})
}
