package api

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tamilbot/internal/assistant"
	"tamilbot/internal/auth"
	"tamilbot/internal/chat"
	"tamilbot/internal/config"
	"tamilbot/internal/logging"
	"tamilbot/internal/metrics"
	"tamilbot/internal/tools"
)

// Deps are the shared objects built once at startup.
type Deps struct {
	Config    *config.Config
	Assistant *assistant.Assistant
	Store     *chat.Store
	Redis     *redis.Client // nil when presence tracking is disabled
	Metrics   *metrics.Metrics
	Searcher  *tools.Searcher
	Providers []string
	Logger    *zap.Logger

	// WSKeepalive is how long a websocket may stay silent, pongs included,
	// before it is dropped. Zero means 60s.
	WSKeepalive time.Duration
}

func SetupRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(d.Logger))
	subpath := d.Config.Server.Subpath

	if subpath != "" && subpath != "/" {
		r.GET(subpath+"/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, path.Join(subpath, "health"))
		})
	}

	h := &handlers{deps: d, logger: d.Logger.Named("api")}
	requireSession := auth.AuthMiddleware(d.Config, d.Store, d.Redis)

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", h.configHandler)
		group.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
		group.GET("/quickstart", h.quickStartListHandler)

		// --- Sessions ---
		group.POST("/sessions", h.createSessionHandler)
		group.GET("/sessions/online", h.onlineSessionsHandler)
		group.GET("/sessions/turns", requireSession, h.listTurnsHandler)
		group.DELETE("/sessions/turns", requireSession, h.resetTurnsHandler)
		group.POST("/sessions/messages", requireSession, h.sendMessageHandler)
		group.POST("/sessions/quickstart/:index", requireSession, h.quickStartHandler)
		group.DELETE("/sessions", requireSession, h.endSessionHandler)

		// --- WebSocket chat ---
		group.GET("/ws/chat", requireSession, h.wsChatHandler)
	}
	return r
}
