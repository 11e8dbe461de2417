package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"tamilbot/internal/chat"
	"tamilbot/internal/config"
)

// ContextSessionKey is where the middleware stores the *chat.Session.
const ContextSessionKey = "session"

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// browsers cannot set headers on a websocket upgrade
	return c.Query("token")
}

// AuthMiddleware resolves the bearer token to a live session and marks it
// active. When rdb is non-nil the token must also match the presence key,
// whose TTL is refreshed on every request.
func AuthMiddleware(cfg *config.Config, store *chat.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		session, ok := store.Get(claims.SessionID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Session expired or invalid"}})
			return
		}
		if rdb != nil {
			ctx := c.Request.Context()
			stored, err := GetSession(ctx, rdb, claims.SessionID)
			if err != nil || stored != tokenStr {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Session expired or invalid"}})
				return
			}
			_ = SetSession(ctx, rdb, claims.SessionID, tokenStr, cfg.Server.SessionTTL)
		}

		session.Touch()
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session attached by AuthMiddleware.
func SessionFrom(c *gin.Context) *chat.Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*chat.Session)
	return s
}
