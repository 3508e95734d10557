package api

import (
	"context"
	"strconv"
	"time"

	"shop-service/config"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionKey = "session_id"

// SessionCache persists session tokens and the cart badge counter
type SessionCache interface {
	TouchSession(ctx context.Context, token string, ttl time.Duration) error
	GetCartCount(ctx context.Context, token string) (int, bool, error)
	SetCartCount(ctx context.Context, token string, count int, ttl time.Duration) error
}

// CartCounter exposes the store-backed cart count for badge cache misses
type CartCounter interface {
	Count(ctx context.Context, sessionID string) (int, error)
}

// sessionMiddleware resolves the request to a stable opaque session token.
// A returning client's cookie is reused unchanged; first contact mints a new
// token, binds it to the response cookie and persists it so subsequent
// requests resolve to the same token.
func sessionMiddleware(cache SessionCache, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			token = uuid.New().String()
			c.SetCookie(cfg.CookieName, token, int(cfg.TTL.Seconds()), "/", "", false, true)
		}

		if cache != nil {
			if err := cache.TouchSession(c.Request.Context(), token, cfg.TTL); err != nil {
				util.GetLogger().Warn("Failed to persist session token", zap.Error(err))
			}
		}

		c.Set(sessionKey, token)
		c.Next()
	}
}

// cartBadgeMiddleware sets the X-Cart-Items header from the cached count,
// falling back to the store on a miss
func cartBadgeMiddleware(cache SessionCache, counter CartCounter, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		token := sessionID(c)
		if token == "" {
			c.Next()
			return
		}

		count, ok := 0, false
		var err error
		if cache != nil {
			count, ok, err = cache.GetCartCount(ctx, token)
			if err != nil {
				util.GetLogger().Warn("Failed to read cart badge", zap.Error(err))
			}
		}
		if !ok {
			count, err = counter.Count(ctx, token)
			if err != nil {
				c.Next()
				return
			}
			if cache != nil {
				_ = cache.SetCartCount(ctx, token, count, cfg.TTL)
			}
		}

		c.Header("X-Cart-Items", strconv.Itoa(count))
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
