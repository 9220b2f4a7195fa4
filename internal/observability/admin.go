package observability

import (
	"net/http"
	"time"

	"github.com/danmuck/viaduct/internal/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var startedAt = time.Now()

// AdminConfig configures the read-only admin HTTP surface.
type AdminConfig struct {
	Node        string
	CorsOrigins []string
	// Token, when set, is required as a bearer token on /status and
	// /metrics. /health stays open.
	Token string
}

// NewAdminRouter serves /health, /status and /metrics.
func NewAdminRouter(cfg AdminConfig, logger zerolog.Logger, observer *SessionObserver) *gin.Engine {
	RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(RequestMetricsMiddleware(cfg.Node))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": cfg.Node,
			"version": "0.0.1",
		})
	})
	guarded := r.Group("/")
	if cfg.Token != "" {
		guarded.Use(RequireToken(auth.StaticToken{Token: cfg.Token}))
	}
	guarded.GET("/status", func(c *gin.Context) {
		if observer == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no session"})
			return
		}
		c.JSON(http.StatusOK, observer.Snapshot())
	})
	guarded.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
