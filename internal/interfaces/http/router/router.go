// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"z-novel-similarity/internal/config"
	"z-novel-similarity/internal/infrastructure/persistence/redis"
	"z-novel-similarity/internal/interfaces/http/dto"
	"z-novel-similarity/internal/interfaces/http/handler"
	"z-novel-similarity/internal/interfaces/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	engine      *gin.Engine
	cfg         *config.Config
	health      *handler.HealthHandler
	similarity  *handler.SimilarityHandler
	rateLimiter middleware.RateLimiter
}

// New 创建新的路由器，rateLimiter 为 nil 时不限流
func New(cfg *config.Config, health *handler.HealthHandler, similarity *handler.SimilarityHandler, rateLimiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:      gin.New(),
		cfg:         cfg,
		health:      health,
		similarity:  similarity,
		rateLimiter: rateLimiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	obs := r.cfg.Observability
	if obs.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, obs.Metrics.Path))
		r.engine.Use(middleware.TraceContext())
	}
	if obs.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(obs.Metrics.Path))
	}
}

func (r *Router) setupRoutes() {
	r.engine.NoRoute(func(c *gin.Context) {
		dto.NotFound(c, "route not found")
	})

	r.engine.GET("/health", r.health.Health)
	r.engine.GET("/ready", r.health.Ready)
	r.engine.GET("/live", r.health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	rl := r.cfg.Security.RateLimit
	v1 := r.engine.Group("/v1")
	{
		sim := v1.Group("/similarity")
		sim.POST("/scan",
			middleware.BodyLimit(r.cfg.Server.HTTP.MaxBodyBytes),
			middleware.RateLimit(middleware.RateLimitConfig{
				Enabled: rl.Enabled,
				Limit:   rl.Limit,
				Window:  rl.Window,
				KeyFunc: func(c *gin.Context) string {
					return redis.BuildRateLimitKey(c.ClientIP(), c.FullPath())
				},
			}, r.rateLimiter),
			r.similarity.Scan,
		)
		sim.POST("/index", r.similarity.Index)

		v1.GET("/novels/:nid/scans", r.similarity.ListNovelScans)
		v1.GET("/chapters/:cid/scans", r.similarity.ListChapterScans)
	}
}
