package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"z-novel-similarity/internal/interfaces/http/dto"
	"z-novel-similarity/pkg/errors"
	"z-novel-similarity/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit  int
	Window time.Duration
	// KeyFunc 构建限流键，默认按客户端 IP 与路由
	KeyFunc func(c *gin.Context) string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 滑动窗口限流中间件
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string {
			return "ratelimit:" + c.ClientIP() + ":" + c.FullPath()
		}
	}

	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), cfg.KeyFunc(c), cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			c.Abort()
			dto.ErrorWithDetail(c, http.StatusTooManyRequests, "rate limit exceeded", &dto.ErrorDetail{
				ErrorCode: string(errors.CodeTooManyRequests),
			})
			return
		}

		c.Next()
	}
}
