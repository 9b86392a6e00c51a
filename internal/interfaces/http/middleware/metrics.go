package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"z-novel-similarity/pkg/metrics"
)

// Metrics Prometheus 指标采集中间件，未匹配路由统一记为 unmatched
func Metrics(metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		method := c.Request.Method

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if size := c.Request.ContentLength; size > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(size))
		}

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
