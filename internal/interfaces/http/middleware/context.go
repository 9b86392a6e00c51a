package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"z-novel-similarity/pkg/logger"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// TraceIDHeader 追踪 ID 头
	TraceIDHeader = "X-Trace-ID"

	maxRequestIDLen = 128
)

// 探针请求不产生 span
var healthCheckPaths = map[string]struct{}{
	"/health": {},
	"/ready":  {},
	"/live":   {},
}

// RequestID 请求 ID 注入中间件，沿用上游传入的 ID，过长或缺失时重新生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		ctx := logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// Trace OpenTelemetry 追踪中间件
func Trace(serviceName string, metricsPath string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		if _, ok := healthCheckPaths[r.URL.Path]; ok {
			return false
		}
		return r.URL.Path != metricsPath
	}))
}

// TraceContext 将 trace_id / span_id 写入 gin 与日志上下文
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := trace.SpanFromContext(c.Request.Context()).SpanContext()
		if sc.IsValid() {
			traceID := sc.TraceID().String()
			spanID := sc.SpanID().String()

			c.Set("trace_id", traceID)
			c.Set("span_id", spanID)

			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
			c.Request = c.Request.WithContext(ctx)

			c.Header(TraceIDHeader, traceID)
		}

		c.Next()
	}
}
