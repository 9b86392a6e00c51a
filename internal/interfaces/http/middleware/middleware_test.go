package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLimiter struct {
	allowN int
	calls  int
	keys   []string
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.calls++
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	return l.calls <= l.allowN, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/v1/similarity/scan", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/similarity/scan", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{allowN: 2}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, Limit: 2, Window: time.Second}, limiter))

	assert.Equal(t, http.StatusOK, post(r, "a").Code)
	assert.Equal(t, http.StatusOK, post(r, "a").Code)
	w := post(r, "a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, limiter.keys[0], "/v1/similarity/scan")
}

func TestRateLimit_FailOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true}, limiter))

	assert.Equal(t, http.StatusOK, post(r, "a").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := &countingLimiter{}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: false}, limiter))

	assert.Equal(t, http.StatusOK, post(r, "a").Code)
	assert.Zero(t, limiter.calls)
}

func TestBodyLimit(t *testing.T) {
	r := newEngine(BodyLimit(4))

	assert.Equal(t, http.StatusOK, post(r, "abcd").Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(r, "abcdef").Code)

	unlimited := newEngine(BodyLimit(0))
	w := post(unlimited, strings.Repeat("x", 1024))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1024", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := post(r, "")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodPost, "/v1/similarity/scan", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/v1/similarity/scan", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", 200))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "1007")
}
