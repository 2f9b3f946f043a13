package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestTokenBucketLimiter_Allow(t *testing.T) {
	limiter := NewTokenBucketLimiter(rate.Limit(1), 2, 0)
	defer limiter.Close()

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// 不同key互不影响
	assert.True(t, limiter.Allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.Len())
}

func TestTokenBucketLimiter_EvictIdle(t *testing.T) {
	limiter := NewTokenBucketLimiter(rate.Limit(1), 1, time.Minute)
	defer limiter.Close()

	limiter.Allow("10.0.0.1")
	limiter.evictIdle(time.Now())
	assert.Equal(t, 1, limiter.Len())

	limiter.evictIdle(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, limiter.Len())
}

func TestTokenBucketLimiter_CloseStopsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewTokenBucketLimiter(rate.Limit(1), 1, 10*time.Millisecond)
	limiter.Allow("10.0.0.1")
	limiter.Close()
	// 重复关闭是安全的
	limiter.Close()
}

func TestRateLimit(t *testing.T) {
	limiter := NewTokenBucketLimiter(rate.Limit(0.001), 1, 0)
	defer limiter.Close()

	router := gin.New()
	router.Use(CORS(testCORS), RateLimit(limiter, zap.NewNop()))
	router.GET("/a.txt", func(c *gin.Context) { c.String(http.StatusOK, "hello") })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/a.txt", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/a.txt", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "429 too many requests", second.Body.String())
	assertCORSHeaders(t, second)
}
