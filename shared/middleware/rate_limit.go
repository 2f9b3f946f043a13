package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenBucketLimiter 令牌桶限流器，每个key一个桶
type TokenBucketLimiter struct {
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	cleanup  time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewTokenBucketLimiter 创建令牌桶限流器
// cleanup大于0时启动清理协程，闲置超过cleanup的桶会被回收，调用Close停止
func NewTokenBucketLimiter(rps rate.Limit, burst int, cleanup time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     rps,
		burst:    burst,
		cleanup:  cleanup,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if cleanup > 0 {
		go l.cleanupRoutine()
	} else {
		close(l.done)
	}

	return l
}

// Allow 检查是否允许请求
func (l *TokenBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	l.lastSeen[key] = time.Now()
	l.mu.Unlock()

	return limiter.Allow()
}

// Len 当前跟踪的桶数量
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Close 停止清理协程
func (l *TokenBucketLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// cleanupRoutine 定期清理过期的限流器
func (l *TokenBucketLimiter) cleanupRoutine() {
	defer close(l.done)

	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.evictIdle(now)
		}
	}
}

func (l *TokenBucketLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, seen := range l.lastSeen {
		if now.Sub(seen) > l.cleanup {
			delete(l.limiters, key)
			delete(l.lastSeen, key)
		}
	}
}

// RateLimit 按客户端IP限流的中间件
func RateLimit(limiter *TokenBucketLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if limiter.Allow(clientIP) {
			c.Next()
			return
		}

		log.Debug("请求被限流",
			zap.String("client_ip", clientIP),
			zap.String("path", c.Request.URL.Path),
		)
		c.String(http.StatusTooManyRequests, "429 too many requests")
		c.Abort()
	}
}
