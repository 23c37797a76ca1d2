package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shopping-list-generator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 單一客戶端的令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration, now time.Time) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: now,
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if elapsed := now.Sub(rl.lastTime).Seconds(); elapsed > 0 {
		rl.tokens = math.Min(rl.capacity, rl.tokens+elapsed*rl.rate)
		rl.lastTime = now
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// idle 閒置超過 window 且令牌已補滿時回傳 true
func (rl *RateLimiter) idle(now time.Time, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := now.Sub(rl.lastTime)
	if elapsed <= window {
		return false
	}
	return rl.tokens+elapsed.Seconds()*rl.rate >= rl.capacity
}

// ClientLimiter 依客戶端 IP 分別限流
type ClientLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*RateLimiter
	done    chan struct{}
	once    sync.Once
}

// NewClientLimiter 建立依 IP 限流的限流器並啟動背景清理
func NewClientLimiter(requests int, window time.Duration) *ClientLimiter {
	l := &ClientLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		clients:  make(map[string]*RateLimiter),
		done:     make(chan struct{}),
	}
	if requests > 0 && window > 0 {
		go l.cleanupLoop(window)
	}
	return l
}

func (l *ClientLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.done:
			return
		}
	}
}

// cleanup 移除閒置且額度已恢復的客戶端，移除後重新建立的限流器狀態相同
func (l *ClientLimiter) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for client, limiter := range l.clients {
		if limiter.idle(now, l.window) {
			delete(l.clients, client)
		}
	}
}

// Close 停止背景清理
func (l *ClientLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// Allow 檢查客戶端是否仍有額度
func (l *ClientLimiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	limiter, ok := l.clients[client]
	if !ok {
		limiter = NewRateLimiter(l.requests, l.window, now)
		l.clients[client] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow(now)
}

// Middleware 回傳限流中間件，requests 或 window <= 0 時不限流
func (l *ClientLimiter) Middleware() gin.HandlerFunc {
	if l.requests <= 0 || l.window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	retryAfter := strconv.Itoa(int(math.Ceil(l.window.Seconds())))
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: common.ErrTooManyRequests.Message,
			})
			return
		}

		c.Next()
	}
}
