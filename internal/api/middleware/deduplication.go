package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopping-list-generator/internal/pkg/common"
)

// Deduplicator 在時間窗內拒絕相同客戶端重複送出的相同寫入請求
type Deduplicator struct {
	window   time.Duration
	exempt   map[string]bool
	mu       sync.Mutex
	requests map[string]time.Time
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// NewDeduplicator 建立去重器並啟動背景清理。
// exempt 為允許重複送出的路由樣板（如 /items/:itemId/toggle），以 gin 的 FullPath 比對
func NewDeduplicator(window time.Duration, exempt ...string) *Deduplicator {
	skip := make(map[string]bool, len(exempt))
	for _, route := range exempt {
		skip[route] = true
	}
	d := &Deduplicator{
		window:   window,
		exempt:   skip,
		requests: make(map[string]time.Time),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if window > 0 {
		go d.cleanupLoop(10 * window)
	}
	return d
}

func (d *Deduplicator) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.done:
			return
		}
	}
}

func (d *Deduplicator) cleanup() {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.requests {
		if now.Sub(t) > d.window {
			delete(d.requests, k)
		}
	}
}

// Close 停止背景清理
func (d *Deduplicator) Close() {
	d.once.Do(func() { close(d.done) })
}

// seen 記錄指紋，時間窗內已出現過則回傳 true
func (d *Deduplicator) seen(fingerprint string) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Middleware 請求去重中間件，只處理 POST
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.window <= 0 || c.Request.Method != http.MethodPost || d.exempt[c.FullPath()] {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
					Code:    ErrCodePayloadTooLarge,
					Message: "請求內容過大",
				})
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		fingerprint := c.ClientIP() + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + bodyHash
		if d.seen(fingerprint) {
			common.LogInfo("Duplicate request rejected",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "重複的請求",
			})
			return
		}

		c.Next()
	}
}
