package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.POST("/echo", ok)
	r.GET("/echo", ok)
	r.POST("/items/:id/toggle", ok)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRefill(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second, start)

	assert.True(t, rl.Allow(start))
	assert.True(t, rl.Allow(start))
	assert.False(t, rl.Allow(start))

	assert.False(t, rl.Allow(start.Add(100*time.Millisecond)), "not enough for a full token")
	assert.True(t, rl.Allow(start.Add(600*time.Millisecond)))
}

func TestClientLimiterPerClient(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	l := NewClientLimiter(1, time.Minute)
	t.Cleanup(l.Close)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	l := NewClientLimiter(5, time.Minute)
	t.Cleanup(l.Close)
	l.now = func() time.Time { return now }

	for i := 0; i < 5000; i++ {
		require.True(t, l.Allow("10.0."+strconv.Itoa(i/256)+"."+strconv.Itoa(i%256)))
	}
	now = now.Add(30 * time.Second)
	l.cleanup()
	assert.Len(t, l.clients, 5000, "clients seen within the window are kept")

	now = now.Add(90 * time.Second)
	require.True(t, l.Allow("192.168.1.1"))
	l.cleanup()
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "192.168.1.1")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewClientLimiter(1, time.Minute)
	t.Cleanup(l.Close)
	r := newEngine(l.Middleware())

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/echo", "").Code)
	w := serve(r, http.MethodGet, "/echo", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	disabled := NewClientLimiter(0, time.Minute)
	unlimited := newEngine(disabled.Middleware())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(unlimited, http.MethodGet, "/echo", "").Code)
	}
	disabled.Close()
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	t.Cleanup(d.Close)
	r := newEngine(d.Middleware())

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/echo", `{"a":1}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/echo", `{"a":1}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/echo", `{"a":2}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/echo", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/echo", "").Code)
}

func TestDeduplicationExemptRoutes(t *testing.T) {
	d := NewDeduplicator(time.Minute, "/items/:id/toggle")
	t.Cleanup(d.Close)
	r := newEngine(d.Middleware())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/items/a/toggle", `{"userId":"u1"}`).Code)
	}
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/echo", `{}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/echo", `{}`).Code)
}

func TestDeduplicationExpires(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	d := NewDeduplicator(time.Second)
	t.Cleanup(d.Close)
	d.now = func() time.Time { return now }

	assert.False(t, d.seen("k"))
	assert.True(t, d.seen("k"))

	now = now.Add(2 * time.Second)
	d.cleanup()
	assert.False(t, d.seen("k"))
}

func TestDeduplicationDisabled(t *testing.T) {
	d := NewDeduplicator(0)
	r := newEngine(d.Middleware())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/echo", `{}`).Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/echo", "small").Code)
	w := serve(r, http.MethodPost, "/echo", strings.Repeat("x", 64))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodePayloadTooLarge)
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(), Logger())

	w := serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
