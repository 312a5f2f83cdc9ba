package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(t *testing.T, rate int, window time.Duration) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(rate, window)
	t.Cleanup(rl.Stop)
	router := gin.New()
	router.Use(rl.Limit())
	router.POST("/apply", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "success"})
	})
	return router
}

func doRequest(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/apply", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	router := limitedRouter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		w := doRequest(router, "127.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	router := limitedRouter(t, 2, time.Minute)

	doRequest(router, "127.0.0.1")
	doRequest(router, "127.0.0.1")
	w := doRequest(router, "127.0.0.1")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestRateLimiter_SeparateIPs(t *testing.T) {
	router := limitedRouter(t, 1, time.Minute)

	first := doRequest(router, "10.0.0.1")
	second := doRequest(router, "10.0.0.2")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestRateLimiter_StopKeepsLimiterUsable(t *testing.T) {
	// Stop only ends the background cleanup; an already-wired limiter keeps
	// enforcing its window.
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()

	router := gin.New()
	router.Use(rl.Limit())
	router.POST("/apply", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "success"})
	})

	assert.Equal(t, http.StatusOK, doRequest(router, "127.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "127.0.0.1").Code)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	router := limitedRouter(t, 1, 50*time.Millisecond)

	doRequest(router, "127.0.0.1")
	blocked := doRequest(router, "127.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	time.Sleep(60 * time.Millisecond)
	allowed := doRequest(router, "127.0.0.1")
	assert.Equal(t, http.StatusOK, allowed.Code)
}
