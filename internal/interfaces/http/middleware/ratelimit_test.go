package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/stock", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func get(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/stock", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("exhausts tokens within a window", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("terminal-1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("terminal-1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		limiter.Allow("terminal-a")
		limiter.Allow("terminal-a")
		assert.False(t, limiter.Allow("terminal-a"))
		assert.True(t, limiter.Allow("terminal-b"))
	})

	t.Run("window expiry refills the bucket", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		limiter.Allow("terminal-2")
		limiter.Allow("terminal-2")
		assert.False(t, limiter.Allow("terminal-2"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, limiter.Allow("terminal-2"))
	})

	t.Run("remaining tracks consumption", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("fresh"))
		limiter.Allow("fresh")
		limiter.Allow("fresh")
		assert.Equal(t, 3, limiter.Remaining("fresh"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("rejects with 429 once the limit is hit", func(t *testing.T) {
		router := limitedRouter(NewRateLimiter(2, time.Minute))

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, get(router, nil).Code)
		}

		w := get(router, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("operator header scopes the limit", func(t *testing.T) {
		router := limitedRouter(NewRateLimiter(1, time.Minute))

		assert.Equal(t, http.StatusOK, get(router, map[string]string{"X-Operator-ID": "op-a"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, get(router, map[string]string{"X-Operator-ID": "op-a"}).Code)
		assert.Equal(t, http.StatusOK, get(router, map[string]string{"X-Operator-ID": "op-b"}).Code)
	})

	t.Run("exposes limit headers", func(t *testing.T) {
		router := limitedRouter(NewRateLimiter(5, time.Minute))

		w := get(router, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(1, time.Minute)
	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-Warehouse-ID")
	}))
	router.GET("/stock", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	serve := func(warehouse string) int {
		req := httptest.NewRequest("GET", "/stock", nil)
		req.Header.Set("X-Warehouse-ID", warehouse)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("wh-1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("wh-1"))
	assert.Equal(t, http.StatusOK, serve("wh-2"))
}
