package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arena-ledger/internal/adapter/http/middleware"
	redisStore "arena-ledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedRouter(t *testing.T, limit int64) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := redisStore.NewRateLimitStore(client)

	rule := middleware.RateLimitRule{Limit: limit, Window: time.Minute}
	r := gin.New()
	r.POST("/limited", middleware.RateLimiter(store, "mutations", rule, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, mr
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	r, _ := rateLimitedRouter(t, 3)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.Header.Set(middleware.HeaderAccessKey, "booking-service")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_OverLimit(t *testing.T) {
	r, _ := rateLimitedRouter(t, 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.Header.Set(middleware.HeaderAccessKey, "booking-service")
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_001", resp["error_code"])
}

func TestRateLimiter_IndependentCallers(t *testing.T) {
	r, _ := rateLimitedRouter(t, 1)

	for _, svc := range []string{"booking-service", "order-service"} {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.Header.Set(middleware.HeaderAccessKey, svc)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_Headers(t *testing.T) {
	r, _ := rateLimitedRouter(t, 5)

	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	req.Header.Set(middleware.HeaderAccessKey, "booking-service")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimiter_StoreDown_AllowsRequest(t *testing.T) {
	r, mr := rateLimitedRouter(t, 1)
	mr.Close()

	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	req.Header.Set(middleware.HeaderAccessKey, "booking-service")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
