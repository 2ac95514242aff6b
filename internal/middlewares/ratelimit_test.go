package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, rdb *redis.Client, limit int, window time.Duration) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/write", RateLimit(rdb, "write", limit, window, func(c *gin.Context) string { return "fixed-key" }),
		func(c *gin.Context) { c.Status(204) })
	return r
}

func post(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
	return w
}

func TestRateLimitRejectsPastThreshold(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := newLimitedRouter(t, rdb, 2, time.Minute)

	require.Equal(t, 204, post(r).Code)
	require.Equal(t, 204, post(r).Code)

	w := post(r)
	require.Equal(t, 429, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitWindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := newLimitedRouter(t, rdb, 1, time.Minute)

	require.Equal(t, 204, post(r).Code)
	require.Equal(t, 429, post(r).Code)

	// 窗口过期后计数重置
	mr.FastForward(time.Minute + time.Second)
	require.Equal(t, 204, post(r).Code)
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	r := newLimitedRouter(t, nil, 1, time.Minute)
	for i := 0; i < 5; i++ {
		require.Equal(t, 204, post(r).Code)
	}
}
