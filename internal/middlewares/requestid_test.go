package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(200, c.GetString("request_id")) })
	return r
}

func TestRequestIDPassThrough(t *testing.T) {
	r := newRequestIDRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "  caller-supplied-id  ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "caller-supplied-id", w.Header().Get("X-Request-Id"))
	require.Equal(t, "caller-supplied-id", w.Body.String())
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	r := newRequestIDRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get("X-Request-Id")
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
}

func TestRequestIDRejectsOversizedInbound(t *testing.T) {
	r := newRequestIDRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("x", maxRequestIDLen+1))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	rid := w.Header().Get("X-Request-Id")
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
}
