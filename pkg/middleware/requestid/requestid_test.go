package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareGeneratesAndEchoes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen, fromCtx string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, w.Header().Get(headerKey))
	require.Equal(t, seen, fromCtx)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "req-42")
	r.ServeHTTP(w, req)
	require.Equal(t, "req-42", seen)
}

func TestMiddlewareReplacesUnsafeIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	for _, raw := range []string{"abc def", "id\"injected", strings.Repeat("a", maxLength+1)} {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(headerKey, raw)
		r.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, raw, seen)
		assert.Len(t, seen, 36, raw)
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
}
