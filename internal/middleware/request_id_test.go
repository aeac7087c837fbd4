package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"leave-review/internal/middleware"
	"leave-review/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDAndContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ContextLogger(zap.New(core)), middleware.Metrics())
	r.GET("/ping", func(c *gin.Context) {
		seen = contextutil.GetRequestID(c.Request.Context())
		contextutil.GetLogger(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		logs.TakeAll()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "rid-42")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, "rid-42", seen)
		assert.Equal(t, "rid-42", w.Header().Get(middleware.RequestIDHeader))

		entries := logs.All()
		if assert.Len(t, entries, 2) {
			assert.Equal(t, "rid-42", entries[0].ContextMap()["request_id"])
			assert.Equal(t, "http request", entries[1].Message)
			assert.Equal(t, "/ping", entries[1].ContextMap()["path"])
			assert.EqualValues(t, http.StatusNoContent, entries[1].ContextMap()["status"])
		}
	})

	t.Run("generates id when missing", func(t *testing.T) {
		w := httptest.NewRecorder()

		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.NotEmpty(t, seen)
		assert.NotEqual(t, "rid-42", seen)
		assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
	})
}
