package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSyncMetrics_RecordCycle(t *testing.T) {
	m, err := NewSyncMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordCycle(context.Background(), "applied", "interval", 2, 1, 30*time.Millisecond)
	})

	var nilMetrics *SyncMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordCycle(context.Background(), "failed", "manual", 0, 0, time.Millisecond)
	})
}

func TestMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(TracingMiddleware("quotesync"), Middleware())
	r.GET("/api/v1/categories", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/api/v1/categories", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.NotEqual(t, http.StatusInternalServerError, w.Code, path)
	}
}
