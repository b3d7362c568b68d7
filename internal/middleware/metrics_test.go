package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treestatus-api/internal/service"
)

type observation struct {
	method string
	path   string
	status int
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.seen = append(r.seen, observation{method: method, path: path, status: status})
}

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/trees/:tree", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tree := range []string{"try", "autoland"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trees/"+tree, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMetricsMiddlewareFoldsUnmatchedAndSkipsProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer, "/__lbheartbeat__"))
	router.GET("/__lbheartbeat__", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/stack/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/__lbheartbeat__", "/stack/9", "/wp-admin", "/.env"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observation{
		{method: http.MethodGet, path: "/stack/:id", status: http.StatusNotFound},
		{method: http.MethodGet, path: unmatchedRoute, status: http.StatusNotFound},
		{method: http.MethodGet, path: unmatchedRoute, status: http.StatusNotFound},
	}, observer.seen)
}
