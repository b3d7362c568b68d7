package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/trees", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAllowAllWhenUnconfigured(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trees", nil)
	req.Header.Set("Origin", "https://treestatus.example")
	newRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRestrictedOrigins(t *testing.T) {
	r := newRouter([]string{"https://ui.example/"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trees", nil)
	req.Header.Set("Origin", "https://ui.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://ui.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/trees", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/trees", nil)
	newRouter(nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
