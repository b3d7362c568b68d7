package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/handler"
	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/internal/repository"
	"github.com/noah-isme/treestatus-api/internal/service"
	"github.com/noah-isme/treestatus-api/pkg/cache"
	"github.com/noah-isme/treestatus-api/pkg/config"
	"github.com/noah-isme/treestatus-api/pkg/database"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Env: config.EnvProduction, App: config.AppConfig{Name: "treestatus-api", Version: "test"}}
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "treestatus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(context.Background(), db))

	backend, err := cache.NewMemory(nil)
	require.NoError(t, err)

	logr := zap.NewNop()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(backend, metrics, time.Minute, logr)
	stackRepo := repository.NewStackRepository(db)
	treeSvc := service.NewTreeService(repository.NewTreeRepository(db), repository.NewLogRepository(db), stackRepo,
		cacheSvc, nil, metrics, nil, logr, service.TreeServiceConfig{})
	stackSvc := service.NewStackService(stackRepo, cacheSvc, nil, metrics, logr, time.Second)

	return newRouter(cfg, logr, metrics, service.NewAuthService(logr, service.AuthConfig{Secret: testSecret}), routeHandlers{
		trees:      handler.NewTreeHandler(treeSvc),
		stacks:     handler.NewStackHandler(stackSvc),
		dockerflow: handler.NewDockerflowHandler(service.NewHeartbeatService(backend, db, metrics, logr), cfg.App),
		metrics:    handler.NewMetricsHandler(metrics),
	})
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	claims := models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, r http.Handler, method, path, auth string, body interface{}) (*httptest.ResponseRecorder, json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	}
	return w, envelope.Data
}

func TestStackLifecycleOverHTTP(t *testing.T) {
	r := newTestServer(t)
	sheriff := bearer(t, "sheriff@example.com")

	for _, name := range []string{"autoland", "try"} {
		w, _ := do(t, r, http.MethodPut, "/trees/"+name, sheriff, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, _ := do(t, r, http.MethodPatch, "/trees", "", map[string]interface{}{"trees": []string{"try"}, "status": "closed", "reason": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, data := do(t, r, http.MethodPatch, "/trees", sheriff, map[string]interface{}{
		"trees":    []string{"autoland", "try"},
		"status":   "closed",
		"reason":   "bustage",
		"tags":     []string{"infra"},
		"remember": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Trees []models.Tree        `json:"trees"`
		Stack *models.StatusChange `json:"stack"`
	}
	require.NoError(t, json.Unmarshal(data, &updated))
	require.NotNil(t, updated.Stack)
	require.Len(t, updated.Trees, 2)
	assert.Equal(t, models.TreeStatusClosed, updated.Trees[0].Status)

	w, data = do(t, r, http.MethodGet, "/stack", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stacks []models.StatusChange
	require.NoError(t, json.Unmarshal(data, &stacks))
	require.Len(t, stacks, 1)
	assert.Equal(t, "sheriff@example.com", stacks[0].Who)

	w, _ = do(t, r, http.MethodPut, fmt.Sprintf("/stack/%d", updated.Stack.ID), bearer(t, "reverter@example.com"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, data = do(t, r, http.MethodGet, "/trees/try", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree models.Tree
	require.NoError(t, json.Unmarshal(data, &tree))
	assert.Equal(t, models.TreeStatusOpen, tree.Status)

	w, data = do(t, r, http.MethodGet, "/trees/try/logs?all=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.Log
	require.NoError(t, json.Unmarshal(data, &logs))
	require.Len(t, logs, 3)
	assert.Equal(t, "reverter@example.com", logs[0].Who)

	w, _ = do(t, r, http.MethodPut, fmt.Sprintf("/stack/%d", updated.Stack.ID), bearer(t, "reverter@example.com"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDockerflowEndpoints(t *testing.T) {
	r := newTestServer(t)

	w, _ := do(t, r, http.MethodGet, "/__heartbeat__", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/__lbheartbeat__", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/__version__", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)

	w, _ = do(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
