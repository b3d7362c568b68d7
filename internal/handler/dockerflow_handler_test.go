package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treestatus-api/internal/dto"
	"github.com/noah-isme/treestatus-api/pkg/config"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

type heartbeatStub struct{ err error }

func (h heartbeatStub) Check(context.Context) error { return h.err }

func TestDockerflowHeartbeatHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:6379: connect: connection refused")
	handler := NewDockerflowHandler(heartbeatStub{err: appErrors.WrapAs(appErrors.ErrHeartbeat, cause, "")}, config.AppConfig{})

	c, w := newTestContext(http.MethodGet, "/__heartbeat__", nil)
	handler.Heartbeat(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	appErr := decodeEnvelope(t, w, nil)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.HeartbeatMessage, appErr.Message)
}

func TestDockerflowHeartbeatHealthy(t *testing.T) {
	handler := NewDockerflowHandler(heartbeatStub{}, config.AppConfig{})
	c, w := newTestContext(http.MethodGet, "/__heartbeat__", nil)
	handler.Heartbeat(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDockerflowVersion(t *testing.T) {
	handler := NewDockerflowHandler(heartbeatStub{}, config.AppConfig{Name: "treestatus-api", Version: "1.2.3", Commit: "abc123", Source: "https://example.com/treestatus"})
	c, w := newTestContext(http.MethodGet, "/__version__", nil)
	handler.Version(c)

	require.Equal(t, http.StatusOK, w.Code)
	var version dto.VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &version))
	assert.Equal(t, dto.VersionResponse{Source: "https://example.com/treestatus", Version: "1.2.3", Commit: "abc123", Build: "treestatus-api"}, version)
}
