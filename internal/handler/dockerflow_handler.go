package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treestatus-api/internal/dto"
	"github.com/noah-isme/treestatus-api/pkg/config"
	"github.com/noah-isme/treestatus-api/pkg/response"
)

type heartbeatChecker interface {
	Check(ctx context.Context) error
}

// DockerflowHandler serves the operational endpoints expected by the platform.
type DockerflowHandler struct {
	heartbeat heartbeatChecker
	app       config.AppConfig
}

// NewDockerflowHandler builds a new handler.
func NewDockerflowHandler(heartbeat heartbeatChecker, app config.AppConfig) *DockerflowHandler {
	return &DockerflowHandler{heartbeat: heartbeat, app: app}
}

// Heartbeat godoc
// @Summary Check cache and database health
// @Tags Dockerflow
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /__heartbeat__ [get]
func (h *DockerflowHandler) Heartbeat(c *gin.Context) {
	if err := h.heartbeat.Check(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// LBHeartbeat answers load balancer checks without touching dependencies.
func (h *DockerflowHandler) LBHeartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Version godoc
// @Summary Report the deployed build
// @Tags Dockerflow
// @Produce json
// @Success 200 {object} dto.VersionResponse
// @Router /__version__ [get]
func (h *DockerflowHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, dto.VersionResponse{
		Source:  h.app.Source,
		Version: h.app.Version,
		Commit:  h.app.Commit,
		Build:   h.app.Name,
	})
}
