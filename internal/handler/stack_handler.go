package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/pkg/response"
)

type stackService interface {
	List(ctx context.Context) ([]models.StatusChange, error)
	Get(ctx context.Context, id int64) (*models.StatusChange, error)
	Revert(ctx context.Context, id int64, who string) (*models.StatusChange, error)
	Discard(ctx context.Context, id int64, who string) error
}

// StackHandler exposes remembered status changes.
type StackHandler struct {
	service stackService
}

// NewStackHandler builds a new handler.
func NewStackHandler(service stackService) *StackHandler {
	return &StackHandler{service: service}
}

// List godoc
// @Summary List remembered status changes
// @Tags Stack
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stack [get]
func (h *StackHandler) List(c *gin.Context) {
	stacks, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stacks)
}

// Get godoc
// @Summary Get a remembered status change
// @Tags Stack
// @Produce json
// @Param id path int true "Stack ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stack/{id} [get]
func (h *StackHandler) Get(c *gin.Context) {
	id, err := stackIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stack, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stack)
}

// Revert godoc
// @Summary Revert a remembered status change
// @Tags Stack
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stack ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stack/{id} [put]
func (h *StackHandler) Revert(c *gin.Context) {
	who, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := stackIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stack, err := h.service.Revert(c.Request.Context(), id, who)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stack)
}

// Discard godoc
// @Summary Forget a remembered status change without reverting it
// @Tags Stack
// @Security BearerAuth
// @Param id path int true "Stack ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /stack/{id} [delete]
func (h *StackHandler) Discard(c *gin.Context) {
	who, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := stackIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Discard(c.Request.Context(), id, who); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
