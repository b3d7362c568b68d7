package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treestatus-api/internal/dto"
	"github.com/noah-isme/treestatus-api/internal/models"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
	"github.com/noah-isme/treestatus-api/pkg/response"
)

type treeService interface {
	List(ctx context.Context) ([]models.Tree, error)
	Get(ctx context.Context, name string) (*models.Tree, error)
	Create(ctx context.Context, name string, req dto.CreateTreeRequest, who string) (*models.Tree, error)
	Delete(ctx context.Context, name, who string) error
	Update(ctx context.Context, req dto.UpdateTreesRequest, who string) (*models.StatusChange, error)
	Logs(ctx context.Context, name string, all bool) ([]models.Log, error)
}

// TreeHandler exposes tree endpoints.
type TreeHandler struct {
	service treeService
}

// NewTreeHandler builds a new handler.
func NewTreeHandler(service treeService) *TreeHandler {
	return &TreeHandler{service: service}
}

// List godoc
// @Summary List trees
// @Tags Trees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /trees [get]
func (h *TreeHandler) List(c *gin.Context) {
	trees, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trees)
}

// Get godoc
// @Summary Get a tree
// @Tags Trees
// @Produce json
// @Param tree path string true "Tree name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trees/{tree} [get]
func (h *TreeHandler) Get(c *gin.Context) {
	tree, err := h.service.Get(c.Request.Context(), c.Param("tree"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree)
}

// Create godoc
// @Summary Start tracking a tree
// @Tags Trees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tree path string true "Tree name"
// @Param payload body dto.CreateTreeRequest false "Initial state"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /trees/{tree} [put]
func (h *TreeHandler) Create(c *gin.Context) {
	who, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateTreeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tree payload"))
			return
		}
	}
	tree, err := h.service.Create(c.Request.Context(), c.Param("tree"), req, who)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tree)
}

// Delete godoc
// @Summary Stop tracking a tree
// @Tags Trees
// @Security BearerAuth
// @Param tree path string true "Tree name"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /trees/{tree} [delete]
func (h *TreeHandler) Delete(c *gin.Context) {
	who, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("tree"), who); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Update godoc
// @Summary Update several trees
// @Description Sets status and/or message of the day. With remember=true the change is recorded as a revertible stack.
// @Tags Trees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateTreesRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trees [patch]
func (h *TreeHandler) Update(c *gin.Context) {
	who, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateTreesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	stack, err := h.service.Update(c.Request.Context(), req, who)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UpdateTreesResponse{Trees: h.updatedTrees(c, req.Trees), Stack: stack})
}

// updatedTrees reloads the trees after an update. Lookup failures only
// shrink the response since the update itself committed.
func (h *TreeHandler) updatedTrees(c *gin.Context, names []string) []models.Tree {
	trees := make([]models.Tree, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tree, err := h.service.Get(c.Request.Context(), name)
		if err != nil {
			_ = c.Error(err)
			continue
		}
		trees = append(trees, *tree)
	}
	return trees
}

// Logs godoc
// @Summary List the status history of a tree
// @Tags Trees
// @Produce json
// @Param tree path string true "Tree name"
// @Param all query bool false "Return the full history"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trees/{tree}/logs [get]
func (h *TreeHandler) Logs(c *gin.Context) {
	var query dto.TreeLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	logs, err := h.service.Logs(c.Request.Context(), c.Param("tree"), query.All)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs)
}
