package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/treestatus-api/internal/middleware"
	"github.com/noah-isme/treestatus-api/internal/models"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext returns the caller recorded as "who" on mutations.
func actorFromContext(c *gin.Context) (string, error) {
	actor := claimsFromContext(c).Actor()
	if actor == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	return actor, nil
}

func stackIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "stack id must be a positive integer")
	}
	return id, nil
}
