package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treestatus-api/internal/models"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

type stackServiceMock struct {
	stacks   map[int64]models.StatusChange
	reverter string
}

func (m *stackServiceMock) List(ctx context.Context) ([]models.StatusChange, error) {
	out := []models.StatusChange{}
	for _, stack := range m.stacks {
		out = append(out, stack)
	}
	return out, nil
}

func (m *stackServiceMock) Get(ctx context.Context, id int64) (*models.StatusChange, error) {
	stack, ok := m.stacks[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "stack not found")
	}
	return &stack, nil
}

func (m *stackServiceMock) Revert(ctx context.Context, id int64, who string) (*models.StatusChange, error) {
	stack, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.reverter = who
	delete(m.stacks, id)
	return stack, nil
}

func (m *stackServiceMock) Discard(ctx context.Context, id int64, who string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	delete(m.stacks, id)
	return nil
}

func newStackServiceMock() *stackServiceMock {
	return &stackServiceMock{stacks: map[int64]models.StatusChange{
		3: {ID: 3, Status: models.TreeStatusClosed, Trees: []models.StatusChangeTree{{ID: 1, Tree: "try"}}},
	}}
}

func TestStackHandlerGet(t *testing.T) {
	handler := NewStackHandler(newStackServiceMock())

	c, w := newTestContext(http.MethodGet, "/stack/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	var stack models.StatusChange
	decodeEnvelope(t, w, &stack)
	assert.Equal(t, []string{"try"}, stack.TreeNames())

	for _, id := range []string{"abc", "0", "-4"} {
		c, w = newTestContext(http.MethodGet, "/stack/"+id, nil)
		c.Params = gin.Params{{Key: "id", Value: id}}
		handler.Get(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestStackHandlerRevert(t *testing.T) {
	svc := newStackServiceMock()
	handler := NewStackHandler(svc)

	c, w := newTestContext(http.MethodPut, "/stack/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	handler.Revert(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodPut, "/stack/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	withUser(c, "reverter")
	handler.Revert(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reverter", svc.reverter)

	c, w = newTestContext(http.MethodPut, "/stack/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	withUser(c, "reverter")
	handler.Revert(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStackHandlerDiscard(t *testing.T) {
	svc := newStackServiceMock()
	handler := NewStackHandler(svc)

	c, _ := newTestContext(http.MethodDelete, "/stack/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	withUser(c, "sheriff")
	handler.Discard(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Empty(t, svc.stacks)
}
