package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treestatus-api/internal/models"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

type validatorStub struct{}

func (validatorStub) ValidateToken(token string) (*models.Claims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	claims := &models.Claims{Email: "sheriff@example.com"}
	return claims, nil
}

func newJWTRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PATCH("/trees", JWT(validatorStub{}), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.Claims)
		c.String(http.StatusOK, claims.Actor())
	})
	return router
}

func TestJWTMiddleware(t *testing.T) {
	router := newJWTRouter()

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPatch, "/trees", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, tc.status, w.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "sheriff@example.com", w.Body.String())
		}
	}
}
