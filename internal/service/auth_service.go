package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/models"
	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

// AuthConfig defines how bearer tokens are verified.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// AuthService verifies the identity attached to mutating requests. Tokens
// are issued elsewhere.
type AuthService struct {
	logger *zap.Logger
	config AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{logger: logger, config: config}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.Claims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, options...)
	if err != nil {
		s.logger.Debug("rejected token", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !s.audienceAllowed(claims.Audience) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token audience not accepted")
	}
	if claims.Actor() == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not identify a user")
	}

	return claims, nil
}

// audienceAllowed accepts any token when no audience is configured, otherwise
// at least one configured audience must be present.
func (s *AuthService) audienceAllowed(audience jwt.ClaimStrings) bool {
	if len(s.config.Audience) == 0 {
		return true
	}
	for _, want := range s.config.Audience {
		for _, got := range audience {
			if want == got {
				return true
			}
		}
	}
	return false
}
