package server

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eyupilis/trading-platform/internal/domain"
	apperrors "github.com/eyupilis/trading-platform/internal/errors"
)

// traderIDKey is the echo context key the auth middleware sets.
const traderIDKey = "traderID"

// traderClaims is the token shape minted by the (external) auth service.
// sub carries the trader's UUID.
type traderClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// requireTrader verifies the bearer token and stores the trader's UUID in the
// request context. Tokens are verified only; issuance lives elsewhere.
func (s *Server) requireTrader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		claims := &traderClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			return apperrors.UnauthorizedError("invalid token")
		}

		if claims.Role != domain.RoleTrader {
			return apperrors.ForbiddenError("trader role required")
		}

		traderID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return apperrors.UnauthorizedError("invalid token subject")
		}

		c.Set(traderIDKey, traderID)
		return next(c)
	}
}

// traderID extracts the authenticated trader set by requireTrader.
func traderID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(traderIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("missing trader ID in context", nil)
	}
	return id, nil
}
