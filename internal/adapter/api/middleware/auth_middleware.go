package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"accmarket/internal/infrastructure/firebase"
	"accmarket/pkg/errors"
	"accmarket/pkg/response"
)

const (
	ContextUID  = "uid"
	ContextRole = "role"
)

// TokenVerifier checks a bearer ID token. *firebase.AuthClient satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate rejects the request unless it carries a valid bearer token.
// A caller already resolved by Identify is not verified twice.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid, ok := c.Get(ContextUID).(string); ok && uid != "" {
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		token, err := m.verifier.VerifyIDToken(c.Request().Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set(ContextUID, token.UID)
		c.Set(ContextRole, firebase.RoleOf(token))
		return next(c)
	}
}

// Identify resolves the caller when a valid bearer token is present and
// never rejects. Public routes use it so limits can be keyed per user.
func (m *AuthMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" || token == authHeader {
			return next(c)
		}

		decoded, err := m.verifier.VerifyIDToken(c.Request().Context(), token)
		if err != nil {
			return next(c)
		}
		c.Set(ContextUID, decoded.UID)
		c.Set(ContextRole, firebase.RoleOf(decoded))
		return next(c)
	}
}
