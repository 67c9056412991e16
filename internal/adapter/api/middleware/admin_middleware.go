package middleware

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/infrastructure/firebase"
	"accmarket/pkg/errors"
	"accmarket/pkg/response"
)

// AdminOnly must run after Authenticate. The role comes from the token's
// custom claim, so no store lookup is needed.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(ContextUID).(string); !ok {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}
		if role, _ := c.Get(ContextRole).(string); role != firebase.RoleAdmin {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}
		return next(c)
	}
}
