package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/middleware"
	"accmarket/pkg/errors"
)

// Handlers groups every resource handler for the router.
type Handlers struct {
	Shop   *ShopHandler
	Acc    *AccHandler
	Admin  *AdminHandler
	Game   *GameHandler
	Review *ReviewHandler
	Upload *UploadHandler
	Health *HealthHandler
}

func currentUID(c echo.Context) string {
	uid, _ := c.Get(middleware.ContextUID).(string)
	return uid
}

func requireParam(c echo.Context, name, label string) (string, error) {
	v := c.Param(name)
	if v == "" {
		return "", errors.BadRequest(label+" is required", nil)
	}
	return v, nil
}

// queryInt64 parses an optional integer query value.
func queryInt64(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Validation(name, name+" must be a whole number")
	}
	return v, nil
}
