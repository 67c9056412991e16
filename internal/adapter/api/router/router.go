package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
	"accmarket/internal/adapter/api/middleware"
)

// Setup registers every route under /v1. Callers are identified before
// limit runs, so signed-in users are limited per uid and everyone else per
// client IP. A nil limit disables limiting.
func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, limit echo.MiddlewareFunc) {
	e.Use(authMiddleware.Identify)
	if limit != nil {
		e.Use(limit)
	}

	SetupHealthRouter(e, h.Health)

	v1 := e.Group("/v1")
	seller := v1.Group("/seller", authMiddleware.Authenticate)
	admin := v1.Group("/admin", authMiddleware.Authenticate, middleware.AdminOnly)
	requireAdmin := []echo.MiddlewareFunc{authMiddleware.Authenticate, middleware.AdminOnly}

	SetupShopRouter(v1, seller, h.Shop, authMiddleware.Authenticate)
	SetupAccRouter(v1, seller, h.Acc)
	SetupGameRouter(v1, admin, h.Game)
	SetupReviewRouter(v1, admin, h.Review, requireAdmin...)
	SetupAdminRouter(admin, h.Admin)
	if h.Upload != nil {
		SetupUploadRouter(seller, h.Upload)
	}
}
