package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
)

// SetupReviewRouter: reviews are recorded by the mediating admin after a
// completed deal, so writes need the admin role.
func SetupReviewRouter(v1, admin *echo.Group, reviewHandler *handler.ReviewHandler, requireAdmin ...echo.MiddlewareFunc) {
	v1.GET("/shops/:slug/reviews", reviewHandler.GetShopReviews)
	v1.POST("/shops/:id/reviews", reviewHandler.CreateReview, requireAdmin...)

	admin.DELETE("/reviews/:id", reviewHandler.DeleteReview)
}
