package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
)

func SetupShopRouter(v1, seller *echo.Group, shopHandler *handler.ShopHandler, requireAuth echo.MiddlewareFunc) {
	v1.GET("/shops", shopHandler.ListShops)
	v1.GET("/shops/:slug", shopHandler.GetShopPage)

	v1.POST("/shops", shopHandler.CreateShop, requireAuth)
	v1.PUT("/shops/:id", shopHandler.UpdateShop, requireAuth)
	v1.POST("/shops/:id/resubmit", shopHandler.ResubmitShop, requireAuth)

	seller.GET("/shop", shopHandler.GetMyShop)
}
