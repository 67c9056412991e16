package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
)

func SetupAdminRouter(admin *echo.Group, adminHandler *handler.AdminHandler) {
	shops := admin.Group("/shops")
	shops.GET("", adminHandler.ListShops)
	shops.GET("/:id", adminHandler.GetShop)
	shops.PUT("/:id", adminHandler.UpdateShop)
	shops.POST("/:id/approve", adminHandler.ApproveShop)
	shops.POST("/:id/reject", adminHandler.RejectShop)
	shops.POST("/:id/ban", adminHandler.BanShop)
	shops.POST("/:id/vip", adminHandler.GrantVIP)
	shops.DELETE("/:id/vip", adminHandler.RevokeVIP)
	shops.POST("/:id/partner", adminHandler.SetPartner)
	shops.DELETE("/:id/partner", adminHandler.RemovePartner)

	accs := admin.Group("/accs")
	accs.GET("", adminHandler.ListAccs)
	accs.GET("/:id", adminHandler.GetAcc)
	accs.POST("/:id/approve", adminHandler.ApproveAcc)
	accs.POST("/:id/reject", adminHandler.RejectAcc)
	accs.POST("/:id/mark-sold", adminHandler.MarkSold)
	accs.PUT("/:id/flags", adminHandler.SetAccFlags)
	accs.DELETE("/:id", adminHandler.DeleteAcc)
}
