package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
)

func SetupAccRouter(v1, seller *echo.Group, accHandler *handler.AccHandler) {
	v1.GET("/accs", accHandler.SearchAccs)
	v1.GET("/accs/:slug", accHandler.GetAcc)
	v1.GET("/accs/:slug/purchase-guide", accHandler.GetPurchaseGuide)
	v1.POST("/accs/:id/view", accHandler.RecordView)

	seller.GET("/accs", accHandler.ListMyAccs)
	seller.POST("/accs", accHandler.CreateAcc)
	seller.GET("/accs/:id", accHandler.GetMyAcc)
	seller.PUT("/accs/:id", accHandler.UpdateAcc)
	seller.DELETE("/accs/:id", accHandler.DeleteAcc)
	seller.POST("/accs/:id/mark-sold", accHandler.MarkSold)
}
