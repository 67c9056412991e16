package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
)

func SetupGameRouter(v1, admin *echo.Group, gameHandler *handler.GameHandler) {
	v1.GET("/games", gameHandler.ListGames)
	v1.GET("/games/:slug", gameHandler.GetGame)

	admin.GET("/games", gameHandler.ListAllGames)
	admin.POST("/games", gameHandler.CreateGame)
	admin.PUT("/games/:id", gameHandler.UpdateGame)
}
