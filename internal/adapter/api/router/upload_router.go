package router

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/adapter/api/handler"
)

func SetupUploadRouter(seller *echo.Group, uploadHandler *handler.UploadHandler) {
	seller.POST("/uploads", uploadHandler.UploadImage)
}
