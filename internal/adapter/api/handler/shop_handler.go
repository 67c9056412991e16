package handler

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/usecase"
	"accmarket/pkg/response"
)

type ShopHandler struct {
	shopUseCase    *usecase.ShopUseCase
	listingUseCase *usecase.ListingUseCase
}

func NewShopHandler(shopUseCase *usecase.ShopUseCase, listingUseCase *usecase.ListingUseCase) *ShopHandler {
	return &ShopHandler{
		shopUseCase:    shopUseCase,
		listingUseCase: listingUseCase,
	}
}

func (h *ShopHandler) CreateShop(c echo.Context) error {
	var req usecase.SubmitShopInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.Submit(c.Request().Context(), currentUID(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, shop)
}

func (h *ShopHandler) UpdateShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	var req usecase.UpdateShopInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.UpdateProfile(c.Request().Context(), currentUID(c), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *ShopHandler) ResubmitShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.Resubmit(c.Request().Context(), currentUID(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *ShopHandler) GetMyShop(c echo.Context) error {
	dashboard, err := h.shopUseCase.Dashboard(c.Request().Context(), currentUID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, dashboard)
}

func (h *ShopHandler) ListShops(c echo.Context) error {
	home, err := h.listingUseCase.HomeShops(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, home)
}

func (h *ShopHandler) GetShopPage(c echo.Context) error {
	slug, err := requireParam(c, "slug", "Shop slug")
	if err != nil {
		return response.Error(c, err)
	}

	page, err := h.listingUseCase.ShopPage(c.Request().Context(), slug, c.QueryParam("sort"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, page)
}
