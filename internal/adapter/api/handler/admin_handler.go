package handler

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/domain/entity"
	"accmarket/internal/usecase"
	"accmarket/pkg/errors"
	"accmarket/pkg/response"
	"accmarket/pkg/utils"
)

// AdminHandler serves the moderation queue and the tier controls.
type AdminHandler struct {
	shopUseCase *usecase.ShopUseCase
	accUseCase  *usecase.AccUseCase
}

func NewAdminHandler(shopUseCase *usecase.ShopUseCase, accUseCase *usecase.AccUseCase) *AdminHandler {
	return &AdminHandler{
		shopUseCase: shopUseCase,
		accUseCase:  accUseCase,
	}
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// verifyShopRequest accepts the badge flag as is_verified or isVerified.
type verifyShopRequest struct {
	IsVerified      *bool `json:"is_verified"`
	IsVerifiedCamel *bool `json:"isVerified"`
}

func (r verifyShopRequest) verified() (bool, error) {
	switch {
	case r.IsVerified != nil:
		return *r.IsVerified, nil
	case r.IsVerifiedCamel != nil:
		return *r.IsVerifiedCamel, nil
	}
	return false, errors.Validation("is_verified", "is_verified is required")
}

type vipRequest struct {
	Days int `json:"days" validate:"required,gt=0,max=3650"`
}

type partnerRequest struct {
	Tier string `json:"tier" validate:"max=32"`
}

func (h *AdminHandler) ListShops(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	shops, total, err := h.shopUseCase.ListForModeration(
		c.Request().Context(),
		entity.ShopStatus(c.QueryParam("status")),
		pagination.PageSize,
		pagination.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, shops, total, pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) GetShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.GetByID(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"shop":       shop,
		"commission": h.shopUseCase.Commission(shop),
	})
}

func (h *AdminHandler) ApproveShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.Approve(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) RejectShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.Reject(c.Request().Context(), id, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) BanShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.Ban(c.Request().Context(), id, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) UpdateShop(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req verifyShopRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	verified, err := req.verified()
	if err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.SetVerified(c.Request().Context(), id, verified)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) GrantVIP(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req vipRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.GrantVIP(c.Request().Context(), id, req.Days)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) RevokeVIP(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.RevokeVIP(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) SetPartner(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req partnerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.SetPartner(c.Request().Context(), id, req.Tier)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) RemovePartner(c echo.Context) error {
	id, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	shop, err := h.shopUseCase.RemovePartner(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, shop)
}

func (h *AdminHandler) ListAccs(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	accs, total, err := h.accUseCase.ListForModeration(
		c.Request().Context(),
		entity.AccStatus(c.QueryParam("status")),
		pagination.PageSize,
		pagination.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, accs, total, pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) GetAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.GetByID(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AdminHandler) ApproveAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.Approve(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AdminHandler) RejectAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.Reject(c.Request().Context(), id, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

// MarkSold is used by the mediating admin once the buyer has confirmed.
func (h *AdminHandler) MarkSold(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.MarkSoldByAdmin(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AdminHandler) SetAccFlags(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req entity.AccFlags
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	acc, err := h.accUseCase.SetFlags(c.Request().Context(), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AdminHandler) DeleteAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.accUseCase.DeleteByAdmin(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Listing deleted"})
}
