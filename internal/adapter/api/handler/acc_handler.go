package handler

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/domain/entity"
	"accmarket/internal/usecase"
	"accmarket/pkg/logger"
	"accmarket/pkg/response"
	"accmarket/pkg/utils"
)

type AccHandler struct {
	accUseCase       *usecase.AccUseCase
	listingUseCase   *usecase.ListingUseCase
	mediationUseCase *usecase.MediationUseCase
}

func NewAccHandler(
	accUseCase *usecase.AccUseCase,
	listingUseCase *usecase.ListingUseCase,
	mediationUseCase *usecase.MediationUseCase,
) *AccHandler {
	return &AccHandler{
		accUseCase:       accUseCase,
		listingUseCase:   listingUseCase,
		mediationUseCase: mediationUseCase,
	}
}

// SearchAccs serves GET /accs?game=&sort=&minPrice=&maxPrice=&q=&page=&limit=.
func (h *AccHandler) SearchAccs(c echo.Context) error {
	minPrice, err := queryInt64(c, "minPrice")
	if err != nil {
		return response.Error(c, err)
	}
	maxPrice, err := queryInt64(c, "maxPrice")
	if err != nil {
		return response.Error(c, err)
	}
	pagination := utils.GetPaginationParams(c)

	accs, total, err := h.listingUseCase.SearchAccs(c.Request().Context(), usecase.AccQuery{
		Game:     c.QueryParam("game"),
		Sort:     c.QueryParam("sort"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Q:        c.QueryParam("q"),
		Limit:    pagination.PageSize,
		Offset:   pagination.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, accs, total, pagination.Page, pagination.PageSize)
}

// GetAcc returns the public detail page and counts a view.
func (h *AccHandler) GetAcc(c echo.Context) error {
	slug, err := requireParam(c, "slug", "Acc slug")
	if err != nil {
		return response.Error(c, err)
	}

	detail, err := h.mediationUseCase.Detail(c.Request().Context(), slug)
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.accUseCase.RecordView(c.Request().Context(), detail.Acc.ID); err != nil {
		logger.Warn("Failed to record view for acc %s: %v", detail.Acc.ID, err)
	}
	return response.Success(c, detail)
}

func (h *AccHandler) GetPurchaseGuide(c echo.Context) error {
	slug, err := requireParam(c, "slug", "Acc slug")
	if err != nil {
		return response.Error(c, err)
	}

	guide, err := h.mediationUseCase.PurchaseGuide(c.Request().Context(), slug)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, guide)
}

func (h *AccHandler) RecordView(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.accUseCase.RecordView(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"id": id})
}

func (h *AccHandler) CreateAcc(c echo.Context) error {
	var req usecase.SubmitAccInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.Submit(c.Request().Context(), currentUID(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, acc)
}

func (h *AccHandler) UpdateAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	var req usecase.EditAccInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.Edit(c.Request().Context(), currentUID(c), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AccHandler) DeleteAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.accUseCase.Delete(c.Request().Context(), currentUID(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Listing deleted"})
}

func (h *AccHandler) MarkSold(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.MarkSold(c.Request().Context(), currentUID(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AccHandler) GetMyAcc(c echo.Context) error {
	id, err := requireParam(c, "id", "Acc ID")
	if err != nil {
		return response.Error(c, err)
	}

	acc, err := h.accUseCase.GetForOwner(c.Request().Context(), currentUID(c), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, acc)
}

func (h *AccHandler) ListMyAccs(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	accs, total, err := h.accUseCase.ListMine(
		c.Request().Context(),
		currentUID(c),
		entity.AccStatus(c.QueryParam("status")),
		pagination.PageSize,
		pagination.Offset,
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, accs, total, pagination.Page, pagination.PageSize)
}
