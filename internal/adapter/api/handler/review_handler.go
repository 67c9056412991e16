package handler

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/usecase"
	"accmarket/pkg/response"
	"accmarket/pkg/utils"
)

type ReviewHandler struct {
	reviewUseCase *usecase.ReviewUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase: reviewUseCase,
	}
}

// CreateReview is recorded by the admin after a mediated sale closes.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	shopID, err := requireParam(c, "id", "Shop ID")
	if err != nil {
		return response.Error(c, err)
	}

	var req usecase.CreateReviewInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.reviewUseCase.CreateReview(c.Request().Context(), shopID, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, result)
}

func (h *ReviewHandler) GetShopReviews(c echo.Context) error {
	slug, err := requireParam(c, "slug", "Shop slug")
	if err != nil {
		return response.Error(c, err)
	}
	pagination := utils.GetPaginationParams(c)

	reviews, total, err := h.reviewUseCase.ListByShopSlug(c.Request().Context(), slug, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, reviews, total, pagination.Page, pagination.PageSize)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := requireParam(c, "id", "Review ID")
	if err != nil {
		return response.Error(c, err)
	}

	stats, err := h.reviewUseCase.DeleteReview(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}
