package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads ?page= and ?limit= (or ?pageSize=). Missing or
// invalid values fall back to the first page of DefaultPageSize; oversized
// pages are clamped to MaxPageSize.
func GetPaginationParams(c echo.Context) PaginationParams {
	page := queryPositive(c, "page", 1)
	size := queryPositive(c, "limit", 0)
	if size == 0 {
		size = queryPositive(c, "pageSize", DefaultPageSize)
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PaginationParams{
		Page:     page,
		PageSize: size,
		Offset:   (page - 1) * size,
	}
}

func queryPositive(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Window slices an already ordered sequence for the requested page.
func Window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
