package handler

import (
	"github.com/labstack/echo/v4"

	"accmarket/internal/usecase"
	"accmarket/pkg/response"
)

type GameHandler struct {
	gameUseCase *usecase.GameUseCase
}

func NewGameHandler(gameUseCase *usecase.GameUseCase) *GameHandler {
	return &GameHandler{
		gameUseCase: gameUseCase,
	}
}

func (h *GameHandler) ListGames(c echo.Context) error {
	games, err := h.gameUseCase.ListGames(c.Request().Context(), true)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, games)
}

func (h *GameHandler) ListAllGames(c echo.Context) error {
	games, err := h.gameUseCase.ListGames(c.Request().Context(), false)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, games)
}

func (h *GameHandler) GetGame(c echo.Context) error {
	slug, err := requireParam(c, "slug", "Game slug")
	if err != nil {
		return response.Error(c, err)
	}

	game, err := h.gameUseCase.GetPublicGame(c.Request().Context(), slug)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, game)
}

func (h *GameHandler) CreateGame(c echo.Context) error {
	var req usecase.GameInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	game, err := h.gameUseCase.CreateGame(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, game)
}

func (h *GameHandler) UpdateGame(c echo.Context) error {
	id, err := requireParam(c, "id", "Game ID")
	if err != nil {
		return response.Error(c, err)
	}
	var req usecase.GameInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	game, err := h.gameUseCase.UpdateGame(c.Request().Context(), id, req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, game)
}
