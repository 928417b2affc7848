package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/event-checkout/internal/dto"
	"github.com/Eursukkul/event-checkout/internal/service"
	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListEvents)
	g.GET("/:id", h.GetEvent)
}

func (h *CatalogHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.EventSummaryResponse, len(events))
	for i := range events {
		resp[i] = dto.ToEventSummaryResponse(&events[i])
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	detail, err := h.svc.GetEvent(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToEventDetailResponse(detail))
}
