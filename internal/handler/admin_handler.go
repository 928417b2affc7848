package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/event-checkout/internal/dto"
	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/service"
	"github.com/labstack/echo/v4"
)

var validOutcomes = map[models.WebhookOutcome]bool{
	models.OutcomeProcessed:     true,
	models.OutcomeDuplicate:     true,
	models.OutcomeIgnored:       true,
	models.OutcomeMalformed:     true,
	models.OutcomeTicketMissing: true,
	models.OutcomeOverCapacity:  true,
	models.OutcomeFailed:        true,
}

type AdminHandler struct {
	svc service.ReportService
}

func NewAdminHandler(svc service.ReportService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/events/:id/reservations", h.ListReservations)
	g.GET("/reservations/:id/payments", h.ListPayments)
	g.GET("/webhook-events", h.ListWebhookEvents)
}

func (h *AdminHandler) ListReservations(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	reservations, err := h.svc.ListReservations(c.Request().Context(), uint(eventID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToReservationResponse(&reservations[i])
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListPayments(c echo.Context) error {
	reservationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	payments, err := h.svc.ListPayments(c.Request().Context(), uint(reservationID))
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		resp[i] = dto.ToPaymentResponse(&payments[i])
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListWebhookEvents(c echo.Context) error {
	var outcome *models.WebhookOutcome
	if s := c.QueryParam("outcome"); s != "" {
		o := models.WebhookOutcome(s)
		if !validOutcomes[o] {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown outcome")
		}
		outcome = &o
	}

	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	events, err := h.svc.ListWebhookEvents(c.Request().Context(), outcome, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, events)
}
