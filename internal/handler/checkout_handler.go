package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/Eursukkul/event-checkout/internal/dto"
	"github.com/Eursukkul/event-checkout/internal/service"
	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	svc service.CheckoutService
}

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/checkout", h.CreateCheckout, mw...)
}

func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid checkout payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.svc.CreateCheckout(c.Request().Context(), service.CheckoutInput{
		EventID:  req.EventID,
		TicketID: req.TicketID,
		Quantity: req.Qty,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotAvailable),
			errors.Is(err, service.ErrTicketNotAvailable),
			errors.Is(err, service.ErrSalesClosed),
			errors.Is(err, service.ErrQuantityOutOfRange),
			errors.Is(err, service.ErrInvalidPrice):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotEnoughTickets):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrGatewayUnavailable):
			return echo.NewHTTPError(http.StatusBadGateway, "error creating checkout session")
		default:
			log.Printf("[Checkout] unexpected error: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "error creating checkout session")
		}
	}

	return c.JSON(http.StatusOK, dto.CheckoutResponse{URL: res.URL, SessionID: res.SessionID})
}
