package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/Eursukkul/event-checkout/internal/dto"
	"github.com/Eursukkul/event-checkout/internal/service"
	"github.com/Eursukkul/event-checkout/pkg/payment"
	"github.com/labstack/echo/v4"
)

// maxWebhookBody bounds what is read before the signature is checked.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	gateway payment.Gateway
	svc     service.ReconcileService
}

func NewWebhookHandler(gateway payment.Gateway, svc service.ReconcileService) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, svc: svc}
}

func (h *WebhookHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/webhooks/payments", h.HandlePayment)
}

// HandlePayment rejects unsigned deliveries with 400 so the provider retries,
// and acknowledges everything else with 200 whatever the outcome.
func (h *WebhookHandler) HandlePayment(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	n, err := h.gateway.ParseWebhook(payload, c.Request().Header.Get(h.gateway.SignatureHeader()))
	if err != nil {
		log.Printf("[Webhook] %s signature rejected: %v", h.gateway.Name(), err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	res := h.svc.Reconcile(c.Request().Context(), n)
	log.Printf("[Webhook] %s event %s (%s): %s", n.Provider, n.EventID, n.Type, res.Outcome)

	return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Outcome: res.Outcome})
}
