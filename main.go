package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/event-checkout/config"
	"github.com/Eursukkul/event-checkout/internal/consumer"
	"github.com/Eursukkul/event-checkout/internal/handler"
	"github.com/Eursukkul/event-checkout/internal/middleware"
	"github.com/Eursukkul/event-checkout/internal/repository"
	"github.com/Eursukkul/event-checkout/internal/service"
	"github.com/Eursukkul/event-checkout/pkg/cache"
	"github.com/Eursukkul/event-checkout/pkg/database"
	"github.com/Eursukkul/event-checkout/pkg/payment"
	"github.com/Eursukkul/event-checkout/pkg/rabbitmq"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	gateway := newGateway(cfg.Payment)

	// RabbitMQ is optional: without it outcomes are only logged.
	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect RabbitMQ publisher: %v", err)
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect RabbitMQ consumer: %v", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumer.NewOutcomeConsumer(webhookEventRepo).Start(msgs)
	} else {
		log.Println("[RabbitMQ] RABBITMQ_URL not set, webhook audit log disabled")
	}

	rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rdb != nil {
		defer rdb.Close()
	}

	// Services
	catalogSvc := service.NewCatalogService(eventRepo, ticketRepo)
	checkoutSvc := service.NewCheckoutService(eventRepo, ticketRepo, gateway, service.CheckoutOptions{
		Currency:      cfg.Payment.Currency,
		PublicBaseURL: cfg.Payment.PublicBaseURL,
		Timeout:       cfg.Payment.Timeout,
	})
	reconcileSvc := service.NewReconcileService(reservationRepo, paymentRepo, ticketRepo, publisher)
	reportSvc := service.NewReportService(reservationRepo, paymentRepo, webhookEventRepo)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestIDWithConfig(echoMw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.RequestID)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "event-checkout", "gateway": gateway.Name()})
	})

	api := e.Group("/api/v1")
	handler.NewCatalogHandler(catalogSvc).RegisterRoutes(api.Group("/events"))
	handler.NewCheckoutHandler(checkoutSvc).RegisterRoutes(api, middleware.RateLimit(cfg.RateLimit, rdb))
	handler.NewWebhookHandler(gateway, reconcileSvc).RegisterRoutes(api)
	handler.NewAdminHandler(reportSvc).RegisterRoutes(api.Group("/admin", middleware.AdminJWT(cfg.AdminJWTSecret)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Event Checkout Service starting on :%s (gateway: %s)", cfg.ServerPort, gateway.Name())
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func newGateway(cfg config.PaymentConfig) payment.Gateway {
	switch cfg.Provider {
	case "stripe":
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookKey, cfg.Timeout)
	case "stub":
		log.Println("[Payment] using stub gateway; do not use in production")
		return payment.NewStubGateway(cfg.StubWebhookSecret, cfg.PublicBaseURL)
	default:
		log.Fatalf("unknown PAYMENT_PROVIDER %q", cfg.Provider)
		return nil
	}
}
