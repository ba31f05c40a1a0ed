package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PaymentWebhookGateway/config"
	"PaymentWebhookGateway/internal/controller/rest"
	"PaymentWebhookGateway/internal/controller/rest/handlers"
	"PaymentWebhookGateway/internal/domain/order"
	"PaymentWebhookGateway/internal/external/kafka"
	"PaymentWebhookGateway/internal/external/opensearch"
	"PaymentWebhookGateway/internal/external/provider"
	order_repo "PaymentWebhookGateway/internal/repo/order"
	"PaymentWebhookGateway/pkg/health"
	"PaymentWebhookGateway/pkg/logger"
	"PaymentWebhookGateway/pkg/postgres"

	"golang.org/x/sync/errgroup"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) error {
	logger.Setup(logger.Options{Level: cfg.LogLevel, Console: cfg.LogFormat == "console"})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		return fmt.Errorf("app - Run - postgres.New: %w", err)
	}
	defer pool.Close()

	if err := ApplyMigrations(cfg.PgURL, MIGRATION_FS); err != nil {
		return fmt.Errorf("app - Run - ApplyMigrations: %w", err)
	}

	events, closeEvents, err := newEventSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app - Run - newEventSink: %w", err)
	}
	defer closeEvents()

	orderRepo := order_repo.NewPgOrderRepo(pool)
	service := order.NewReconcileService(orderRepo, events)

	auth := provider.NewHMACAuthenticator(cfg.WebhookSecret)
	webhookHandler := handlers.NewWebhookHandler(service, auth, cfg.WebhookStrictFields)
	orderHandler := handlers.NewOrderHandler(service)

	checkers := []health.Checker{health.NewPostgresChecker(pool.Pool)}
	if cfg.EventSink == "kafka" {
		checkers = append(checkers, health.NewKafkaChecker(cfg.KafkaBrokers))
	}
	healthRegistry := health.NewRegistry(checkers...)

	engine := NewGinEngine()
	router := rest.NewRouter(webhookHandler, orderHandler, healthRegistry)
	router.SetUp(engine)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newEventSink picks the configured audit sink. The returned close function
// is always safe to call.
func newEventSink(ctx context.Context, cfg config.Config) (order.EventSink, func(), error) {
	switch cfg.EventSink {
	case "kafka":
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
		sink := kafka.NewEventSink(publisher)
		return sink, func() { _ = publisher.Close() }, nil
	case "opensearch":
		sink, err := opensearch.NewEventSink(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexEvents)
		if err != nil {
			return nil, func() {}, err
		}
		return sink, func() {}, nil
	case "", "none":
		return order.NopEventSink{}, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown event sink: %q", cfg.EventSink)
	}
}
