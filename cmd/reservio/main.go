// cmd/reservio/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"reservio/internal/clock"
	"reservio/internal/inventory"
	"reservio/internal/notify"
	"reservio/internal/payment"
	"reservio/internal/reservation"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	if shutdownTracing != nil {
		defer shutdownTracing(context.Background())
	}

	clk := clock.NewSystem()
	registry := reservation.NewRegistry(clk)

	invService := inventory.NewService(registry, logger)
	if path := os.Getenv("RESERVIO_INVENTORY"); path != "" {
		if err := invService.LoadFile(ctx, path); err != nil {
			logger.Fatal("failed to load inventory", zap.Error(err))
		}
	}

	payments := map[string]payment.Processor{
		"card":   payment.NewBreaker(&payment.Card{Logger: logger}, 5, 30*time.Second),
		"cash":   &payment.Cash{Logger: logger},
		"wallet": payment.NewWallet(logger, 100_000),
	}

	engine := reservation.NewService(registry, payments, &notify.LogNotifier{Logger: logger}, logger)

	reservationHandler := reservation.NewHandler(engine)
	inventoryHandler := inventory.NewHandler(invService)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Route("/api/v1", func(r chi.Router) {
		reservationHandler.Routes(r)
		inventoryHandler.Routes(r)
	})
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	port := getEnv("PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("starting reservio", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// setupTracing installs an OTLP/HTTP trace exporter when an endpoint
// is configured; otherwise spans stay no-ops.
func setupTracing(ctx context.Context) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return nil, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("reservio"),
		)),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
