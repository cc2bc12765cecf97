// Command web serves the market data HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gsewatch/internal/app"
	"gsewatch/internal/services"
	transport "gsewatch/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	a, err := app.Bootstrap("web")
	if err != nil {
		return err
	}
	logger := a.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Otel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	service := services.NewMarketService(a.Cache, a.Exporter, logger)
	marketHandler := transport.NewMarketHandler(service, logger)
	healthHandler := transport.NewHealthHandler(a.Paths, app.Version)

	server := transport.NewServer(a.Config.Server, marketHandler, healthHandler, a.Otel.PrometheusHTTP, logger)
	return server.Start(ctx)
}
