// Command processor ingests pending upload files into the per-symbol
// ledgers and rebuilds the derived market export.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gsewatch/internal/app"
)

func main() {
	file := flag.String("file", "", "process a single CSV/XLSX file instead of the uploads directory")
	skipExport := flag.Bool("skip-export", false, "skip rebuilding the market data export")
	flag.Parse()

	if err := run(*file, *skipExport); err != nil {
		fmt.Fprintf(os.Stderr, "processor: %v\n", err)
		os.Exit(1)
	}
}

func run(file string, skipExport bool) error {
	a, err := app.Bootstrap("processor")
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

	start := time.Now()
	if file != "" {
		report, err := a.Pipeline.ProcessFile(ctx, file)
		if err != nil {
			return err
		}
		logger.Info("file done",
			slog.String("file", report.File),
			slog.Int("applied", report.Merge.Applied()),
			slog.Int("unchanged", report.Merge.Unchanged))
	} else {
		reports, err := a.Pipeline.ProcessUploads(ctx, a.Paths.UploadsDir)
		if err != nil {
			return err
		}
		applied := 0
		for _, r := range reports {
			applied += r.Merge.Applied()
		}
		logger.Info("uploads done",
			slog.Int("files", len(reports)),
			slog.Int("applied", applied))
	}

	if !skipExport {
		ds, err := a.Cache.Refresh(ctx)
		if err != nil {
			return err
		}
		md := a.Exporter.Build(ctx, ds)
		if err := a.Exporter.Write(ctx, md, a.Paths.MarketDataJSON); err != nil {
			return err
		}
	}

	logger.Info("processor finished", slog.Duration("elapsed", time.Since(start)))
	return nil
}
