// Command builddata rebuilds the derived market data JSON from the
// per-symbol ledgers without touching them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gsewatch/internal/app"
)

func main() {
	out := flag.String("out", "", "output path (defaults to data/exports/gse_data.json)")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "builddata: %v\n", err)
		os.Exit(1)
	}
}

func run(out string) error {
	a, err := app.Bootstrap("builddata")
	if err != nil {
		return err
	}
	if out == "" {
		out = a.Paths.MarketDataJSON
	}

	ctx := context.Background()
	start := time.Now()

	ds, err := a.Cache.Refresh(ctx)
	if err != nil {
		return err
	}
	md := a.Exporter.Build(ctx, ds)
	if err := a.Exporter.Write(ctx, md, out); err != nil {
		return err
	}

	a.Logger.Info("export rebuilt",
		slog.String("path", out),
		slog.Int("stocks", md.StockCount),
		slog.String("last_updated", md.LastUpdated),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
