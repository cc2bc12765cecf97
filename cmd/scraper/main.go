// Command scraper fetches live quotes from the exchange feed and
// merges them into the ledgers, either once or on a cron schedule.
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

	"github.com/robfig/cron/v3"

	"gsewatch/internal/app"
	"gsewatch/internal/dataprocessing"
	"gsewatch/internal/feed"
	"gsewatch/pkg/contracts/domain"
)

func main() {
	daemon := flag.Bool("daemon", false, "run on the configured cron schedule instead of once")
	flag.Parse()

	if err := run(*daemon); err != nil {
		fmt.Fprintf(os.Stderr, "scraper: %v\n", err)
		os.Exit(1)
	}
}

func run(daemon bool) error {
	a, err := app.Bootstrap("scraper")
	if err != nil {
		return err
	}
	logger := a.Logger
	client := feed.NewClient(a.Config.Feed, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Otel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if !daemon {
		return scrapeOnce(ctx, a, client)
	}

	c := cron.New()
	_, err = c.AddFunc(a.Config.Feed.CronSpec, func() {
		if err := scrapeOnce(ctx, a, client); err != nil {
			logger.Error("scheduled scrape failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", a.Config.Feed.CronSpec, err)
	}

	logger.Info("scraper daemon started", slog.String("schedule", a.Config.Feed.CronSpec))
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
	}
	logger.Info("scraper daemon stopped")
	return nil
}

// scrapeOnce fetches the live quotes, resolves them against the ledger
// universe and merges the matches, then rebuilds the export.
func scrapeOnce(ctx context.Context, a *app.App, client *feed.Client) error {
	quotes, err := client.FetchLive(ctx)
	if err != nil {
		return err
	}

	symbols, err := a.Store.Symbols()
	if err != nil {
		return err
	}
	for s := range a.Listings.Names {
		symbols = append(symbols, s)
	}
	set := dataprocessing.NewCanonicalSet(symbols)

	resolver := dataprocessing.NewResolver(a.Listings, a.Logger, a.Metrics)
	resolved := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		canonical, ok := resolver.Resolve(ctx, q.Symbol, set)
		if !ok {
			continue
		}
		q.Symbol = canonical
		resolved = append(resolved, q)
	}

	// A merge error covers the symbols that failed; the rest still
	// applied, so the export is rebuilt before reporting it.
	stats, mergeErr := a.Merger.MergeBatch(ctx, resolved)
	a.Logger.Info("scrape merged",
		slog.Int("fetched", len(quotes)),
		slog.Int("resolved", len(resolved)),
		slog.Int("applied", stats.Applied()),
		slog.Int("unchanged", stats.Unchanged))

	if stats.Applied() > 0 {
		ds, err := a.Cache.Refresh(ctx)
		if err != nil {
			return err
		}
		md := a.Exporter.Build(ctx, ds)
		if err := a.Exporter.Write(ctx, md, a.Paths.MarketDataJSON); err != nil {
			return err
		}
	}
	return mergeErr
}
