// Package app wires the application together: configuration, logging,
// telemetry and the processing components shared by every binary.
package app

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"

	"gsewatch/internal/config"
	"gsewatch/internal/dataprocessing"
	"gsewatch/internal/exporter"
	"gsewatch/internal/infrastructure"
	"gsewatch/internal/ledger"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// App holds the shared wiring for the command binaries.
type App struct {
	Config   *config.Config
	Paths    *config.Paths
	Logger   *slog.Logger
	Otel     *infrastructure.OTelProviders
	Metrics  *infrastructure.PipelineMetrics
	Listings *config.Listings

	Store    *ledger.Store
	Merger   *ledger.Merger
	Pipeline *dataprocessing.Pipeline
	Cache    *dataprocessing.Cache
	Engine   *dataprocessing.Engine
	Exporter *exporter.MarketExporter
}

// Bootstrap loads configuration and constructs every component. A .env
// file next to the executable is honored but not required.
func Bootstrap(serviceName string) (*App, error) {
	_ = godotenv.Load()

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.Output != "stdout" {
		cfg.Logging.FilePath = paths.LogPath(serviceName + ".log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger = logger.With(slog.String("service", serviceName))

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceName = serviceName
	otelCfg.ServiceVersion = Version
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create pipeline metrics: %w", err)
	}

	columns, err := config.LoadColumnMap(paths.ColumnMapFile)
	if err != nil {
		return nil, err
	}
	listings, err := config.LoadListings(paths.ListingsFile)
	if err != nil {
		return nil, err
	}

	store := ledger.NewStore(paths, logger)
	merger := ledger.NewMerger(store, cfg.Policy, logger, metrics)
	normalizer := dataprocessing.NewNormalizer(columns, cfg.Policy, logger, metrics)
	resolver := dataprocessing.NewResolver(listings, logger, metrics)
	pipeline := dataprocessing.NewPipeline(normalizer, resolver, merger, store, listings, logger)
	loader := dataprocessing.NewLoader(store, logger)
	cache := dataprocessing.NewCache(loader, paths.SeedsDir, cfg.Export.CacheTTL, logger)
	engine := dataprocessing.NewEngine(nil)
	exp := exporter.NewMarketExporter(engine, listings, cfg.Export, logger)

	return &App{
		Config:   cfg,
		Paths:    paths,
		Logger:   logger,
		Otel:     providers,
		Metrics:  metrics,
		Listings: listings,
		Store:    store,
		Merger:   merger,
		Pipeline: pipeline,
		Cache:    cache,
		Engine:   engine,
		Exporter: exp,
	}, nil
}
