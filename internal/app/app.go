package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"PhoneSync/internal/config"
	"PhoneSync/internal/fallback"
	"PhoneSync/internal/infrastructure/cache"
	"PhoneSync/internal/infrastructure/gsmarena"
	"PhoneSync/internal/infrastructure/pricetrack"
	"PhoneSync/internal/infrastructure/scheduler"
	"PhoneSync/internal/infrastructure/scrape"
	"PhoneSync/internal/infrastructure/storage"
	"PhoneSync/internal/infrastructure/webhook"
	"PhoneSync/internal/logging"
	"PhoneSync/internal/monitoring"
	"PhoneSync/internal/ports"
	"PhoneSync/internal/usecase"
)

// Application wires configuration to services and lifecycle orchestration.
type Application struct {
	cfg config.Config

	Logger      *slog.Logger
	Integration *usecase.Integration
	Sync        *usecase.SyncService
	Catalog     *storage.PostgresCatalog
	Collector   *monitoring.Collector

	db *sql.DB
}

// New builds a runnable application instance. The catalog connection is
// constructed here and injected into every service; there is no hidden
// global database state.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect catalog: %w", err)
	}
	catalog := storage.NewPostgresCatalog(db)

	collector := monitoring.NewCollector()

	var alerts ports.AlertSink
	if cfg.Alerts.WebhookURL != "" {
		alerts = webhook.NewNotifier(cfg.Alerts.WebhookURL)
	}
	monitor := monitoring.New(cfg.Alerts, logging.Component(baseLogger, "monitoring"), alerts, collector)

	specClient := gsmarena.NewClient(cfg.GSMArena, nil, monitor)
	priceClient := pricetrack.NewClient(cfg.PriceAPI, cfg.Retailers.IndianAllowList, nil, monitor)

	var alt ports.AlternativeSource
	if cfg.Fallback.EnableAlternative && cfg.Fallback.AlternativeBaseURL != "" {
		alt = scrape.NewProductPageSource(cfg.Fallback.AlternativeBaseURL, nil)
	}

	kv := cache.NewMemory()
	fb := fallback.New(cfg.Fallback, kv, fallback.NewStaticTable(), alt, monitor,
		logging.Component(baseLogger, "fallback"))

	syncSvc := usecase.NewSyncService(cfg.Sync, usecase.SyncDeps{
		Catalog: catalog,
		Specs:   specClient,
		Prices:  priceClient,
		Events:  monitor,
		Logger:  logging.Component(baseLogger, "sync"),
	})

	integration := usecase.NewIntegration(usecase.IntegrationDeps{
		Sync:      syncSvc,
		Fallback:  fb,
		Monitor:   monitor,
		Specs:     specClient,
		Prices:    priceClient,
		Cache:     kv,
		Scheduler: scheduler.NewIntervalScheduler(cfg.Sync.Interval),
		Filter:    priceClient.FilterIndianRetailers,
		Logger:    logging.Component(baseLogger, "integration"),
	})

	return &Application{
		cfg:         cfg,
		Logger:      baseLogger,
		Integration: integration,
		Sync:        syncSvc,
		Catalog:     catalog,
		Collector:   collector,
		db:          db,
	}, nil
}

// ServeMetrics exposes the Prometheus endpoint when enabled; it blocks
// until the server fails or the listener closes.
func (a *Application) ServeMetrics() error {
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Collector.Handler())
	return http.ListenAndServe(a.cfg.Metrics.Addr, mux)
}

// Close tears down the scheduler and the catalog connection; idempotent.
func (a *Application) Close(ctx context.Context) error {
	if a.Integration != nil {
		_ = a.Integration.Cleanup(ctx)
	}
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}
