package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PhoneSync/internal/domain"
	"PhoneSync/internal/fallback"
	"PhoneSync/internal/monitoring"
	"PhoneSync/internal/ports"
)

// PriceFilter post-processes raw offers (e.g. the Indian-retailer
// allow-list) and yields recomputed stats for the kept subset.
type PriceFilter func([]domain.PriceData) ([]domain.PriceData, domain.PriceStats)

// IntegrationDeps wires everything the facade composes.
type IntegrationDeps struct {
	Sync      *SyncService
	Fallback  *fallback.Service
	Monitor   *monitoring.Monitor
	Specs     ports.SpecProvider
	Prices    ports.PriceProvider
	Cache     ports.Cache
	Scheduler ports.Scheduler
	Filter    PriceFilter
	Logger    *slog.Logger
}

// Integration is the single entry point consumed by CLI and HTTP
// collaborators: sync triggers, fallback-wrapped lookups, health and
// metrics surfaces, and the automatic sync scheduler.
type Integration struct {
	sync      *SyncService
	fallback  *fallback.Service
	monitor   *monitoring.Monitor
	specs     ports.SpecProvider
	prices    ports.PriceProvider
	cache     ports.Cache
	scheduler ports.Scheduler
	filter    PriceFilter
	logger    *slog.Logger
}

// NewIntegration composes the facade.
func NewIntegration(deps IntegrationDeps) *Integration {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Integration{
		sync:      deps.Sync,
		fallback:  deps.Fallback,
		monitor:   deps.Monitor,
		specs:     deps.Specs,
		prices:    deps.Prices,
		cache:     deps.Cache,
		scheduler: deps.Scheduler,
		filter:    deps.Filter,
		logger:    logger,
	}
}

// PerformFullSync triggers a complete synchronization run.
func (i *Integration) PerformFullSync(ctx context.Context) ([]domain.SyncJob, error) {
	return i.sync.StartFullSync(ctx)
}

// SyncSource triggers one source only.
func (i *Integration) SyncSource(ctx context.Context, source domain.Source) (domain.SyncJob, error) {
	return i.sync.StartSourceSync(ctx, source)
}

// SyncPhoneData refreshes one phone on demand.
func (i *Integration) SyncPhoneData(ctx context.Context, phoneID string) (bool, error) {
	return i.sync.SyncPhoneData(ctx, phoneID)
}

// GetPhoneData performs a fallback-wrapped phone lookup.
func (i *Integration) GetPhoneData(ctx context.Context, brand, model string) fallback.Result[*domain.Phone] {
	return i.fallback.GetPhoneDataWithFallback(ctx, brand, model, func(ctx context.Context) (*domain.Phone, error) {
		phones, err := i.specs.SearchPhones(ctx, brand+" "+model)
		if err != nil {
			return nil, err
		}
		if len(phones) == 0 {
			return nil, nil
		}
		return &phones[0], nil
	})
}

// GetPriceData performs a fallback-wrapped offer lookup with the retailer
// filter applied to fresh results.
func (i *Integration) GetPriceData(ctx context.Context, brand, model string) fallback.Result[[]domain.PriceData] {
	return i.fallback.GetPriceDataWithFallback(ctx, brand, model, func(ctx context.Context) ([]domain.PriceData, error) {
		prices, err := i.prices.GetPrices(ctx, brand, model)
		if err != nil {
			return nil, err
		}
		if i.filter != nil {
			prices, _ = i.filter(prices)
		}
		return prices, nil
	})
}

// SearchPhones queries the spec provider; upstream errors degrade to an
// empty result rather than propagating.
func (i *Integration) SearchPhones(ctx context.Context, query string) []domain.Phone {
	phones, err := i.specs.SearchPhones(ctx, query)
	if err != nil {
		i.logger.Warn("search failed", "query", query, "error", err)
		return []domain.Phone{}
	}
	return phones
}

// HealthStatus evaluates the monitoring rule engine.
func (i *Integration) HealthStatus() monitoring.HealthReport {
	return i.monitor.GenerateHealthReport()
}

// Metrics returns the running monitoring counters.
func (i *Integration) Metrics() monitoring.Metrics {
	return i.monitor.Metrics()
}

// RecentEvents returns buffered events inside the window, oldest first.
func (i *Integration) RecentEvents(hours int) []domain.Event {
	return i.monitor.Events(hours)
}

// Jobs exposes the in-memory sync job registry.
func (i *Integration) Jobs() []domain.SyncJob {
	return i.sync.Jobs()
}

// StartAutomaticSync arms the recurring full sync at the configured
// interval.
func (i *Integration) StartAutomaticSync(ctx context.Context) error {
	if i.scheduler == nil {
		return nil
	}
	return i.scheduler.Start(ctx, func(t time.Time) {
		if _, err := i.sync.StartFullSync(ctx); err != nil {
			i.logger.Error("automatic sync failed", "trigger", t, "error", err)
		}
	})
}

// StopAutomaticSync prevents future scheduler ticks; an in-flight run
// completes.
func (i *Integration) StopAutomaticSync(ctx context.Context) error {
	if i.scheduler == nil {
		return nil
	}
	return i.scheduler.Stop(ctx)
}

// ClearCache drops all cached fallback entries.
func (i *Integration) ClearCache(ctx context.Context) error {
	if i.cache == nil {
		return nil
	}
	return i.cache.Clear(ctx)
}

// TestConnections probes both upstreams and reports per-source outcomes.
func (i *Integration) TestConnections(ctx context.Context) map[domain.Source]error {
	results := map[domain.Source]error{}

	if _, err := i.specs.SearchPhones(ctx, "ping"); err != nil {
		results[domain.SourceGSMArena] = fmt.Errorf("spec provider: %w", err)
	} else {
		results[domain.SourceGSMArena] = nil
	}

	if _, err := i.prices.GetPrices(ctx, "ping", "ping"); err != nil {
		results[domain.SourcePriceTracking] = fmt.Errorf("price provider: %w", err)
	} else {
		results[domain.SourcePriceTracking] = nil
	}

	return results
}

// Cleanup cancels the scheduler and releases resources; idempotent.
func (i *Integration) Cleanup(ctx context.Context) error {
	return i.StopAutomaticSync(ctx)
}
