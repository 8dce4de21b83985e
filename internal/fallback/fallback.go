package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

// Result is the terminal outcome of one fallback chain run. The chain never
// returns an error; every failure mode lives in the discriminant fields.
type Result[T any] struct {
	Success   bool
	Data      T
	Source    domain.FallbackSource
	Error     string
	FromCache bool
}

// Key addresses one phone across cache, static table, and alternative APIs.
type Key struct {
	Brand string
	Model string
}

// String renders the canonical lower-cased "brand-model" form.
func (k Key) String() string {
	return strings.ToLower(strings.TrimSpace(k.Brand)) + "-" + strings.ToLower(strings.TrimSpace(k.Model))
}

// Strategy attempts to produce a value for a key from one fallback layer.
type Strategy[T any] interface {
	Source() domain.FallbackSource
	Attempt(ctx context.Context, key Key) (T, bool)
}

// Service wraps primary data fetches with a deterministic fallback chain:
// primary (with retry) -> cache -> static table -> alternative API -> failure.
type Service struct {
	cfg    config.FallbackConfig
	cache  ports.Cache
	static *StaticTable
	alt    ports.AlternativeSource
	events ports.EventLog
	logger *slog.Logger
}

// New assembles the chain; cache and alt may be nil and are then skipped.
func New(cfg config.FallbackConfig, cache ports.Cache, static *StaticTable, alt ports.AlternativeSource, events ports.EventLog, logger *slog.Logger) *Service {
	if static == nil {
		static = NewStaticTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, cache: cache, static: static, alt: alt, events: events, logger: logger}
}

// Static exposes the runtime-extendable static table.
func (s *Service) Static() *StaticTable {
	return s.static
}

// GetPhoneDataWithFallback runs the full chain for one phone record.
func (s *Service) GetPhoneDataWithFallback(ctx context.Context, brand, model string, primary func(context.Context) (*domain.Phone, error)) Result[*domain.Phone] {
	key := Key{Brand: brand, Model: model}

	strategies := []Strategy[*domain.Phone]{
		cacheStrategy[*domain.Phone]{cache: s.cache, prefix: "phone"},
		phoneStaticStrategy{table: s.static},
	}
	if s.cfg.EnableAlternative && s.alt != nil {
		strategies = append(strategies, alternativeStrategy{source: s.alt})
	}

	return runChain(ctx, s, key, "phone", primary, strategies, func(p *domain.Phone) bool {
		return p != nil
	})
}

// GetSpecificationsWithFallback is the chain for spec sheets. Its last
// resort is a fully populated "Unknown" object, never an absent value.
func (s *Service) GetSpecificationsWithFallback(ctx context.Context, brand, model string, primary func(context.Context) (domain.PhoneSpecifications, error)) Result[domain.PhoneSpecifications] {
	key := Key{Brand: brand, Model: model}

	strategies := []Strategy[domain.PhoneSpecifications]{
		cacheStrategy[domain.PhoneSpecifications]{cache: s.cache, prefix: "specs"},
		specStaticStrategy{table: s.static},
	}
	if s.cfg.EnableAlternative && s.alt != nil {
		strategies = append(strategies, specAlternativeStrategy{source: s.alt})
	}

	res := runChain(ctx, s, key, "specs", primary, strategies, func(sp domain.PhoneSpecifications) bool {
		return sp != (domain.PhoneSpecifications{})
	})
	if res.Success {
		return res
	}

	s.activated(key, "all specification sources failed, serving unknown defaults")
	return Result[domain.PhoneSpecifications]{
		Success: true,
		Data:    domain.UnknownSpecifications(),
		Source:  domain.FallbackManual,
	}
}

// GetPriceDataWithFallback is the chain for retailer offers. A missing
// price is meaningfully different from an unknown spec, so total failure
// stays Success:false.
func (s *Service) GetPriceDataWithFallback(ctx context.Context, brand, model string, primary func(context.Context) ([]domain.PriceData, error)) Result[[]domain.PriceData] {
	key := Key{Brand: brand, Model: model}

	strategies := []Strategy[[]domain.PriceData]{
		cacheStrategy[[]domain.PriceData]{cache: s.cache, prefix: "prices"},
		priceStaticStrategy{table: s.static},
	}

	return runChain(ctx, s, key, "prices", primary, strategies, func(p []domain.PriceData) bool {
		return len(p) > 0
	})
}

// runChain executes the primary fetcher with retry, then walks the ordered
// strategy list and returns the first success.
func runChain[T any](ctx context.Context, s *Service, key Key, prefix string, primary func(context.Context) (T, error), strategies []Strategy[T], valid func(T) bool) Result[T] {
	if primary != nil {
		if data, err := fetchWithRetry(ctx, s.cfg, primary); err == nil && valid(data) {
			s.cacheSet(ctx, prefix, key, data)
			return Result[T]{Success: true, Data: data, Source: domain.FallbackAlternativeAPI}
		} else if err != nil {
			s.activated(key, "Primary API unavailable: "+err.Error())
		}
	}

	for _, strat := range strategies {
		data, ok := strat.Attempt(ctx, key)
		if !ok || !valid(data) {
			continue
		}
		s.activated(key, fmt.Sprintf("served %s from %s", prefix, strat.Source()))
		return Result[T]{
			Success:   true,
			Data:      data,
			Source:    strat.Source(),
			FromCache: strat.Source() == domain.FallbackCache,
		}
	}

	return Result[T]{
		Success: false,
		Source:  domain.FallbackManual,
		Error:   "All fallback mechanisms failed",
	}
}

// fetchWithRetry runs the primary fetcher up to MaxRetries times with
// linear backoff between attempts.
func fetchWithRetry[T any](ctx context.Context, cfg config.FallbackConfig, primary func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := primary(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(time.Duration(attempt) * cfg.RetryDelay):
			}
		}
	}

	return zero, lastErr
}

func (s *Service) cacheSet(ctx context.Context, prefix string, key Key, v any) {
	if s.cache == nil {
		return
	}
	ttl := time.Duration(s.cfg.CacheExpiryHours) * time.Hour
	if err := s.cache.Set(ctx, prefix+":"+key.String(), v, ttl); err != nil {
		s.logger.Debug("cache write failed", "key", key.String(), "error", err)
	}
}

func (s *Service) activated(key Key, reason string) {
	s.logger.Debug("fallback activated", "key", key.String(), "reason", reason)
	if s.events == nil {
		return
	}
	s.events.LogEvent(domain.Event{
		Type:     domain.EventFallbackActivated,
		Metadata: map[string]string{"key": key.String(), "reason": reason},
	})
}
