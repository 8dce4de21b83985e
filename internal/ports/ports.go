package ports

import (
	"context"
	"time"

	"PhoneSync/internal/domain"
)

// SpecProvider pulls phone specifications from an upstream API.
type SpecProvider interface {
	SearchPhones(ctx context.Context, query string) ([]domain.Phone, error)
	GetPhonesByBrand(ctx context.Context, brand string) ([]domain.Phone, error)
	GetPhoneByID(ctx context.Context, id string) (*domain.Phone, error)
}

// PriceProvider pulls retailer offers from a price-tracking API.
type PriceProvider interface {
	GetPrices(ctx context.Context, brand, model string) ([]domain.PriceData, error)
}

// AlternativeSource is a secondary provider consulted by the fallback
// chain when the primary API and the cache are both unavailable.
type AlternativeSource interface {
	FetchPhone(ctx context.Context, brand, model string) (*domain.Phone, error)
}

// CatalogStore persists phones, brands, and specifications.
type CatalogStore interface {
	ActiveBrands(ctx context.Context) ([]domain.Brand, error)
	ActivePhones(ctx context.Context) ([]domain.Phone, error)
	FindPhone(ctx context.Context, brand, model string) (*domain.Phone, error)
	FindPhoneByID(ctx context.Context, id string) (*domain.Phone, error)
	CreatePhone(ctx context.Context, phone domain.Phone) (*domain.Phone, error)
	UpdatePhone(ctx context.Context, phone domain.Phone) error
	UpdatePrices(ctx context.Context, phoneID string, prices []domain.PriceData) error
}

// Cache is a best-effort key-value store; unavailability is a fallback
// trigger, not a fatal error.
type Cache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// EventLog records operational events; implementations must never fail
// the caller from the logging path.
type EventLog interface {
	LogEvent(evt domain.Event)
}

// AlertSink receives health alerts out-of-band (e.g. a webhook POST).
type AlertSink interface {
	SendAlert(ctx context.Context, subject, body string) error
}

// Scheduler controls when recurring syncs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
