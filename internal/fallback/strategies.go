package fallback

import (
	"context"

	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

// cacheStrategy serves previously fetched values from the key-value cache.
// Cache unavailability is a miss, not an error.
type cacheStrategy[T any] struct {
	cache  ports.Cache
	prefix string
}

func (cacheStrategy[T]) Source() domain.FallbackSource { return domain.FallbackCache }

func (c cacheStrategy[T]) Attempt(ctx context.Context, key Key) (T, bool) {
	var data T
	if c.cache == nil {
		return data, false
	}
	ok, err := c.cache.Get(ctx, c.prefix+":"+key.String(), &data)
	if err != nil || !ok {
		return data, false
	}
	return data, true
}

// phoneStaticStrategy serves curated records for well-known phones.
type phoneStaticStrategy struct {
	table *StaticTable
}

func (phoneStaticStrategy) Source() domain.FallbackSource { return domain.FallbackStatic }

func (p phoneStaticStrategy) Attempt(_ context.Context, key Key) (*domain.Phone, bool) {
	return p.table.Lookup(key)
}

// specStaticStrategy projects the static table onto spec sheets.
type specStaticStrategy struct {
	table *StaticTable
}

func (specStaticStrategy) Source() domain.FallbackSource { return domain.FallbackStatic }

func (s specStaticStrategy) Attempt(_ context.Context, key Key) (domain.PhoneSpecifications, bool) {
	phone, ok := s.table.Lookup(key)
	if !ok {
		return domain.PhoneSpecifications{}, false
	}
	return phone.Specs, true
}

// priceStaticStrategy projects the static table onto offers; curated
// entries rarely carry prices, so this usually misses.
type priceStaticStrategy struct {
	table *StaticTable
}

func (priceStaticStrategy) Source() domain.FallbackSource { return domain.FallbackStatic }

func (p priceStaticStrategy) Attempt(_ context.Context, key Key) ([]domain.PriceData, bool) {
	phone, ok := p.table.Lookup(key)
	if !ok || len(phone.Prices) == 0 {
		return nil, false
	}
	return phone.Prices, true
}

// alternativeStrategy consults a secondary provider (HTML scrape).
type alternativeStrategy struct {
	source ports.AlternativeSource
}

func (alternativeStrategy) Source() domain.FallbackSource { return domain.FallbackAlternativeAPI }

func (a alternativeStrategy) Attempt(ctx context.Context, key Key) (*domain.Phone, bool) {
	phone, err := a.source.FetchPhone(ctx, key.Brand, key.Model)
	if err != nil || phone == nil {
		return nil, false
	}
	return phone, true
}

// specAlternativeStrategy projects the secondary provider onto spec sheets.
type specAlternativeStrategy struct {
	source ports.AlternativeSource
}

func (specAlternativeStrategy) Source() domain.FallbackSource { return domain.FallbackAlternativeAPI }

func (s specAlternativeStrategy) Attempt(ctx context.Context, key Key) (domain.PhoneSpecifications, bool) {
	phone, err := s.source.FetchPhone(ctx, key.Brand, key.Model)
	if err != nil || phone == nil {
		return domain.PhoneSpecifications{}, false
	}
	return phone.Specs, true
}
