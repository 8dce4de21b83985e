package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/infrastructure/cache"
)

func testFallbackConfig() config.FallbackConfig {
	return config.FallbackConfig{
		MaxRetries:       3,
		RetryDelay:       time.Millisecond,
		CacheExpiryHours: 1,
	}
}

func testPhone() *domain.Phone {
	return &domain.Phone{Brand: "Apple", Model: "iPhone 15", Active: true}
}

func TestPrimarySucceedsOnSecondAttempt(t *testing.T) {
	t.Parallel()

	svc := New(testFallbackConfig(), cache.NewMemory(), NewStaticTable(), nil, nil, nil)

	calls := 0
	res := svc.GetPhoneDataWithFallback(context.Background(), "Apple", "iPhone 15",
		func(context.Context) (*domain.Phone, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient")
			}
			return testPhone(), nil
		})

	assert.True(t, res.Success)
	assert.Equal(t, domain.FallbackAlternativeAPI, res.Source)
	assert.False(t, res.FromCache)
	assert.Equal(t, 2, calls, "fetcher must be invoked exactly twice")
}

func TestPrimaryExhaustedThenCacheHit(t *testing.T) {
	t.Parallel()

	kv := cache.NewMemory()
	svc := New(testFallbackConfig(), kv, NewStaticTable(), nil, nil, nil)

	// Seed the cache through a successful run first.
	ok := svc.GetPhoneDataWithFallback(context.Background(), "Apple", "iPhone 15",
		func(context.Context) (*domain.Phone, error) { return testPhone(), nil })
	require.True(t, ok.Success)

	calls := 0
	res := svc.GetPhoneDataWithFallback(context.Background(), "Apple", "iPhone 15",
		func(context.Context) (*domain.Phone, error) {
			calls++
			return nil, errors.New("down")
		})

	assert.True(t, res.Success)
	assert.Equal(t, domain.FallbackCache, res.Source)
	assert.True(t, res.FromCache)
	assert.Equal(t, "Apple", res.Data.Brand)
	assert.Equal(t, 3, calls, "primary must be retried MaxRetries times before falling back")
}

func TestStaticTableServesCuratedPhones(t *testing.T) {
	t.Parallel()

	svc := New(testFallbackConfig(), cache.NewMemory(), NewStaticTable(), nil, nil, nil)

	res := svc.GetPhoneDataWithFallback(context.Background(), "Samsung", "Galaxy S24",
		func(context.Context) (*domain.Phone, error) { return nil, errors.New("down") })

	assert.True(t, res.Success)
	assert.Equal(t, domain.FallbackStatic, res.Source)
	assert.False(t, res.FromCache)
	assert.Equal(t, "Exynos 2400", res.Data.Specs.Processor)
}

func TestAllMechanismsFail(t *testing.T) {
	t.Parallel()

	svc := New(testFallbackConfig(), cache.NewMemory(), NewStaticTable(), nil, nil, nil)

	res := svc.GetPhoneDataWithFallback(context.Background(), "Nokia", "9999",
		func(context.Context) (*domain.Phone, error) { return nil, errors.New("down") })

	assert.False(t, res.Success)
	assert.Equal(t, domain.FallbackManual, res.Source)
	assert.Equal(t, "All fallback mechanisms failed", res.Error)
}

func TestSpecificationsFallBackToUnknownDefaults(t *testing.T) {
	t.Parallel()

	svc := New(testFallbackConfig(), cache.NewMemory(), NewStaticTable(), nil, nil, nil)

	res := svc.GetSpecificationsWithFallback(context.Background(), "Nokia", "9999",
		func(context.Context) (domain.PhoneSpecifications, error) {
			return domain.PhoneSpecifications{}, errors.New("down")
		})

	assert.True(t, res.Success, "spec fallback always produces a usable shape")
	assert.Equal(t, domain.FallbackManual, res.Source)
	assert.Equal(t, "Unknown", res.Data.Display)
	assert.Equal(t, "Unknown", res.Data.Processor)
}

type fakeAlternative struct {
	calls int
	phone *domain.Phone
}

func (f *fakeAlternative) FetchPhone(context.Context, string, string) (*domain.Phone, error) {
	f.calls++
	if f.phone == nil {
		return nil, errors.New("page not found")
	}
	return f.phone, nil
}

func TestSpecificationsServedByAlternativeSource(t *testing.T) {
	t.Parallel()

	alt := &fakeAlternative{phone: &domain.Phone{
		Brand: "Nokia", Model: "G42",
		Specs: domain.PhoneSpecifications{Display: "6.56-inch LCD", Processor: "Snapdragon 480+"},
	}}
	cfg := testFallbackConfig()
	cfg.EnableAlternative = true
	svc := New(cfg, cache.NewMemory(), NewStaticTable(), alt, nil, nil)

	res := svc.GetSpecificationsWithFallback(context.Background(), "Nokia", "G42",
		func(context.Context) (domain.PhoneSpecifications, error) {
			return domain.PhoneSpecifications{}, errors.New("down")
		})

	assert.True(t, res.Success)
	assert.Equal(t, domain.FallbackAlternativeAPI, res.Source)
	assert.Equal(t, "6.56-inch LCD", res.Data.Display, "real specs must beat unknown placeholders")
	assert.Equal(t, 1, alt.calls)
}

func TestSpecificationsSkipDisabledAlternativeSource(t *testing.T) {
	t.Parallel()

	alt := &fakeAlternative{phone: &domain.Phone{
		Brand: "Nokia", Model: "G42",
		Specs: domain.PhoneSpecifications{Display: "6.56-inch LCD"},
	}}
	svc := New(testFallbackConfig(), cache.NewMemory(), NewStaticTable(), alt, nil, nil)

	res := svc.GetSpecificationsWithFallback(context.Background(), "Nokia", "G42",
		func(context.Context) (domain.PhoneSpecifications, error) {
			return domain.PhoneSpecifications{}, errors.New("down")
		})

	assert.True(t, res.Success)
	assert.Equal(t, domain.FallbackManual, res.Source)
	assert.Equal(t, "Unknown", res.Data.Display)
	assert.Zero(t, alt.calls)
}

func TestPriceFallbackFailsWhenNoPriceAnywhere(t *testing.T) {
	t.Parallel()

	svc := New(testFallbackConfig(), cache.NewMemory(), NewStaticTable(), nil, nil, nil)

	res := svc.GetPriceDataWithFallback(context.Background(), "Nokia", "9999",
		func(context.Context) ([]domain.PriceData, error) { return nil, errors.New("down") })

	assert.False(t, res.Success, "a missing price is not an unknown spec")
	assert.Equal(t, domain.FallbackManual, res.Source)
}

func TestRuntimeStaticEntries(t *testing.T) {
	t.Parallel()

	table := NewStaticTable()
	before := table.Len()
	table.Add(domain.Phone{Brand: "Google", Model: "Pixel 9"})
	assert.Equal(t, before+1, table.Len())

	phone, ok := table.Lookup(Key{Brand: "google", Model: "pixel 9"})
	require.True(t, ok)
	assert.Equal(t, "Google", phone.Brand)
}

func TestKeyStringIsLowerCased(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "apple-iphone 15", Key{Brand: " Apple ", Model: "iPhone 15"}.String())
}
