package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PhoneSync/internal/domain"
)

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	phone := domain.Phone{ID: "p1", Brand: "Apple", Model: "iPhone 15"}
	require.NoError(t, m.Set(ctx, "phone:apple-iphone 15", phone, time.Minute))

	var got domain.Phone
	ok, err := m.Get(ctx, "phone:apple-iphone 15", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, phone, got)
}

func TestGetMiss(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	var got string
	ok, err := m.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredEntryIsDropped(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m.Len(), "expired entry should be deleted on access")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", 42, 0))

	var got int
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestClear(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "b", 2, time.Minute))
	require.Equal(t, 2, m.Len())

	require.NoError(t, m.Clear(ctx))
	assert.Zero(t, m.Len())
}
