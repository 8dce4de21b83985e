package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
)

func testAlertConfig() config.AlertConfig {
	return config.AlertConfig{
		ErrorRateThreshold:  0.1,
		SlowResponseLimit:   5 * time.Second,
		ConsecutiveFailures: 3,
	}
}

type fakeSink struct {
	mu     sync.Mutex
	calls  []string
	bodies []string
}

func (f *fakeSink) SendAlert(_ context.Context, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSink) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return ""
	}
	return f.bodies[len(f.bodies)-1]
}

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)

	for i := 0; i < 4; i++ {
		m.LogEvent(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena, Duration: time.Duration(i+1) * time.Second})
	}
	m.LogEvent(domain.Event{Type: domain.EventAPIError, Source: domain.SourceGSMArena, Error: "boom"})
	m.LogEvent(domain.Event{Type: domain.EventRateLimitHit, Source: domain.SourcePriceTracking})

	metrics := m.Metrics()
	assert.Equal(t, 4, metrics.APIRequests)
	assert.Equal(t, 1, metrics.APIErrors)
	assert.Equal(t, 1, metrics.RateLimitHits)

	perf := m.GetAPIPerformanceMetrics(1)
	assert.Equal(t, 4, perf.RequestCount)
	assert.Equal(t, 1, perf.ErrorCount)
	assert.InDelta(t, 1.0/5.0, perf.ErrorRate, 1e-9)
	// 1+2+3+4 = 10s over 4 requests.
	assert.Equal(t, 2500*time.Millisecond, perf.AverageLatency)
	require.NotEmpty(t, perf.Slowest)
	assert.Equal(t, 4*time.Second, perf.Slowest[0].Duration)
}

func TestAverageSyncDurationIsRunningMean(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)
	m.LogEvent(domain.Event{Type: domain.EventSyncCompleted, Source: domain.SourceGSMArena, Duration: 2 * time.Second})
	m.LogEvent(domain.Event{Type: domain.EventSyncCompleted, Source: domain.SourceGSMArena, Duration: 4 * time.Second})

	assert.Equal(t, 3*time.Second, m.Metrics().AverageDuration)
	assert.False(t, m.Metrics().LastSyncTime.IsZero())
}

func TestHealthCriticalOnConsecutiveFailures(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)

	m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena})
	m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena})
	assert.Equal(t, StatusHealthy, m.GenerateHealthReport().Status, "two failures are not critical yet")

	m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena})
	report := m.GenerateHealthReport()
	assert.Equal(t, StatusCritical, report.Status)
	require.NotEmpty(t, report.Issues)
	assert.NotEmpty(t, report.Recommendations)
}

func TestHealthRecoversAfterSuccess(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)
	for i := 0; i < 3; i++ {
		m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourcePriceTracking})
	}
	require.Equal(t, StatusCritical, m.GenerateHealthReport().Status)

	m.LogEvent(domain.Event{Type: domain.EventSyncCompleted, Source: domain.SourcePriceTracking, Duration: time.Second})
	assert.Equal(t, StatusHealthy, m.GenerateHealthReport().Status)
}

func TestHealthWarningOnErrorRate(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)
	for i := 0; i < 8; i++ {
		m.LogEvent(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena, Duration: time.Millisecond})
	}
	m.LogEvent(domain.Event{Type: domain.EventAPIError, Source: domain.SourceGSMArena, Error: "x"})
	m.LogEvent(domain.Event{Type: domain.EventAPIError, Source: domain.SourceGSMArena, Error: "y"})

	report := m.GenerateHealthReport()
	assert.Equal(t, StatusWarning, report.Status)
}

func TestAlertFiredOnThreshold(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	m := New(testAlertConfig(), nil, sink, nil)

	for i := 0; i < 3; i++ {
		m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena, Error: "down"})
	}

	require.Eventually(t, func() bool { return sink.count() == 1 },
		time.Second, 10*time.Millisecond, "alert should fire exactly once at the threshold")

	// Further failures past the threshold do not re-alert.
	m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena, Error: "down"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sink.count())
}

func TestAlertBodyReportsDefaultedThreshold(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	cfg := testAlertConfig()
	cfg.ConsecutiveFailures = 0
	m := New(cfg, nil, sink, nil)

	for i := 0; i < 3; i++ {
		m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena, Error: "down"})
	}

	require.Eventually(t, func() bool { return sink.count() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Contains(t, sink.lastBody(), "3 consecutive failures",
		"body must state the effective threshold, not the raw config value")
}

func TestRingBufferEvictsOldest(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)
	for i := 0; i < eventCapacity+5; i++ {
		m.LogEvent(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena})
	}

	events := m.Events(0)
	assert.Len(t, events, eventCapacity)
	// The running counter keeps counting even after eviction.
	assert.Equal(t, eventCapacity+5, m.Metrics().APIRequests)
}

func TestErrorSummaryGroupsBySourceAndType(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)
	m.LogEvent(domain.Event{Type: domain.EventAPIError, Source: domain.SourceGSMArena})
	m.LogEvent(domain.Event{Type: domain.EventAPIError, Source: domain.SourceGSMArena})
	m.LogEvent(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourcePriceTracking})
	m.LogEvent(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena})

	summary := m.GetErrorSummary(1)
	assert.Equal(t, 3, summary.TotalErrors)
	assert.Equal(t, 2, summary.BySource[domain.SourceGSMArena])
	assert.Equal(t, 1, summary.BySource[domain.SourcePriceTracking])
	assert.Equal(t, 2, summary.ByType[domain.EventAPIError])
}

func TestClearOldDataRecomputesMetrics(t *testing.T) {
	t.Parallel()

	m := New(testAlertConfig(), nil, nil, nil)

	old := time.Now().UTC().Add(-48 * time.Hour)
	m.LogEvent(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena, Timestamp: old})
	m.LogEvent(domain.Event{Type: domain.EventAPIError, Source: domain.SourceGSMArena, Timestamp: old})
	m.LogEvent(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena})

	removed := m.ClearOldData(24)
	assert.Equal(t, 2, removed)

	metrics := m.Metrics()
	assert.Equal(t, 1, metrics.APIRequests)
	assert.Zero(t, metrics.APIErrors)
	assert.Len(t, m.Events(0), 1)
}

func TestCollectorObserve(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.Observe(domain.Event{Type: domain.EventAPIRequest, Source: domain.SourceGSMArena, Duration: time.Second})
	c.Observe(domain.Event{Type: domain.EventSyncFailed, Source: domain.SourceGSMArena})

	require.NotNil(t, c.Handler())
}
