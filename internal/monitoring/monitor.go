package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

// eventCapacity bounds the in-memory event buffer; oldest entries are
// overwritten first.
const eventCapacity = 1000

// HealthStatus is the derived verdict of the rule engine.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

// Metrics are running counters derived from the event stream. They are
// updated in O(1) per event and recomputed wholesale only on purge.
type Metrics struct {
	TotalSyncs          int
	SuccessfulSyncs     int
	FailedSyncs         int
	AverageDuration     time.Duration
	APIRequests         int
	APIErrors           int
	RateLimitHits       int
	FallbackActivations int
	LastSyncTime        time.Time
}

// HealthReport carries the verdict plus human-readable issue strings.
type HealthReport struct {
	Status          HealthStatus
	Issues          []string
	Recommendations []string
	GeneratedAt     time.Time
}

// ErrorSummary is a windowed aggregation of error events.
type ErrorSummary struct {
	WindowHours int
	TotalErrors int
	BySource    map[domain.Source]int
	ByType      map[domain.EventType]int
}

// APIPerformance summarizes request latency over a window.
type APIPerformance struct {
	WindowHours    int
	RequestCount   int
	ErrorCount     int
	ErrorRate      float64
	AverageLatency time.Duration
	Slowest        []domain.Event
}

// Monitor is the single source of truth for operational health: an
// append-only capped event log plus derived metrics and alert rules.
type Monitor struct {
	cfg       config.AlertConfig
	logger    *slog.Logger
	alerts    ports.AlertSink
	collector *Collector

	mu           sync.RWMutex
	buf          []domain.Event
	next         int
	size         int
	metrics      Metrics
	durationSum  time.Duration
	durationN    int
	consecutive  map[domain.Source]int
}

var _ ports.EventLog = (*Monitor)(nil)

// New builds a monitor; alerts and collector may be nil.
func New(cfg config.AlertConfig, logger *slog.Logger, alerts ports.AlertSink, collector *Collector) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:         cfg,
		logger:      logger,
		alerts:      alerts,
		collector:   collector,
		buf:         make([]domain.Event, eventCapacity),
		consecutive: map[domain.Source]int{},
	}
}

// LogEvent appends one event and updates running counters. It never fails
// the caller; alert delivery happens on a detached goroutine.
func (m *Monitor) LogEvent(evt domain.Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	m.buf[m.next] = evt
	m.next = (m.next + 1) % eventCapacity
	if m.size < eventCapacity {
		m.size++
	}
	m.apply(evt)
	tripped := m.thresholdTripped(evt)
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.Observe(evt)
	}
	if tripped {
		go m.sendAlert(evt)
	}
}

// apply folds one event into the running counters. Callers hold the lock.
func (m *Monitor) apply(evt domain.Event) {
	switch evt.Type {
	case domain.EventSyncStarted:
		m.metrics.TotalSyncs++
	case domain.EventSyncCompleted:
		m.metrics.SuccessfulSyncs++
		m.metrics.LastSyncTime = evt.Timestamp
		m.durationSum += evt.Duration
		m.durationN++
		m.metrics.AverageDuration = m.durationSum / time.Duration(m.durationN)
		m.consecutive[evt.Source] = 0
	case domain.EventSyncFailed:
		m.metrics.FailedSyncs++
		m.consecutive[evt.Source]++
	case domain.EventAPIRequest:
		m.metrics.APIRequests++
	case domain.EventAPIError:
		m.metrics.APIErrors++
	case domain.EventRateLimitHit:
		m.metrics.RateLimitHits++
	case domain.EventFallbackActivated:
		m.metrics.FallbackActivations++
	}
}

// failureLimit is the consecutive-failure threshold with the default
// applied.
func (m *Monitor) failureLimit() int {
	if m.cfg.ConsecutiveFailures > 0 {
		return m.cfg.ConsecutiveFailures
	}
	return 3
}

func (m *Monitor) thresholdTripped(evt domain.Event) bool {
	if m.alerts == nil || evt.Type != domain.EventSyncFailed {
		return false
	}
	return m.consecutive[evt.Source] == m.failureLimit()
}

func (m *Monitor) sendAlert(evt domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subject := fmt.Sprintf("phonesync: %s sync failing", evt.Source)
	body := fmt.Sprintf("source %s reached %d consecutive failures; last error: %s",
		evt.Source, m.failureLimit(), evt.Error)
	if err := m.alerts.SendAlert(ctx, subject, body); err != nil {
		m.logger.Warn("alert delivery failed", "error", err)
	}
}

// Metrics returns a copy of the running counters.
func (m *Monitor) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

// Events returns buffered events newer than the given window, oldest first.
// A non-positive window returns the whole buffer.
func (m *Monitor) Events(hours int) []domain.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.eventsLocked(hours)
}

func (m *Monitor) eventsLocked(hours int) []domain.Event {
	cutoff := time.Time{}
	if hours > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	out := make([]domain.Event, 0, m.size)
	start := m.next - m.size
	for i := 0; i < m.size; i++ {
		idx := (start + i + eventCapacity) % eventCapacity
		evt := m.buf[idx]
		if evt.Timestamp.After(cutoff) {
			out = append(out, evt)
		}
	}
	return out
}

// GenerateHealthReport evaluates alert rules in priority order.
func (m *Monitor) GenerateHealthReport() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := HealthReport{Status: StatusHealthy, GeneratedAt: time.Now().UTC()}

	limit := m.failureLimit()
	for source, failures := range m.consecutive {
		if failures >= limit {
			report.Status = StatusCritical
			report.Issues = append(report.Issues,
				fmt.Sprintf("%d consecutive sync failures for %s", failures, source))
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("check %s credentials and upstream availability", source))
		}
	}
	if report.Status == StatusCritical {
		return report
	}

	perf := m.apiPerformanceLocked(1)
	if m.cfg.ErrorRateThreshold > 0 && perf.ErrorRate > m.cfg.ErrorRateThreshold {
		report.Status = StatusWarning
		report.Issues = append(report.Issues,
			fmt.Sprintf("API error rate %.1f%% over the last hour", perf.ErrorRate*100))
		report.Recommendations = append(report.Recommendations,
			"inspect recent api_error events for a common upstream cause")
	}
	if m.cfg.SlowResponseLimit > 0 && perf.AverageLatency > m.cfg.SlowResponseLimit {
		report.Status = StatusWarning
		report.Issues = append(report.Issues,
			fmt.Sprintf("average API latency %s exceeds %s", perf.AverageLatency, m.cfg.SlowResponseLimit))
	}

	return report
}

// GetErrorSummary aggregates error events inside the window.
func (m *Monitor) GetErrorSummary(hours int) ErrorSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := ErrorSummary{
		WindowHours: hours,
		BySource:    map[domain.Source]int{},
		ByType:      map[domain.EventType]int{},
	}
	for _, evt := range m.eventsLocked(hours) {
		switch evt.Type {
		case domain.EventAPIError, domain.EventSyncFailed, domain.EventDataValidationError:
			summary.TotalErrors++
			summary.BySource[evt.Source]++
			summary.ByType[evt.Type]++
		}
	}
	return summary
}

// GetAPIPerformanceMetrics computes latency and error-rate figures inside
// the window, including the top five slowest requests.
func (m *Monitor) GetAPIPerformanceMetrics(hours int) APIPerformance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiPerformanceLocked(hours)
}

func (m *Monitor) apiPerformanceLocked(hours int) APIPerformance {
	perf := APIPerformance{WindowHours: hours}

	var latencySum time.Duration
	var requests []domain.Event
	for _, evt := range m.eventsLocked(hours) {
		switch evt.Type {
		case domain.EventAPIRequest:
			perf.RequestCount++
			latencySum += evt.Duration
			requests = append(requests, evt)
		case domain.EventAPIError:
			perf.ErrorCount++
		}
	}

	if total := perf.RequestCount + perf.ErrorCount; total > 0 {
		perf.ErrorRate = float64(perf.ErrorCount) / float64(total)
	}
	if perf.RequestCount > 0 {
		perf.AverageLatency = latencySum / time.Duration(perf.RequestCount)
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].Duration > requests[j].Duration
	})
	if len(requests) > 5 {
		requests = requests[:5]
	}
	perf.Slowest = requests

	return perf
}

// ClearOldData purges events older than the cutoff and rebuilds all derived
// metrics from the remaining buffer so counters are never partially stale.
func (m *Monitor) ClearOldData(hours int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.eventsLocked(hours)
	removed := m.size - len(kept)

	m.buf = make([]domain.Event, eventCapacity)
	m.next = 0
	m.size = 0
	m.metrics = Metrics{}
	m.durationSum = 0
	m.durationN = 0
	m.consecutive = map[domain.Source]int{}

	for _, evt := range kept {
		m.buf[m.next] = evt
		m.next = (m.next + 1) % eventCapacity
		m.size++
		m.apply(evt)
	}

	return removed
}
