package domain

import "time"

// Source enumerates external data providers.
type Source string

const (
	SourceGSMArena      Source = "gsmarena"
	SourcePriceTracking Source = "priceTracking"
)

// JobStatus enumerates sync job lifecycle states.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// SyncJob tracks one execution of a synchronization task against one source.
// Status transitions are monotonic: pending -> running -> completed|failed.
type SyncJob struct {
	ID               string
	Source           Source
	Status           JobStatus
	StartedAt        time.Time
	FinishedAt       time.Time
	RecordsProcessed int
	RecordsCreated   int
	RecordsUpdated   int
	Errors           []string
}

// Terminal reports whether the job reached a final state.
func (j *SyncJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// EventType enumerates monitoring event kinds.
type EventType string

const (
	EventSyncStarted         EventType = "sync_started"
	EventSyncCompleted       EventType = "sync_completed"
	EventSyncFailed          EventType = "sync_failed"
	EventAPIRequest          EventType = "api_request"
	EventAPIError            EventType = "api_error"
	EventRateLimitHit        EventType = "rate_limit_hit"
	EventDataValidationError EventType = "data_validation_error"
	EventFallbackActivated   EventType = "fallback_activated"
)

// Event is an immutable monitoring record appended to the ring buffer.
type Event struct {
	ID        string
	Type      EventType
	Source    Source
	Timestamp time.Time
	Duration  time.Duration
	Error     string
	Metadata  map[string]string
}

// FallbackSource tags which layer of the fallback chain produced a result.
type FallbackSource string

const (
	FallbackCache          FallbackSource = "cache"
	FallbackStatic         FallbackSource = "static"
	FallbackAlternativeAPI FallbackSource = "alternative_api"
	FallbackManual         FallbackSource = "manual"
)
