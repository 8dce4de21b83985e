package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/ports"
)

// SyncDeps wires the driven adapters into the orchestrator.
type SyncDeps struct {
	Catalog ports.CatalogStore
	Specs   ports.SpecProvider
	Prices  ports.PriceProvider
	Events  ports.EventLog
	Logger  *slog.Logger
}

// SyncService coordinates full and partial synchronization runs and
// persists outcomes to the catalog store. Jobs are retained in memory for
// status queries, not persisted to durable storage.
type SyncService struct {
	cfg     config.SyncConfig
	catalog ports.CatalogStore
	specs   ports.SpecProvider
	prices  ports.PriceProvider
	events  ports.EventLog
	logger  *slog.Logger
	dryRun  bool

	runners map[domain.Source]func(context.Context, *domain.SyncJob) error

	mu   sync.RWMutex
	jobs map[string]*domain.SyncJob
}

// NewSyncService constructs the orchestrator.
func NewSyncService(cfg config.SyncConfig, deps SyncDeps) *SyncService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &SyncService{
		cfg:     cfg,
		catalog: deps.Catalog,
		specs:   deps.Specs,
		prices:  deps.Prices,
		events:  deps.Events,
		logger:  logger,
		jobs:    map[string]*domain.SyncJob{},
	}
	s.runners = map[domain.Source]func(context.Context, *domain.SyncJob) error{
		domain.SourceGSMArena:      s.SyncPhoneSpecifications,
		domain.SourcePriceTracking: s.SyncPriceData,
	}
	return s
}

// Sources lists the registered sync sources in a stable order.
func (s *SyncService) Sources() []domain.Source {
	return []domain.Source{domain.SourceGSMArena, domain.SourcePriceTracking}
}

// SetDryRun switches the orchestrator into counting mode: records are
// processed and validated but no catalog writes happen.
func (s *SyncService) SetDryRun(enabled bool) {
	s.dryRun = enabled
}

// StartFullSync runs specification and price synchronization, one job per
// source. A failure in one source does not abort the other.
func (s *SyncService) StartFullSync(ctx context.Context) ([]domain.SyncJob, error) {
	specJob := s.newJob(domain.SourceGSMArena)
	if err := s.SyncPhoneSpecifications(ctx, specJob); err != nil {
		s.failJob(specJob, err)
	} else {
		s.completeJob(specJob)
	}

	priceJob := s.newJob(domain.SourcePriceTracking)
	if err := s.SyncPriceData(ctx, priceJob); err != nil {
		s.failJob(priceJob, err)
	} else {
		s.completeJob(priceJob)
	}

	return []domain.SyncJob{s.jobSnapshot(specJob.ID), s.jobSnapshot(priceJob.ID)}, nil
}

// StartSourceSync runs one registered source only, for targeted CLI
// triggers.
func (s *SyncService) StartSourceSync(ctx context.Context, source domain.Source) (domain.SyncJob, error) {
	run, ok := s.runners[source]
	if !ok {
		return domain.SyncJob{}, fmt.Errorf("unknown sync source %q", source)
	}

	job := s.newJob(source)
	err := run(ctx, job)
	if err != nil {
		s.failJob(job, err)
	} else {
		s.completeJob(job)
	}
	return s.jobSnapshot(job.ID), err
}

// SyncPhoneSpecifications walks all active brands, queries the spec
// provider, and upserts returned phones by brand+model. Individual record
// failures are recorded on the job and processing continues.
func (s *SyncService) SyncPhoneSpecifications(ctx context.Context, job *domain.SyncJob) error {
	brands, err := s.catalog.ActiveBrands(ctx)
	if err != nil {
		return fmt.Errorf("load active brands: %w", err)
	}

	for _, brand := range brands {
		phones, err := s.specs.GetPhonesByBrand(ctx, brand.Name)
		if err != nil {
			s.appendError(job, fmt.Sprintf("brand %s: %v", brand.Name, err))
			continue
		}

		for _, phone := range phones {
			s.bump(job, func(j *domain.SyncJob) { j.RecordsProcessed++ })

			if strings.TrimSpace(phone.Brand) == "" || strings.TrimSpace(phone.Model) == "" {
				s.appendError(job, fmt.Sprintf("invalid record from %s: empty brand or model", brand.Name))
				s.logEvent(domain.Event{
					Type:   domain.EventDataValidationError,
					Source: job.Source,
					Error:  "empty brand or model",
				})
				continue
			}

			created, err := s.upsertPhone(ctx, phone)
			if err != nil {
				s.appendError(job, fmt.Sprintf("%s %s: %v", phone.Brand, phone.Model, err))
				continue
			}
			if created {
				s.bump(job, func(j *domain.SyncJob) { j.RecordsCreated++ })
			} else {
				s.bump(job, func(j *domain.SyncJob) { j.RecordsUpdated++ })
			}
		}
	}

	return nil
}

// SyncPriceData refreshes offers for all active catalog phones in
// fixed-size batches: items within a batch run concurrently, batches run
// sequentially with an inter-batch delay to stay under upstream limits.
func (s *SyncService) SyncPriceData(ctx context.Context, job *domain.SyncJob) error {
	phones, err := s.catalog.ActivePhones(ctx)
	if err != nil {
		return fmt.Errorf("load active phones: %w", err)
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	for start := 0; start < len(phones); start += batchSize {
		end := start + batchSize
		if end > len(phones) {
			end = len(phones)
		}

		var wg sync.WaitGroup
		for _, phone := range phones[start:end] {
			wg.Add(1)
			go func(phone domain.Phone) {
				defer wg.Done()
				s.syncPhonePrices(ctx, job, phone)
			}(phone)
		}
		wg.Wait()

		if end < len(phones) && s.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}

	return nil
}

func (s *SyncService) syncPhonePrices(ctx context.Context, job *domain.SyncJob, phone domain.Phone) {
	s.bump(job, func(j *domain.SyncJob) { j.RecordsProcessed++ })

	prices, err := s.prices.GetPrices(ctx, phone.Brand, phone.Model)
	if err != nil {
		s.appendError(job, fmt.Sprintf("prices for %s %s: %v", phone.Brand, phone.Model, err))
		return
	}
	if len(prices) == 0 {
		return
	}

	if !s.dryRun {
		if err := s.catalog.UpdatePrices(ctx, phone.ID, prices); err != nil {
			s.appendError(job, fmt.Sprintf("store prices for %s %s: %v", phone.Brand, phone.Model, err))
			return
		}
	}
	s.bump(job, func(j *domain.SyncJob) { j.RecordsUpdated++ })
}

// SyncPhoneData is a targeted single-phone resync combining a spec refresh
// and a price refresh. It reports success as a boolean for on-demand
// CLI/API triggers; only unexpected store failures surface as errors.
func (s *SyncService) SyncPhoneData(ctx context.Context, phoneID string) (bool, error) {
	phone, err := s.catalog.FindPhoneByID(ctx, phoneID)
	if err != nil {
		return false, fmt.Errorf("load phone %s: %w", phoneID, err)
	}
	if phone == nil {
		return false, nil
	}

	refreshed := false

	fresh, err := s.specs.GetPhoneByID(ctx, phone.ID)
	if err != nil {
		s.logger.Warn("spec refresh failed", "phone", phoneID, "error", err)
	} else if fresh != nil {
		phone.Specs = fresh.Specs
		if fresh.ImageURL != "" {
			phone.ImageURL = fresh.ImageURL
		}
		if !s.dryRun {
			if err := s.catalog.UpdatePhone(ctx, *phone); err != nil {
				return false, fmt.Errorf("update phone %s: %w", phoneID, err)
			}
		}
		refreshed = true
	}

	prices, err := s.prices.GetPrices(ctx, phone.Brand, phone.Model)
	if err != nil {
		s.logger.Warn("price refresh failed", "phone", phoneID, "error", err)
	} else if len(prices) > 0 {
		if !s.dryRun {
			if err := s.catalog.UpdatePrices(ctx, phone.ID, prices); err != nil {
				return false, fmt.Errorf("update prices %s: %w", phoneID, err)
			}
		}
		refreshed = true
	}

	return refreshed, nil
}

// upsertPhone creates a new record or updates the one matched by
// brand+model. Returns true when a record was created.
func (s *SyncService) upsertPhone(ctx context.Context, phone domain.Phone) (bool, error) {
	existing, err := s.catalog.FindPhone(ctx, phone.Brand, phone.Model)
	if err != nil {
		return false, fmt.Errorf("find phone: %w", err)
	}

	if existing == nil {
		if s.dryRun {
			return true, nil
		}
		if _, err := s.catalog.CreatePhone(ctx, phone); err != nil {
			return false, fmt.Errorf("create phone: %w", err)
		}
		return true, nil
	}

	existing.Specs = phone.Specs
	if phone.ImageURL != "" {
		existing.ImageURL = phone.ImageURL
	}
	if s.dryRun {
		return false, nil
	}
	if err := s.catalog.UpdatePhone(ctx, *existing); err != nil {
		return false, fmt.Errorf("update phone: %w", err)
	}
	return false, nil
}

// Jobs returns snapshots of all tracked jobs, newest last.
func (s *SyncService) Jobs() []domain.SyncJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SyncJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}

func (s *SyncService) newJob(source domain.Source) *domain.SyncJob {
	job := &domain.SyncJob{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    domain.JobPending,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	job.Status = domain.JobRunning
	s.mu.Unlock()

	s.logEvent(domain.Event{Type: domain.EventSyncStarted, Source: source})
	s.logger.Info("sync started", "source", source, "job", job.ID, "dry_run", s.dryRun)
	return job
}

func (s *SyncService) completeJob(job *domain.SyncJob) {
	s.mu.Lock()
	if job.Terminal() {
		s.mu.Unlock()
		return
	}
	job.Status = domain.JobCompleted
	job.FinishedAt = time.Now().UTC()
	duration := job.FinishedAt.Sub(job.StartedAt)
	s.mu.Unlock()

	s.logEvent(domain.Event{Type: domain.EventSyncCompleted, Source: job.Source, Duration: duration})
	s.logger.Info("sync completed", "source", job.Source, "job", job.ID,
		"processed", job.RecordsProcessed, "created", job.RecordsCreated,
		"updated", job.RecordsUpdated, "errors", len(job.Errors))
}

func (s *SyncService) failJob(job *domain.SyncJob, err error) {
	s.mu.Lock()
	if job.Terminal() {
		s.mu.Unlock()
		return
	}
	job.Status = domain.JobFailed
	job.FinishedAt = time.Now().UTC()
	job.Errors = append(job.Errors, err.Error())
	s.mu.Unlock()

	s.logEvent(domain.Event{Type: domain.EventSyncFailed, Source: job.Source, Error: err.Error()})
	s.logger.Error("sync failed", "source", job.Source, "job", job.ID, "error", err)
}

func (s *SyncService) appendError(job *domain.SyncJob, msg string) {
	s.bump(job, func(j *domain.SyncJob) { j.Errors = append(j.Errors, msg) })
}

func (s *SyncService) bump(job *domain.SyncJob, fn func(*domain.SyncJob)) {
	s.mu.Lock()
	fn(job)
	s.mu.Unlock()
}

func (s *SyncService) jobSnapshot(id string) domain.SyncJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[id]; ok {
		return *job
	}
	return domain.SyncJob{}
}

func (s *SyncService) logEvent(evt domain.Event) {
	if s.events == nil {
		return
	}
	s.events.LogEvent(evt)
}
