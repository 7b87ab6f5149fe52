package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/enrichment"
	"github.com/stratoview/cloudsync/pkg/logger"
	"github.com/stratoview/cloudsync/pkg/metrics"
	"github.com/stratoview/cloudsync/pkg/models"
	"github.com/stratoview/cloudsync/pkg/provider"
	"github.com/stratoview/cloudsync/pkg/reconciler"
)

var (
	ErrCustomerNotFound = errors.New("customer not found or inactive")
	ErrSyncInProgress   = errors.New("sync already in progress")
)

// SyncRun is the ephemeral report of one orchestrator invocation. Never
// persisted.
type SyncRun struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`

	Success bool   `json:"success"`
	Message string `json:"message"`

	ResourceCount int `json:"resource_count"`
	UserCount     int `json:"user_count"`
	LicenseCount  int `json:"license_count"`
	DeviceCount   int `json:"device_count"`

	ReconcileErrors  int `json:"reconcile_errors"`
	EnrichmentErrors int `json:"enrichment_errors"`
	ProviderErrors   int `json:"provider_errors"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Syncer orchestrates per-customer syncs: it authenticates against the
// providers, streams raw records through the reconciler, drives enrichment for
// virtual machines and stamps the customer's last-synced time.
type Syncer struct {
	DB        *gorm.DB
	Resources provider.ResourceProvider
	Directory provider.DirectoryProvider

	rec *reconciler.Reconciler
	enr *enrichment.Enricher
	log zerolog.Logger
	now func() time.Time

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func New(db *gorm.DB, resources provider.ResourceProvider, directory provider.DirectoryProvider, enrichmentConcurrency int) *Syncer {
	return &Syncer{
		DB:        db,
		Resources: resources,
		Directory: directory,
		rec:       reconciler.New(db),
		enr:       enrichment.New(db, enrichmentConcurrency),
		log:       logger.Component("syncer"),
		now:       time.Now,
		inflight:  make(map[uuid.UUID]struct{}),
	}
}

// SyncAll runs every active customer sequentially so no single provider sees
// an unbounded burst. One customer's failure never aborts the rest.
func (s *Syncer) SyncAll(ctx context.Context) []*SyncRun {
	var customers []models.Customer

	err := s.DB.
		WithContext(ctx).
		Preload("Subscriptions").
		Where("status = ?", models.CustomerStatusActive).
		Find(&customers).
		Error

	if err != nil {
		s.log.Error().Err(err).Msg("failed to list active customers")
		return nil
	}

	runs := make([]*SyncRun, 0, len(customers))

	for i := range customers {
		if ctx.Err() != nil {
			break
		}

		run := s.syncCustomer(ctx, &customers[i])
		runs = append(runs, run)

		if !run.Success {
			s.log.Warn().
				Str("customer", run.CustomerName).
				Str("message", run.Message).
				Msg("customer sync unsuccessful, continuing with remaining customers")
		}
	}

	return runs
}

// SyncCustomer resolves the customer and runs one sync. Absent or inactive
// customers fail fast with ErrCustomerNotFound.
func (s *Syncer) SyncCustomer(ctx context.Context, id uuid.UUID) (*SyncRun, error) {
	var customer models.Customer

	err := s.DB.
		WithContext(ctx).
		Preload("Subscriptions").
		First(&customer, "id = ?", id).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	if customer.Status != models.CustomerStatusActive {
		return nil, ErrCustomerNotFound
	}

	return s.syncCustomer(ctx, &customer), nil
}

func (s *Syncer) syncCustomer(ctx context.Context, customer *models.Customer) *SyncRun {
	run := &SyncRun{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		StartedAt:    s.now().UTC(),
	}

	if !s.begin(customer.ID) {
		run.Message = ErrSyncInProgress.Error()
		run.FinishedAt = s.now().UTC()
		metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
		return run
	}

	defer s.end(customer.ID)

	s.log.Info().Str("customer", customer.Name).Msg("starting sync")

	cred := provider.Credential{
		TenantID:     customer.TenantID,
		ClientID:     customer.ClientID,
		ClientSecret: customer.ClientSecret,
	}

	if err := s.syncResources(ctx, customer, cred, run); err != nil {
		return s.finishFailed(run, err)
	}

	if err := s.syncDirectory(ctx, customer, cred, run); err != nil {
		// Directory auth failure is fatal only when nothing at all was synced;
		// otherwise the run is partial and still stamps last-synced.
		if provider.IsAuth(err) && run.ResourceCount == 0 && run.UserCount == 0 && run.LicenseCount == 0 && run.DeviceCount == 0 {
			return s.finishFailed(run, err)
		}

		s.log.Warn().Err(err).Str("customer", customer.Name).Msg("directory sync incomplete")
		run.ProviderErrors++
	}

	now := s.now().UTC()

	err := s.DB.
		WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("last_synced_at", now).
		Error

	if err != nil {
		s.log.Error().Err(err).Str("customer", customer.Name).Msg("failed to stamp last synced time")
	}

	run.Success = true
	run.Message = fmt.Sprintf("synced %d resources, %d users, %d licenses, %d devices", run.ResourceCount, run.UserCount, run.LicenseCount, run.DeviceCount)

	if n := run.ReconcileErrors + run.EnrichmentErrors + run.ProviderErrors; n > 0 {
		run.Message = fmt.Sprintf("%s (%d errors)", run.Message, n)
	}

	run.FinishedAt = now
	metrics.SyncRunsTotal.WithLabelValues("success").Inc()

	s.log.Info().
		Str("customer", customer.Name).
		Int("resources", run.ResourceCount).
		Int("users", run.UserCount).
		Int("reconcile_errors", run.ReconcileErrors).
		Int("enrichment_errors", run.EnrichmentErrors).
		Msg("sync finished")

	return run
}

func (s *Syncer) syncResources(ctx context.Context, customer *models.Customer, cred provider.Credential, run *SyncRun) error {
	if s.Resources == nil || len(customer.Subscriptions) == 0 {
		return nil
	}

	client, err := s.Resources.Authenticate(ctx, cred)

	if err != nil {
		return fmt.Errorf("failed to authenticate against resource provider: %w", err)
	}

	for _, sub := range customer.Subscriptions {
		err := client.ListResources(ctx, sub.SubscriptionID, func(raw provider.RawResource) error {
			// Cancellation stops new provider calls between records; the
			// in-flight upsert below still completes.
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := s.rec.Upsert(context.WithoutCancel(ctx), customer.ID, sub.SubscriptionID, raw)

			if err != nil {
				run.ReconcileErrors++
				metrics.ReconcileErrorsTotal.Inc()
				s.log.Warn().Err(err).Str("customer", customer.Name).Msg("record skipped")
				return nil
			}

			run.ResourceCount++
			metrics.ResourcesReconciledTotal.Inc()

			if models.IsVirtualMachine(res.Type) {
				if err := s.enr.Enrich(ctx, res, client); err != nil {
					run.EnrichmentErrors++
					metrics.EnrichmentErrorsTotal.Inc()
					s.log.Warn().Err(err).Str("external_id", res.ExternalID).Msg("enrichment failed")
				}
			}

			return nil
		})

		if err != nil {
			// Credential rejection with nothing processed means the connection
			// was never established.
			if provider.IsAuth(err) && run.ResourceCount == 0 {
				return err
			}

			if errors.Is(err, context.Canceled) {
				return nil
			}

			run.ProviderErrors++
			s.log.Warn().Err(err).
				Str("customer", customer.Name).
				Str("subscription", sub.SubscriptionID).
				Msg("subscription listing incomplete")
		}
	}

	return nil
}

func (s *Syncer) finishFailed(run *SyncRun, err error) *SyncRun {
	run.Success = false
	run.Message = err.Error()
	run.FinishedAt = s.now().UTC()
	metrics.SyncRunsTotal.WithLabelValues("failure").Inc()
	return run
}

func (s *Syncer) begin(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[id]; ok {
		return false
	}

	s.inflight[id] = struct{}{}
	return true
}

func (s *Syncer) end(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
