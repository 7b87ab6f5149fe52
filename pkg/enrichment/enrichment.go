package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/logger"
	"github.com/stratoview/cloudsync/pkg/models"
	"github.com/stratoview/cloudsync/pkg/provider"
)

// Enricher performs best-effort secondary fetches for virtual machines and
// merges the results into the VM's detail record. Sub-fetch failures degrade
// the affected fields to NULL; they never fail the parent reconciliation.
type Enricher struct {
	DB          *gorm.DB
	Concurrency int

	log zerolog.Logger
	now func() time.Time
}

func New(db *gorm.DB, concurrency int) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Enricher{
		DB:          db,
		Concurrency: concurrency,
		log:         logger.Component("enrichment"),
		now:         time.Now,
	}
}

// Enrich fetches instance state, network topology and disks for one VM and
// upserts its detail record, overwriting only the fields this pass computed.
// Returns an error only when the base VM fetch fails and nothing was learned.
func (e *Enricher) Enrich(ctx context.Context, res *models.AzureResource, client provider.ResourceClient) error {
	prof, err := client.GetVM(ctx, res.ExternalID)

	if err != nil {
		return fmt.Errorf("failed to fetch vm profile for %s: %w", res.ExternalID, err)
	}

	computed := map[string]interface{}{
		"last_updated_at": e.now().UTC(),
	}

	if prof.VMSize != "" {
		computed["vm_size"] = prof.VMSize
	}

	if prof.OSType != "" {
		computed["os_type"] = prof.OSType
	}

	if prof.ProvisioningState != "" {
		computed["provisioning_state"] = prof.ProvisioningState
	}

	disks := make([]string, 0, len(prof.DataDisks)+1)

	if prof.OSDisk != "" {
		disks = append(disks, "OS Disk: "+prof.OSDisk)
	}

	for _, d := range prof.DataDisks {
		disks = append(disks, "Data Disk: "+d)
	}

	if data, err := json.Marshal(disks); err == nil {
		computed["disks"] = data
	}

	nicNames := make([]string, 0, len(prof.NICIDs))

	for _, id := range prof.NICIDs {
		nicNames = append(nicNames, lastSegment(id))
	}

	if data, err := json.Marshal(nicNames); err == nil {
		computed["network_interfaces"] = data
	}

	var powerState string

	if view, err := client.GetInstanceView(ctx, res.ExternalID); err != nil {
		e.log.Warn().Err(err).Str("external_id", res.ExternalID).Msg("instance view fetch failed")
	} else if view != nil && view.PowerState != "" {
		powerState = view.PowerState
		computed["power_state"] = powerState
	}

	hasPublicIP, publicIPAddr, topologyComplete := e.resolvePublicIP(ctx, res.ExternalID, prof.NICIDs, client)

	// A positive finding is always recorded; the negative "no public IP" is
	// only trustworthy when every NIC branch succeeded.
	if hasPublicIP {
		computed["has_public_ip"] = true
		computed["public_ip_address"] = publicIPAddr
	} else if topologyComplete {
		computed["has_public_ip"] = false
	}

	return e.persist(ctx, res, powerState, computed)
}

// resolvePublicIP walks NIC -> ip configuration -> public ip with bounded
// concurrency. Each branch isolates its own failure.
func (e *Enricher) resolvePublicIP(ctx context.Context, externalID string, nicIDs []string, client provider.ResourceClient) (bool, string, bool) {
	var (
		mu          sync.Mutex
		hasPublicIP bool
		address     string
		failed      bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)

	for _, nicID := range nicIDs {
		g.Go(func() error {
			detail, err := client.GetNIC(gctx, nicID)

			if err != nil {
				e.log.Warn().Err(err).Str("nic", nicID).Msg("nic fetch failed")
				mu.Lock()
				failed = true
				mu.Unlock()
				return nil
			}

			for _, ref := range detail.PublicIPRefs {
				pip, err := client.GetPublicIP(gctx, ref)

				if err != nil {
					e.log.Warn().Err(err).Str("public_ip", ref).Msg("public ip fetch failed")
					mu.Lock()
					failed = true
					mu.Unlock()
					continue
				}

				mu.Lock()
				hasPublicIP = true
				if pip.Address != "" {
					address = pip.Address
				}
				mu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.log.Warn().Err(err).Str("external_id", externalID).Msg("network topology fan-out aborted")
		failed = true
	}

	return hasPublicIP, address, !failed
}

// persist upserts the detail row and aligns the parent resource status with
// the observed power state, in one transaction so a partial result is still
// consistent.
func (e *Enricher) persist(ctx context.Context, res *models.AzureResource, powerState string, computed map[string]interface{}) error {
	tx := e.DB.WithContext(ctx).Begin()
	defer tx.Rollback()

	var detail models.VMDetail

	err := tx.
		Where(models.VMDetail{ResourceID: res.ID}).
		Attrs(models.VMDetail{
			ID:            uuid.Must(uuid.NewV7()),
			LastUpdatedAt: e.now().UTC(),
		}).
		FirstOrCreate(&detail).
		Error

	if err != nil {
		return fmt.Errorf("failed to load vm detail for %s: %w", res.ExternalID, err)
	}

	err = tx.
		Model(&detail).
		Updates(computed).
		Error

	if err != nil {
		return fmt.Errorf("failed to update vm detail for %s: %w", res.ExternalID, err)
	}

	if powerState != "" {
		err = tx.
			Model(&models.AzureResource{}).
			Where("id = ?", res.ID).
			Update("status", statusFromPowerState(powerState)).
			Error

		if err != nil {
			return fmt.Errorf("failed to update resource status for %s: %w", res.ExternalID, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit vm detail for %s: %w", res.ExternalID, err)
	}

	return nil
}

func statusFromPowerState(powerState string) string {
	switch strings.ToLower(powerState) {
	case "running", "starting":
		return models.ResourceStatusRunning
	case "stopped", "stopping":
		return models.ResourceStatusStopped
	case "deallocated", "deallocating":
		return models.ResourceStatusDeallocated
	default:
		return models.ResourceStatusUnknown
	}
}

func lastSegment(id string) string {
	idx := strings.LastIndex(id, "/")

	if idx < 0 || idx == len(id)-1 {
		return id
	}

	return id[idx+1:]
}
