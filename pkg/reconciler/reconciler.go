package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/logger"
	"github.com/stratoview/cloudsync/pkg/models"
	"github.com/stratoview/cloudsync/pkg/provider"
)

// MalformedRecordError marks a raw record missing its required fields.
// Rejected per-record; never aborts the surrounding batch.
type MalformedRecordError struct {
	ExternalID string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: %s", e.ExternalID, e.Reason)
}

func IsMalformed(err error) bool {
	var me *MalformedRecordError
	return errors.As(err, &me)
}

type Reconciler struct {
	DB *gorm.DB

	log zerolog.Logger
	now func() time.Time
}

func New(db *gorm.DB) *Reconciler {
	return &Reconciler{
		DB:  db,
		log: logger.Component("reconciler"),
		now: time.Now,
	}
}

// Upsert merges one raw record into local storage keyed by its external id.
// Existing records keep DiscoveredAt and get their mutable fields overwritten;
// new records get DiscoveredAt = LastUpdatedAt = now. Idempotent: replaying an
// identical record only refreshes LastUpdatedAt.
func (r *Reconciler) Upsert(ctx context.Context, customerID uuid.UUID, subscriptionID string, raw provider.RawResource) (*models.AzureResource, error) {
	if raw.ExternalID == "" {
		return nil, &MalformedRecordError{Reason: "missing external id"}
	}

	if raw.Type == "" {
		return nil, &MalformedRecordError{ExternalID: raw.ExternalID, Reason: "missing type"}
	}

	now := r.now().UTC()

	var tags []byte

	if len(raw.Tags) > 0 {
		var err error

		tags, err = json.Marshal(raw.Tags)

		if err != nil {
			return nil, &MalformedRecordError{ExternalID: raw.ExternalID, Reason: "unserializable tags"}
		}
	}

	status := determineStatus(raw)
	cost := estimateMonthlyCost(raw.Type)

	var existing models.AzureResource

	err := r.DB.
		WithContext(ctx).
		Where("external_id = ?", raw.ExternalID).
		First(&existing).
		Error

	if err == nil {
		updates := map[string]interface{}{
			"name":            raw.Name,
			"type":            raw.Type,
			"resource_group":  raw.ResourceGroup,
			"region":          raw.Region,
			"subscription_id": subscriptionID,
			"status":          status,
			"monthly_cost":    cost,
			"tags":            tags,
			"last_updated_at": now,
		}

		err = r.DB.
			WithContext(ctx).
			Model(&existing).
			Updates(updates).
			Error

		if err != nil {
			return nil, fmt.Errorf("failed to update resource %s: %w", raw.ExternalID, err)
		}

		return &existing, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up resource %s: %w", raw.ExternalID, err)
	}

	resource := models.AzureResource{
		ID:             uuid.Must(uuid.NewV7()),
		CustomerID:     customerID,
		ExternalID:     raw.ExternalID,
		Name:           raw.Name,
		Type:           raw.Type,
		ResourceGroup:  raw.ResourceGroup,
		Region:         raw.Region,
		SubscriptionID: subscriptionID,
		Status:         status,
		MonthlyCost:    cost,
		Tags:           tags,
		DiscoveredAt:   now,
		LastUpdatedAt:  now,
	}

	err = r.DB.
		WithContext(ctx).
		Create(&resource).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to create resource %s: %w", raw.ExternalID, err)
	}

	r.log.Debug().Str("external_id", raw.ExternalID).Msg("discovered new resource")

	return &resource, nil
}

// VMs stay unknown until enrichment resolves their power state; everything
// else is considered running when observed.
func determineStatus(raw provider.RawResource) string {
	if raw.Status != "" {
		return raw.Status
	}

	if models.IsVirtualMachine(raw.Type) {
		return models.ResourceStatusUnknown
	}

	return models.ResourceStatusRunning
}

// Static estimate per resource type. Stands in for a billing integration;
// feeds the dashboard cost sum only.
var monthlyCostByType = map[string]float64{
	"Microsoft.Compute/virtualMachines": 150,
	"Microsoft.Storage/storageAccounts": 50,
	"Microsoft.Web/sites":               100,
	"Microsoft.Sql/servers/databases":   200,
	"Microsoft.Network/loadBalancers":   75,
}

func estimateMonthlyCost(resourceType string) float64 {
	if cost, ok := monthlyCostByType[resourceType]; ok {
		return cost
	}

	return 25
}
