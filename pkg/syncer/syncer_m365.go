package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/models"
	"github.com/stratoview/cloudsync/pkg/provider"
	"github.com/stratoview/cloudsync/pkg/reconciler"
)

// syncDirectory pulls M365 users and subscribed SKUs for one customer.
// Per-record failures are counted on the run; a returned error means the
// directory listing itself could not proceed.
func (s *Syncer) syncDirectory(ctx context.Context, customer *models.Customer, cred provider.Credential, run *SyncRun) error {
	if s.Directory == nil {
		return nil
	}

	client, err := s.Directory.Authenticate(ctx, cred)

	if err != nil {
		return fmt.Errorf("failed to authenticate against directory provider: %w", err)
	}

	err = client.ListUsers(ctx, func(raw provider.RawUser) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.upsertUser(context.WithoutCancel(ctx), customer.ID, raw); err != nil {
			run.ReconcileErrors++
			s.log.Warn().Err(err).Str("customer", customer.Name).Msg("user record skipped")
			return nil
		}

		run.UserCount++
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	licenses, err := client.ListLicenses(ctx)

	if err != nil {
		return err
	}

	for _, raw := range licenses {
		if err := s.upsertLicense(ctx, customer.ID, raw); err != nil {
			run.ReconcileErrors++
			s.log.Warn().Err(err).Str("customer", customer.Name).Msg("license record skipped")
			continue
		}

		run.LicenseCount++
	}

	err = client.ListManagedDevices(ctx, func(raw provider.RawDevice) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.upsertDevice(context.WithoutCancel(ctx), customer.ID, raw); err != nil {
			run.ReconcileErrors++
			s.log.Warn().Err(err).Str("customer", customer.Name).Msg("device record skipped")
			return nil
		}

		run.DeviceCount++
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (s *Syncer) upsertUser(ctx context.Context, customerID uuid.UUID, raw provider.RawUser) error {
	upn := raw.UserPrincipalName

	if upn == "" {
		upn = raw.Mail
	}

	if upn == "" {
		return &reconciler.MalformedRecordError{ExternalID: raw.ID, Reason: "missing user principal name"}
	}

	var skus []byte

	if len(raw.LicenseSKUs) > 0 {
		skus, _ = json.Marshal(raw.LicenseSKUs)
	}

	var existing models.M365User

	err := s.DB.
		WithContext(ctx).
		Where("customer_id = ? AND user_principal_name = ?", customerID, upn).
		First(&existing).
		Error

	if err == nil {
		updates := map[string]interface{}{
			"mail":            raw.Mail,
			"display_name":    raw.DisplayName,
			"license_skus":    skus,
			"account_enabled": raw.AccountEnabled,
			"last_sign_in_at": raw.LastSignIn,
		}

		return s.DB.
			WithContext(ctx).
			Model(&existing).
			Updates(updates).
			Error
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up user %s: %w", upn, err)
	}

	user := models.M365User{
		ID:                uuid.Must(uuid.NewV7()),
		CustomerID:        customerID,
		UserPrincipalName: upn,
		Mail:              raw.Mail,
		DisplayName:       raw.DisplayName,
		LicenseSKUs:       skus,
		AccountEnabled:    raw.AccountEnabled,
		LastSignInAt:      raw.LastSignIn,
	}

	return s.DB.
		WithContext(ctx).
		Create(&user).
		Error
}

func (s *Syncer) upsertLicense(ctx context.Context, customerID uuid.UUID, raw provider.RawLicense) error {
	if raw.SKUID == "" {
		return &reconciler.MalformedRecordError{Reason: "missing sku id"}
	}

	available := raw.PrepaidUnits - raw.ConsumedUnits

	if available < 0 {
		available = 0
	}

	cost := estimateLicenseCost(raw.SKUPartNumber)

	var existing models.M365License

	err := s.DB.
		WithContext(ctx).
		Where("customer_id = ? AND sku_id = ?", customerID, raw.SKUID).
		First(&existing).
		Error

	if err == nil {
		updates := map[string]interface{}{
			"name":            raw.SKUPartNumber,
			"assigned_count":  raw.ConsumedUnits,
			"available_count": available,
			"unit_cost":       cost,
		}

		return s.DB.
			WithContext(ctx).
			Model(&existing).
			Updates(updates).
			Error
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up license %s: %w", raw.SKUID, err)
	}

	license := models.M365License{
		ID:             uuid.Must(uuid.NewV7()),
		CustomerID:     customerID,
		SKUID:          raw.SKUID,
		Name:           raw.SKUPartNumber,
		AssignedCount:  raw.ConsumedUnits,
		AvailableCount: available,
		UnitCost:       cost,
	}

	return s.DB.
		WithContext(ctx).
		Create(&license).
		Error
}

// upsertDevice merges one Intune managed device, keyed by (customer, device
// name). Anything Intune does not report as compliant is non-compliant.
func (s *Syncer) upsertDevice(ctx context.Context, customerID uuid.UUID, raw provider.RawDevice) error {
	if raw.DeviceName == "" {
		return &reconciler.MalformedRecordError{ExternalID: raw.ID, Reason: "missing device name"}
	}

	compliance := models.DeviceNonCompliant

	if raw.ComplianceState == models.DeviceCompliant {
		compliance = models.DeviceCompliant
	}

	var existing models.M365Device

	err := s.DB.
		WithContext(ctx).
		Where("customer_id = ? AND device_name = ?", customerID, raw.DeviceName).
		First(&existing).
		Error

	if err == nil {
		updates := map[string]interface{}{
			"operating_system": raw.OperatingSystem,
			"compliance_state": compliance,
			"last_sync_at":     raw.LastSync,
		}

		return s.DB.
			WithContext(ctx).
			Model(&existing).
			Updates(updates).
			Error
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up device %s: %w", raw.DeviceName, err)
	}

	device := models.M365Device{
		ID:              uuid.Must(uuid.NewV7()),
		CustomerID:      customerID,
		DeviceName:      raw.DeviceName,
		OperatingSystem: raw.OperatingSystem,
		ComplianceState: compliance,
		LastSyncAt:      raw.LastSync,
	}

	return s.DB.
		WithContext(ctx).
		Create(&device).
		Error
}

// Published list prices are not available through Graph, so the portal carries
// a static per-SKU estimate with a conservative default.
var licenseCostBySKU = map[string]float64{
	"ENTERPRISEPACK":    22,
	"ENTERPRISEPREMIUM": 35,
	"STANDARDPACK":      12.50,
	"SPE_E3":            32,
	"SPE_E5":            57,
	"POWER_BI_PRO":      9.99,
	"FLOW_FREE":         0,
	"TEAMS_EXPLORATORY": 0,
}

func estimateLicenseCost(skuPartNumber string) float64 {
	if cost, ok := licenseCostBySKU[skuPartNumber]; ok {
		return cost
	}

	return 10
}
