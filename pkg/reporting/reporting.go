package reporting

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stratoview/cloudsync/pkg/models"
)

// Reporter derives read-only summaries from reconciled storage. Pure
// query-time projection; safe to run concurrently with any sync.
type Reporter struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Reporter {
	return &Reporter{DB: db}
}

type DashboardMetrics struct {
	TotalCustomers      int64            `json:"total_customers"`
	TotalAzureResources int64            `json:"total_azure_resources"`
	TotalM365Users      int64            `json:"total_m365_users"`
	TotalMonthlyCost    float64          `json:"total_monthly_cost"`
	ResourcesByStatus   map[string]int64 `json:"resources_by_status"`
	ResourcesByType     map[string]int64 `json:"resources_by_type"`
}

func (r *Reporter) DashboardMetrics(ctx context.Context, customerID *uuid.UUID) (*DashboardMetrics, error) {
	m := &DashboardMetrics{
		ResourcesByStatus: make(map[string]int64),
		ResourcesByType:   make(map[string]int64),
	}

	scoped := func(db *gorm.DB) *gorm.DB {
		if customerID != nil {
			return db.Where("customer_id = ?", *customerID)
		}
		return db
	}

	if customerID != nil {
		m.TotalCustomers = 1
	} else {
		err := r.DB.
			WithContext(ctx).
			Model(&models.Customer{}).
			Where("status = ?", models.CustomerStatusActive).
			Count(&m.TotalCustomers).
			Error

		if err != nil {
			return nil, fmt.Errorf("failed to count customers: %w", err)
		}
	}

	err := scoped(r.DB.WithContext(ctx).Model(&models.AzureResource{})).
		Count(&m.TotalAzureResources).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}

	err = scoped(r.DB.WithContext(ctx).Model(&models.M365User{})).
		Count(&m.TotalM365Users).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	err = scoped(r.DB.WithContext(ctx).Model(&models.AzureResource{})).
		Select("COALESCE(SUM(monthly_cost), 0)").
		Scan(&m.TotalMonthlyCost).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly cost: %w", err)
	}

	type bucket struct {
		Name  string
		Total int64
	}

	var byStatus []bucket

	err = scoped(r.DB.WithContext(ctx).Model(&models.AzureResource{})).
		Select("status AS name, COUNT(*) AS total").
		Group("status").
		Scan(&byStatus).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to count resources by status: %w", err)
	}

	for _, b := range byStatus {
		m.ResourcesByStatus[b.Name] = b.Total
	}

	var byType []bucket

	err = scoped(r.DB.WithContext(ctx).Model(&models.AzureResource{})).
		Select("type AS name, COUNT(*) AS total").
		Group("type").
		Order("total DESC").
		Limit(10).
		Scan(&byType).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to count resources by type: %w", err)
	}

	for _, b := range byType {
		m.ResourcesByType[b.Name] = b.Total
	}

	return m, nil
}

type ResourceFilter struct {
	CustomerID *uuid.UUID
	Type       string
	Status     string
}

func (r *Reporter) QueryResources(ctx context.Context, filter ResourceFilter) ([]models.AzureResource, error) {
	query := r.DB.WithContext(ctx).Model(&models.AzureResource{})

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var resources []models.AzureResource

	err := query.
		Order("name").
		Find(&resources).
		Error

	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}

	return resources, nil
}

// VirtualMachineView joins a VM resource with its enrichment detail, which
// may be absent when no enrichment pass has succeeded yet.
type VirtualMachineView struct {
	Resource models.AzureResource `json:"resource"`
	Detail   *models.VMDetail     `json:"detail,omitempty"`
}

func (r *Reporter) ListVirtualMachines(ctx context.Context, customerID *uuid.UUID) ([]VirtualMachineView, error) {
	query := r.DB.
		WithContext(ctx).
		Where("type = ?", models.TypeVirtualMachine)

	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	var resources []models.AzureResource

	if err := query.Order("name").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("failed to list virtual machines: %w", err)
	}

	views := make([]VirtualMachineView, 0, len(resources))

	for _, res := range resources {
		view := VirtualMachineView{Resource: res}

		var detail models.VMDetail

		err := r.DB.
			WithContext(ctx).
			Where("resource_id = ?", res.ID).
			First(&detail).
			Error

		if err == nil {
			view.Detail = &detail
		}

		views = append(views, view)
	}

	return views, nil
}

type LicenseOptimization struct {
	LicenseName      string  `json:"license_name"`
	TotalAssigned    int     `json:"total_assigned"`
	TotalAvailable   int     `json:"total_available"`
	UnusedCount      int     `json:"unused_count"`
	PotentialSavings float64 `json:"potential_savings"`
	Recommendation   string  `json:"recommendation"`
}

// LicenseOptimizations lists license pools with unassigned seats, sorted by
// potential monthly savings descending.
func (r *Reporter) LicenseOptimizations(ctx context.Context, customerID *uuid.UUID) ([]LicenseOptimization, error) {
	query := r.DB.
		WithContext(ctx).
		Where("available_count > 0")

	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	var licenses []models.M365License

	if err := query.Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}

	optimizations := make([]LicenseOptimization, 0, len(licenses))

	for _, lic := range licenses {
		savings := float64(lic.AvailableCount) * lic.UnitCost

		if savings <= 0 {
			continue
		}

		optimizations = append(optimizations, LicenseOptimization{
			LicenseName:      lic.Name,
			TotalAssigned:    lic.AssignedCount,
			TotalAvailable:   lic.AvailableCount,
			UnusedCount:      lic.AvailableCount,
			PotentialSavings: savings,
			Recommendation:   recommend(lic),
		})
	}

	sort.Slice(optimizations, func(i, j int) bool {
		return optimizations[i].PotentialSavings > optimizations[j].PotentialSavings
	})

	return optimizations, nil
}

func recommend(lic models.M365License) string {
	total := lic.AssignedCount + lic.AvailableCount

	if total == 0 {
		return "No seats in this license pool."
	}

	utilization := float64(lic.AssignedCount) / float64(total)
	savings := float64(lic.AvailableCount) * lic.UnitCost

	switch {
	case utilization < 0.5:
		return fmt.Sprintf("Consider reducing license count by %d unused licenses to save $%.2f/month.", lic.AvailableCount, savings)
	case utilization < 0.8:
		return fmt.Sprintf("%d licenses are currently unused. Monitor usage before next renewal.", lic.AvailableCount)
	default:
		return fmt.Sprintf("License utilization is good, but %d licenses remain unassigned.", lic.AvailableCount)
	}
}
