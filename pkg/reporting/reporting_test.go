package reporting

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stratoview/cloudsync/pkg/database"
	"github.com/stratoview/cloudsync/pkg/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db))

	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()

	customer := models.Customer{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     name,
		TenantID: uuid.NewString(),
		Status:   models.CustomerStatusActive,
	}

	require.NoError(t, db.Create(&customer).Error)

	return customer.ID
}

func seedResource(t *testing.T, db *gorm.DB, customerID uuid.UUID, name, resourceType, status string, cost float64) uuid.UUID {
	t.Helper()

	now := time.Now().UTC()

	res := models.AzureResource{
		ID:            uuid.Must(uuid.NewV7()),
		CustomerID:    customerID,
		ExternalID:    fmt.Sprintf("/subscriptions/sub/resourceGroups/rg/providers/%s/%s", resourceType, name),
		Name:          name,
		Type:          resourceType,
		Status:        status,
		MonthlyCost:   cost,
		DiscoveredAt:  now,
		LastUpdatedAt: now,
	}

	require.NoError(t, db.Create(&res).Error)

	return res.ID
}

func seedLicense(t *testing.T, db *gorm.DB, customerID uuid.UUID, name string, assigned, available int, unitCost float64) {
	t.Helper()

	require.NoError(t, db.Create(&models.M365License{
		ID:             uuid.Must(uuid.NewV7()),
		CustomerID:     customerID,
		SKUID:          uuid.NewString(),
		Name:           name,
		AssignedCount:  assigned,
		AvailableCount: available,
		UnitCost:       unitCost,
	}).Error)
}

func TestDashboardMetrics(t *testing.T) {
	db := testDB(t)
	customerA := seedCustomer(t, db, "alpha")
	customerB := seedCustomer(t, db, "beta")

	seedResource(t, db, customerA, "vm01", models.TypeVirtualMachine, models.ResourceStatusRunning, 150)
	seedResource(t, db, customerA, "vm02", models.TypeVirtualMachine, models.ResourceStatusDeallocated, 150)
	seedResource(t, db, customerA, "st01", "Microsoft.Storage/storageAccounts", models.ResourceStatusRunning, 50)
	seedResource(t, db, customerB, "app01", "Microsoft.Web/sites", models.ResourceStatusRunning, 100)

	require.NoError(t, db.Create(&models.M365User{
		ID:                uuid.Must(uuid.NewV7()),
		CustomerID:        customerA,
		UserPrincipalName: "alice@alpha.example",
	}).Error)

	r := New(db)

	m, err := r.DashboardMetrics(context.Background(), nil)
	require.NoError(t, err)

	assert.EqualValues(t, 2, m.TotalCustomers)
	assert.EqualValues(t, 4, m.TotalAzureResources)
	assert.EqualValues(t, 1, m.TotalM365Users)
	assert.InDelta(t, 450, m.TotalMonthlyCost, 0.001)
	assert.EqualValues(t, 3, m.ResourcesByStatus[models.ResourceStatusRunning])
	assert.EqualValues(t, 1, m.ResourcesByStatus[models.ResourceStatusDeallocated])
	assert.EqualValues(t, 2, m.ResourcesByType[models.TypeVirtualMachine])
}

func TestDashboardMetricsScopedToCustomer(t *testing.T) {
	db := testDB(t)
	customerA := seedCustomer(t, db, "alpha")
	customerB := seedCustomer(t, db, "beta")

	seedResource(t, db, customerA, "vm01", models.TypeVirtualMachine, models.ResourceStatusRunning, 150)
	seedResource(t, db, customerB, "app01", "Microsoft.Web/sites", models.ResourceStatusRunning, 100)

	r := New(db)

	m, err := r.DashboardMetrics(context.Background(), &customerA)
	require.NoError(t, err)

	assert.EqualValues(t, 1, m.TotalCustomers)
	assert.EqualValues(t, 1, m.TotalAzureResources)
	assert.InDelta(t, 150, m.TotalMonthlyCost, 0.001)
}

func TestQueryResourcesFilters(t *testing.T) {
	db := testDB(t)
	customerID := seedCustomer(t, db, "alpha")

	seedResource(t, db, customerID, "vm01", models.TypeVirtualMachine, models.ResourceStatusRunning, 150)
	seedResource(t, db, customerID, "vm02", models.TypeVirtualMachine, models.ResourceStatusStopped, 150)
	seedResource(t, db, customerID, "st01", "Microsoft.Storage/storageAccounts", models.ResourceStatusRunning, 50)

	r := New(db)

	all, err := r.QueryResources(context.Background(), ResourceFilter{CustomerID: &customerID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	vms, err := r.QueryResources(context.Background(), ResourceFilter{Type: models.TypeVirtualMachine})
	require.NoError(t, err)
	assert.Len(t, vms, 2)

	stopped, err := r.QueryResources(context.Background(), ResourceFilter{
		Type:   models.TypeVirtualMachine,
		Status: models.ResourceStatusStopped,
	})
	require.NoError(t, err)
	require.Len(t, stopped, 1)
	assert.Equal(t, "vm02", stopped[0].Name)
}

func TestListVirtualMachines(t *testing.T) {
	db := testDB(t)
	customerID := seedCustomer(t, db, "alpha")

	enrichedID := seedResource(t, db, customerID, "vm01", models.TypeVirtualMachine, models.ResourceStatusRunning, 150)
	seedResource(t, db, customerID, "vm02", models.TypeVirtualMachine, models.ResourceStatusUnknown, 150)
	seedResource(t, db, customerID, "st01", "Microsoft.Storage/storageAccounts", models.ResourceStatusRunning, 50)

	size := "Standard_D2s_v3"

	require.NoError(t, db.Create(&models.VMDetail{
		ID:            uuid.Must(uuid.NewV7()),
		ResourceID:    enrichedID,
		VMSize:        &size,
		LastUpdatedAt: time.Now().UTC(),
	}).Error)

	r := New(db)

	views, err := r.ListVirtualMachines(context.Background(), &customerID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Ordered by name: vm01 carries its detail, vm02 has none yet.
	assert.Equal(t, "vm01", views[0].Resource.Name)
	require.NotNil(t, views[0].Detail)
	assert.Equal(t, size, *views[0].Detail.VMSize)

	assert.Equal(t, "vm02", views[1].Resource.Name)
	assert.Nil(t, views[1].Detail)
}

func TestLicenseOptimizationsSortedBySavings(t *testing.T) {
	db := testDB(t)
	customerID := seedCustomer(t, db, "alpha")

	// 20 unused at $5 beats 2 unused at $10.
	seedLicense(t, db, customerID, "ENTERPRISEPACK", 8, 2, 10)
	seedLicense(t, db, customerID, "STANDARDPACK", 5, 20, 5)
	seedLicense(t, db, customerID, "FLOW_FREE", 3, 7, 0)
	seedLicense(t, db, customerID, "SPE_E5", 10, 0, 57)

	r := New(db)

	opts, err := r.LicenseOptimizations(context.Background(), &customerID)
	require.NoError(t, err)

	// Fully assigned pools and zero-cost SKUs produce no recommendation.
	require.Len(t, opts, 2)

	assert.Equal(t, "STANDARDPACK", opts[0].LicenseName)
	assert.InDelta(t, 100, opts[0].PotentialSavings, 0.001)
	assert.Equal(t, "ENTERPRISEPACK", opts[1].LicenseName)
	assert.InDelta(t, 20, opts[1].PotentialSavings, 0.001)
}

func TestRecommendTiers(t *testing.T) {
	low := recommend(models.M365License{AssignedCount: 5, AvailableCount: 20, UnitCost: 5})
	assert.Contains(t, low, "Consider reducing")

	mid := recommend(models.M365License{AssignedCount: 7, AvailableCount: 3, UnitCost: 10})
	assert.Contains(t, mid, "Monitor usage")

	high := recommend(models.M365License{AssignedCount: 8, AvailableCount: 2, UnitCost: 10})
	assert.Contains(t, high, "utilization is good")
}
