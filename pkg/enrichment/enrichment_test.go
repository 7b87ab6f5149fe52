package enrichment

import (
	"context"
	"errors"
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
	"github.com/stratoview/cloudsync/pkg/provider"
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

func seedVM(t *testing.T, db *gorm.DB) *models.AzureResource {
	t.Helper()

	customer := models.Customer{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     "Contoso Ltd",
		TenantID: uuid.NewString(),
		Status:   models.CustomerStatusActive,
	}

	require.NoError(t, db.Create(&customer).Error)

	now := time.Now().UTC()

	res := models.AzureResource{
		ID:            uuid.Must(uuid.NewV7()),
		CustomerID:    customer.ID,
		ExternalID:    "/subscriptions/sub-1/resourceGroups/rg-prod/providers/Microsoft.Compute/virtualMachines/vm01",
		Name:          "vm01",
		Type:          models.TypeVirtualMachine,
		Status:        models.ResourceStatusUnknown,
		DiscoveredAt:  now,
		LastUpdatedAt: now,
	}

	require.NoError(t, db.Create(&res).Error)

	return &res
}

// fakeClient stubs provider.ResourceClient with per-reference outcomes.
type fakeClient struct {
	vm      *provider.VMProfile
	vmErr   error
	view    *provider.InstanceView
	viewErr error
	nics    map[string]*provider.NICDetail
	nicErr  map[string]error
	ips     map[string]*provider.PublicIP
	ipErr   map[string]error
}

func (f *fakeClient) ListResources(ctx context.Context, subscriptionID string, yield func(provider.RawResource) error) error {
	return nil
}

func (f *fakeClient) GetVM(ctx context.Context, externalID string) (*provider.VMProfile, error) {
	return f.vm, f.vmErr
}

func (f *fakeClient) GetInstanceView(ctx context.Context, externalID string) (*provider.InstanceView, error) {
	return f.view, f.viewErr
}

func (f *fakeClient) GetNIC(ctx context.Context, nicID string) (*provider.NICDetail, error) {
	if err, ok := f.nicErr[nicID]; ok {
		return nil, err
	}

	return f.nics[nicID], nil
}

func (f *fakeClient) GetPublicIP(ctx context.Context, ipID string) (*provider.PublicIP, error) {
	if err, ok := f.ipErr[ipID]; ok {
		return nil, err
	}

	return f.ips[ipID], nil
}

func TestEnrichMergesComputedFields(t *testing.T) {
	db := testDB(t)
	res := seedVM(t, db)

	client := &fakeClient{
		vm: &provider.VMProfile{
			VMSize:            "Standard_D2s_v3",
			OSType:            "Linux",
			OSDisk:            "vm01-osdisk",
			DataDisks:         []string{"vm01-data0"},
			NICIDs:            []string{"/subscriptions/sub-1/resourceGroups/rg-prod/providers/Microsoft.Network/networkInterfaces/vm01-nic"},
			ProvisioningState: "Succeeded",
		},
		view: &provider.InstanceView{PowerState: "running"},
		nics: map[string]*provider.NICDetail{
			"/subscriptions/sub-1/resourceGroups/rg-prod/providers/Microsoft.Network/networkInterfaces/vm01-nic": {
				Name:         "vm01-nic",
				PublicIPRefs: []string{"pip-1"},
			},
		},
		ips: map[string]*provider.PublicIP{
			"pip-1": {Address: "20.50.1.1"},
		},
	}

	enr := New(db, 2)

	require.NoError(t, enr.Enrich(context.Background(), res, client))

	var detail models.VMDetail

	require.NoError(t, db.Where("resource_id = ?", res.ID).First(&detail).Error)

	require.NotNil(t, detail.VMSize)
	assert.Equal(t, "Standard_D2s_v3", *detail.VMSize)

	require.NotNil(t, detail.OSType)
	assert.Equal(t, "Linux", *detail.OSType)

	require.NotNil(t, detail.PowerState)
	assert.Equal(t, "running", *detail.PowerState)

	require.NotNil(t, detail.HasPublicIP)
	assert.True(t, *detail.HasPublicIP)

	require.NotNil(t, detail.PublicIPAddress)
	assert.Equal(t, "20.50.1.1", *detail.PublicIPAddress)

	assert.JSONEq(t, `["OS Disk: vm01-osdisk","Data Disk: vm01-data0"]`, string(detail.Disks))
	assert.JSONEq(t, `["vm01-nic"]`, string(detail.NetworkInterfaces))

	var parent models.AzureResource

	require.NoError(t, db.First(&parent, "id = ?", res.ID).Error)
	assert.Equal(t, models.ResourceStatusRunning, parent.Status)
}

func TestEnrichFailsWhenVMFetchFails(t *testing.T) {
	db := testDB(t)
	res := seedVM(t, db)

	client := &fakeClient{vmErr: &provider.TransientError{Err: errors.New("throttled")}}

	enr := New(db, 2)

	require.Error(t, enr.Enrich(context.Background(), res, client))

	// The parent record survives untouched and no detail row appears.
	var count int64

	require.NoError(t, db.Model(&models.VMDetail{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	var parent models.AzureResource

	require.NoError(t, db.First(&parent, "id = ?", res.ID).Error)
	assert.Equal(t, models.ResourceStatusUnknown, parent.Status)
}

func TestEnrichDegradesOnInstanceViewFailure(t *testing.T) {
	db := testDB(t)
	res := seedVM(t, db)

	client := &fakeClient{
		vm:      &provider.VMProfile{VMSize: "Standard_B2ms"},
		viewErr: &provider.TransientError{Err: errors.New("timeout")},
	}

	enr := New(db, 2)

	require.NoError(t, enr.Enrich(context.Background(), res, client))

	var detail models.VMDetail

	require.NoError(t, db.Where("resource_id = ?", res.ID).First(&detail).Error)

	require.NotNil(t, detail.VMSize)
	assert.Equal(t, "Standard_B2ms", *detail.VMSize)
	assert.Nil(t, detail.PowerState)

	var parent models.AzureResource

	require.NoError(t, db.First(&parent, "id = ?", res.ID).Error)
	assert.Equal(t, models.ResourceStatusUnknown, parent.Status)
}

func TestEnrichToleratesAbsentInstanceView(t *testing.T) {
	db := testDB(t)
	res := seedVM(t, db)

	// Neither a view nor an error from the client; power state stays unknown.
	client := &fakeClient{
		vm: &provider.VMProfile{VMSize: "Standard_B2ms"},
	}

	enr := New(db, 2)

	require.NoError(t, enr.Enrich(context.Background(), res, client))

	var detail models.VMDetail

	require.NoError(t, db.Where("resource_id = ?", res.ID).First(&detail).Error)
	assert.Nil(t, detail.PowerState)

	var parent models.AzureResource

	require.NoError(t, db.First(&parent, "id = ?", res.ID).Error)
	assert.Equal(t, models.ResourceStatusUnknown, parent.Status)
}

func TestEnrichLeavesPublicIPUnknownOnPartialTopology(t *testing.T) {
	db := testDB(t)
	res := seedVM(t, db)

	client := &fakeClient{
		vm: &provider.VMProfile{
			VMSize: "Standard_D4s_v3",
			NICIDs: []string{"nic-ok", "nic-broken"},
		},
		view: &provider.InstanceView{PowerState: "running"},
		nics: map[string]*provider.NICDetail{
			"nic-ok": {Name: "nic-ok"},
		},
		nicErr: map[string]error{
			"nic-broken": &provider.TransientError{Err: errors.New("gateway timeout")},
		},
	}

	enr := New(db, 2)

	require.NoError(t, enr.Enrich(context.Background(), res, client))

	// One NIC was never observed, so "no public IP" cannot be asserted.
	var detail models.VMDetail

	require.NoError(t, db.Where("resource_id = ?", res.ID).First(&detail).Error)
	assert.Nil(t, detail.HasPublicIP)
	assert.Nil(t, detail.PublicIPAddress)
}

func TestEnrichRecordsNoPublicIPWhenTopologyComplete(t *testing.T) {
	db := testDB(t)
	res := seedVM(t, db)

	client := &fakeClient{
		vm: &provider.VMProfile{
			VMSize: "Standard_D4s_v3",
			NICIDs: []string{"nic-a", "nic-b"},
		},
		view: &provider.InstanceView{PowerState: "deallocated"},
		nics: map[string]*provider.NICDetail{
			"nic-a": {Name: "nic-a"},
			"nic-b": {Name: "nic-b"},
		},
	}

	enr := New(db, 2)

	require.NoError(t, enr.Enrich(context.Background(), res, client))

	var detail models.VMDetail

	require.NoError(t, db.Where("resource_id = ?", res.ID).First(&detail).Error)

	require.NotNil(t, detail.HasPublicIP)
	assert.False(t, *detail.HasPublicIP)

	var parent models.AzureResource

	require.NoError(t, db.First(&parent, "id = ?", res.ID).Error)
	assert.Equal(t, models.ResourceStatusDeallocated, parent.Status)
}

func TestStatusFromPowerState(t *testing.T) {
	cases := map[string]string{
		"running":      models.ResourceStatusRunning,
		"starting":     models.ResourceStatusRunning,
		"stopped":      models.ResourceStatusStopped,
		"stopping":     models.ResourceStatusStopped,
		"deallocated":  models.ResourceStatusDeallocated,
		"deallocating": models.ResourceStatusDeallocated,
		"Running":      models.ResourceStatusRunning,
		"unexpected":   models.ResourceStatusUnknown,
	}

	for in, want := range cases {
		assert.Equal(t, want, statusFromPowerState(in), in)
	}
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "vm01-nic", lastSegment("/a/b/networkInterfaces/vm01-nic"))
	assert.Equal(t, "plain", lastSegment("plain"))
	assert.Equal(t, "/trailing/", lastSegment("/trailing/"))
}
