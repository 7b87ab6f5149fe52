package provider

import (
	"context"
	"time"
)

// Credential is the per-customer secret bundle used to authenticate against a
// provider directory. Opaque to everything above the adapter layer.
type Credential struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// RawResource is the structural contract for one externally observed resource.
// Provider SDK payloads never travel past the adapter boundary.
type RawResource struct {
	ExternalID    string
	Name          string
	Type          string
	ResourceGroup string
	Region        string
	Tags          map[string]string
	Status        string
}

// VMProfile is the result of a single VM detail fetch: sizing, disks and NIC
// references in one shot, mirroring the upstream API shape.
type VMProfile struct {
	VMSize            string
	OSType            string
	OSDisk            string
	DataDisks         []string
	NICIDs            []string
	ProvisioningState string
}

type InstanceView struct {
	PowerState string
}

type NICDetail struct {
	Name         string
	PublicIPRefs []string
}

type PublicIP struct {
	Address string
}

type RawUser struct {
	ID                string
	UserPrincipalName string
	Mail              string
	DisplayName       string
	AccountEnabled    bool
	LicenseSKUs       []string
	LastSignIn        *time.Time
}

type RawLicense struct {
	SKUID         string
	SKUPartNumber string
	ConsumedUnits int
	PrepaidUnits  int
}

type RawDevice struct {
	ID              string
	DeviceName      string
	OperatingSystem string
	ComplianceState string
	LastSync        *time.Time
}

// ResourceProvider authenticates a credential bundle against a cloud resource
// manager and hands back a client scoped to that session.
type ResourceProvider interface {
	Authenticate(ctx context.Context, cred Credential) (ResourceClient, error)
}

// ResourceClient lists and fetches resources for one authenticated session.
// ListResources paginates internally and yields records lazily; returning an
// error from yield stops the stream.
type ResourceClient interface {
	ListResources(ctx context.Context, subscriptionID string, yield func(RawResource) error) error
	GetVM(ctx context.Context, externalID string) (*VMProfile, error)
	GetInstanceView(ctx context.Context, externalID string) (*InstanceView, error)
	GetNIC(ctx context.Context, nicID string) (*NICDetail, error)
	GetPublicIP(ctx context.Context, ipID string) (*PublicIP, error)
}

// DirectoryProvider authenticates against a directory/graph service.
type DirectoryProvider interface {
	Authenticate(ctx context.Context, cred Credential) (DirectoryClient, error)
}

type DirectoryClient interface {
	ListUsers(ctx context.Context, yield func(RawUser) error) error
	ListLicenses(ctx context.Context) ([]RawLicense, error)
	ListManagedDevices(ctx context.Context, yield func(RawDevice) error) error
}
