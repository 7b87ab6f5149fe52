package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/stratoview/cloudsync/pkg/provider"
)

// GraphProvider implements provider.DirectoryProvider against Microsoft Graph.
type GraphProvider struct {
	opts Options
}

func NewGraphProvider(opts Options) *GraphProvider {
	return &GraphProvider{opts: opts.withDefaults()}
}

func (p *GraphProvider) Authenticate(ctx context.Context, cred provider.Credential) (provider.DirectoryClient, error) {
	tc, err := azidentity.NewClientSecretCredential(cred.TenantID, cred.ClientID, cred.ClientSecret, nil)

	if err != nil {
		return nil, &provider.AuthError{Err: err}
	}

	return NewGraphClient(tc, p.opts), nil
}

// NewGraphClient builds a directory client around an existing token
// credential. Used directly by tests with a static credential.
func NewGraphClient(cred azcore.TokenCredential, opts Options) *GraphClient {
	opts = opts.withDefaults()

	return &GraphClient{
		rest:    newRESTClient(cred, graphScope, opts),
		baseURL: strings.TrimSuffix(opts.GraphBaseURL, "/"),
	}
}

type GraphClient struct {
	rest    *restClient
	baseURL string
}

type graphUser struct {
	ID                string `json:"id"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
	DisplayName       string `json:"displayName"`
	AccountEnabled    bool   `json:"accountEnabled"`
	AssignedLicenses  []struct {
		SKUID string `json:"skuId"`
	} `json:"assignedLicenses"`
	SignInActivity *struct {
		LastSignInDateTime time.Time `json:"lastSignInDateTime"`
	} `json:"signInActivity"`
}

type graphUserPage struct {
	Value    []graphUser `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

func (c *GraphClient) ListUsers(ctx context.Context, yield func(provider.RawUser) error) error {
	next := c.baseURL + "/v1.0/users?$select=id,userPrincipalName,mail,displayName,accountEnabled,assignedLicenses,signInActivity&$top=999"

	for next != "" {
		var page graphUserPage

		if err := c.rest.get(ctx, next, &page); err != nil {
			return err
		}

		for _, u := range page.Value {
			raw := provider.RawUser{
				ID:                u.ID,
				UserPrincipalName: u.UserPrincipalName,
				Mail:              u.Mail,
				DisplayName:       u.DisplayName,
				AccountEnabled:    u.AccountEnabled,
			}

			for _, l := range u.AssignedLicenses {
				raw.LicenseSKUs = append(raw.LicenseSKUs, l.SKUID)
			}

			if u.SignInActivity != nil && !u.SignInActivity.LastSignInDateTime.IsZero() {
				t := u.SignInActivity.LastSignInDateTime
				raw.LastSignIn = &t
			}

			if err := yield(raw); err != nil {
				return err
			}
		}

		next = page.NextLink
	}

	return nil
}

type graphDevice struct {
	ID               string    `json:"id"`
	DeviceName       string    `json:"deviceName"`
	OperatingSystem  string    `json:"operatingSystem"`
	ComplianceState  string    `json:"complianceState"`
	LastSyncDateTime time.Time `json:"lastSyncDateTime"`
}

type graphDevicePage struct {
	Value    []graphDevice `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
}

func (c *GraphClient) ListManagedDevices(ctx context.Context, yield func(provider.RawDevice) error) error {
	next := c.baseURL + "/v1.0/deviceManagement/managedDevices"

	for next != "" {
		var page graphDevicePage

		if err := c.rest.get(ctx, next, &page); err != nil {
			return err
		}

		for _, d := range page.Value {
			raw := provider.RawDevice{
				ID:              d.ID,
				DeviceName:      d.DeviceName,
				OperatingSystem: d.OperatingSystem,
				ComplianceState: d.ComplianceState,
			}

			if !d.LastSyncDateTime.IsZero() {
				t := d.LastSyncDateTime
				raw.LastSync = &t
			}

			if err := yield(raw); err != nil {
				return err
			}
		}

		next = page.NextLink
	}

	return nil
}

type graphSKU struct {
	SKUID         string `json:"skuId"`
	SKUPartNumber string `json:"skuPartNumber"`
	ConsumedUnits int    `json:"consumedUnits"`
	PrepaidUnits  struct {
		Enabled int `json:"enabled"`
	} `json:"prepaidUnits"`
}

type graphSKUPage struct {
	Value []graphSKU `json:"value"`
}

func (c *GraphClient) ListLicenses(ctx context.Context) ([]provider.RawLicense, error) {
	var page graphSKUPage

	url := fmt.Sprintf("%s/v1.0/subscribedSkus", c.baseURL)

	if err := c.rest.get(ctx, url, &page); err != nil {
		return nil, err
	}

	licenses := make([]provider.RawLicense, 0, len(page.Value))

	for _, sku := range page.Value {
		licenses = append(licenses, provider.RawLicense{
			SKUID:         sku.SKUID,
			SKUPartNumber: sku.SKUPartNumber,
			ConsumedUnits: sku.ConsumedUnits,
			PrepaidUnits:  sku.PrepaidUnits.Enabled,
		})
	}

	return licenses, nil
}
