package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/stratoview/cloudsync/pkg/provider"
)

const (
	defaultManagementURL = "https://management.azure.com"
	defaultGraphURL      = "https://graph.microsoft.com"

	managementScope = "https://management.azure.com/.default"
	graphScope      = "https://graph.microsoft.com/.default"

	armAPIVersion     = "2021-04-01"
	computeAPIVersion = "2023-07-01"
	networkAPIVersion = "2023-05-01"
)

// Options tunes the adapter. Zero values fall back to production defaults;
// base URLs are overridable so tests can point at a local server.
type Options struct {
	ManagementBaseURL string
	GraphBaseURL      string
	RetryAttempts     uint
	RetryBaseDelay    time.Duration
	RatePerSecond     float64
	HTTPClient        *http.Client
}

func (o Options) withDefaults() Options {
	if o.ManagementBaseURL == "" {
		o.ManagementBaseURL = defaultManagementURL
	}
	if o.GraphBaseURL == "" {
		o.GraphBaseURL = defaultGraphURL
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBaseDelay == 0 {
		o.RetryBaseDelay = time.Second
	}
	if o.RatePerSecond == 0 {
		o.RatePerSecond = 10
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return o
}

// Provider implements provider.ResourceProvider against Azure Resource Manager.
type Provider struct {
	opts Options
}

func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts.withDefaults()}
}

func (p *Provider) Authenticate(ctx context.Context, cred provider.Credential) (provider.ResourceClient, error) {
	tc, err := azidentity.NewClientSecretCredential(cred.TenantID, cred.ClientID, cred.ClientSecret, nil)

	if err != nil {
		return nil, &provider.AuthError{Err: err}
	}

	return NewResourceClient(tc, p.opts), nil
}

// NewResourceClient builds a client around an existing token credential.
// Used directly by tests with a static credential.
func NewResourceClient(cred azcore.TokenCredential, opts Options) *ResourceClient {
	opts = opts.withDefaults()

	return &ResourceClient{
		rest:    newRESTClient(cred, managementScope, opts),
		baseURL: strings.TrimSuffix(opts.ManagementBaseURL, "/"),
	}
}

type ResourceClient struct {
	rest    *restClient
	baseURL string
}

type armGenericResource struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Location string            `json:"location"`
	Tags     map[string]string `json:"tags"`
}

type armResourcePage struct {
	Value    []armGenericResource `json:"value"`
	NextLink string               `json:"nextLink"`
}

func (c *ResourceClient) ListResources(ctx context.Context, subscriptionID string, yield func(provider.RawResource) error) error {
	next := fmt.Sprintf("%s/subscriptions/%s/resources?api-version=%s", c.baseURL, subscriptionID, armAPIVersion)

	for next != "" {
		var page armResourcePage

		if err := c.rest.get(ctx, next, &page); err != nil {
			return err
		}

		for _, r := range page.Value {
			region := r.Location

			if region == "" {
				region = "global"
			}

			raw := provider.RawResource{
				ExternalID:    r.ID,
				Name:          r.Name,
				Type:          r.Type,
				ResourceGroup: extractResourceGroup(r.ID),
				Region:        region,
				Tags:          r.Tags,
			}

			if err := yield(raw); err != nil {
				return err
			}
		}

		next = page.NextLink
	}

	return nil
}

type armVM struct {
	Properties struct {
		ProvisioningState string `json:"provisioningState"`
		HardwareProfile   struct {
			VMSize string `json:"vmSize"`
		} `json:"hardwareProfile"`
		StorageProfile struct {
			OSDisk struct {
				Name   string `json:"name"`
				OSType string `json:"osType"`
			} `json:"osDisk"`
			DataDisks []struct {
				Name string `json:"name"`
			} `json:"dataDisks"`
		} `json:"storageProfile"`
		NetworkProfile struct {
			NetworkInterfaces []struct {
				ID string `json:"id"`
			} `json:"networkInterfaces"`
		} `json:"networkProfile"`
	} `json:"properties"`
}

func (c *ResourceClient) GetVM(ctx context.Context, externalID string) (*provider.VMProfile, error) {
	var vm armVM

	url := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, externalID, computeAPIVersion)

	if err := c.rest.get(ctx, url, &vm); err != nil {
		return nil, err
	}

	prof := &provider.VMProfile{
		VMSize:            vm.Properties.HardwareProfile.VMSize,
		OSType:            vm.Properties.StorageProfile.OSDisk.OSType,
		OSDisk:            vm.Properties.StorageProfile.OSDisk.Name,
		ProvisioningState: vm.Properties.ProvisioningState,
	}

	for _, d := range vm.Properties.StorageProfile.DataDisks {
		prof.DataDisks = append(prof.DataDisks, d.Name)
	}

	for _, nic := range vm.Properties.NetworkProfile.NetworkInterfaces {
		prof.NICIDs = append(prof.NICIDs, nic.ID)
	}

	return prof, nil
}

type armInstanceView struct {
	Statuses []struct {
		Code string `json:"code"`
	} `json:"statuses"`
}

func (c *ResourceClient) GetInstanceView(ctx context.Context, externalID string) (*provider.InstanceView, error) {
	var view armInstanceView

	url := fmt.Sprintf("%s%s/instanceView?api-version=%s", c.baseURL, externalID, computeAPIVersion)

	if err := c.rest.get(ctx, url, &view); err != nil {
		return nil, err
	}

	iv := &provider.InstanceView{}

	for _, s := range view.Statuses {
		if strings.HasPrefix(s.Code, "PowerState/") {
			iv.PowerState = strings.TrimPrefix(s.Code, "PowerState/")
		}
	}

	return iv, nil
}

type armNIC struct {
	Name       string `json:"name"`
	Properties struct {
		IPConfigurations []struct {
			Properties struct {
				PublicIPAddress *struct {
					ID string `json:"id"`
				} `json:"publicIPAddress"`
			} `json:"properties"`
		} `json:"ipConfigurations"`
	} `json:"properties"`
}

func (c *ResourceClient) GetNIC(ctx context.Context, nicID string) (*provider.NICDetail, error) {
	var nic armNIC

	url := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, nicID, networkAPIVersion)

	if err := c.rest.get(ctx, url, &nic); err != nil {
		return nil, err
	}

	detail := &provider.NICDetail{Name: nic.Name}

	for _, cfg := range nic.Properties.IPConfigurations {
		if cfg.Properties.PublicIPAddress != nil {
			detail.PublicIPRefs = append(detail.PublicIPRefs, cfg.Properties.PublicIPAddress.ID)
		}
	}

	return detail, nil
}

type armPublicIP struct {
	Properties struct {
		IPAddress string `json:"ipAddress"`
	} `json:"properties"`
}

func (c *ResourceClient) GetPublicIP(ctx context.Context, ipID string) (*provider.PublicIP, error) {
	var pip armPublicIP

	url := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, ipID, networkAPIVersion)

	if err := c.rest.get(ctx, url, &pip); err != nil {
		return nil, err
	}

	return &provider.PublicIP{Address: pip.Properties.IPAddress}, nil
}

// extractResourceGroup pulls the resource group segment out of an ARM id path.
func extractResourceGroup(externalID string) string {
	parts := strings.Split(externalID, "/")

	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}

	return "unknown"
}

// restClient is the shared GET core: rate limited, token-authenticated, with
// bounded backoff on transient failures only.
type restClient struct {
	http      *http.Client
	cred      azcore.TokenCredential
	scope     string
	limiter   *rate.Limiter
	attempts  uint
	baseDelay time.Duration
}

func newRESTClient(cred azcore.TokenCredential, scope string, opts Options) *restClient {
	return &restClient{
		http:      opts.HTTPClient,
		cred:      cred,
		scope:     scope,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), int(opts.RatePerSecond)+1),
		attempts:  opts.RetryAttempts,
		baseDelay: opts.RetryBaseDelay,
	}
}

func (c *restClient) get(ctx context.Context, url string, out any) error {
	return retry.Do(
		func() error {
			return c.getOnce(ctx, url, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(provider.IsTransient),
	)
}

func (c *restClient) getOnce(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{c.scope}})

	if err != nil {
		return &provider.AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)

	if err != nil {
		return &provider.TransientError{Err: err}
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return &provider.AuthError{Err: fmt.Errorf("status %d from %s", resp.StatusCode, url)}

	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return &provider.NotFoundError{Ref: url}

	case resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= http.StatusInternalServerError:
		io.Copy(io.Discard, resp.Body)
		return &provider.TransientError{Err: fmt.Errorf("status %d from %s", resp.StatusCode, url)}

	default:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
}
