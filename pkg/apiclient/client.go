package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/stratoview/cloudsync/pkg/models"
	"github.com/stratoview/cloudsync/pkg/reporting"
	"github.com/stratoview/cloudsync/pkg/syncer"
)

// Client talks to the cloudsync HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader

	if body != nil {
		data, err := json.Marshal(body)

		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)

	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}

		json.NewDecoder(resp.Body).Decode(&errResp)

		return fmt.Errorf("api error (%d): %s", resp.StatusCode, errResp.Error)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// TriggerSync starts a sync for one customer, or for all active customers
// when customerID is nil, and returns the per-customer reports.
func (c *Client) TriggerSync(ctx context.Context, customerID *uuid.UUID) ([]*syncer.SyncRun, error) {
	req := map[string]interface{}{}

	if customerID != nil {
		req["customer_id"] = customerID.String()
	}

	var resp struct {
		Runs []*syncer.SyncRun `json:"runs"`
	}

	err := c.doRequest(ctx, "POST", "/api/v1/sync", req, &resp)

	return resp.Runs, err
}

func (c *Client) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var resp struct {
		Customers []models.Customer `json:"customers"`
	}

	err := c.doRequest(ctx, "GET", "/api/v1/customers", nil, &resp)

	return resp.Customers, err
}

func (c *Client) ListResources(ctx context.Context, customerID *uuid.UUID, resourceType, status string) ([]models.AzureResource, error) {
	query := url.Values{}

	if customerID != nil {
		query.Set("customer_id", customerID.String())
	}

	if resourceType != "" {
		query.Set("type", resourceType)
	}

	if status != "" {
		query.Set("status", status)
	}

	path := "/api/v1/resources"

	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp struct {
		Resources []models.AzureResource `json:"resources"`
	}

	err := c.doRequest(ctx, "GET", path, nil, &resp)

	return resp.Resources, err
}

func (c *Client) DashboardMetrics(ctx context.Context, customerID *uuid.UUID) (*reporting.DashboardMetrics, error) {
	path := "/api/v1/dashboard/metrics"

	if customerID != nil {
		path += "?customer_id=" + customerID.String()
	}

	var metrics reporting.DashboardMetrics

	err := c.doRequest(ctx, "GET", path, nil, &metrics)

	if err != nil {
		return nil, err
	}

	return &metrics, nil
}

func (c *Client) LicenseOptimizations(ctx context.Context, customerID *uuid.UUID) ([]reporting.LicenseOptimization, error) {
	path := "/api/v1/licenses/optimizations"

	if customerID != nil {
		path += "?customer_id=" + customerID.String()
	}

	var resp struct {
		Optimizations []reporting.LicenseOptimization `json:"optimizations"`
	}

	err := c.doRequest(ctx, "GET", path, nil, &resp)

	return resp.Optimizations, err
}
