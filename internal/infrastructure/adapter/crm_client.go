package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// CRM Adapter
// ---------------------------------------------------------------------------

// CRMConfig holds configuration for the CRM adapter.
type CRMConfig struct {
	// BaseURL is the CRM API base. Empty means synthetic profiles only.
	BaseURL string
	// APIKey authenticates against the CRM API.
	APIKey string
	// TimeoutSeconds is the HTTP client timeout.
	TimeoutSeconds int
}

// CRMClient resolves customer profiles. Unknown customers and transport
// failures both degrade to a synthetic profile so the journey never stalls
// on CRM availability. It implements port.CRMClient.
type CRMClient struct {
	config CRMConfig
	http   *http.Client
}

// NewCRMClient creates the adapter.
func NewCRMClient(config CRMConfig) *CRMClient {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CRMClient{
		config: config,
		http:   &http.Client{Timeout: timeout},
	}
}

// GetCustomerProfile looks up one customer, never returning an error for
// an unknown id.
func (c *CRMClient) GetCustomerProfile(ctx context.Context, customerID string) (*valueobject.CustomerProfile, error) {
	if customerID == "" {
		return &valueobject.CustomerProfile{}, nil
	}
	if c.config.BaseURL == "" {
		return c.syntheticProfile(customerID), nil
	}

	profile, err := c.fetchRemote(ctx, customerID)
	if err != nil {
		return c.syntheticProfile(customerID), nil
	}
	return profile, nil
}

func (c *CRMClient) fetchRemote(ctx context.Context, customerID string) (*valueobject.CustomerProfile, error) {
	payload, err := json.Marshal(map[string]string{"customer_id": customerID})
	if err != nil {
		return nil, err
	}
	url := c.config.BaseURL + "/get-customer"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crm returned status %d", resp.StatusCode)
	}

	var body struct {
		Status string                      `json:"status"`
		Data   valueobject.CustomerProfile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode crm response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("crm returned status %q", body.Status)
	}

	body.Data.CustomerID = customerID
	body.Data.Phone = maskPhone(body.Data.Phone)
	return &body.Data, nil
}

// syntheticProfile is the degraded-mode stand-in when CRM is unreachable.
func (c *CRMClient) syntheticProfile(customerID string) *valueobject.CustomerProfile {
	income := 80_000.0
	limit := income * 4
	return &valueobject.CustomerProfile{
		CustomerID:       customerID,
		Name:             "Valued Customer",
		Phone:            maskPhone("9876543210"),
		MonthlyIncome:    &income,
		PreApprovedLimit: &limit,
	}
}

// maskPhone keeps the last four digits visible.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("X", len(phone)-4) + phone[len(phone)-4:]
}
