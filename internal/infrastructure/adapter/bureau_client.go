package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Credit Bureau Adapter – structured for real integration
// ---------------------------------------------------------------------------

// BureauConfig holds configuration for the credit bureau adapter.
type BureauConfig struct {
	// BaseURL is the base URL for the bureau API. Empty means simulated mode.
	BaseURL string
	// TimeoutSeconds is the HTTP client timeout.
	TimeoutSeconds int
}

// BureauClient fetches credit snapshots. When no BaseURL is configured it
// serves deterministic simulated reports derived from the identifier hash,
// so demo journeys are reproducible. It implements port.CreditBureauClient.
type BureauClient struct {
	config BureauConfig
	http   *http.Client
}

// NewBureauClient creates the adapter.
func NewBureauClient(config BureauConfig) *BureauClient {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BureauClient{
		config: config,
		http:   &http.Client{Timeout: timeout},
	}
}

// FetchReport returns the bureau snapshot for one identifier. A missing
// identifier gets the fixed demo report rather than an error.
func (b *BureauClient) FetchReport(ctx context.Context, identifier string) (*valueobject.BureauReport, error) {
	if identifier == "" {
		score := 750
		return &valueobject.BureauReport{Score: &score, Utilization: 0.35, Accounts: 3}, nil
	}

	if b.config.BaseURL != "" {
		report, err := b.fetchRemote(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("bureau request failed: %w", err)
		}
		return report, nil
	}

	return b.simulateReport(identifier), nil
}

func (b *BureauClient) fetchRemote(ctx context.Context, identifier string) (*valueobject.BureauReport, error) {
	url := fmt.Sprintf("%s/credit-score/%s", b.config.BaseURL, identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bureau returned status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Data   struct {
			CreditScore         int     `json:"credit_score"`
			Utilization         float64 `json:"utilization"`
			Accounts            int     `json:"accounts"`
			PaymentDefaults     int     `json:"payment_defaults"`
			EnquiriesLast6Month int     `json:"enquiries_last_6_months"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode bureau response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("bureau returned status %q", body.Status)
	}

	score := body.Data.CreditScore
	return &valueobject.BureauReport{
		Score:               &score,
		Utilization:         body.Data.Utilization,
		Accounts:            body.Data.Accounts,
		PaymentDefaults:     body.Data.PaymentDefaults,
		EnquiriesLast6Month: body.Data.EnquiriesLast6Month,
	}, nil
}

// simulateReport derives a reproducible report from the identifier hash.
func (b *BureauClient) simulateReport(identifier string) *valueobject.BureauReport {
	h := sha256.Sum256([]byte(identifier))
	score := 650 + int(binary.BigEndian.Uint32(h[:4])%201)
	return &valueobject.BureauReport{
		Score:               &score,
		Utilization:         float64(binary.BigEndian.Uint16(h[4:6])%80) / 100,
		Accounts:            1 + int(binary.BigEndian.Uint16(h[6:8])%6),
		PaymentDefaults:     int(binary.BigEndian.Uint16(h[8:10]) % 2),
		EnquiriesLast6Month: int(binary.BigEndian.Uint16(h[10:12]) % 5),
	}
}
