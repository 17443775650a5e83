package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// Notification dispatch
// ---------------------------------------------------------------------------

// NotifierConfig holds configuration for the notification adapter.
type NotifierConfig struct {
	// BaseURL is the notification gateway. Empty means log-only mode.
	BaseURL string
	// TimeoutSeconds is the HTTP client timeout.
	TimeoutSeconds int
}

// HTTPNotifier posts notifications to an external gateway. Without a
// configured gateway it logs the message and succeeds, which keeps demo
// journeys moving. It implements port.Notifier.
type HTTPNotifier struct {
	config NotifierConfig
	http   *http.Client
	logger *slog.Logger
}

// NewHTTPNotifier creates the adapter.
func NewHTTPNotifier(config NotifierConfig, logger *slog.Logger) *HTTPNotifier {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		config: config,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify dispatches one message over the given channel.
func (n *HTTPNotifier) Notify(ctx context.Context, customerID, channel, message string) error {
	if n.config.BaseURL == "" {
		n.logger.Info("notification (log-only mode)",
			"customer_id", customerID, "channel", channel, "message", message)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"customer_id": customerID,
		"channel":     channel,
		"message":     message,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.config.BaseURL+"/notify", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}
	return nil
}
