// Package callback delivers completion records to the caller-supplied resume
// URL. Delivery is fire-and-forget, at-most-once: a single POST, no retry,
// and no inspection of the response body. A failed delivery never changes the
// run's own conclusion.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hookrun/pkg/models"
	"hookrun/pkg/resilience"
)

type Dispatcher struct {
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

// NewDispatcher builds a dispatcher with a shared HTTP client. A nil client
// gets a transport-default timeout. The breaker sheds deliveries to an
// endpoint that keeps failing; a tripped breaker is reported like any other
// delivery failure.
func NewDispatcher(client *http.Client, breaker *resilience.CircuitBreaker) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("callback", resilience.DefaultCircuitBreakerConfig())
	}
	return &Dispatcher{client: client, breaker: breaker}
}

// Dispatch serializes the record and issues one HTTP POST to resumeURL.
// The returned error is for logging and metrics only; callers must not treat
// it as a run failure.
func (d *Dispatcher) Dispatch(ctx context.Context, resumeURL string, record models.CompletionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode completion record: %w", err)
	}

	return d.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, resumeURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build callback request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return fmt.Errorf("post completion record: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("callback endpoint returned status %d", resp.StatusCode)
		}
		return nil
	})
}
