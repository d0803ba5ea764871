package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SignatureHeader carries the HMAC of each delivery body.
const SignatureHeader = "X-Signature"

// Deliverer posts signed event payloads to endpoint URLs. TLS is used iff
// the target scheme is https; that choice belongs to the endpoint owner.
type Deliverer struct {
	client *http.Client
}

// NewDeliverer constructs a Deliverer with the given timeout.
func NewDeliverer(timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Deliverer{client: &http.Client{Timeout: timeout}}
}

// Deliver posts the payload to the endpoint. A non-2xx response is an error
// so the job queue can retry.
func (d *Deliverer) Deliver(ctx context.Context, endpoint Endpoint, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhooks: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(endpoint.Secret, payload))

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhooks: deliver to %s: %w", endpoint.URL, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhooks: endpoint %s responded %d", endpoint.URL, resp.StatusCode)
	}
	return nil
}
