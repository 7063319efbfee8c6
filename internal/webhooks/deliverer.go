// Package webhooks delivers integration events to external subscribers as
// signed, retried HTTP POSTs.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTimeout bounds each individual delivery attempt.
const DefaultTimeout = 10 * time.Second

const userAgent = "TeamHub-Webhook/1.0"

// SignatureHeader carries the hex HMAC-SHA256 of the exact request body,
// computed with the webhook's shared secret.
const SignatureHeader = "X-Webhook-Signature"

// WebhookStore is the slice of webhook persistence the deliverer needs.
type WebhookStore interface {
	FindActiveByEvent(ctx context.Context, event models.WebhookEvent) ([]models.Webhook, error)
	UpdateLastTriggered(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// DeliveryResult is the per-webhook outcome of one Trigger call.
type DeliveryResult struct {
	Webhook    string `json:"webhook"`
	Success    bool   `json:"success"`
	Attempts   int    `json:"attempts"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type payload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Deliverer performs the signed outbound round trips. Failures never
// propagate past the returned results.
type Deliverer struct {
	store  WebhookStore
	client *http.Client

	// seams for tests
	now   func() time.Time
	sleep func(time.Duration)
}

func NewDeliverer(store WebhookStore, timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Deliverer{
		store:  store,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Trigger delivers the event to every active webhook subscribed to it.
// Webhooks are attempted independently and concurrently; one unreachable
// receiver never affects the others or the caller's primary operation.
func (d *Deliverer) Trigger(ctx context.Context, event models.WebhookEvent, data map[string]any) []DeliveryResult {
	hooks, err := d.store.FindActiveByEvent(ctx, event)
	if err != nil {
		log.Printf("webhook lookup for %s failed: %v", event, err)
		return nil
	}
	if len(hooks) == 0 {
		return nil
	}

	results := make([]DeliveryResult, len(hooks))
	var wg sync.WaitGroup
	for i := range hooks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.Deliver(ctx, &hooks[i], event, data)
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		if !res.Success {
			log.Printf("webhook %q failed after %d attempt(s) for %s: %s", res.Webhook, res.Attempts, event, res.Error)
		}
	}
	return results
}

// Deliver attempts one webhook, retrying up to its configured budget with
// exponential backoff between failed attempts. Retries are strictly
// sequential; there is no wait after the final attempt.
func (d *Deliverer) Deliver(ctx context.Context, hook *models.Webhook, event models.WebhookEvent, data map[string]any) DeliveryResult {
	result := DeliveryResult{Webhook: hook.Name}

	body, err := json.Marshal(payload{
		Event:     string(event),
		Timestamp: d.now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		result.Attempts = 1
		result.Error = fmt.Sprintf("encode payload: %v", err)
		return result
	}

	budget := hook.RetryAttempts
	if budget < 1 {
		budget = models.DefaultRetryAttempts
	}

	for attempt := 1; attempt <= budget; attempt++ {
		result.Attempts = attempt

		status, err := d.post(ctx, hook, body)
		result.StatusCode = status
		if err == nil {
			result.Success = true
			result.Error = ""
			if uerr := d.store.UpdateLastTriggered(ctx, hook.ID, d.now()); uerr != nil {
				log.Printf("record last trigger for webhook %q: %v", hook.Name, uerr)
			}
			return result
		}
		result.Error = err.Error()

		if attempt < budget {
			d.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}
	return result
}

func (d *Deliverer) post(ctx context.Context, hook *models.Webhook, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range hook.Headers {
		req.Header.Set(k, v)
	}
	if hook.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(hook.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Sign computes the hex HMAC-SHA256 of body under secret. Receivers
// recompute this over the raw request body and compare.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
