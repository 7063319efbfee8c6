package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeWebhookStore struct {
	mu        sync.Mutex
	hooks     []models.Webhook
	triggered map[primitive.ObjectID]time.Time
}

func (f *fakeWebhookStore) FindActiveByEvent(ctx context.Context, event models.WebhookEvent) ([]models.Webhook, error) {
	var out []models.Webhook
	for _, h := range f.hooks {
		if h.Active && h.SubscribedTo(event) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeWebhookStore) UpdateLastTriggered(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggered == nil {
		f.triggered = map[primitive.ObjectID]time.Time{}
	}
	f.triggered[id] = at
	return nil
}

// noSleep records requested backoff delays instead of waiting them out.
func newTestDeliverer(store WebhookStore) (*Deliverer, *[]time.Duration) {
	d := NewDeliverer(store, time.Second)
	var delays []time.Duration
	d.sleep = func(dur time.Duration) { delays = append(delays, dur) }
	return d, &delays
}

func TestTrigger_IsolatesFailingWebhook(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	store := &fakeWebhookStore{hooks: []models.Webhook{
		{ID: primitive.NewObjectID(), Name: "ci", URL: ok.URL, Active: true, Events: []models.WebhookEvent{models.EventTaskCommented}, RetryAttempts: 1},
		{ID: primitive.NewObjectID(), Name: "dead", URL: "http://127.0.0.1:1", Active: true, Events: []models.WebhookEvent{models.EventTaskCommented}, RetryAttempts: 1},
		{ID: primitive.NewObjectID(), Name: "crm", URL: ok.URL, Active: true, Events: []models.WebhookEvent{models.EventTaskCommented}, RetryAttempts: 1},
	}}
	d, _ := newTestDeliverer(store)

	results := d.Trigger(context.Background(), models.EventTaskCommented, map[string]any{"task_id": 1})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	byName := map[string]DeliveryResult{}
	for _, r := range results {
		byName[r.Webhook] = r
	}
	if !byName["ci"].Success || !byName["crm"].Success {
		t.Fatalf("reachable webhooks must succeed: %+v", results)
	}
	if byName["dead"].Success || byName["dead"].Error == "" {
		t.Fatalf("unreachable webhook must fail with an error: %+v", byName["dead"])
	}
}

func TestTrigger_FiltersInactiveAndUnsubscribed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("filtered webhook must not be called")
	}))
	defer srv.Close()

	store := &fakeWebhookStore{hooks: []models.Webhook{
		{Name: "inactive", URL: srv.URL, Active: false, Events: []models.WebhookEvent{models.EventTaskCommented}},
		{Name: "other-event", URL: srv.URL, Active: true, Events: []models.WebhookEvent{models.EventProjectCreated}},
	}}
	d, _ := newTestDeliverer(store)

	if results := d.Trigger(context.Background(), models.EventTaskCommented, nil); len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
}

func TestDeliver_RetryBudgetAndBackoff(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := &fakeWebhookStore{}
	d, delays := newTestDeliverer(store)

	hook := &models.Webhook{Name: "flaky", URL: srv.URL, Active: true, RetryAttempts: 3}
	res := d.Deliver(context.Background(), hook, models.EventTaskOverdue, nil)

	if res.Success {
		t.Fatalf("expected failure")
	}
	if attempts != 3 || res.Attempts != 3 {
		t.Fatalf("attempts = %d (reported %d), want 3", attempts, res.Attempts)
	}
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", res.StatusCode)
	}
	// Backoff after attempt 1 and 2, none after the final attempt.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*delays) != 2 || (*delays)[0] != want[0] || (*delays)[1] != want[1] {
		t.Fatalf("backoff delays = %v, want %v", *delays, want)
	}
}

func TestDeliver_StopsRetryingOnSuccess(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := &fakeWebhookStore{}
	d, delays := newTestDeliverer(store)

	hook := &models.Webhook{ID: primitive.NewObjectID(), Name: "recovering", URL: srv.URL, Active: true, RetryAttempts: 3}
	res := d.Deliver(context.Background(), hook, models.EventTaskCompleted, nil)

	if !res.Success || res.Attempts != 2 {
		t.Fatalf("result = %+v, want success on attempt 2", res)
	}
	if len(*delays) != 1 {
		t.Fatalf("delays = %v, want exactly one backoff", *delays)
	}
	if _, ok := store.triggered[hook.ID]; !ok {
		t.Fatalf("success must record the delivery timestamp")
	}
}

func TestDeliver_SignatureAndHeaders(t *testing.T) {
	secret := "whsec_42"
	var gotBody []byte
	var gotSig, gotUA, gotCustom, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Tenant")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakeWebhookStore{}
	d, _ := newTestDeliverer(store)

	hook := &models.Webhook{
		Name:    "signed",
		URL:     srv.URL,
		Active:  true,
		Secret:  secret,
		Headers: map[string]string{"X-Tenant": "acme"},
	}
	res := d.Deliver(context.Background(), hook, models.EventAppraisalCompleted, map[string]any{"appraisal_id": 9})
	if !res.Success {
		t.Fatalf("delivery failed: %+v", res)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	if want := hex.EncodeToString(mac.Sum(nil)); gotSig != want {
		t.Fatalf("signature = %s, want %s", gotSig, want)
	}
	// One flipped byte must invalidate the signature.
	tampered := append([]byte{}, gotBody...)
	tampered[0] ^= 0x01
	mac = hmac.New(sha256.New, []byte(secret))
	mac.Write(tampered)
	if gotSig == hex.EncodeToString(mac.Sum(nil)) {
		t.Fatalf("signature survived body tampering")
	}

	if gotUA != "TeamHub-Webhook/1.0" {
		t.Fatalf("user agent = %q", gotUA)
	}
	if gotCT != "application/json" {
		t.Fatalf("content type = %q", gotCT)
	}
	if gotCustom != "acme" {
		t.Fatalf("custom header = %q", gotCustom)
	}

	var body struct {
		Event     string         `json:"event"`
		Timestamp string         `json:"timestamp"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if body.Event != string(models.EventAppraisalCompleted) {
		t.Fatalf("event = %q", body.Event)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", body.Timestamp, err)
	}
	if body.Data["appraisal_id"] != float64(9) {
		t.Fatalf("data = %v", body.Data)
	}
}

func TestDeliver_NoSignatureWithoutSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SignatureHeader) != "" {
			t.Errorf("unexpected signature header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := newTestDeliverer(&fakeWebhookStore{})
	hook := &models.Webhook{Name: "open", URL: srv.URL, Active: true}
	if res := d.Deliver(context.Background(), hook, models.EventWebhookTest, nil); !res.Success {
		t.Fatalf("delivery failed: %+v", res)
	}
}

func TestDeliver_MalformedURLIsFailedAttempt(t *testing.T) {
	d, _ := newTestDeliverer(&fakeWebhookStore{})
	hook := &models.Webhook{Name: "bad", URL: "://not-a-url", Active: true, RetryAttempts: 2}
	res := d.Deliver(context.Background(), hook, models.EventWebhookTest, nil)
	if res.Success || res.Error == "" {
		t.Fatalf("malformed URL must surface as a failed result, got %+v", res)
	}
}

func TestDeliver_DefaultRetryBudget(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d, _ := newTestDeliverer(&fakeWebhookStore{})
	hook := &models.Webhook{Name: "unconfigured", URL: srv.URL, Active: true} // RetryAttempts zero
	res := d.Deliver(context.Background(), hook, models.EventWebhookTest, nil)
	if attempts != models.DefaultRetryAttempts || res.Attempts != models.DefaultRetryAttempts {
		t.Fatalf("attempts = %d, want default %d", attempts, models.DefaultRetryAttempts)
	}
}
