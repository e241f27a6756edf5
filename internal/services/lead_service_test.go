package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bitx-studio/landing-backend/internal/delivery"
	"github.com/bitx-studio/landing-backend/internal/ratelimit"
)

type fakeDeliverer struct {
	mu    sync.Mutex
	res   delivery.Result
	calls int
	last  delivery.Message
}

func (f *fakeDeliverer) Deliver(_ context.Context, msg delivery.Message) delivery.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = msg
	return f.res
}

func bothDelivered() delivery.Result {
	return delivery.Result{
		Telegram: delivery.Outcome{Channel: "telegram", Status: delivery.StatusDelivered},
		Email:    delivery.Outcome{Channel: "email", Status: delivery.StatusDelivered},
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("backend down")
}

type recordingStore struct {
	keys  []string
	inner ratelimit.Store
}

func (r *recordingStore) Hit(ctx context.Context, key string) (ratelimit.Decision, error) {
	r.keys = append(r.keys, key)
	return r.inner.Hit(ctx, key)
}

func newTestService(res delivery.Result) (*LeadService, *fakeDeliverer) {
	fd := &fakeDeliverer{res: res}
	return &LeadService{
		Limiter:   ratelimit.NewMemoryStore(ratelimit.LeadPolicy),
		Deliverer: fd,
		Now:       func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) },
	}, fd
}

const validBody = `{"name":"Al","contact":"test@example.com","message":"Hello!"}`

func TestSubmit_BothChannelsDelivered(t *testing.T) {
	svc, fd := newTestService(bothDelivered())

	d, err := svc.Submit(context.Background(), mustForm(t, validBody), "203.0.113.1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !d.Telegram || !d.Email {
		t.Fatalf("delivered = %+v", d)
	}
	if fd.last.Subject != "BITX — New lead" {
		t.Fatalf("subject = %q", fd.last.Subject)
	}
	if !strings.HasPrefix(fd.last.Text, "BITX Lead (RU)\nClientId: no_cid\n") ||
		!strings.HasSuffix(fd.last.Text, "Source: Landing\nAt: 2026-04-01T09:30:00.000Z") {
		t.Fatalf("text = %q", fd.last.Text)
	}
}

func TestSubmit_PartialDeliveryIsSuccess(t *testing.T) {
	res := bothDelivered()
	res.Telegram.Status = delivery.StatusFailed
	svc, _ := newTestService(res)

	d, err := svc.Submit(context.Background(), mustForm(t, validBody), "ip")
	if err != nil || d.Telegram || !d.Email {
		t.Fatalf("d = %+v err = %v", d, err)
	}
}

func TestSubmit_NoDelivery(t *testing.T) {
	svc, _ := newTestService(delivery.Result{
		Telegram: delivery.Outcome{Status: delivery.StatusNotConfigured},
		Email:    delivery.Outcome{Status: delivery.StatusFailed},
	})
	if _, err := svc.Submit(context.Background(), mustForm(t, validBody), "ip"); !errors.Is(err, ErrNoDelivery) {
		t.Fatalf("err = %v", err)
	}

	svc.Deliverer = nil
	if _, err := svc.Submit(context.Background(), mustForm(t, validBody), "ip2"); !errors.Is(err, ErrNoDelivery) {
		t.Fatalf("nil deliverer: err = %v", err)
	}
}

func TestSubmit_HoneypotShortCircuits(t *testing.T) {
	store := &recordingStore{inner: ratelimit.NewMemoryStore(ratelimit.LeadPolicy)}
	svc, fd := newTestService(bothDelivered())
	svc.Limiter = store

	// Invalid on every other axis: still a silent success.
	d, err := svc.Submit(context.Background(), mustForm(t, `{"hp":"bot","name":1}`), "ip")
	if err != nil || d.Any() {
		t.Fatalf("d = %+v err = %v", d, err)
	}
	if fd.calls != 0 || len(store.keys) != 0 {
		t.Fatalf("honeypot must skip rate limiting and delivery")
	}
}

func TestSubmit_RateLimitSixthRejected(t *testing.T) {
	svc, fd := newTestService(bothDelivered())
	store := &recordingStore{inner: ratelimit.NewMemoryStore(ratelimit.LeadPolicy)}
	svc.Limiter = store
	form := mustForm(t, `{"name":"Al","contact":"123","message":"Hello","clientId":"c1"}`)

	for i := 0; i < 5; i++ {
		if _, err := svc.Submit(context.Background(), form, "198.51.100.7"); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	_, err := svc.Submit(context.Background(), form, "198.51.100.7")
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("6th submission: err = %v", err)
	}
	if rl.ResetAt.IsZero() {
		t.Fatalf("resetAt missing")
	}
	if fd.calls != 5 {
		t.Fatalf("deliveries = %d", fd.calls)
	}
	if store.keys[0] != "lead:c1:198.51.100.7" {
		t.Fatalf("key = %q", store.keys[0])
	}

	// A different IP is a different key.
	if _, err := svc.Submit(context.Background(), form, "198.51.100.8"); err != nil {
		t.Fatalf("other ip: %v", err)
	}
}

func TestSubmit_RateLimitBeforeValidation(t *testing.T) {
	svc, _ := newTestService(bothDelivered())
	svc.Limiter = ratelimit.NewMemoryStore(ratelimit.Policy{Limit: 1, Window: time.Minute})
	bad := mustForm(t, `{"name":"A"}`)

	if _, err := svc.Submit(context.Background(), bad, "ip"); !errors.Is(err, ErrValidation) {
		t.Fatalf("first: %v", err)
	}
	var rl *RateLimitedError
	if _, err := svc.Submit(context.Background(), bad, "ip"); !errors.As(err, &rl) {
		t.Fatalf("second must be rate limited before validation: %v", err)
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	cases := []struct {
		body string
		want error
	}{
		{`{"name":"Al","contact":"not-an-email@","message":"Hello!"}`, ErrBadEmail},
		{`{"name":"A","contact":"123","message":"Hello"}`, ErrValidation},
		{`{"name":"Al","contact":"123","message":42}`, ErrValidation},
		{`{"clientId":{},"name":"Al","contact":"123","message":"Hello"}`, ErrValidation},
	}
	for _, tc := range cases {
		svc, fd := newTestService(bothDelivered())
		if _, err := svc.Submit(context.Background(), mustForm(t, tc.body), "ip"); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v; want %v", tc.body, err, tc.want)
		}
		if fd.calls != 0 {
			t.Fatalf("%s: delivery attempted", tc.body)
		}
	}
}

func TestSubmit_LimiterError(t *testing.T) {
	svc, _ := newTestService(bothDelivered())
	svc.Limiter = failingStore{}
	if _, err := svc.Submit(context.Background(), mustForm(t, validBody), "ip"); err == nil {
		t.Fatalf("expected backend error")
	}

	svc.Limiter = ratelimit.FailOpen{Store: failingStore{}, Policy: ratelimit.LeadPolicy}
	if _, err := svc.Submit(context.Background(), mustForm(t, validBody), "ip"); err != nil {
		t.Fatalf("fail-open limiter must admit: %v", err)
	}
}

func TestRateLimitKey(t *testing.T) {
	if got := RateLimitKey("no_cid", "unknown"); got != "lead:no_cid:unknown" {
		t.Fatalf("key = %q", got)
	}
}
