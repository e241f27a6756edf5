package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/delivery"
	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/http/middleware"
	"github.com/bitx-studio/landing-backend/internal/ratelimit"
	"github.com/bitx-studio/landing-backend/internal/services"
)

const validLead = `{"name":"Aida","contact":"aida@example.com","message":"Need a booking app","clientId":"c-1","locale":"en"}`

//
// Fakes
//

type stubLeadSvc struct {
	mu     sync.Mutex
	calls  int
	lastIP string
	fn     func(form services.LeadForm) (domain.Delivered, error)
}

func (s *stubLeadSvc) Submit(_ context.Context, form services.LeadForm, ip string) (domain.Delivered, error) {
	s.mu.Lock()
	s.calls++
	s.lastIP = ip
	s.mu.Unlock()
	if s.fn == nil {
		return domain.Delivered{Telegram: true}, nil
	}
	return s.fn(form)
}

type memReceipts struct {
	mu   sync.Mutex
	recs map[string]domain.LeadReceipt
	err  error
}

func newMemReceipts() *memReceipts {
	return &memReceipts{recs: map[string]domain.LeadReceipt{}}
}

func (m *memReceipts) Get(_ context.Context, scope, key string, now time.Time) (*domain.LeadReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[scope+"|"+key]
	if !ok || !r.ExpiresAt.After(now) {
		return nil, errors.New("not found")
	}
	return &r, nil
}

func (m *memReceipts) Create(_ context.Context, scope, key string, status int, d domain.Delivered, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs[scope+"|"+key] = domain.LeadReceipt{
		Scope: scope, Key: key, Status: status,
		Telegram: d.Telegram, Email: d.Email,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *memReceipts) exists(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	r, _ := m.Get(ctx, scope, key, now)
	return r != nil, nil
}

func (m *memReceipts) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

type fakeDeliverer struct {
	res   delivery.Result
	calls int
}

func (f *fakeDeliverer) Deliver(_ context.Context, _ delivery.Message) delivery.Result {
	f.calls++
	return f.res
}

//
// Helpers
//

func newLeadRouter(h *Handlers, receipts *memReceipts, maxBody int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	if maxBody > 0 {
		r.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
			c.Next()
		})
	}
	var lookup middleware.IdempotencyLookup
	if receipts != nil {
		lookup = receipts.exists
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	r.POST("/api/lead", h.SubmitLead)
	return r
}

func postLead(r http.Handler, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return m
}

//
// Tests
//

func TestSubmitLead_Success(t *testing.T) {
	svc := &stubLeadSvc{fn: func(services.LeadForm) (domain.Delivered, error) {
		return domain.Delivered{Telegram: true, Email: false}, nil
	}}
	h := New(svc, nil, Options{})
	r := newLeadRouter(h, nil, 0)

	w := postLead(r, validLead, map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := `{"ok":true,"delivered":{"telegram":true,"email":false}}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Fatalf("body=%s want %s", got, want)
	}
	if svc.lastIP != "198.51.100.4" {
		t.Fatalf("ip passed to service = %q", svc.lastIP)
	}
}

func TestSubmitLead_ErrorMapping(t *testing.T) {
	resetAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now := resetAt.Add(-90 * time.Second)

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed body", `not json`, nil, http.StatusInternalServerError, ErrCodeServer},
		{"json array", `[1,2]`, nil, http.StatusInternalServerError, ErrCodeServer},
		{"validation", validLead, services.ErrValidation, http.StatusBadRequest, ErrCodeValidation},
		{"bad email", validLead, services.ErrBadEmail, http.StatusBadRequest, ErrCodeBadEmail},
		{"no delivery", validLead, services.ErrNoDelivery, http.StatusNotImplemented, ErrCodeNoDelivery},
		{"rate limited", validLead, &services.RateLimitedError{ResetAt: resetAt}, http.StatusTooManyRequests, ErrCodeRateLimited},
		{"backend", validLead, errors.New("redis down"), http.StatusInternalServerError, ErrCodeServer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubLeadSvc{fn: func(services.LeadForm) (domain.Delivered, error) {
				return domain.Delivered{}, tc.err
			}}
			h := New(svc, nil, Options{Now: func() time.Time { return now }})
			r := newLeadRouter(h, nil, 0)

			w := postLead(r, tc.body, nil)
			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
			m := decodeMap(t, w)
			if m["ok"] != false || m["error"] != tc.wantCode {
				t.Fatalf("body=%v", m)
			}
			if strings.Contains(w.Body.String(), "redis") {
				t.Fatalf("internal error leaked: %s", w.Body.String())
			}

			switch tc.wantStatus {
			case http.StatusTooManyRequests:
				if int64(m["resetAt"].(float64)) != resetAt.UnixMilli() {
					t.Fatalf("resetAt=%v want %d", m["resetAt"], resetAt.UnixMilli())
				}
				if got := w.Header().Get("Retry-After"); got != "90" {
					t.Fatalf("Retry-After=%q", got)
				}
			case http.StatusNotImplemented:
				if m["hint"] != noDeliveryHint {
					t.Fatalf("hint=%v", m["hint"])
				}
			}
		})
	}
}

func TestSubmitLead_BodyTooLarge(t *testing.T) {
	svc := &stubLeadSvc{}
	h := New(svc, nil, Options{})
	r := newLeadRouter(h, nil, 32)

	w := postLead(r, `{"name":"`+strings.Repeat("x", 100)+`"}`, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if m := decodeMap(t, w); m["error"] != ErrCodeBodyTooLarge {
		t.Fatalf("body=%v", m)
	}
	if svc.calls != 0 {
		t.Fatalf("service must not be called, calls=%d", svc.calls)
	}
}

func TestSubmitLead_IdempotentReplay(t *testing.T) {
	svc := &stubLeadSvc{fn: func(services.LeadForm) (domain.Delivered, error) {
		return domain.Delivered{Telegram: true, Email: true}, nil
	}}
	receipts := newMemReceipts()
	h := New(svc, nil, Options{Receipts: receipts, IdempotencyTTL: time.Hour})
	r := newLeadRouter(h, receipts, 0)

	hdr := map[string]string{
		middleware.HeaderIdempotencyKey: "lead-abc-1",
		"X-Forwarded-For":               "203.0.113.9",
	}

	first := postLead(r, validLead, hdr)
	if first.Code != http.StatusOK {
		t.Fatalf("first status=%d", first.Code)
	}
	if first.Header().Get(HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first response must not be marked replayed")
	}
	if receipts.len() != 1 {
		t.Fatalf("receipt not stored")
	}

	second := postLead(r, validLead, hdr)
	if second.Code != http.StatusOK {
		t.Fatalf("replay status=%d", second.Code)
	}
	if second.Header().Get(HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("missing %s header", HeaderIdempotencyReplayed)
	}
	if strings.TrimSpace(second.Body.String()) != strings.TrimSpace(first.Body.String()) {
		t.Fatalf("replay body %s != %s", second.Body.String(), first.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("service calls=%d, want 1", svc.calls)
	}

	// Another client with the same key is not a replay.
	hdr["X-Forwarded-For"] = "203.0.113.10"
	third := postLead(r, validLead, hdr)
	if third.Header().Get(HeaderIdempotencyReplayed) != "" || svc.calls != 2 {
		t.Fatalf("key must be scoped per client (calls=%d)", svc.calls)
	}
}

func TestSubmitLead_ReceiptOnlyWhenDelivered(t *testing.T) {
	tests := []struct {
		name string
		fn   func(services.LeadForm) (domain.Delivered, error)
	}{
		{"honeypot", func(services.LeadForm) (domain.Delivered, error) { return domain.Delivered{}, nil }},
		{"no delivery", func(services.LeadForm) (domain.Delivered, error) { return domain.Delivered{}, services.ErrNoDelivery }},
		{"validation", func(services.LeadForm) (domain.Delivered, error) { return domain.Delivered{}, services.ErrValidation }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			receipts := newMemReceipts()
			h := New(&stubLeadSvc{fn: tc.fn}, nil, Options{Receipts: receipts})
			r := newLeadRouter(h, receipts, 0)

			postLead(r, validLead, map[string]string{middleware.HeaderIdempotencyKey: "k-1"})
			if receipts.len() != 0 {
				t.Fatalf("receipt stored for undelivered outcome")
			}
		})
	}
}

func TestSubmitLead_ReceiptStoreErrorIsNotFatal(t *testing.T) {
	receipts := newMemReceipts()
	receipts.err = errors.New("disk full")
	h := New(&stubLeadSvc{}, nil, Options{Receipts: receipts})
	r := newLeadRouter(h, receipts, 0)

	w := postLead(r, validLead, map[string]string{middleware.HeaderIdempotencyKey: "k-2"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

// Runs the real service behind the handler: honeypot, per-client window and
// delivery outcomes as a visitor would see them.
func TestSubmitLead_WithLeadService(t *testing.T) {
	newRouter := func(res delivery.Result) (*gin.Engine, *fakeDeliverer) {
		d := &fakeDeliverer{res: res}
		svc := &services.LeadService{
			Limiter:   ratelimit.NewMemoryStore(ratelimit.LeadPolicy),
			Deliverer: d,
			Brand:     "BITX",
		}
		return newLeadRouter(New(svc, nil, Options{}), nil, 0), d
	}
	delivered := delivery.Result{
		Telegram: delivery.Outcome{Channel: "telegram", Status: delivery.StatusDelivered},
		Email:    delivery.Outcome{Channel: "smtp", Status: delivery.StatusNotConfigured},
	}

	t.Run("honeypot is a silent success", func(t *testing.T) {
		r, d := newRouter(delivered)
		w := postLead(r, `{"name":"Bot","contact":"x","message":"y","hp":"filled"}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d", w.Code)
		}
		want := `{"ok":true,"delivered":{"telegram":false,"email":false}}`
		if got := strings.TrimSpace(w.Body.String()); got != want {
			t.Fatalf("body=%s", got)
		}
		if d.calls != 0 {
			t.Fatalf("honeypot must not deliver")
		}
	})

	t.Run("sixth submission in window is limited", func(t *testing.T) {
		r, _ := newRouter(delivered)
		hdr := map[string]string{"X-Forwarded-For": "192.0.2.50"}
		for i := 0; i < 5; i++ {
			if w := postLead(r, validLead, hdr); w.Code != http.StatusOK {
				t.Fatalf("attempt %d status=%d", i+1, w.Code)
			}
		}
		w := postLead(r, validLead, hdr)
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("status=%d", w.Code)
		}
		m := decodeMap(t, w)
		if m["error"] != ErrCodeRateLimited {
			t.Fatalf("body=%v", m)
		}
		if reset, _ := m["resetAt"].(float64); int64(reset) <= time.Now().UnixMilli() {
			t.Fatalf("resetAt must be in the future: %v", m["resetAt"])
		}

		// Same browser id from another address has its own window.
		if w := postLead(r, validLead, map[string]string{"X-Forwarded-For": "192.0.2.51"}); w.Code != http.StatusOK {
			t.Fatalf("other ip status=%d", w.Code)
		}
	})

	t.Run("short fields", func(t *testing.T) {
		r, d := newRouter(delivered)
		w := postLead(r, `{"name":"A","contact":"aida@example.com","message":"Need a booking app"}`, nil)
		if w.Code != http.StatusBadRequest || decodeMap(t, w)["error"] != ErrCodeValidation {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if d.calls != 0 {
			t.Fatalf("invalid lead must not deliver")
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		r, _ := newRouter(delivered)
		w := postLead(r, `{"name":"Aida","contact":"aida@example","message":"Need a booking app"}`, nil)
		if w.Code != http.StatusBadRequest || decodeMap(t, w)["error"] != ErrCodeBadEmail {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("no channel configured", func(t *testing.T) {
		r, _ := newRouter(delivery.Result{
			Telegram: delivery.Outcome{Channel: "telegram", Status: delivery.StatusNotConfigured},
			Email:    delivery.Outcome{Channel: "smtp", Status: delivery.StatusNotConfigured},
		})
		w := postLead(r, validLead, nil)
		if w.Code != http.StatusNotImplemented {
			t.Fatalf("status=%d", w.Code)
		}
		if m := decodeMap(t, w); m["error"] != ErrCodeNoDelivery || m["hint"] == nil {
			t.Fatalf("body=%v", m)
		}
	})
}

func TestRetryAfter(t *testing.T) {
	now := time.Unix(1000, 0)
	tests := []struct {
		reset time.Time
		want  string
	}{
		{now.Add(10 * time.Minute), "600"},
		{now.Add(1400 * time.Millisecond), "1"},
		{now, "1"},
		{now.Add(-time.Minute), "1"},
	}
	for _, tc := range tests {
		if got := retryAfter(tc.reset, now); got != tc.want {
			t.Fatalf("retryAfter(%v) = %q, want %q", tc.reset.Sub(now), got, tc.want)
		}
	}
}
