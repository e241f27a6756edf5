// Package handlers wires the landing API and page fallback to the
// application services.
//
// Endpoints:
//   - POST /api/lead            (lead intake)
//   - POST /api/lead/fallback   (prefilled WhatsApp link)
//   - GET  /api/site            (site context for page scripts)
//   - NoRoute                   (page shell for "/<locale>/...")
//
// Handlers are transport-thin: they read the request, call a service and
// translate results into the response envelope.
package handlers

import (
	"context"
	"time"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// LeadService runs the lead intake workflow.
//
// Implementations must be safe for concurrent use.
type LeadService interface {
	// Submit processes one decoded submission from the caller at ip.
	Submit(ctx context.Context, form services.LeadForm, ip string) (domain.Delivered, error)
}

// FallbackService builds the manual chat link.
type FallbackService interface {
	// Enabled reports whether a fallback phone is configured.
	Enabled() bool
	// Link returns the prefilled link and its text.
	Link(l domain.Locale, d services.Draft) (link, text string, err error)
}

// ReceiptStore persists submission outcomes under an Idempotency-Key.
type ReceiptStore interface {
	// Get returns an unexpired receipt for (scope, key).
	Get(ctx context.Context, scope, key string, now time.Time) (*domain.LeadReceipt, error)
	// Create stores an outcome for ttl. A concurrent duplicate is not an error
	// the caller needs to act on.
	Create(ctx context.Context, scope, key string, status int, d domain.Delivered, ttl time.Duration) error
}

// SiteInfo is the static site context served by GET /api/site and used by
// the page shell.
type SiteInfo struct {
	Brand         string
	DefaultLocale domain.Locale
	AnalyticsID   string
	ContactEmail  string
	StaticDir     string
}

// Options carries optional dependencies for New.
type Options struct {
	// Receipts enables Idempotency-Key replay; nil disables it.
	Receipts ReceiptStore
	// IdempotencyTTL bounds how long a receipt can be replayed.
	IdempotencyTTL time.Duration
	Site           SiteInfo
	// Now defaults to time.Now.
	Now func() time.Time
}

//
// Handler wiring
//

// Handlers groups the landing endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	leadSvc  LeadService
	fallback FallbackService
	receipts ReceiptStore
	ttl      time.Duration
	site     SiteInfo
	nowFn    func() time.Time
}

// New constructs and returns a Handlers instance bound to the given services.
func New(leadSvc LeadService, fallback FallbackService, opts Options) *Handlers {
	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	site := opts.Site
	if _, ok := domain.ParseLocale(string(site.DefaultLocale)); !ok {
		site.DefaultLocale = domain.DefaultLocale
	}
	if site.Brand == "" {
		site.Brand = services.DefaultBrand
	}
	return &Handlers{
		leadSvc:  leadSvc,
		fallback: fallback,
		receipts: opts.Receipts,
		ttl:      ttl,
		site:     site,
		nowFn:    opts.Now,
	}
}

func (h *Handlers) now() time.Time {
	if h.nowFn != nil {
		return h.nowFn().UTC()
	}
	return time.Now().UTC()
}
