// Package services – LeadService
//
// LeadService runs a parsed submission through the intake pipeline:
// honeypot, rate limit, normalization, validation, formatting and delivery
// fan-out. Each step can short-circuit with one of the errors in errors.go.
//
// Observability: Submit is OpenTelemetry-instrumented and counts every
// outcome in lead_submissions_total. Lead content never reaches spans,
// metrics or logs.

package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bitx-studio/landing-backend/internal/delivery"
	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/ratelimit"
)

// Submission outcomes, as recorded in metrics and spans.
const (
	OutcomeDelivered   = "delivered"
	OutcomeHoneypot    = "honeypot"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "validation_failed"
	OutcomeBadEmail    = "bad_email"
	OutcomeNoDelivery  = "no_delivery"
	OutcomeError       = "server_error"
)

var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lead_submissions_total",
		Help: "Lead submissions by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(submissions)
}

// Deliverer fans a message out to the delivery channels.
type Deliverer interface {
	Deliver(ctx context.Context, msg delivery.Message) delivery.Result
}

// LeadService coordinates lead intake.
type LeadService struct {
	Limiter   ratelimit.Store
	Deliverer Deliverer
	// Brand prefixes the lead header and email subject.
	Brand string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Submit processes form sent from ip.
//
// A filled honeypot returns a zero Delivered and nil error; the caller must
// treat it as an ordinary success. Errors are ErrValidation, ErrBadEmail,
// ErrNoDelivery, *RateLimitedError or an unexpected backend error.
func (s *LeadService) Submit(ctx context.Context, form LeadForm, ip string) (domain.Delivered, error) {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	d, outcome, err := s.submit(ctx, form, ip, span)
	submissions.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("lead.outcome", outcome))
	if outcome == OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return d, err
}

func (s *LeadService) submit(ctx context.Context, form LeadForm, ip string, span trace.Span) (domain.Delivered, string, error) {
	if form.Honeypot() {
		return domain.Delivered{}, OutcomeHoneypot, nil
	}

	cid, err := form.ClientID()
	if err != nil {
		return domain.Delivered{}, OutcomeInvalid, err
	}

	if s.Limiter != nil {
		dec, err := s.Limiter.Hit(ctx, RateLimitKey(cid, ip))
		if err != nil {
			return domain.Delivered{}, OutcomeError, err
		}
		if !dec.Allowed {
			return domain.Delivered{}, OutcomeRateLimited, &RateLimitedError{ResetAt: dec.ResetAt}
		}
	}

	lead, err := form.Lead(cid)
	if err != nil {
		return domain.Delivered{}, OutcomeInvalid, err
	}
	if err := ValidateLead(lead); err != nil {
		if errors.Is(err, ErrBadEmail) {
			return domain.Delivered{}, OutcomeBadEmail, err
		}
		return domain.Delivered{}, OutcomeInvalid, err
	}
	span.SetAttributes(
		attribute.String("lead.locale", lead.Locale.String()),
		attribute.String("lead.project_type", string(lead.ProjectType)),
	)

	msg := delivery.Message{
		Subject: LeadSubject(s.Brand),
		Text:    FormatLead(s.Brand, lead, s.now()),
	}
	if s.Deliverer == nil {
		return domain.Delivered{}, OutcomeNoDelivery, ErrNoDelivery
	}
	res := s.Deliverer.Deliver(ctx, msg)
	out := domain.Delivered{Telegram: res.Telegram.Delivered(), Email: res.Email.Delivered()}
	if !out.Any() {
		return out, OutcomeNoDelivery, ErrNoDelivery
	}
	return out, OutcomeDelivered, nil
}

// RateLimitKey composes the per-visitor rate-limit key.
func RateLimitKey(clientID, ip string) string {
	return "lead:" + clientID + ":" + ip
}

func (s *LeadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
