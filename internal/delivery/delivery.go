// Package delivery pushes formatted leads to the operator through independent
// best-effort channels.
//
// Each channel reports one of three outcomes: delivered, not_configured or
// failed. A channel missing its configuration is never attempted. Channels run
// concurrently and a failure in one never cancels or delays the other beyond
// the shared join.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bitx-studio/landing-backend/internal/sysutil"
)

// DefaultTimeout bounds a single channel send when none is configured.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned by Send on a channel lacking configuration.
var ErrNotConfigured = errors.New("delivery: channel not configured")

// Status is the per-channel outcome of a delivery attempt.
type Status string

const (
	StatusDelivered     Status = "delivered"
	StatusNotConfigured Status = "not_configured"
	StatusFailed        Status = "failed"
)

// Message is the channel-agnostic payload. Text is the plain-text lead body.
type Message struct {
	Subject string
	Text    string
}

// Channel is a single outbound transport.
type Channel interface {
	// Name is a stable identifier used in logs and metrics.
	Name() string
	// Configured reports whether every required setting is present.
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// Outcome records what happened on one channel.
type Outcome struct {
	Channel string
	Status  Status
	Err     error
}

// Delivered reports whether the channel accepted the message.
func (o Outcome) Delivered() bool { return o.Status == StatusDelivered }

// Result is the joined outcome of a fan-out.
type Result struct {
	Telegram Outcome
	Email    Outcome
}

// Any reports whether at least one channel delivered.
func (r Result) Any() bool { return r.Telegram.Delivered() || r.Email.Delivered() }

var deliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lead_deliveries_total",
		Help: "Lead delivery attempts by channel and outcome.",
	},
	[]string{"channel", "status"},
)

func init() {
	prometheus.MustRegister(deliveries)
}

// Dispatcher fans a message out to the chat-bot and email channels.
// Nil channels count as not configured.
type Dispatcher struct {
	Telegram Channel
	Email    Channel
	// Timeout bounds each channel send. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Deliver sends msg on both channels concurrently and waits for both.
//
// Sends run on a context detached from ctx's cancellation, so a client that
// disconnects mid-request does not abort delivery; each send is bounded by
// the dispatcher timeout instead. Trace and logger values on ctx are kept.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message) Result {
	base := context.WithoutCancel(ctx)

	var (
		g   errgroup.Group
		res Result
	)
	g.Go(func() error {
		res.Telegram = d.send(base, "telegram", d.Telegram, msg)
		return nil
	})
	g.Go(func() error {
		res.Email = d.send(base, "email", d.Email, msg)
		return nil
	})
	_ = g.Wait()
	return res
}

func (d *Dispatcher) send(ctx context.Context, name string, ch Channel, msg Message) Outcome {
	out := Outcome{Channel: name}
	if ch == nil || !ch.Configured() {
		out.Status = StatusNotConfigured
		deliveries.WithLabelValues(name, string(out.Status)).Inc()
		return out
	}

	tr := otel.Tracer("delivery/Dispatcher")
	ctx, span := tr.Start(ctx, "send",
		trace.WithAttributes(
			attribute.String("delivery.channel", name),
			attribute.String("delivery.transport", ch.Name()),
		),
	)
	defer span.End()

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := ch.Send(ctx, msg)
	switch {
	case err == nil:
		out.Status = StatusDelivered
	case errors.Is(err, ErrNotConfigured):
		out.Status = StatusNotConfigured
	default:
		out.Status = StatusFailed
		out.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
	}
	deliveries.WithLabelValues(name, string(out.Status)).Inc()

	lg := sysutil.Logger(ctx)
	ev := lg.Debug()
	if out.Status == StatusFailed {
		ev = lg.Warn().Err(err)
	}
	ev.Str("channel", name).
		Str("transport", ch.Name()).
		Str("status", string(out.Status)).
		Dur("took", time.Since(start)).
		Msg("lead delivery")
	return out
}
