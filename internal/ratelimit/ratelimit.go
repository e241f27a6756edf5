// Package ratelimit implements the fixed-window limiter guarding lead
// submissions.
//
// A window opens on the first hit for a key and lasts Policy.Window. Once the
// window's count reaches Policy.Limit further hits are rejected until the
// window expires; the first hit strictly after ResetAt opens a fresh window.
//
// Two backends are provided:
//   - MemoryStore: process-local, swept periodically. Limits are enforced per
//     instance only.
//   - RedisStore: shared counter in Redis, enforced across instances.
package ratelimit

import (
	"context"
	"time"
)

// Policy describes a fixed window: at most Limit hits per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// LeadPolicy is the default lead-submission budget: 5 per 10 minutes.
var LeadPolicy = Policy{Limit: 5, Window: 10 * time.Minute}

func (p Policy) normalized() Policy {
	if p.Limit <= 0 {
		p.Limit = 1
	}
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	return p
}

// Decision is the outcome of a single hit.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// ResetAtMillis returns ResetAt as epoch milliseconds, the unit reported to
// clients.
func (d Decision) ResetAtMillis() int64 { return d.ResetAt.UnixMilli() }

// Store records a hit for key and reports whether it fits the window.
type Store interface {
	Hit(ctx context.Context, key string) (Decision, error)
}
