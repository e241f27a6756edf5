package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var entriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "ratelimit_entries",
	Help: "Number of live fixed-window entries held in memory.",
})

func init() {
	prometheus.MustRegister(entriesGauge)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps fixed windows in a mutex-guarded map. It is safe for
// concurrent use. Expired windows are dropped by Sweep; call Run to sweep in
// the background.
type MemoryStore struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryStore returns an empty store enforcing p.
func NewMemoryStore(p Policy) *MemoryStore {
	return &MemoryStore{
		policy:  p.normalized(),
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Hit implements Store. It never returns an error.
func (s *MemoryStore) Hit(_ context.Context, key string) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(s.policy.Window)}
		s.windows[key] = w
		entriesGauge.Set(float64(len(s.windows)))
		return Decision{Allowed: true, Remaining: s.policy.Limit - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= s.policy.Limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: s.policy.Limit - w.count, ResetAt: w.resetAt}, nil
}

// Sweep removes windows that have expired and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, k)
			n++
		}
	}
	entriesGauge.Set(float64(len(s.windows)))
	return n
}

// Len reports the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("ratelimit sweep")
			}
		}
	}
}
