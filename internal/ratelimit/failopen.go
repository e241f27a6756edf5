package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bitx-studio/landing-backend/internal/sysutil"
)

// FailOpen wraps a Store so backend errors admit the request instead of
// failing it. The fallback decision reports a full window from now.
type FailOpen struct {
	Store  Store
	Policy Policy
}

// Hit implements Store and never returns an error.
func (f FailOpen) Hit(ctx context.Context, key string) (Decision, error) {
	d, err := f.Store.Hit(ctx, key)
	if err == nil {
		return d, nil
	}
	sysutil.Logger(ctx).Warn().Err(err).Str("key_hash", keyDigest(key)).Msg("ratelimit backend unavailable; allowing")
	p := f.Policy.normalized()
	return Decision{Allowed: true, Remaining: p.Limit - 1, ResetAt: time.Now().Add(p.Window)}, nil
}

// keyDigest identifies a limiter key in logs without exposing the client id
// and IP it is built from.
func keyDigest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:6])
}
