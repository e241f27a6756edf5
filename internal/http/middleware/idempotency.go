// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for lead submissions. A
// browser that retries a submission after a network error resends the same
// key. When a receipt for that key exists the request is flagged as a replay,
// so the handler answers with the recorded outcome and the lead is not
// delivered twice.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen key of a submission.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdem       = "idem.state"
	ctxKeyRateBypass = "rate.bypass"
)

const defaultIdemMaxLen = 200

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// idemState is what IdempotencyValidator learned about the request.
type idemState struct {
	key    string
	scope  string
	replay bool
}

func idemFrom(c *gin.Context) idemState {
	st, _ := c.Value(ctxKeyIdem).(idemState)
	return st
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	k := idemFrom(c).key
	return k, k != ""
}

// GetIdempotencyScope returns the client scope the key belongs to.
func GetIdempotencyScope(c *gin.Context) string {
	return idemFrom(c).scope
}

// IsReplay reports whether a receipt exists for the key in this scope.
func IsReplay(c *gin.Context) bool {
	return idemFrom(c).replay
}

// IdempotencyOptions bounds what a key may look like. Receipt expiry is the
// lookup's business.
type IdempotencyOptions struct {
	// MaxLen defaults to 200.
	MaxLen int
	// Pattern defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether an unexpired receipt exists for
// (scope, key) at now.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header of unsafe requests
// and records key, scope and replay status for the handler. Replays are also
// exempted from the token bucket.
//
// Requests with a safe method or without the header pass untouched. A
// malformed key is rejected with 400 {"ok":false,"error":"bad_idempotency_key"}.
// A failing lookup is logged and counts as a miss, so the lead is processed.
// A nil lookup disables replay detection.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad_idempotency_key"})
			return
		}

		st := idemState{key: key, scope: ClientScope(c)}
		if lookup != nil {
			found, err := lookup(c.Request.Context(), st.scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Str("scope", st.scope).Msg("idempotency lookup failed")
			}
			st.replay = found && err == nil
		}
		c.Set(ctxKeyIdem, st)
		if st.replay {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
