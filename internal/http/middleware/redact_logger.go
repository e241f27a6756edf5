// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger. Lead forms carry
// names, emails and phone numbers, so request bodies are never logged and
// query strings, headers and referers pass through a scrubber first.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger.
//
// MaskHeaders adds headers whose values are dropped entirely, on top of
// Authorization, Cookie and Set-Cookie. Names are case-insensitive.
// SkipPaths are served with a request logger attached but produce no access
// line; probes like /health and /metrics belong here.
type RedactOptions struct {
	MaskHeaders []string
	SkipPaths   []string
}

const (
	maskedValue = "[REDACTED]"

	// maxQueryLogLength caps the logged query string, in bytes.
	maxQueryLogLength = 2048
)

// Patterns are applied in this order. Client ids are UUIDs whose digit
// groups the loose phone pattern would otherwise eat.
var piiPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

// scrubber removes personal data from values headed for the access log.
type scrubber struct {
	masked map[string]struct{}
}

func newScrubber(extra []string) scrubber {
	s := scrubber{masked: map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			s.masked[h] = struct{}{}
		}
	}
	return s
}

// text replaces client ids, emails and phone numbers inside v.
func (s scrubber) text(v string) string {
	for _, p := range piiPatterns {
		if v == "" {
			break
		}
		v = p.re.ReplaceAllString(v, p.repl)
	}
	return v
}

// headers flattens h, masking sensitive headers and scrubbing the rest.
func (s scrubber) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := s.masked[strings.ToLower(k)]; ok {
			out[k] = maskedValue
			continue
		}
		out[k] = s.text(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger attaches the request-scoped logger and writes one
// "http_request" line per request once the handler chain has finished.
// Headers and query are captured before the chain runs, so handlers that
// rewrite the request do not change what is logged.
//
// The line is logged at error when the chain recorded gin errors or answered
// 5xx, at warn for 4xx, and at info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	scrub := newScrubber(opts.MaskHeaders)
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		rid := GetRequestID(c)
		if rid == "" {
			rid = c.GetHeader(requestIDHeader)
		}
		attachLogger(c, log.With().Str("request_id", rid).Logger())

		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		query := truncate(scrub.text(c.Request.URL.RawQuery), maxQueryLogLength)
		referer := scrub.text(c.Request.Referer())
		headers := scrub.headers(c.Request.Header)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		accessEvent(c).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Str("referer", referer).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// accessEvent picks the log level for a finished request.
func accessEvent(c *gin.Context) *zerolog.Event {
	lg := LoggerFrom(c)
	status := c.Writer.Status()
	switch {
	case len(c.Errors) > 0:
		return lg.Error().Str("errors", c.Errors.String())
	case status >= http.StatusInternalServerError:
		return lg.Error()
	case status >= http.StatusBadRequest:
		return lg.Warn()
	}
	return lg.Info()
}

// truncate cuts s to n bytes and appends an ellipsis. n <= 0 disables it.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
