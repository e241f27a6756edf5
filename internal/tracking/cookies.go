// Package tracking implements the visitor bookkeeping performed before any
// page is served: locale negotiation, the UTM and attribution snapshots and
// the long-lived client identifier. All state lives in cookies owned by the
// browser; nothing here keeps server-side session data.
package tracking

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie names shared with the page scripts that read them back.
const (
	LocaleCookie   = "bitx_locale"
	UTMCookie      = "bitx_utm"
	AttrCookie     = "bitx_attr"
	ClientIDCookie = "bitx_cid"
)

// Lifetimes of the tracking cookies.
const (
	LocaleMaxAge   = 180 * 24 * time.Hour
	UTMMaxAge      = 30 * 24 * time.Hour
	AttrMaxAge     = 30 * 24 * time.Hour
	ClientIDMaxAge = 180 * 24 * time.Hour
)

// CookieOptions controls attributes common to every tracking cookie.
type CookieOptions struct {
	// Secure marks cookies HTTPS-only. Enable in production.
	Secure bool
}

// NewCookie builds a root-scoped, Lax, script-readable cookie.
func (o CookieOptions) NewCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		SameSite: http.SameSiteLaxMode,
		Secure:   o.Secure,
		HttpOnly: false,
	}
}

// EncodeComponent escapes s the way browsers' encodeURIComponent does, so
// page scripts can decode the value with decodeURIComponent.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodeComponent reverses EncodeComponent. A literal '+' is kept as is,
// matching decodeURIComponent.
func DecodeComponent(s string) (string, error) {
	return url.PathUnescape(s)
}

// EncodeJSON marshals v and escapes it for use as a cookie value.
func EncodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return EncodeComponent(string(b)), nil
}

// DecodeJSON reverses EncodeJSON into v.
func DecodeJSON(value string, v any) error {
	raw, err := DecodeComponent(value)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// ReadCookie returns the raw value of the named request cookie, or "".
func ReadCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// ISOTime formats t like JavaScript's Date.toISOString.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
