package tracking

import (
	"net/http"
	"time"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

// Capture stamps the tracking cookies onto an outgoing response. Every step
// is idempotent and never fails the request: unreadable cookies are treated
// as missing and rewritten.
type Capture struct {
	Cookies CookieOptions
	// Now defaults to time.Now.
	Now func() time.Time
}

// Apply sets the locale cookie and runs UTM capture, attribution capture and
// client-id provisioning, in that order.
func (c Capture) Apply(w http.ResponseWriter, r *http.Request, l domain.Locale) {
	now := c.now()
	http.SetCookie(w, c.Cookies.NewCookie(LocaleCookie, string(l), LocaleMaxAge))
	c.captureUTM(w, r)
	c.captureAttribution(w, r, now)
	c.ensureClientID(w, r, now)
}

func (c Capture) captureUTM(w http.ResponseWriter, r *http.Request) {
	utm := CaptureUTM(r.URL.Query())
	if len(utm) == 0 {
		return
	}
	v, err := EncodeJSON(utm)
	if err != nil {
		return
	}
	http.SetCookie(w, c.Cookies.NewCookie(UTMCookie, v, UTMMaxAge))
}

func (c Capture) captureAttribution(w http.ResponseWriter, r *http.Request, now time.Time) {
	prev, _ := DecodeAttribution(ReadCookie(r, AttrCookie))

	landing := r.URL.Path
	if r.URL.RawQuery != "" {
		landing += "?" + r.URL.RawQuery
	}
	next := TouchAttribution(prev, landing, r.Referer(), now)

	v, err := EncodeJSON(next)
	if err != nil {
		return
	}
	http.SetCookie(w, c.Cookies.NewCookie(AttrCookie, v, AttrMaxAge))
}

func (c Capture) ensureClientID(w http.ResponseWriter, r *http.Request, now time.Time) {
	if ReadCookie(r, ClientIDCookie) != "" {
		return
	}
	http.SetCookie(w, c.Cookies.NewCookie(ClientIDCookie, NewClientID(now), ClientIDMaxAge))
}

func (c Capture) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
