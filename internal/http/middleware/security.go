// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the hardening headers sent with pages
// and API responses alike. API answers must never be cached by browsers or
// proxies, while pages stay cacheable, so cache suppression is scoped by
// path prefix.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultReferrerPolicy keeps the origin on cross-site navigation, which
// outbound links from the landing rely on for attribution.
const DefaultReferrerPolicy = "strict-origin-when-cross-origin"

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests, either
	// direct TLS or X-Forwarded-Proto: https. Plain HTTP never gets it.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days.
	HSTSMaxAge time.Duration
	// NoStore disables caching for every response; NoStorePrefixes for
	// paths under the given prefixes only.
	NoStore         bool
	NoStorePrefixes []string
	// EnablePolicy sends Permissions-Policy and
	// X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// ReferrerPolicy defaults to DefaultReferrerPolicy.
	ReferrerPolicy string
}

// SecurityHeaders sets the headers before the handler runs so that error
// envelopes written by later middleware carry them too.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	always := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", firstNonBlank(opt.ReferrerPolicy, DefaultReferrerPolicy)},
	}
	if opt.EnablePolicy {
		always = append(always,
			[2]string{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			[2]string{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	noStore := [][2]string{
		{"Cache-Control", "no-store"},
		{"Pragma", "no-cache"},
		{"Expires", "0"},
	}
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		setAll(h, always)
		if opt.NoStore || hasAnyPrefix(c.Request.URL.Path, opt.NoStorePrefixes) {
			setAll(h, noStore)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}
		c.Next()
	}
}

func setAll(h http.Header, kv [][2]string) {
	for _, p := range kv {
		h.Set(p[0], p[1])
	}
}

// exposeHeader adds name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

// isHTTPS reports whether r arrived over TLS, directly or via a proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// hasAnyPrefix matches p against prefixes on segment boundaries, so "/api"
// covers "/api" and "/api/lead" but not "/apiary".
func hasAnyPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		pre = strings.TrimRight(pre, "/")
		if pre != "" && (p == pre || strings.HasPrefix(p, pre+"/")) {
			return true
		}
	}
	return false
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
