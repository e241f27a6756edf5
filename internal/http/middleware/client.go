// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves who is calling: the proxy-reported IP address and the
// long-lived client id cookie set by EdgeClassifier.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// UnknownIP is reported when no proxy header names the caller.
const UnknownIP = "unknown"

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then
// UnknownIP. The service is expected to run behind a proxy that sets these
// headers; the socket address is deliberately not consulted.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownIP
}

// ClientScope identifies the browser for per-client bookkeeping: the client
// id cookie when present, otherwise the caller IP.
func ClientScope(c *gin.Context) string {
	if cid := strings.TrimSpace(tracking.ReadCookie(c.Request, tracking.ClientIDCookie)); cid != "" {
		return "cid:" + cid
	}
	return "ip:" + ClientIP(c.Request)
}
