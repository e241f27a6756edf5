// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements EdgeClassifier, which runs before any page is served.
// Requests for assets, internal endpoints and the API pass untouched. Page
// requests carrying a locale segment get their tracking cookies refreshed;
// page requests without one are redirected to the negotiated locale.
package middleware

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// DefaultSkipPrefixes are path namespaces never classified as pages.
var DefaultSkipPrefixes = []string{
	"/api",
	"/_next",
	"/assets",
	"/static",
	"/favicon",
	"/health",
	"/metrics",
	"/swagger",
}

// fileExtRe matches any path containing a dot, i.e. a file request.
var fileExtRe = regexp.MustCompile(`\.(.*)$`)

// EdgeOptions configures EdgeClassifier.
type EdgeOptions struct {
	// DefaultLocale is used when neither cookie nor Accept-Language decide.
	DefaultLocale domain.Locale
	// Capture writes the tracking cookies.
	Capture tracking.Capture
	// SkipPrefixes replaces DefaultSkipPrefixes when non-nil.
	SkipPrefixes []string
}

// EdgeClassifier returns the page-request classifier.
//
// Behavior:
//   - Skipped paths (see DefaultSkipPrefixes, or anything with a dot) pass.
//   - "/<locale>..." sets the locale cookie, runs UTM capture, attribution
//     capture and client-id provisioning, then passes to the next handler.
//   - Any other path is answered with 307 to "/<locale><path>" (the root maps
//     to "/<locale>"), query preserved, after the same cookie steps. The
//     locale comes from the cookie, then Accept-Language, then the default.
//
// Cookie decode failures are treated as missing cookies.
func EdgeClassifier(opts EdgeOptions) gin.HandlerFunc {
	skip := opts.SkipPrefixes
	if skip == nil {
		skip = DefaultSkipPrefixes
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipPath(path, skip) {
			c.Next()
			return
		}

		if l, ok := tracking.LocaleFromPath(path); ok {
			opts.Capture.Apply(c.Writer, c.Request, l)
			c.Next()
			return
		}

		l := tracking.NegotiateLocale(
			tracking.ReadCookie(c.Request, tracking.LocaleCookie),
			c.GetHeader("Accept-Language"),
			opts.DefaultLocale,
		)
		target := url.URL{Path: tracking.LocalizedPath(l, path), RawQuery: c.Request.URL.RawQuery}

		opts.Capture.Apply(c.Writer, c.Request, l)
		c.Redirect(http.StatusTemporaryRedirect, target.String())
		c.Abort()
	}
}

func skipPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return fileExtRe.MatchString(path)
}
