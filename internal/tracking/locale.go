package tracking

import (
	"strings"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

// LocaleFromPath returns the locale named by the first path segment, if any.
// "/en", "/en/" and "/en/pricing" all yield en; "/english" yields nothing.
func LocaleFromPath(path string) (domain.Locale, bool) {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	return domain.ParseLocale(seg)
}

// LocaleFromAcceptLanguage picks English when the header mentions "en"
// anywhere. Russian is never inferred from the header; it is the default.
func LocaleFromAcceptLanguage(header string) (domain.Locale, bool) {
	if header == "" {
		return "", false
	}
	if strings.Contains(strings.ToLower(header), "en") {
		return domain.LocaleEN, true
	}
	return "", false
}

// NegotiateLocale resolves the locale for an un-prefixed path by priority:
// a valid locale cookie, then Accept-Language, then def.
func NegotiateLocale(cookie, acceptLanguage string, def domain.Locale) domain.Locale {
	if l, ok := domain.ParseLocale(cookie); ok {
		return l
	}
	if l, ok := LocaleFromAcceptLanguage(acceptLanguage); ok {
		return l
	}
	if _, ok := domain.ParseLocale(string(def)); ok {
		return def
	}
	return domain.DefaultLocale
}

// LocalizedPath prefixes path with the locale segment. The root path maps to
// "/<locale>" without a trailing slash.
func LocalizedPath(l domain.Locale, path string) string {
	if path == "/" || path == "" {
		return "/" + string(l)
	}
	return "/" + string(l) + path
}
