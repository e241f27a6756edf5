// Package domain defines the core types shared by the tracking, service and
// HTTP layers: locales, lead records, attribution snapshots and the
// persistence model for submission receipts.
package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Locale is one of the two languages the landing site is published in.
type Locale string

const (
	LocaleRU Locale = "ru"
	LocaleEN Locale = "en"
)

// DefaultLocale is used whenever a request carries no usable locale signal.
const DefaultLocale = LocaleRU

// Locales lists every supported locale in display order.
var Locales = []Locale{LocaleRU, LocaleEN}

// ParseLocale reports whether s names a supported locale. Matching is exact:
// "EN" or " en" are not locales.
func ParseLocale(s string) (Locale, bool) {
	switch Locale(s) {
	case LocaleRU, LocaleEN:
		return Locale(s), true
	}
	return "", false
}

// Tag returns the BCP 47 tag for l.
func (l Locale) Tag() language.Tag {
	if l == LocaleEN {
		return language.English
	}
	return language.Russian
}

// Upper returns the locale code upper-cased, e.g. "EN".
func (l Locale) Upper() string {
	return cases.Upper(language.Und).String(strings.TrimSpace(string(l)))
}

// String implements fmt.Stringer.
func (l Locale) String() string { return string(l) }
