package tracking

import (
	"time"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

// DecodeAttribution parses an attribution cookie value. Malformed input reads
// as absent.
func DecodeAttribution(value string) (domain.Attribution, bool) {
	if value == "" {
		return domain.Attribution{}, false
	}
	var a domain.Attribution
	if err := DecodeJSON(value, &a); err != nil {
		return domain.Attribution{}, false
	}
	return a, true
}

// TouchAttribution advances prev for a page visit at now. The first-touch
// fields are seeded only while FirstSeen is unset; LastSeen is always moved.
func TouchAttribution(prev domain.Attribution, landing, referrer string, now time.Time) domain.Attribution {
	ts := ISOTime(now)
	next := prev
	if next.FirstSeen == "" {
		next.LandingPage = landing
		next.Referrer = referrer
		next.FirstSeen = ts
	}
	next.LastSeen = ts
	return next
}
