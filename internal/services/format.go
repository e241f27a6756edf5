package services

import (
	"strings"
	"time"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// DefaultBrand prefixes lead headers and subjects.
const DefaultBrand = "BITX"

// FormatLead renders l as the plain-text block sent to every channel. Empty
// optional fields are omitted. at is stamped as the formatting time.
func FormatLead(brand string, l domain.Lead, at time.Time) string {
	if brand == "" {
		brand = DefaultBrand
	}
	lines := []string{brand + " Lead (" + l.Locale.Upper() + ")"}
	add := func(label, v string) {
		if v != "" {
			lines = append(lines, label+": "+v)
		}
	}

	add("ClientId", l.ClientID)
	add("Project type", string(l.ProjectType))
	add("UTM", l.UTM.Join("&"))
	add("Attribution", l.Attribution.Join(" | "))
	lines = append(lines,
		"Name: "+l.Name,
		"Contact: "+l.Contact,
		"Message: "+l.Message,
	)
	add("Timeline", l.Timeline)
	add("Budget", l.Budget)
	lines = append(lines,
		"Source: Landing",
		"At: "+tracking.ISOTime(at),
	)
	return strings.Join(lines, "\n")
}

// LeadSubject is the email subject for a new lead.
func LeadSubject(brand string) string {
	if brand == "" {
		brand = DefaultBrand
	}
	return brand + " — New lead"
}
