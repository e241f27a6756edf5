package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bitx-studio/landing-backend/internal/domain"
	"github.com/bitx-studio/landing-backend/internal/tracking"
)

// Field caps, in characters.
const (
	MaxName        = 120
	MaxContact     = 200
	MaxMessage     = 1200
	MaxTimeline    = 120
	MaxBudget      = 120
	MaxProjectType = 20
	MaxClientID    = 80
	MaxHoneypot    = 200
	MaxUTMValue    = 120
	MaxAttrValue   = 300
)

// Minimum lengths, in characters, after trimming.
const (
	MinName    = 2
	MinContact = 3
	MinMessage = 5
)

// NoClientID stands in for a missing client identifier.
const NoClientID = "no_cid"

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LeadForm is a decoded but untyped submission body. Each field is decoded on
// demand so every field can apply its own type rule.
type LeadForm map[string]json.RawMessage

// ParseLeadForm decodes body into a LeadForm. Anything but a JSON object is
// ErrMalformedBody.
func ParseLeadForm(body []byte) (LeadForm, error) {
	var f LeadForm
	if err := json.Unmarshal(body, &f); err != nil || f == nil {
		return nil, ErrMalformedBody
	}
	return f, nil
}

// Honeypot reports whether the hidden decoy field was filled. Any non-null,
// non-string value counts as filled.
func (f LeadForm) Honeypot() bool {
	raw, ok := f.field("hp")
	if !ok {
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return true
	}
	return clean(s, MaxHoneypot) != ""
}

// ClientID returns the capped client identifier, or NoClientID.
func (f LeadForm) ClientID() (string, error) {
	cid, err := f.text("clientId", MaxClientID)
	if err != nil {
		return "", err
	}
	if cid == "" {
		return NoClientID, nil
	}
	return cid, nil
}

// Lead normalizes the form into a domain.Lead. Text fields must be strings
// (or absent/null); projectType and locale fall back silently; utm and
// attribution keep only string entries of an object.
func (f LeadForm) Lead(clientID string) (domain.Lead, error) {
	var (
		l   domain.Lead
		err error
	)
	fields := []struct {
		key string
		max int
		dst *string
	}{
		{"name", MaxName, &l.Name},
		{"contact", MaxContact, &l.Contact},
		{"message", MaxMessage, &l.Message},
		{"timeline", MaxTimeline, &l.Timeline},
		{"budget", MaxBudget, &l.Budget},
	}
	for _, fd := range fields {
		if *fd.dst, err = f.text(fd.key, fd.max); err != nil {
			return domain.Lead{}, err
		}
	}

	l.ProjectType = f.projectType()
	l.UTM = f.pairs("utm", MaxUTMValue)
	l.Attribution = f.pairs("attribution", MaxAttrValue)
	l.ClientID = clientID
	l.Locale = f.locale()
	return l, nil
}

// ValidateLead enforces minimum lengths and the contact email shape.
func ValidateLead(l domain.Lead) error {
	if utf8.RuneCountInString(l.Name) < MinName ||
		utf8.RuneCountInString(l.Contact) < MinContact ||
		utf8.RuneCountInString(l.Message) < MinMessage {
		return ErrValidation
	}
	if strings.Contains(l.Contact, "@") && !emailRe.MatchString(l.Contact) {
		return ErrBadEmail
	}
	return nil
}

func (f LeadForm) field(key string) (json.RawMessage, bool) {
	raw, ok := f[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (f LeadForm) text(key string, max int) (string, error) {
	raw, ok := f.field(key)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrValidation, key)
	}
	return clean(s, max), nil
}

func (f LeadForm) projectType() domain.ProjectType {
	raw, ok := f.field("projectType")
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	pt, _ := domain.ParseProjectType(clean(s, MaxProjectType))
	return pt
}

func (f LeadForm) pairs(key string, max int) domain.Pairs {
	raw, ok := f.field(key)
	if !ok {
		return nil
	}
	var in domain.Pairs
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil
	}
	out := domain.Pairs{}
	for _, kv := range in {
		if v := clean(kv.Value, max); v != "" {
			out.Set(kv.Key, v)
		}
	}
	return out
}

func (f LeadForm) locale() domain.Locale {
	raw, ok := f.field("locale")
	if !ok {
		return domain.LocaleRU
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && s == string(domain.LocaleEN) {
		return domain.LocaleEN
	}
	return domain.LocaleRU
}

func clean(s string, max int) string {
	return tracking.Truncate(strings.TrimSpace(s), max)
}
