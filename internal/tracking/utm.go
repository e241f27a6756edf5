package tracking

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bitx-studio/landing-backend/internal/domain"
)

// UTMKeys are the marketing query parameters captured into the UTM cookie,
// in capture order.
var UTMKeys = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"gclid",
	"fbclid",
}

// MaxUTMValue caps every captured UTM value, in characters.
const MaxUTMValue = 120

// CaptureUTM extracts the recognized marketing parameters from q. Values are
// trimmed and capped; empty values are ignored. The result is empty when the
// query carries none of them, in which case the existing cookie must be left
// alone.
func CaptureUTM(q url.Values) domain.Pairs {
	var out domain.Pairs
	for _, k := range UTMKeys {
		v := strings.TrimSpace(q.Get(k))
		if v == "" {
			continue
		}
		out = append(out, domain.Pair{Key: k, Value: Truncate(v, MaxUTMValue)})
	}
	return out
}

// DecodeUTM parses a UTM cookie value. Malformed input reads as absent.
func DecodeUTM(value string) (domain.Pairs, bool) {
	if value == "" {
		return nil, false
	}
	var p domain.Pairs
	if err := DecodeJSON(value, &p); err != nil {
		return nil, false
	}
	return p, true
}

// Truncate caps s at max characters (runes).
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
