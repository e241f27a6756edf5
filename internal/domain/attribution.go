package domain

import (
	"bytes"
	"encoding/json"
)

const (
	attrLandingPage = "landing_page"
	attrReferrer    = "referrer"
	attrFirstSeen   = "first_seen_ts"
	attrLastSeen    = "last_seen_ts"
)

// RawField is a JSON object member kept as it was read.
type RawField struct {
	Key   string
	Value json.RawMessage
}

// Attribution is the first-touch/last-touch snapshot kept in the visitor's
// attribution cookie. LandingPage, Referrer and FirstSeen are written once;
// LastSeen moves forward on every page request.
//
// Timestamps are ISO-8601 strings (UTC, millisecond precision) so the cookie
// stays readable by page scripts without any parsing on their side.
type Attribution struct {
	LandingPage string
	Referrer    string
	FirstSeen   string
	LastSeen    string

	// Extra holds members set by page scripts. They survive re-encoding
	// untouched and in their original order.
	Extra []RawField
}

// MarshalJSON writes the known members first, then Extra.
func (a Attribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	member := func(key string, raw []byte) {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
	}
	str := func(key, v string, omitEmpty bool) {
		if v == "" && omitEmpty {
			return
		}
		b, _ := json.Marshal(v)
		member(key, b)
	}

	str(attrLandingPage, a.LandingPage, true)
	str(attrReferrer, a.Referrer, false)
	str(attrFirstSeen, a.FirstSeen, true)
	str(attrLastSeen, a.LastSeen, true)
	for _, f := range a.Extra {
		if !json.Valid(f.Value) {
			continue
		}
		member(f.Key, f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object. Known members that are not strings read
// as empty; unknown members of any type go to Extra. Anything other than an
// object yields ErrNotObject.
func (a *Attribution) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}

	var out Attribution
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var dst *string
		switch key {
		case attrLandingPage:
			dst = &out.LandingPage
		case attrReferrer:
			dst = &out.Referrer
		case attrFirstSeen:
			dst = &out.FirstSeen
		case attrLastSeen:
			dst = &out.LastSeen
		default:
			out.setExtra(key, raw)
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			*dst = s
		} else {
			*dst = ""
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// setExtra keeps the last value of a repeated key at its first position.
func (a *Attribution) setExtra(key string, raw json.RawMessage) {
	for i := range a.Extra {
		if a.Extra[i].Key == key {
			a.Extra[i].Value = raw
			return
		}
	}
	a.Extra = append(a.Extra, RawField{Key: key, Value: raw})
}
