package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotObject is returned when a Pairs value is decoded from JSON that is not
// an object.
var ErrNotObject = errors.New("json value is not an object")

// Pair is a single string key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an insertion-ordered string map. It is used for UTM snapshots and
// free-form attribution objects, where the order the browser sent keys in is
// the order they are rendered back to humans.
type Pairs []Pair

// Get returns the value stored under key.
func (p Pairs) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place or appends a new entry.
func (p *Pairs) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Pair{Key: key, Value: value})
}

// Join renders entries with a non-empty value as key=value, separated by sep.
func (p Pairs) Join(sep string) string {
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		if kv.Value == "" {
			continue
		}
		parts = append(parts, kv.Key+"="+kv.Value)
	}
	return strings.Join(parts, sep)
}

// MarshalJSON encodes p as a JSON object, keeping entry order.
func (p Pairs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Entries whose value
// is not a JSON string are dropped. Anything other than an object yields
// ErrNotObject.
func (p *Pairs) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}

	out := Pairs{}
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
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		out.Set(key, s)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}
