// Package payload gives presence-aware access to a JSON object body. Update
// endpoints only touch the columns a client actually sent, so they need to
// tell "absent" apart from "empty" without reflection.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fields is a decoded JSON object keyed by member name.
type Fields map[string]json.RawMessage

// Decode reads a JSON object from r. An empty body or a non-object value is
// an error.
func Decode(r io.Reader) (Fields, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a JSON object from raw bytes.
func Parse(raw []byte) (Fields, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	var f Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	return f, nil
}

// Has reports whether key is present with a non-null value.
func (f Fields) Has(key string) bool {
	raw, ok := f[key]
	if !ok {
		return false
	}
	return !isNull(raw)
}

// String returns the member as a string. Numbers and booleans are accepted
// and rendered in their JSON text form, as loosely typed clients send them.
func (f Fields) String(key string) (string, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "true" || trimmed == "false" || isNumber(trimmed) {
		return trimmed, nil
	}
	return "", fmt.Errorf("field %s must be a string", key)
}

// NonEmpty reports whether key is present and holds a value that is not
// blank, false, zero or an empty array/object.
func (f Fields) NonEmpty(key string) bool {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return false
	}
	switch t := strings.TrimSpace(string(raw)); t {
	case `""`, "false", "0", "[]", "{}", `"0"`:
		return false
	default:
		if strings.HasPrefix(t, "[") {
			var arr []json.RawMessage
			if json.Unmarshal(raw, &arr) == nil {
				return len(arr) > 0
			}
		}
		return true
	}
}

// Bool accepts true/false, 0/1 and their string forms.
func (f Fields) Bool(key string) (bool, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	s, err := f.String(key)
	if err != nil {
		return false, fmt.Errorf("field %s must be a boolean", key)
	}
	return ParseBool(s)
}

// Int64 accepts a JSON number or a numeric string.
func (f Fields) Int64(key string) (int64, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return 0, nil
	}
	s, err := f.String(key)
	if err != nil {
		return 0, fmt.Errorf("field %s must be an integer", key)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s must be an integer", key)
	}
	return n, nil
}

// Strings decodes an array of strings. A single string is returned as a
// one-element slice.
func (f Fields) Strings(key string) ([]string, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}, nil
	}
	return nil, fmt.Errorf("field %s must be an array of strings", key)
}

// Objects decodes an array of JSON objects.
func (f Fields) Objects(key string) ([]Fields, error) {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("field %s must be an array", key)
	}
	out := make([]Fields, 0, len(list))
	for i, item := range list {
		if isNull(item) {
			out = append(out, Fields{})
			continue
		}
		var obj Fields
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("field %s[%d] must be an object", key, i)
		}
		out = append(out, obj)
	}
	return out, nil
}

// ParseBool accepts the spellings clients use for flags in query strings
// and JSON bodies.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "da", "on":
		return true, nil
	case "0", "false", "f", "no", "nu", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
