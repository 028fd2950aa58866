// Package record decodes one ndjson line into a loosely typed object
// Numbers stay json.Number so passthrough and re-encoding never lose precision
package record

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	perr "dumpsift/internal/platform/errors"
)

// Record is one decoded line; read only once parsed
type Record map[string]any

// CreatedField holds the creation time as unix seconds
const CreatedField = "created_utc"

// Parse decodes line as a single JSON object
// Anything else (arrays, scalars, trailing data) is a JSON error
func Parse(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode line")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, perr.JSONErrf("trailing data after object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, perr.JSONErrf("line is not an object")
	}
	return Record(obj), nil
}

// Lookup returns the raw value for field and whether the key exists
// A present key holding null returns (nil, true)
func (r Record) Lookup(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// Require returns the value for field or a missing field error
func (r Record) Require(field string) (any, error) {
	v, ok := r[field]
	if !ok {
		return nil, perr.MissingField(field)
	}
	return v, nil
}

// Text renders a scalar the way it appeared in the source
// Strings come back as is, numbers as their literal, bools as true/false, null as ""
// ok is false for nested objects and arrays
func Text(v any) (s string, ok bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// String returns the text of field, "" when absent or nested
func (r Record) String(field string) string {
	s, _ := Text(r[field])
	return s
}

// Created returns the creation time in unix seconds
// Fractional values are truncated; numeric strings are accepted
func (r Record) Created() (int64, error) {
	v, err := r.Require(CreatedField)
	if err != nil {
		return 0, err
	}
	var lit string
	switch t := v.(type) {
	case json.Number:
		lit = t.String()
	case string:
		lit = strings.TrimSpace(t)
	case float64:
		return int64(t), nil
	default:
		return 0, perr.WithField(perr.Validationf("%s has type %T", CreatedField, v), CreatedField)
	}
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, perr.WithField(perr.Validationf("%s is not a number: %q", CreatedField, lit), CreatedField)
	}
	return int64(f), nil
}

// Canonical re-encodes the record as compact JSON with sorted keys and no HTML escaping
func (r Record) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(r)); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode record")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
