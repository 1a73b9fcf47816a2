// Package model holds the domain types shared across the extraction pipeline,
// stores, and HTTP surface.
package model

import (
	"github.com/parkatlas/parkatlas/internal/fields"
)

// Record is one structured extraction result for a single park-source pair.
// For every field key it carries the value plus paired <key>SourceText and
// <key>SourceUrl entries, so its JSON form is exactly the wire contract.
type Record map[string]any

// Value returns the extracted value for a field key.
func (r Record) Value(key string) any {
	return r[key]
}

// SourceText returns the verbatim evidence excerpt for a field key.
func (r Record) SourceText(key string) string {
	s, _ := r[fields.SourceTextKey(key)].(string)
	return s
}

// SourceURL returns the URL the field value was sourced from.
func (r Record) SourceURL(key string) string {
	s, _ := r[fields.SourceURLKey(key)].(string)
	return s
}

// SetField overwrites a field's value and evidence in place.
func (r Record) SetField(key string, value any, sourceText, sourceURL string) {
	r[key] = value
	r[fields.SourceTextKey(key)] = sourceText
	r[fields.SourceURLKey(key)] = sourceURL
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Number returns the field value as a float64, or the numeric sentinel when
// the value is absent or not numeric.
func (r Record) Number(key string) float64 {
	switch n := r[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return -1
}

// String returns the field value as a string, or "" when absent.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}
