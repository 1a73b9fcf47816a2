package fields

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Variant selects which paired evidence keys a schema carries.
type Variant string

const (
	// Bare maps every field key to its value type only.
	Bare Variant = "bare"
	// WithEvidenceText additionally pairs each field with a <key>SourceText string.
	WithEvidenceText Variant = "withEvidenceText"
	// WithEvidenceTextAndURL additionally pairs each field with
	// <key>SourceText and <key>SourceUrl strings.
	WithEvidenceTextAndURL Variant = "withEvidenceTextAndUrl"
)

// BuildSchema constructs the JSON Schema for a variant. Every key is
// required; there is no partial acceptance.
func BuildSchema(v Variant) map[string]any {
	properties := map[string]any{}
	var required []string

	for _, s := range specs {
		properties[s.Key] = map[string]any{
			"type":        string(s.Type),
			"description": s.Description,
		}
		required = append(required, s.Key)

		if v == WithEvidenceText || v == WithEvidenceTextAndURL {
			properties[SourceTextKey(s.Key)] = map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("Evidence text for %s; empty string if not found.", s.Key),
			}
			required = append(required, SourceTextKey(s.Key))
		}
		if v == WithEvidenceTextAndURL {
			properties[SourceURLKey(s.Key)] = map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("URL source for %s; empty string if not found.", s.Key),
			}
			required = append(required, SourceURLKey(s.Key))
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// SingleField projects the full evidence+URL schema down to one field and its
// paired evidence keys, so a constrained call cannot populate unrelated
// fields.
func SingleField(key string) (map[string]any, error) {
	s, ok := Get(key)
	if !ok {
		return nil, eris.New(fmt.Sprintf("fields: unknown field %q", key))
	}

	full := BuildSchema(WithEvidenceTextAndURL)
	fullProps := full["properties"].(map[string]any)

	keep := []string{s.Key, SourceTextKey(s.Key), SourceURLKey(s.Key)}
	properties := make(map[string]any, len(keep))
	for _, k := range keep {
		properties[k] = fullProps[k]
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   keep,
	}, nil
}

// Validate checks a decoded object against a schema variant: every expected
// key must be present with the declared type. Any violation is a hard error.
func Validate(v Variant, obj map[string]any) error {
	var problems []string

	check := func(key string, t ValueType) {
		val, ok := obj[key]
		if !ok || val == nil {
			problems = append(problems, fmt.Sprintf("missing key %q", key))
			return
		}
		switch t {
		case TypeString:
			if _, ok := val.(string); !ok {
				problems = append(problems, fmt.Sprintf("key %q: expected string, got %T", key, val))
			}
		case TypeNumber:
			switch val.(type) {
			case float64, int, int64:
			default:
				problems = append(problems, fmt.Sprintf("key %q: expected number, got %T", key, val))
			}
		}
	}

	for _, s := range specs {
		check(s.Key, s.Type)
		if v == WithEvidenceText || v == WithEvidenceTextAndURL {
			check(SourceTextKey(s.Key), TypeString)
		}
		if v == WithEvidenceTextAndURL {
			check(SourceURLKey(s.Key), TypeString)
		}
	}

	if len(problems) > 0 {
		return eris.New("fields: schema validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

// ValidateSingle checks a decoded object against the single-field projection
// for key.
func ValidateSingle(key string, obj map[string]any) error {
	s, ok := Get(key)
	if !ok {
		return eris.New(fmt.Sprintf("fields: unknown field %q", key))
	}

	var problems []string

	val, present := obj[s.Key]
	if !present || val == nil {
		problems = append(problems, fmt.Sprintf("missing key %q", s.Key))
	} else if s.Type == TypeString {
		if _, ok := val.(string); !ok {
			problems = append(problems, fmt.Sprintf("key %q: expected string, got %T", s.Key, val))
		}
	} else {
		switch val.(type) {
		case float64, int, int64:
		default:
			problems = append(problems, fmt.Sprintf("key %q: expected number, got %T", s.Key, val))
		}
	}

	for _, k := range []string{SourceTextKey(key), SourceURLKey(key)} {
		v, present := obj[k]
		if !present || v == nil {
			problems = append(problems, fmt.Sprintf("missing key %q", k))
			continue
		}
		if _, ok := v.(string); !ok {
			problems = append(problems, fmt.Sprintf("key %q: expected string, got %T", k, v))
		}
	}

	if len(problems) > 0 {
		return eris.New("fields: schema validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}
