package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validObject builds an object satisfying the given variant with plausible
// values for every key.
func validObject(v Variant) map[string]any {
	obj := map[string]any{}
	for _, s := range Specs() {
		if s.Type == TypeString {
			obj[s.Key] = "https://example.org"
		} else {
			obj[s.Key] = float64(42)
		}
		if v == WithEvidenceText || v == WithEvidenceTextAndURL {
			obj[SourceTextKey(s.Key)] = "verbatim evidence"
		}
		if v == WithEvidenceTextAndURL {
			obj[SourceURLKey(s.Key)] = "https://en.wikipedia.org/wiki/Park"
		}
	}
	return obj
}

func TestBuildSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		variant  Variant
		wantKeys int
	}{
		{"bare", Bare, 9},
		{"with evidence text", WithEvidenceText, 18},
		{"with evidence text and url", WithEvidenceTextAndURL, 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			schema := BuildSchema(tt.variant)

			assert.Equal(t, "object", schema["type"])
			props := schema["properties"].(map[string]any)
			required := schema["required"].([]string)
			assert.Len(t, props, tt.wantKeys)
			assert.Len(t, required, tt.wantKeys)

			// every property is required
			for _, key := range required {
				assert.Contains(t, props, key)
			}
		})
	}
}

func TestSingleField(t *testing.T) {
	t.Parallel()

	t.Run("projects one field and its evidence keys", func(t *testing.T) {
		t.Parallel()
		schema, err := SingleField("area")
		require.NoError(t, err)

		props := schema["properties"].(map[string]any)
		assert.Len(t, props, 3)
		assert.Contains(t, props, "area")
		assert.Contains(t, props, "areaSourceText")
		assert.Contains(t, props, "areaSourceUrl")
		assert.ElementsMatch(t, []string{"area", "areaSourceText", "areaSourceUrl"}, schema["required"])
	})

	t.Run("unknown field errors", func(t *testing.T) {
		t.Parallel()
		_, err := SingleField("elevation")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid object passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(WithEvidenceText, validObject(WithEvidenceText)))
	})

	t.Run("missing key fails", func(t *testing.T) {
		t.Parallel()
		obj := validObject(Bare)
		delete(obj, "area")
		err := Validate(Bare, obj)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"area"`)
	})

	t.Run("wrong type fails", func(t *testing.T) {
		t.Parallel()
		obj := validObject(Bare)
		obj["establishedYear"] = "1916"
		err := Validate(Bare, obj)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected number")
	})

	t.Run("aggregates every problem", func(t *testing.T) {
		t.Parallel()
		obj := validObject(Bare)
		delete(obj, "area")
		obj["level"] = "two"
		err := Validate(Bare, obj)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"area"`)
		assert.Contains(t, err.Error(), `"level"`)
	})

	t.Run("integer widths accepted for numbers", func(t *testing.T) {
		t.Parallel()
		obj := validObject(Bare)
		obj["establishedYear"] = int64(1916)
		obj["level"] = 2
		assert.NoError(t, Validate(Bare, obj))
	})
}

func TestValidateSingle(t *testing.T) {
	t.Parallel()

	valid := map[string]any{
		"area":           float64(8983),
		"areaSourceText": "covers 8,983 square kilometers",
		"areaSourceUrl":  "https://en.wikipedia.org/wiki/Yellowstone",
	}

	t.Run("valid object passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateSingle("area", valid))
	})

	t.Run("missing evidence key fails", func(t *testing.T) {
		t.Parallel()
		obj := map[string]any{
			"area":           float64(8983),
			"areaSourceText": "covers 8,983 square kilometers",
		}
		assert.Error(t, ValidateSingle("area", obj))
	})

	t.Run("unknown field fails", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidateSingle("elevation", valid))
	})
}
