// Package fields declares the canonical set of extractable park attributes,
// their sentinel semantics, and the JSON schemas used to constrain model
// output.
package fields

// ValueType is the JSON type of an extracted field value.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
)

// Spec declares one extractable park attribute. Specs are immutable and
// defined once at process start.
type Spec struct {
	Key         string
	Type        ValueType
	Description string
}

// Sentinel returns the value meaning "not found" for this field: the empty
// string for string fields, -1 for numeric fields.
func (s Spec) Sentinel() any {
	if s.Type == TypeString {
		return ""
	}
	return float64(-1)
}

// IsSentinel reports whether v is this field's not-found sentinel. Numeric
// comparisons accept the integer widths JSON decoding may produce. This is
// the only place sentinel literals are compared; callers never test raw -1.
func (s Spec) IsSentinel(v any) bool {
	if v == nil {
		return true
	}
	switch s.Type {
	case TypeString:
		str, ok := v.(string)
		return ok && str == ""
	case TypeNumber:
		switch n := v.(type) {
		case float64:
			return n == -1
		case int:
			return n == -1
		case int64:
			return n == -1
		}
	}
	return false
}

// specs is the canonical field order. It matches the numbered fact order in
// the page-text extraction prompt and the persisted column order.
var specs = []Spec{
	{
		Key:         "officialWebsite",
		Type:        TypeString,
		Description: "Official website URL of the park. Return an empty string if not found.",
	},
	{
		Key:         "level",
		Type:        TypeNumber,
		Description: "Level of the park: 2 if it is a World Heritage site, otherwise 1.",
	},
	{
		Key:         "speciesCount",
		Type:        TypeNumber,
		Description: "Total number of species in the park, including ALL ANIMAL and PLANT species. If the text gives separate counts for different groups (e.g. mammals, birds, fish, amphibians, reptiles, plants), sum them up. Return -1 if not stated.",
	},
	{
		Key:         "endangeredSpecies",
		Type:        TypeNumber,
		Description: "Count of endangered species listed in the IUCN Red List. Return -1 if not stated.",
	},
	{
		Key:         "forestCoverage",
		Type:        TypeNumber,
		Description: "Forest coverage percentage with one decimal place (e.g., 95.9). Return -1 if not stated.",
	},
	{
		Key:         "area",
		Type:        TypeNumber,
		Description: "Total area of the park in square kilometers. Convert to km² if another unit is provided. Return -1 if missing.",
	},
	{
		Key:         "establishedYear",
		Type:        TypeNumber,
		Description: "Year the park was established; use four digit format. Return -1 if the text does not contain it.",
	},
	{
		Key:         "internationalCert",
		Type:        TypeNumber,
		Description: "Whether the park is a World Heritage site or Biosphere Reserve (1=yes, 0=no). Return -1 if not stated.",
	},
	{
		Key:         "annualVisitors",
		Type:        TypeNumber,
		Description: "Annual visitors as an integer count of ten-thousands of people. Return -1 if not stated.",
	},
}

// Specs returns the field declarations in canonical order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Get returns the Spec for key.
func Get(key string) (Spec, bool) {
	for _, s := range specs {
		if s.Key == key {
			return s, true
		}
	}
	return Spec{}, false
}

// Keys returns all field keys in canonical order.
func Keys() []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Key
	}
	return out
}

// BackfillKeys returns the field keys eligible for search backfill, in
// canonical order. officialWebsite has no backfill path.
func BackfillKeys() []string {
	out := make([]string, 0, len(specs)-1)
	for _, s := range specs {
		if s.Key == "officialWebsite" {
			continue
		}
		out = append(out, s.Key)
	}
	return out
}

// SourceTextKey returns the evidence-text key paired with a field key.
func SourceTextKey(key string) string { return key + "SourceText" }

// SourceURLKey returns the evidence-URL key paired with a field key.
func SourceURLKey(key string) string { return key + "SourceUrl" }
