package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinel(t *testing.T) {
	t.Parallel()

	website, ok := Get("officialWebsite")
	require.True(t, ok)
	assert.Equal(t, "", website.Sentinel())

	area, ok := Get("area")
	require.True(t, ok)
	assert.Equal(t, float64(-1), area.Sentinel())
}

func TestIsSentinel(t *testing.T) {
	t.Parallel()

	website, _ := Get("officialWebsite")
	cert, _ := Get("internationalCert")

	tests := []struct {
		name string
		spec Spec
		val  any
		want bool
	}{
		{"nil is always sentinel", cert, nil, true},
		{"empty string for string field", website, "", true},
		{"non-empty string for string field", website, "https://nps.gov", false},
		{"-1 float for number field", cert, float64(-1), true},
		{"-1 int for number field", cert, -1, true},
		{"-1 int64 for number field", cert, int64(-1), true},
		// 0 means "no certification", not "not found".
		{"zero is a real value", cert, float64(0), false},
		{"positive value", cert, float64(1), false},
		{"wrong type for string field", website, float64(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.spec.IsSentinel(tt.val))
		})
	}
}

func TestKeysOrder(t *testing.T) {
	t.Parallel()

	want := []string{
		"officialWebsite", "level", "speciesCount", "endangeredSpecies",
		"forestCoverage", "area", "establishedYear", "internationalCert",
		"annualVisitors",
	}
	assert.Equal(t, want, Keys())
}

func TestBackfillKeysExcludesWebsite(t *testing.T) {
	t.Parallel()

	keys := BackfillKeys()
	assert.Len(t, keys, 8)
	assert.NotContains(t, keys, "officialWebsite")
	assert.Equal(t, "level", keys[0])
}

func TestEvidenceKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "areaSourceText", SourceTextKey("area"))
	assert.Equal(t, "areaSourceUrl", SourceURLKey("area"))
}
