package usage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkatlas/parkatlas/pkg/llm"
)

func TestCost(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	t.Run("nil detail returns nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Cost(nil, rates))
	})

	t.Run("one million of each token class", func(t *testing.T) {
		t.Parallel()
		d := &Detail{
			InputTokens:  llm.Int64(1_000_000),
			OutputTokens: llm.Int64(1_000_000),
			URLTokens:    llm.Int64(1_000_000),
		}
		got := Cost(d, rates)
		require.NotNil(t, got)

		assert.InDelta(t, 0.10, got.USD.Input, 1e-9)
		assert.InDelta(t, 0.40, got.USD.Output, 1e-9)
		assert.InDelta(t, 0.10, got.USD.URL, 1e-9) // url billed at input rate
		assert.InDelta(t, 0.60, got.USD.Total, 1e-9)

		assert.InDelta(t, 0.60*7.2, got.CNY.Total, 1e-9)
		assert.InDelta(t, 0.10*7.2, got.CNY.Input, 1e-9)
	})

	t.Run("missing counts bill as zero", func(t *testing.T) {
		t.Parallel()
		got := Cost(&Detail{OutputTokens: llm.Int64(500_000)}, rates)
		require.NotNil(t, got)
		assert.InDelta(t, 0.0, got.USD.Input, 1e-9)
		assert.InDelta(t, 0.20, got.USD.Output, 1e-9)
		assert.InDelta(t, 0.20, got.USD.Total, 1e-9)
	})
}

func TestLoadRates(t *testing.T) {
	t.Parallel()

	t.Run("missing file errors", func(t *testing.T) {
		t.Parallel()
		_, err := LoadRates(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("partial file falls back to defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "rates.yaml")
		require.NoError(t, os.WriteFile(path, []byte("input_per_mtok: 0.25\n"), 0o644))

		r, err := LoadRates(path)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, r.InputPerMTok, 1e-9)
		assert.InDelta(t, 0.40, r.OutputPerMTok, 1e-9)
		assert.InDelta(t, 7.2, r.USDToCNY, 1e-9)
	})
}
