package extract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkatlas/parkatlas/internal/usage"
	"github.com/parkatlas/parkatlas/pkg/llm"
)

func TestTransformStampsProvenance(t *testing.T) {
	t.Parallel()

	obj := fullObject(map[string]any{
		// no evidence for establishedYear
		"establishedYearSourceText": "",
	})
	provider := &fakeProvider{
		objectResponses: []*llm.ObjectResponse{
			{Object: obj, Usage: geminiUsage(500, 100, 0, 600)},
		},
	}

	p := New(provider, usage.DefaultRates(), 0)
	result, err := p.Transform(context.Background(), "page text", "https://en.wikipedia.org/wiki/Yellowstone")
	require.NoError(t, err)

	// evidence present: url stamped
	assert.Equal(t, "https://en.wikipedia.org/wiki/Yellowstone", result.Record.SourceURL("area"))
	// evidence absent: url stays empty
	assert.Equal(t, "", result.Record.SourceURL("establishedYear"))
	assert.Equal(t, "", result.Record.SourceText("establishedYear"))
}

func TestTransformIdempotent(t *testing.T) {
	t.Parallel()

	// Parsing identical model output twice must yield byte-identical records.
	provider := &fakeProvider{
		objectResponses: []*llm.ObjectResponse{
			{Object: fullObject(nil), Usage: geminiUsage(500, 100, 0, 600)},
			{Object: fullObject(nil), Usage: geminiUsage(500, 100, 0, 600)},
		},
	}

	p := New(provider, usage.DefaultRates(), 0)
	first, err := p.Transform(context.Background(), "page text", "https://en.wikipedia.org/wiki/Yellowstone")
	require.NoError(t, err)
	second, err := p.Transform(context.Background(), "page text", "https://en.wikipedia.org/wiki/Yellowstone")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Record)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Record)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestTransformDropsUnknownKeys(t *testing.T) {
	t.Parallel()

	obj := fullObject(map[string]any{"elevation": float64(2400)})
	provider := &fakeProvider{
		objectResponses: []*llm.ObjectResponse{
			{Object: obj, Usage: geminiUsage(500, 100, 0, 600)},
		},
	}

	p := New(provider, usage.DefaultRates(), 0)
	result, err := p.Transform(context.Background(), "page text", "https://en.wikipedia.org/wiki/Yellowstone")
	require.NoError(t, err)

	assert.NotContains(t, result.Record, "elevation")
}
