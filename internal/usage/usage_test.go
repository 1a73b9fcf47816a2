package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkatlas/parkatlas/pkg/llm"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *llm.Usage
		want *Detail
	}{
		{
			name: "nil usage",
			in:   nil,
			want: nil,
		},
		{
			name: "gemini with tool prompt tokens",
			in: &llm.Usage{
				Provider:         llm.ProviderGemini,
				InputTokens:      llm.Int64(100),
				OutputTokens:     llm.Int64(50),
				ToolPromptTokens: llm.Int64(25),
				TotalTokens:      llm.Int64(175),
			},
			want: &Detail{
				InputTokens:  llm.Int64(100),
				OutputTokens: llm.Int64(50),
				URLTokens:    llm.Int64(25),
				TotalTokens:  llm.Int64(175),
			},
		},
		{
			name: "url tokens derived from total",
			in: &llm.Usage{
				Provider:     llm.ProviderGemini,
				InputTokens:  llm.Int64(100),
				OutputTokens: llm.Int64(50),
				TotalTokens:  llm.Int64(175),
			},
			want: &Detail{
				InputTokens:  llm.Int64(100),
				OutputTokens: llm.Int64(50),
				URLTokens:    llm.Int64(25),
				TotalTokens:  llm.Int64(175),
			},
		},
		{
			name: "negative derivation clamps to zero",
			in: &llm.Usage{
				Provider:     llm.ProviderGemini,
				InputTokens:  llm.Int64(200),
				OutputTokens: llm.Int64(100),
				TotalTokens:  llm.Int64(250),
			},
			want: &Detail{
				InputTokens:  llm.Int64(200),
				OutputTokens: llm.Int64(100),
				URLTokens:    llm.Int64(0),
				TotalTokens:  llm.Int64(250),
			},
		},
		{
			name: "anthropic without total leaves url nil",
			in: &llm.Usage{
				Provider:     llm.ProviderAnthropic,
				InputTokens:  llm.Int64(80),
				OutputTokens: llm.Int64(20),
			},
			want: &Detail{
				InputTokens:  llm.Int64(80),
				OutputTokens: llm.Int64(20),
			},
		},
		{
			name: "empty report yields empty detail",
			in:   &llm.Usage{Provider: llm.ProviderGemini},
			want: &Detail{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSum(t *testing.T) {
	t.Parallel()

	t.Run("all nil returns nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Sum(nil))
		assert.Nil(t, Sum([]*Detail{nil, nil}))
	})

	t.Run("empty details return nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Sum([]*Detail{{}, {}}))
	})

	t.Run("partial details fill zeros", func(t *testing.T) {
		t.Parallel()
		got := Sum([]*Detail{
			{InputTokens: llm.Int64(100)},
			nil,
			{OutputTokens: llm.Int64(40), TotalTokens: llm.Int64(140)},
		})
		require.NotNil(t, got)
		assert.Equal(t, int64(100), *got.InputTokens)
		assert.Equal(t, int64(40), *got.OutputTokens)
		assert.Equal(t, int64(0), *got.URLTokens)
		assert.Equal(t, int64(140), *got.TotalTokens)
	})

	t.Run("sums elementwise", func(t *testing.T) {
		t.Parallel()
		got := Sum([]*Detail{
			{
				InputTokens:  llm.Int64(100),
				OutputTokens: llm.Int64(50),
				URLTokens:    llm.Int64(25),
				TotalTokens:  llm.Int64(175),
			},
			{
				InputTokens:  llm.Int64(10),
				OutputTokens: llm.Int64(5),
				URLTokens:    llm.Int64(0),
				TotalTokens:  llm.Int64(15),
			},
		})
		require.NotNil(t, got)
		assert.Equal(t, int64(110), *got.InputTokens)
		assert.Equal(t, int64(55), *got.OutputTokens)
		assert.Equal(t, int64(25), *got.URLTokens)
		assert.Equal(t, int64(190), *got.TotalTokens)
	})
}
