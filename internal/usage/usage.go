// Package usage normalizes heterogeneous provider token reports into a
// canonical shape and converts token counts into monetary cost.
package usage

import (
	"go.uber.org/zap"

	"github.com/parkatlas/parkatlas/pkg/llm"
)

// Detail is the canonical token accounting for a single model call. Fields
// the provider did not report are nil and omitted from JSON.
type Detail struct {
	InputTokens  *int64 `json:"inputTokens,omitempty"`
	OutputTokens *int64 `json:"outputTokens,omitempty"`
	URLTokens    *int64 `json:"urlTokens,omitempty"`
	TotalTokens  *int64 `json:"totalTokens,omitempty"`
}

// Normalize maps a provider usage report to the canonical Detail. Returns nil
// when the provider reported nothing. URL (retrieval/browsing) tokens are
// derived as total - (input + output) when the provider does not report them
// directly; a negative derivation indicates inconsistent provider accounting
// and is clamped to zero.
func Normalize(u *llm.Usage) *Detail {
	if u == nil {
		return nil
	}

	d := &Detail{}
	switch u.Provider {
	case llm.ProviderGemini, llm.ProviderAnthropic:
		d.InputTokens = u.InputTokens
		d.OutputTokens = u.OutputTokens
		d.TotalTokens = u.TotalTokens
		d.URLTokens = u.ToolPromptTokens
	default:
		d.InputTokens = u.InputTokens
		d.OutputTokens = u.OutputTokens
		d.TotalTokens = u.TotalTokens
	}

	if d.URLTokens == nil && d.TotalTokens != nil && (d.InputTokens != nil || d.OutputTokens != nil) {
		derived := *d.TotalTokens - (orZero(d.InputTokens) + orZero(d.OutputTokens))
		if derived < 0 {
			zap.L().Warn("usage: negative url token derivation, clamping to zero",
				zap.Int64("total", *d.TotalTokens),
				zap.Int64("input", orZero(d.InputTokens)),
				zap.Int64("output", orZero(d.OutputTokens)),
			)
			derived = 0
		}
		d.URLTokens = &derived
	}

	return d
}

// Sum adds details elementwise. Entries that are nil are skipped; entries
// with some fields missing contribute zero to those fields. Returns nil only
// when no entry contributed any defined field; otherwise all four fields are
// set, zero-valued where nothing contributed.
func Sum(details []*Detail) *Detail {
	var in, out, url, total int64
	contributed := false

	for _, d := range details {
		if d == nil {
			continue
		}
		if d.InputTokens != nil {
			in += *d.InputTokens
			contributed = true
		}
		if d.OutputTokens != nil {
			out += *d.OutputTokens
			contributed = true
		}
		if d.URLTokens != nil {
			url += *d.URLTokens
			contributed = true
		}
		if d.TotalTokens != nil {
			total += *d.TotalTokens
			contributed = true
		}
	}

	if !contributed {
		return nil
	}
	return &Detail{
		InputTokens:  &in,
		OutputTokens: &out,
		URLTokens:    &url,
		TotalTokens:  &total,
	}
}

func orZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
