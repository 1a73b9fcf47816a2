package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/parkatlas/parkatlas/internal/fields"
	"github.com/parkatlas/parkatlas/internal/usage"
	"github.com/parkatlas/parkatlas/pkg/llm"
)

const backfillSearchPrompt = `
You are a data extraction assistant.

You are filling one missing field for the national park "%s".
The missing field name is "%s", and here is its field description:
%s

Your goal is to find the most reliable, up-to-date value for this field using Google search.

Formatting rules (STRICT):
- You MUST output **exactly three lines**, nothing more.
- Line 1 MUST start with: %s:
- Line 2 MUST start with: SourceText:
- Line 3 MUST start with: SourceURL:
- Do NOT add any explanation, comments, or extra text.
- Do NOT wrap the answer in quotes or code blocks.
- Do NOT output any text before or after these three lines.

If the value IS found, use this exact format:
%s: <a one-sentence summary of the value. If multiple numbers are given for different groups (e.g. mammals, birds, fish, amphibians, reptiles, plants), sum them up and give the total here.>
SourceText: <verbatim text copied from the page>
SourceURL: <url of the page>

If the value is NOT found, use this exact format:
%s: not specify
SourceText:
SourceURL:

Now produce your answer following the rules above.`

const backfillParsePrompt = `
You will receive text about a national park. Using only that text (do not browse the web),
return the field value, the corresponding "...SourceText" string with the verbatim evidence text (everything after "SourceText:"),
and "...SourceUrl" (everything after "SourceURL:") or an empty string if not found. Preserve line breaks in evidence.
Text:
%s`

// BackfillResult is the outcome of backfilling a single field: the parsed
// value map plus usage summed across both calls.
type BackfillResult struct {
	Field   string         `json:"field"`
	Value   map[string]any `json:"value"`
	RawText string         `json:"rawText,omitempty"`
	StageMetrics
}

// BackfillField resolves one missing field with a two-call sequence: a
// free-text search call constrained to a strict three-line grammar, then a
// schema-constrained parse of that output restricted to the single-field
// projection.
func (p *Pipeline) BackfillField(ctx context.Context, parkName, field string) (*BackfillResult, error) {
	parkName = strings.TrimSpace(parkName)
	field = strings.TrimSpace(field)
	if parkName == "" {
		return nil, eris.Wrap(ErrInvalidInput, "park name is required")
	}
	spec, ok := fields.Get(field)
	if !ok {
		return nil, eris.Wrapf(ErrInvalidInput, "unknown field %q", field)
	}

	start := time.Now()

	searchResp, err := p.provider.GenerateText(ctx, llm.TextRequest{
		Prompt: fmt.Sprintf(backfillSearchPrompt,
			parkName, spec.Key, spec.Description, spec.Key, spec.Key, spec.Key),
		Tools:      llm.Tools{WebSearch: true, URLContext: true},
		MaxRetries: maxRetries,
	})
	if err != nil {
		return nil, err
	}
	if searchResp.Text == "" {
		return nil, eris.Wrap(ErrMissingModelOutput, "backfill search call returned no text")
	}

	schema, err := fields.SingleField(spec.Key)
	if err != nil {
		return nil, err
	}

	parseResp, err := p.provider.GenerateObject(ctx, llm.ObjectRequest{
		Prompt:     fmt.Sprintf(backfillParsePrompt, searchResp.Text),
		Schema:     schema,
		MaxRetries: maxRetries,
	})
	if err != nil {
		return nil, err
	}
	if err := fields.ValidateSingle(spec.Key, parseResp.Object); err != nil {
		return nil, eris.Wrap(ErrSchemaValidation, err.Error())
	}

	total := usage.Sum([]*usage.Detail{
		usage.Normalize(searchResp.Usage),
		usage.Normalize(parseResp.Usage),
	})

	return &BackfillResult{
		Field:   spec.Key,
		Value:   parseResp.Object,
		RawText: searchResp.Text,
		StageMetrics: StageMetrics{
			Usage:       total,
			Cost:        usage.Cost(total, p.rates),
			DurationSec: roundSeconds(time.Since(start).Seconds()),
		},
	}, nil
}
