package extract

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/parkatlas/parkatlas/internal/fields"
	"github.com/parkatlas/parkatlas/internal/model"
	"github.com/parkatlas/parkatlas/internal/usage"
	"github.com/parkatlas/parkatlas/pkg/llm"
)

const transformPrompt = `You will receive text about a national park. Using only that text (do not browse the web), ` +
	`return a JSON object that captures the park's details. If a field is not explicitly present, follow the fallback rule from its description. ` +
	`Normalize units: area -> square kilometers; forestCoverage -> percentage with one decimal place; annualVisitors -> convert to an integer count of ten-thousands of people (round to nearest) if another unit is provided. ` +
	`For each field, also return the corresponding "...SourceText" string with the verbatim evidence text (everything after "Evidence:") or an empty string if not found. Preserve line breaks in evidence.

Text:
`

// TransformResult is the output of the text-to-structured-fields stage.
type TransformResult struct {
	Record model.Record
	StageMetrics
}

// Transform issues one schema-constrained call that parses raw page text into
// the structured record, then stamps sourceURL onto every field that carries
// evidence text. The whole page came from one URL, so per-field provenance is
// uniform at this stage.
func (p *Pipeline) Transform(ctx context.Context, text, sourceURL string) (*TransformResult, error) {
	start := time.Now()
	resp, err := p.provider.GenerateObject(ctx, llm.ObjectRequest{
		Prompt:     transformPrompt + text,
		Schema:     fields.BuildSchema(fields.WithEvidenceText),
		MaxRetries: maxRetries,
	})
	if err != nil {
		return nil, err
	}

	if err := fields.Validate(fields.WithEvidenceText, resp.Object); err != nil {
		return nil, eris.Wrap(ErrSchemaValidation, err.Error())
	}

	rec := make(model.Record, len(resp.Object)+len(fields.Keys()))
	for _, key := range fields.Keys() {
		rec[key] = resp.Object[key]
		sourceText, _ := resp.Object[fields.SourceTextKey(key)].(string)
		rec[fields.SourceTextKey(key)] = sourceText
		if sourceText != "" {
			rec[fields.SourceURLKey(key)] = sourceURL
		} else {
			rec[fields.SourceURLKey(key)] = ""
		}
	}

	return &TransformResult{
		Record:       rec,
		StageMetrics: stageMetrics(usage.Normalize(resp.Usage), p.rates, start),
	}, nil
}
