// Package extract implements the park fact-extraction pipeline: page-text
// retrieval, structured-field transformation, missing-field detection, and
// search-backed backfill, with token/cost accounting on every model call.
package extract

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkatlas/parkatlas/internal/model"
	"github.com/parkatlas/parkatlas/internal/usage"
	"github.com/parkatlas/parkatlas/pkg/llm"
)

// maxRetries is the provider-level transient-failure retry budget applied to
// every model call. There is no application-level retry above it.
const maxRetries = 1

// DefaultMaxMissingFields is the backfill cutoff: when more fields than this
// are missing after transformation, backfill is skipped entirely. The cutoff
// bounds worst-case cost per run; it is not a per-field limit.
const DefaultMaxMissingFields = 3

// StageMetrics is the usage/cost/timing accounting for one pipeline stage.
type StageMetrics struct {
	Usage       *usage.Detail     `json:"usage,omitempty"`
	Cost        *usage.CostDetail `json:"cost,omitempty"`
	DurationSec float64           `json:"durationSec"`
}

// Pipeline sequences the extraction stages for one park. Instances are
// stateless across runs; concurrent runs share only the provider client.
type Pipeline struct {
	provider   llm.Provider
	rates      usage.Rates
	maxMissing int
}

// New creates a Pipeline. maxMissing <= 0 selects DefaultMaxMissingFields.
func New(provider llm.Provider, rates usage.Rates, maxMissing int) *Pipeline {
	if maxMissing <= 0 {
		maxMissing = DefaultMaxMissingFields
	}
	return &Pipeline{
		provider:   provider,
		rates:      rates,
		maxMissing: maxMissing,
	}
}

// RunResult is the final output of a pipeline run: the merged record plus the
// full per-stage cost/usage/timing breakdown.
type RunResult struct {
	ParkName string `json:"parkName"`
	WikiURL  string `json:"wikiUrl"`

	Text      string         `json:"text"`
	Record    model.Record   `json:"record"`
	Grounding *llm.Grounding `json:"grounding,omitempty"`

	PageText  StageMetrics     `json:"pageText"`
	Transform StageMetrics     `json:"transform"`
	Missing   []string         `json:"missingFields"`
	Backfills []BackfillResult `json:"backfills,omitempty"`

	// BackfillSkipped is true when missing fields existed but exceeded the
	// cost-control cutoff.
	BackfillSkipped bool `json:"backfillSkipped,omitempty"`

	Usage       *usage.Detail     `json:"usage,omitempty"`
	Cost        *usage.CostDetail `json:"cost,omitempty"`
	DurationSec float64           `json:"durationSec"`
}

// Run executes the full pipeline for one park. Any stage error aborts the
// run; no partial record is returned.
func (p *Pipeline) Run(ctx context.Context, parkName, wikiURL string) (*RunResult, error) {
	parkName = strings.TrimSpace(parkName)
	wikiURL = strings.TrimSpace(wikiURL)
	if parkName == "" {
		return nil, eris.Wrap(ErrInvalidInput, "park name is required")
	}
	if wikiURL == "" {
		return nil, eris.Wrap(ErrInvalidInput, "wiki url is required")
	}

	log := zap.L().With(zap.String("park", parkName), zap.String("url", wikiURL))
	log.Info("extract: starting run")

	page, err := p.PageText(ctx, parkName, wikiURL)
	if err != nil {
		return nil, eris.Wrap(err, "extract: page text stage")
	}

	transformed, err := p.Transform(ctx, page.Text, wikiURL)
	if err != nil {
		return nil, eris.Wrap(err, "extract: transform stage")
	}

	result := &RunResult{
		ParkName:  parkName,
		WikiURL:   wikiURL,
		Text:      page.Text,
		Record:    transformed.Record,
		Grounding: page.Grounding,
		PageText:  page.StageMetrics,
		Transform: transformed.StageMetrics,
	}

	missing := FindMissing(transformed.Record)
	result.Missing = missing

	switch {
	case len(missing) == 0:
		log.Info("extract: no missing fields, skipping backfill")
	case len(missing) > p.maxMissing:
		result.BackfillSkipped = true
		log.Info("extract: too many missing fields, skipping backfill",
			zap.Int("missing", len(missing)),
			zap.Int("cutoff", p.maxMissing),
		)
	default:
		// Sequential on purpose: bounds request rate against the provider
		// and keeps per-field cost attribution simple.
		for _, field := range missing {
			bf, err := p.BackfillField(ctx, parkName, field)
			if err != nil {
				return nil, eris.Wrapf(err, "extract: backfill %s", field)
			}
			result.Backfills = append(result.Backfills, *bf)
			mergeBackfill(result.Record, *bf)
		}
	}

	details := []*usage.Detail{page.Usage, transformed.Usage}
	for _, bf := range result.Backfills {
		details = append(details, bf.Usage)
	}
	result.Usage = usage.Sum(details)
	result.Cost = usage.Cost(result.Usage, p.rates)
	result.DurationSec = roundSeconds(page.DurationSec + transformed.DurationSec + backfillSeconds(result.Backfills))

	log.Info("extract: run complete",
		zap.Int("missing_fields", len(missing)),
		zap.Int("backfilled", len(result.Backfills)),
		zap.Float64("duration_sec", result.DurationSec),
	)
	return result, nil
}

// mergeBackfill overwrites a field's value and evidence from a backfill
// result. Last write wins; there is no conflict detection.
func mergeBackfill(rec model.Record, bf BackfillResult) {
	value, ok := bf.Value[bf.Field]
	if !ok {
		return
	}
	sourceText, _ := bf.Value[bf.Field+"SourceText"].(string)
	sourceURL, _ := bf.Value[bf.Field+"SourceUrl"].(string)
	rec.SetField(bf.Field, value, sourceText, sourceURL)
}

func backfillSeconds(backfills []BackfillResult) float64 {
	var total float64
	for _, bf := range backfills {
		total += bf.DurationSec
	}
	return total
}

// roundSeconds keeps durations at one decimal place, matching the persisted
// accounting columns.
func roundSeconds(s float64) float64 {
	return math.Round(s*10) / 10
}

func stageMetrics(u *usage.Detail, rates usage.Rates, start time.Time) StageMetrics {
	return StageMetrics{
		Usage:       u,
		Cost:        usage.Cost(u, rates),
		DurationSec: roundSeconds(time.Since(start).Seconds()),
	}
}
