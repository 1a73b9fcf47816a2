// Package llm provides a unified interface over generative model providers.
package llm

import (
	"context"
)

// ProviderName identifies a model provider. Token usage normalization is
// keyed on this discriminator, since providers report usage under different
// field names.
type ProviderName string

const (
	ProviderGemini    ProviderName = "gemini"
	ProviderAnthropic ProviderName = "anthropic"
)

// Tools selects the retrieval tools enabled for a free-text generation call.
type Tools struct {
	// URLContext lets the model fetch and read specific URLs named in the prompt.
	URLContext bool
	// WebSearch lets the model issue open web searches.
	WebSearch bool
}

// TextRequest is a free-text generation request.
type TextRequest struct {
	Prompt string
	Tools  Tools
	// MaxRetries is the provider-level transient-failure retry budget for
	// this single call. There is no application-level retry above it.
	MaxRetries int
}

// TextResponse carries the generated text plus provider-reported metadata.
type TextResponse struct {
	Text      string
	Usage     *Usage
	Grounding *Grounding
}

// ObjectRequest is a schema-constrained generation request. Schema is a JSON
// Schema document; the provider must return a value conforming to it.
type ObjectRequest struct {
	Prompt     string
	Schema     map[string]any
	MaxRetries int
}

// ObjectResponse carries the decoded object plus usage.
type ObjectResponse struct {
	Object map[string]any
	Usage  *Usage
}

// Usage is the raw token accounting reported by a provider, tagged with the
// provider that produced it. Counts the provider did not report are nil.
type Usage struct {
	Provider         ProviderName
	InputTokens      *int64
	OutputTokens     *int64
	TotalTokens      *int64
	ToolPromptTokens *int64
}

// Grounding maps generated claims back to the retrieved web sources that
// justified them, when the provider reports retrieval grounding.
type Grounding struct {
	URLs    []string           `json:"urls"`
	Support []GroundingSupport `json:"support"`
}

// GroundingSupport ties a verbatim response segment to one of the grounding URLs.
type GroundingSupport struct {
	Text            string   `json:"text"`
	URLIndex        *int     `json:"urlIndex,omitempty"`
	ConfidenceScore *float64 `json:"confidenceScore,omitempty"`
}

// Provider is the model-call capability consumed by the extraction pipeline.
// Implementations are safe for concurrent use.
type Provider interface {
	GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error)
	GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error)
	Name() ProviderName
}

// Int64 returns a pointer to v. Convenience for building Usage values.
func Int64(v int64) *int64 { return &v }
