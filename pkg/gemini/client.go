// Package gemini is a minimal REST client for the Google Gemini
// generateContent API, covering free-text generation with retrieval tools
// (google_search, url_context) and schema-constrained JSON generation.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/parkatlas/parkatlas/pkg/llm"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-lite"
)

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLimiter installs a shared rate limiter applied before every request.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// Client implements llm.Provider against the Gemini REST API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Gemini API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name returns the provider discriminator.
func (c *Client) Name() llm.ProviderName {
	return llm.ProviderGemini
}

// --- wire types ---

type generateRequest struct {
	Contents         []wireContent     `json:"contents"`
	Tools            []wireTool        `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text string `json:"text"`
}

type wireTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
	URLContext   *struct{} `json:"url_context,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata"`
}

type candidate struct {
	Content           wireContent        `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata"`
}

type usageMetadata struct {
	PromptTokenCount        int64 `json:"promptTokenCount"`
	CandidatesTokenCount    int64 `json:"candidatesTokenCount"`
	ToolUsePromptTokenCount int64 `json:"toolUsePromptTokenCount"`
	TotalTokenCount         int64 `json:"totalTokenCount"`
}

type groundingMetadata struct {
	GroundingChunks   []groundingChunk       `json:"groundingChunks"`
	GroundingSupports []wireGroundingSupport `json:"groundingSupports"`
}

type groundingChunk struct {
	Web              *chunkSource `json:"web"`
	RetrievedContext *chunkSource `json:"retrievedContext"`
}

type chunkSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type wireGroundingSupport struct {
	Segment               *segment  `json:"segment"`
	GroundingChunkIndices []int     `json:"groundingChunkIndices"`
	ConfidenceScores      []float64 `json:"confidenceScores"`
}

type segment struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Text       string `json:"text"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateText issues a free-text generation call, optionally with the
// google_search and url_context retrieval tools enabled.
func (c *Client) GenerateText(ctx context.Context, req llm.TextRequest) (*llm.TextResponse, error) {
	body := generateRequest{
		Contents: []wireContent{{Role: "user", Parts: []wirePart{{Text: req.Prompt}}}},
	}
	if req.Tools.WebSearch {
		body.Tools = append(body.Tools, wireTool{GoogleSearch: &struct{}{}})
	}
	if req.Tools.URLContext {
		body.Tools = append(body.Tools, wireTool{URLContext: &struct{}{}})
	}

	resp, err := c.generate(ctx, body, req.MaxRetries)
	if err != nil {
		return nil, err
	}

	return &llm.TextResponse{
		Text:      firstText(resp),
		Usage:     c.usage(resp),
		Grounding: grounding(resp),
	}, nil
}

// GenerateObject issues a schema-constrained generation call and decodes the
// returned JSON document.
func (c *Client) GenerateObject(ctx context.Context, req llm.ObjectRequest) (*llm.ObjectResponse, error) {
	body := generateRequest{
		Contents: []wireContent{{Role: "user", Parts: []wirePart{{Text: req.Prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   toResponseSchema(req.Schema),
		},
	}

	resp, err := c.generate(ctx, body, req.MaxRetries)
	if err != nil {
		return nil, err
	}

	text := firstText(resp)
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, eris.Wrap(err, "gemini: decode structured response")
	}

	return &llm.ObjectResponse{
		Object: obj,
		Usage:  c.usage(resp),
	}, nil
}

// generate performs the HTTP round trip with the provider-level retry budget.
func (c *Client) generate(ctx context.Context, body generateRequest, maxRetries int) (*generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal request")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "gemini: rate limiter")
			}
		}

		resp, retryable, err := c.doRequest(ctx, url, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url string, payload []byte) (*generateResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, eris.Wrap(err, "gemini: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, true, eris.Wrap(err, "gemini: http request")
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, eris.Wrap(err, "gemini: read response body")
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := string(data)
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error.Message != "" {
			msg = ae.Error.Message
		}
		err := eris.New(fmt.Sprintf("gemini: status %d: %s", httpResp.StatusCode, msg))
		return nil, transientStatus(httpResp.StatusCode), err
	}

	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, eris.Wrap(err, "gemini: decode response")
	}
	return &resp, false, nil
}

// transientStatus reports whether the status code indicates a server-side
// issue that is safe to retry.
func transientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func firstText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var out string
	for _, p := range resp.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

func (c *Client) usage(resp *generateResponse) *llm.Usage {
	um := resp.UsageMetadata
	if um == nil {
		return nil
	}
	u := &llm.Usage{
		Provider:     llm.ProviderGemini,
		InputTokens:  llm.Int64(um.PromptTokenCount),
		OutputTokens: llm.Int64(um.CandidatesTokenCount),
		TotalTokens:  llm.Int64(um.TotalTokenCount),
	}
	if um.ToolUsePromptTokenCount > 0 {
		u.ToolPromptTokens = llm.Int64(um.ToolUsePromptTokenCount)
	}
	return u
}

// grounding maps provider grounding chunks and supports to the canonical
// shape. Chunks prefer the retrieved-context URI over the generic web URI;
// supports without segment text are dropped; the confidence scalar is the
// first element of the provider's score array.
func grounding(resp *generateResponse) *llm.Grounding {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata

	g := &llm.Grounding{}
	for _, chunk := range gm.GroundingChunks {
		switch {
		case chunk.RetrievedContext != nil && chunk.RetrievedContext.URI != "":
			g.URLs = append(g.URLs, chunk.RetrievedContext.URI)
		case chunk.Web != nil && chunk.Web.URI != "":
			g.URLs = append(g.URLs, chunk.Web.URI)
		}
	}
	for _, sup := range gm.GroundingSupports {
		if sup.Segment == nil || sup.Segment.Text == "" {
			continue
		}
		s := llm.GroundingSupport{Text: sup.Segment.Text}
		if len(sup.GroundingChunkIndices) > 0 {
			idx := sup.GroundingChunkIndices[0]
			s.URLIndex = &idx
		}
		if len(sup.ConfidenceScores) > 0 {
			score := sup.ConfidenceScores[0]
			s.ConfidenceScore = &score
		}
		g.Support = append(g.Support, s)
	}
	return g
}

// toResponseSchema converts a JSON Schema document to the Gemini response
// schema dialect (uppercase OpenAPI type names, supported keywords only).
func toResponseSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = geminiType(s)
			}
		case "properties":
			if props, ok := v.(map[string]any); ok {
				conv := make(map[string]any, len(props))
				for name, sub := range props {
					if subSchema, ok := sub.(map[string]any); ok {
						conv[name] = toResponseSchema(subSchema)
					}
				}
				out[k] = conv
			}
		case "items":
			if sub, ok := v.(map[string]any); ok {
				out[k] = toResponseSchema(sub)
			}
		case "required", "description", "enum", "nullable", "format":
			out[k] = v
		}
	}
	return out
}

func geminiType(t string) string {
	switch t {
	case "object":
		return "OBJECT"
	case "string":
		return "STRING"
	case "number":
		return "NUMBER"
	case "integer":
		return "INTEGER"
	case "boolean":
		return "BOOLEAN"
	case "array":
		return "ARRAY"
	default:
		return t
	}
}
