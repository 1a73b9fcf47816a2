package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/parkatlas/parkatlas/internal/usage"
	"github.com/parkatlas/parkatlas/pkg/llm"
)

const pageTextPrompt = `You are a data extraction assistant.

Your ONLY knowledge sources are the contents returned by the url_context tool.
Treat anything outside the tool output as UNKNOWN.

Document URL:
- %s

Goal:
Identify how this page specifies key details about "%s".

Instructions:
1. Use the url_context tool to read the page.
2. Search for any part of the page that explicitly mentions:
  1 The official website.
  2 Whether it is a World Heritage site.
  3 Total number of species.
  4 Number of endangered species recorded in the IUCN Red List.
  5 Forest coverage percentage.
  6 The park's total area (prefer km²; include the source unit if different).
  7 When the park was established (an "Established" year).
  8 Whether it is a World Heritage site or a Biosphere Reserve.
  9 Annual visitors (convert to units of ten-thousands of people as an integer if needed).

Output format (strict):
For each of the nine keys, output a section with: <A one-sentence summary. If not found, say not specify>

If it is found, also include:
  Evidence: <verbatim text copied from the page>

For example:
` + "```" + `
1. Official website: The official website is www.examplepark.org.
Evidence: Official website: www.examplepark.org

2. World Heritage site: Not specify.
` + "```" + `

Sections must appear in this exact order:

1. Official website:
2. World Heritage site:
3. Species count:
4. Endangered species:
5. Forest coverage:
6. Area:
7. Established year:
8. International certification:
9. Annual visitors:

Rules:
- "Summary" must be a short neutral rewrite of the content (1 sentence max).
- "Evidence" must be a verbatim excerpt from the webpage (up to 4 short lines).
- Do NOT add any extra text, titles, commentary, or reasoning.
- Do NOT change the key names or the order.
- There should be a blank line between sections.

Hard constraints:
- Do NOT guess or infer any values.
- Do NOT use common knowledge or training data.
- Base your answer strictly on the text returned by url_context (including any Google pages you load).`

// PageTextResult is the output of the page-text extraction stage.
type PageTextResult struct {
	Text      string
	Grounding *llm.Grounding
	StageMetrics
}

// PageText issues one free-text generation call that reads the reference URL
// through the url_context tool and summarizes the nine facts with verbatim
// evidence. Empty model output is a hard failure.
func (p *Pipeline) PageText(ctx context.Context, parkName, refURL string) (*PageTextResult, error) {
	parkName = strings.TrimSpace(parkName)
	refURL = strings.TrimSpace(refURL)
	if parkName == "" {
		return nil, eris.Wrap(ErrInvalidInput, "park name is required")
	}
	if refURL == "" {
		return nil, eris.Wrap(ErrInvalidInput, "reference url is required")
	}

	start := time.Now()
	resp, err := p.provider.GenerateText(ctx, llm.TextRequest{
		Prompt:     fmt.Sprintf(pageTextPrompt, refURL, parkName),
		Tools:      llm.Tools{URLContext: true},
		MaxRetries: maxRetries,
	})
	if err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, eris.Wrap(ErrMissingModelOutput, "page text call returned no text")
	}

	return &PageTextResult{
		Text:         resp.Text,
		Grounding:    resp.Grounding,
		StageMetrics: stageMetrics(usage.Normalize(resp.Usage), p.rates, start),
	}, nil
}
