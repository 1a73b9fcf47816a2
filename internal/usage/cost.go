package usage

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rates holds the fixed per-token pricing (USD per million tokens) and the
// USD→CNY conversion rate.
type Rates struct {
	InputPerMTok  float64 `yaml:"input_per_mtok" mapstructure:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" mapstructure:"output_per_mtok"`
	USDToCNY      float64 `yaml:"usd_to_cny" mapstructure:"usd_to_cny"`
}

// DefaultRates returns the flash-lite tier pricing.
func DefaultRates() Rates {
	return Rates{
		InputPerMTok:  0.10,
		OutputPerMTok: 0.40,
		USDToCNY:      7.2,
	}
}

// LoadRates reads a rates file in YAML format. Zero-valued entries fall back
// to the defaults.
func LoadRates(path string) (Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rates{}, eris.Wrap(err, "usage: read rates file")
	}

	r := DefaultRates()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rates{}, eris.Wrap(err, "usage: parse rates file")
	}
	if r.InputPerMTok == 0 {
		r.InputPerMTok = DefaultRates().InputPerMTok
	}
	if r.OutputPerMTok == 0 {
		r.OutputPerMTok = DefaultRates().OutputPerMTok
	}
	if r.USDToCNY == 0 {
		r.USDToCNY = DefaultRates().USDToCNY
	}
	return r, nil
}

// CurrencyCost breaks a call's cost down by token class in one currency.
type CurrencyCost struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
	URL    float64 `json:"url"`
	Total  float64 `json:"total"`
}

// CostDetail is the cost of a call in USD and CNY. Pure function of a Detail
// and a Rates table; never mutated after creation.
type CostDetail struct {
	USD CurrencyCost `json:"usd"`
	CNY CurrencyCost `json:"cny"`
}

// Cost converts a usage Detail into a CostDetail. Returns nil iff usage is
// nil. URL tokens are billed at the input rate; missing counts count as zero.
func Cost(d *Detail, r Rates) *CostDetail {
	if d == nil {
		return nil
	}

	in := float64(orZero(d.InputTokens)) / 1e6 * r.InputPerMTok
	out := float64(orZero(d.OutputTokens)) / 1e6 * r.OutputPerMTok
	url := float64(orZero(d.URLTokens)) / 1e6 * r.InputPerMTok

	usd := CurrencyCost{
		Input:  in,
		Output: out,
		URL:    url,
		Total:  in + out + url,
	}
	cny := CurrencyCost{
		Input:  usd.Input * r.USDToCNY,
		Output: usd.Output * r.USDToCNY,
		URL:    usd.URL * r.USDToCNY,
		Total:  usd.Total * r.USDToCNY,
	}

	return &CostDetail{USD: usd, CNY: cny}
}
