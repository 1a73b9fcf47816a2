package model

import "time"

// Park is the persisted entity for one extracted national park.
type Park struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`

	// Raw page-extraction output and its accounting.
	WikiText         string  `json:"wikiText,omitempty"`
	WikiURL          string  `json:"wikiUrl"`
	WikiInputTokens  *int64  `json:"wikiInputTokens,omitempty"`
	WikiOutputTokens *int64  `json:"wikiOutputTokens,omitempty"`
	WikiURLTokens    *int64  `json:"wikiUrlTokens,omitempty"`
	WikiDurationSec  float64 `json:"wikiDurationSec,omitempty"`

	// Structured fields plus per-field evidence, keyed per the wire contract.
	Fields Record `json:"fields"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
