// Package store persists extracted parks behind a driver-agnostic interface,
// with Postgres and SQLite implementations.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/parkatlas/parkatlas/internal/model"
)

// KeyPolicy selects the uniqueness key for park upserts. The original system
// keyed some writes by park name and others by source URL; that ambiguity is
// resolved here as an explicit configuration choice rather than silently
// picking one.
type KeyPolicy string

const (
	KeyByName    KeyPolicy = "name"
	KeyByWikiURL KeyPolicy = "wiki_url"
)

// ParsePolicy validates a configured key policy string.
func ParsePolicy(s string) (KeyPolicy, error) {
	switch KeyPolicy(s) {
	case KeyByName:
		return KeyByName, nil
	case KeyByWikiURL:
		return KeyByWikiURL, nil
	default:
		return "", eris.Errorf("store: unknown key policy %q (want %q or %q)", s, KeyByName, KeyByWikiURL)
	}
}

// ListFilter specifies criteria for listing parks.
type ListFilter struct {
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for extracted parks.
type Store interface {
	// UpsertPark inserts the park or, when one already exists under the
	// configured key policy, overwrites its fields and accounting columns.
	UpsertPark(ctx context.Context, park *model.Park) (*model.Park, error)

	// FindPark looks a park up by the configured key policy. Returns
	// (nil, nil) when absent.
	FindPark(ctx context.Context, name, wikiURL string) (*model.Park, error)

	GetPark(ctx context.Context, id string) (*model.Park, error)
	ListParks(ctx context.Context, filter ListFilter) ([]model.Park, error)
	CountParks(ctx context.Context) (int, error)
	DeletePark(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

// NormalizeName canonicalizes a park name for use as a uniqueness key:
// Unicode NFC, case folding, and whitespace collapse.
func NormalizeName(name string) string {
	folded := cases.Fold().String(norm.NFC.String(name))
	return strings.Join(strings.Fields(folded), " ")
}
