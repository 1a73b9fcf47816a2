package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkatlas/parkatlas/internal/model"
)

func newTestSQLiteStore(t *testing.T, policy KeyPolicy) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "parks.db"), policy)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByName)
	ctx := context.Background()

	saved, err := s.UpsertPark(ctx, testPark())
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := s.GetPark(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Yellowstone", got.Name)
	assert.Equal(t, float64(8983), got.Fields.Value("area"))
	require.NotNil(t, got.WikiInputTokens)
	assert.Equal(t, int64(1500), *got.WikiInputTokens)
	assert.InDelta(t, 12.3, got.WikiDurationSec, 1e-9)
}

func TestSQLiteStore_UpsertOverwritesByNameKey(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByName)
	ctx := context.Background()

	first, err := s.UpsertPark(ctx, testPark())
	require.NoError(t, err)

	// Same park under a differently-cased name overwrites, not duplicates.
	update := testPark()
	update.ID = ""
	update.Name = "YELLOWSTONE"
	update.Country = "United States"
	update.Fields = model.Record{"area": float64(9000)}

	second, err := s.UpsertPark(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "United States", second.Country)
	assert.Equal(t, float64(9000), second.Fields.Value("area"))

	count, err := s.CountParks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_UpsertByWikiURLPolicy(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByWikiURL)
	ctx := context.Background()

	first, err := s.UpsertPark(ctx, testPark())
	require.NoError(t, err)

	// Different name, same URL: still the same row.
	update := testPark()
	update.ID = ""
	update.Name = "Yellowstone National Park"

	second, err := s.UpsertPark(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Yellowstone National Park", second.Name)
}

func TestSQLiteStore_FindPark(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByName)
	ctx := context.Background()

	_, err := s.UpsertPark(ctx, testPark())
	require.NoError(t, err)

	found, err := s.FindPark(ctx, "  yellowstone  ", "")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Yellowstone", found.Name)

	missing, err := s.FindPark(ctx, "Banff", "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_ListParks(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByName)
	ctx := context.Background()

	_, err := s.UpsertPark(ctx, testPark())
	require.NoError(t, err)

	banff := testPark()
	banff.ID = ""
	banff.Name = "Banff"
	banff.Country = "Canada"
	banff.WikiURL = "https://en.wikipedia.org/wiki/Banff_National_Park"
	_, err = s.UpsertPark(ctx, banff)
	require.NoError(t, err)

	all, err := s.ListParks(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	canadian, err := s.ListParks(ctx, ListFilter{Country: "Canada"})
	require.NoError(t, err)
	require.Len(t, canadian, 1)
	assert.Equal(t, "Banff", canadian[0].Name)

	limited, err := s.ListParks(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_DeletePark(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByName)
	ctx := context.Background()

	saved, err := s.UpsertPark(ctx, testPark())
	require.NoError(t, err)

	require.NoError(t, s.DeletePark(ctx, saved.ID))

	count, err := s.CountParks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.Error(t, s.DeletePark(ctx, saved.ID))
}

func TestSQLiteStore_NilTokenColumns(t *testing.T) {
	t.Parallel()
	s := newTestSQLiteStore(t, KeyByName)
	ctx := context.Background()

	park := testPark()
	park.WikiInputTokens = nil
	park.WikiOutputTokens = nil
	park.WikiURLTokens = nil

	saved, err := s.UpsertPark(ctx, park)
	require.NoError(t, err)
	assert.Nil(t, saved.WikiInputTokens)
	assert.Nil(t, saved.WikiOutputTokens)
	assert.Nil(t, saved.WikiURLTokens)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Yellowstone", "yellowstone"},
		{"collapses whitespace", "  Banff   National  Park ", "banff national park"},
		{"folds unicode", "SEQUOIA", "sequoia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("name")
	require.NoError(t, err)
	assert.Equal(t, KeyByName, p)

	p, err = ParsePolicy("wiki_url")
	require.NoError(t, err)
	assert.Equal(t, KeyByWikiURL, p)

	_, err = ParsePolicy("id")
	assert.Error(t, err)
}
