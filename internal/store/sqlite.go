package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/parkatlas/parkatlas/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	policy KeyPolicy
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, policy KeyPolicy) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, policy: policy}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS parks (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	name_key           TEXT NOT NULL,
	country            TEXT NOT NULL DEFAULT '',
	wiki_text          TEXT NOT NULL DEFAULT '',
	wiki_url           TEXT NOT NULL,
	wiki_input_tokens  INTEGER,
	wiki_output_tokens INTEGER,
	wiki_url_tokens    INTEGER,
	wiki_duration_sec  REAL NOT NULL DEFAULT 0,
	fields             TEXT NOT NULL,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parks_country ON parks(country);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	idx := `CREATE UNIQUE INDEX IF NOT EXISTS uq_parks_name_key ON parks(name_key)`
	if s.policy == KeyByWikiURL {
		idx = `CREATE UNIQUE INDEX IF NOT EXISTS uq_parks_wiki_url ON parks(wiki_url)`
	}
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return eris.Wrap(err, "sqlite: create unique index")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertPark(ctx context.Context, park *model.Park) (*model.Park, error) {
	now := time.Now().UTC()
	id := park.ID
	if id == "" {
		id = uuid.New().String()
	}

	fieldsJSON, err := json.Marshal(park.Fields)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal fields")
	}

	conflictCol := "name_key"
	if s.policy == KeyByWikiURL {
		conflictCol = "wiki_url"
	}

	query := fmt.Sprintf(`INSERT INTO parks
		(id, name, name_key, country, wiki_text, wiki_url, wiki_input_tokens, wiki_output_tokens, wiki_url_tokens, wiki_duration_sec, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (%s) DO UPDATE SET
			name = excluded.name,
			name_key = excluded.name_key,
			country = excluded.country,
			wiki_text = excluded.wiki_text,
			wiki_url = excluded.wiki_url,
			wiki_input_tokens = excluded.wiki_input_tokens,
			wiki_output_tokens = excluded.wiki_output_tokens,
			wiki_url_tokens = excluded.wiki_url_tokens,
			wiki_duration_sec = excluded.wiki_duration_sec,
			fields = excluded.fields,
			updated_at = excluded.updated_at`, conflictCol)

	_, err = s.db.ExecContext(ctx, query,
		id, park.Name, NormalizeName(park.Name), park.Country,
		park.WikiText, park.WikiURL,
		nullInt(park.WikiInputTokens), nullInt(park.WikiOutputTokens), nullInt(park.WikiURLTokens),
		park.WikiDurationSec, string(fieldsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert park")
	}

	// Re-read under the policy key: on conflict the insert id was discarded.
	saved, err := s.FindPark(ctx, park.Name, park.WikiURL)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, eris.New("sqlite: upserted park not found")
	}
	return saved, nil
}

func (s *SQLiteStore) FindPark(ctx context.Context, name, wikiURL string) (*model.Park, error) {
	query := `SELECT ` + parkColumns + ` FROM parks WHERE name_key = ?`
	arg := NormalizeName(name)
	if s.policy == KeyByWikiURL {
		query = `SELECT ` + parkColumns + ` FROM parks WHERE wiki_url = ?`
		arg = wikiURL
	}

	park, err := scanSQLitePark(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find park")
	}
	return park, nil
}

func (s *SQLiteStore) GetPark(ctx context.Context, id string) (*model.Park, error) {
	park, err := scanSQLitePark(s.db.QueryRowContext(ctx,
		`SELECT `+parkColumns+` FROM parks WHERE id = ?`, id))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get park")
	}
	return park, nil
}

func (s *SQLiteStore) ListParks(ctx context.Context, filter ListFilter) ([]model.Park, error) {
	query := `SELECT ` + parkColumns + ` FROM parks`
	var args []any
	if filter.Country != "" {
		query += ` WHERE country = ?`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list parks")
	}
	defer rows.Close()

	var parks []model.Park
	for rows.Next() {
		park, err := scanSQLitePark(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan park")
		}
		parks = append(parks, *park)
	}
	return parks, eris.Wrap(rows.Err(), "sqlite: list parks rows")
}

func (s *SQLiteStore) CountParks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM parks`).Scan(&count); err != nil {
		return 0, eris.Wrap(err, "sqlite: count parks")
	}
	return count, nil
}

func (s *SQLiteStore) DeletePark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parks WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete park")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrap(sql.ErrNoRows, "sqlite: delete park")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePark(row rowScanner) (*model.Park, error) {
	var (
		park      model.Park
		nameKey   string
		fieldsRaw string
		in, out   sql.NullInt64
		urlTokens sql.NullInt64
	)
	err := row.Scan(
		&park.ID, &park.Name, &nameKey, &park.Country,
		&park.WikiText, &park.WikiURL,
		&in, &out, &urlTokens,
		&park.WikiDurationSec, &fieldsRaw, &park.CreatedAt, &park.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if in.Valid {
		park.WikiInputTokens = &in.Int64
	}
	if out.Valid {
		park.WikiOutputTokens = &out.Int64
	}
	if urlTokens.Valid {
		park.WikiURLTokens = &urlTokens.Int64
	}
	if fieldsRaw != "" {
		if err := json.Unmarshal([]byte(fieldsRaw), &park.Fields); err != nil {
			return nil, eris.Wrap(err, "unmarshal fields")
		}
	}
	return &park, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
