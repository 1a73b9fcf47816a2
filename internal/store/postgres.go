package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/parkatlas/parkatlas/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, extracted so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool   Pool
	policy KeyPolicy
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, policy KeyPolicy, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, policy: policy}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS parks (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	name_key           TEXT NOT NULL,
	country            TEXT NOT NULL DEFAULT '',
	wiki_text          TEXT NOT NULL DEFAULT '',
	wiki_url           TEXT NOT NULL,
	wiki_input_tokens  BIGINT,
	wiki_output_tokens BIGINT,
	wiki_url_tokens    BIGINT,
	wiki_duration_sec  DOUBLE PRECISION NOT NULL DEFAULT 0,
	fields             JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parks_country ON parks(country);
`

const parkColumns = `id, name, name_key, country, wiki_text, wiki_url, wiki_input_tokens, wiki_output_tokens, wiki_url_tokens, wiki_duration_sec, fields, created_at, updated_at`

// Migrate creates the parks table and the uniqueness index matching the
// configured key policy.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}

	idx := `CREATE UNIQUE INDEX IF NOT EXISTS uq_parks_name_key ON parks(name_key)`
	if s.policy == KeyByWikiURL {
		idx = `CREATE UNIQUE INDEX IF NOT EXISTS uq_parks_wiki_url ON parks(wiki_url)`
	}
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return eris.Wrap(err, "postgres: create unique index")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertPark(ctx context.Context, park *model.Park) (*model.Park, error) {
	now := time.Now().UTC()
	id := park.ID
	if id == "" {
		id = uuid.New().String()
	}

	fieldsJSON, err := json.Marshal(park.Fields)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal fields")
	}

	conflictCol := "name_key"
	if s.policy == KeyByWikiURL {
		conflictCol = "wiki_url"
	}

	query := fmt.Sprintf(`INSERT INTO parks (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (%s) DO UPDATE SET
			name = EXCLUDED.name,
			name_key = EXCLUDED.name_key,
			country = EXCLUDED.country,
			wiki_text = EXCLUDED.wiki_text,
			wiki_url = EXCLUDED.wiki_url,
			wiki_input_tokens = EXCLUDED.wiki_input_tokens,
			wiki_output_tokens = EXCLUDED.wiki_output_tokens,
			wiki_url_tokens = EXCLUDED.wiki_url_tokens,
			wiki_duration_sec = EXCLUDED.wiki_duration_sec,
			fields = EXCLUDED.fields,
			updated_at = EXCLUDED.updated_at
		RETURNING `+parkColumns, parkColumns, conflictCol)

	row := s.pool.QueryRow(ctx, query,
		id, park.Name, NormalizeName(park.Name), park.Country,
		park.WikiText, park.WikiURL,
		park.WikiInputTokens, park.WikiOutputTokens, park.WikiURLTokens,
		park.WikiDurationSec, fieldsJSON, now, now,
	)

	saved, err := scanPark(row)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert park")
	}
	return saved, nil
}

func (s *PostgresStore) FindPark(ctx context.Context, name, wikiURL string) (*model.Park, error) {
	query := `SELECT ` + parkColumns + ` FROM parks WHERE name_key = $1`
	arg := NormalizeName(name)
	if s.policy == KeyByWikiURL {
		query = `SELECT ` + parkColumns + ` FROM parks WHERE wiki_url = $1`
		arg = wikiURL
	}

	park, err := scanPark(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find park")
	}
	return park, nil
}

func (s *PostgresStore) GetPark(ctx context.Context, id string) (*model.Park, error) {
	park, err := scanPark(s.pool.QueryRow(ctx,
		`SELECT `+parkColumns+` FROM parks WHERE id = $1`, id))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get park")
	}
	return park, nil
}

func (s *PostgresStore) ListParks(ctx context.Context, filter ListFilter) ([]model.Park, error) {
	query := `SELECT ` + parkColumns + ` FROM parks`
	var args []any
	if filter.Country != "" {
		query += ` WHERE country = $1`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list parks")
	}
	defer rows.Close()

	var parks []model.Park
	for rows.Next() {
		park, err := scanPark(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan park")
		}
		parks = append(parks, *park)
	}
	return parks, eris.Wrap(rows.Err(), "postgres: list parks rows")
}

func (s *PostgresStore) CountParks(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM parks`).Scan(&count); err != nil {
		return 0, eris.Wrap(err, "postgres: count parks")
	}
	return count, nil
}

func (s *PostgresStore) DeletePark(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM parks WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: delete park")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrap(pgx.ErrNoRows, "postgres: delete park")
	}
	return nil
}

// scanPark reads one park row. The row must carry parkColumns in order.
func scanPark(row pgx.Row) (*model.Park, error) {
	var (
		park      model.Park
		nameKey   string
		fieldsRaw []byte
	)
	err := row.Scan(
		&park.ID, &park.Name, &nameKey, &park.Country,
		&park.WikiText, &park.WikiURL,
		&park.WikiInputTokens, &park.WikiOutputTokens, &park.WikiURLTokens,
		&park.WikiDurationSec, &fieldsRaw, &park.CreatedAt, &park.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &park.Fields); err != nil {
			return nil, eris.Wrap(err, "unmarshal fields")
		}
	}
	return &park, nil
}
