package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/seoscribe/internal/storage"
)

var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS seoscribe_runs (
	id TEXT PRIMARY KEY,
	keyword TEXT NOT NULL,
	trigger_name TEXT NOT NULL,
	status TEXT NOT NULL,
	failure_kind TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	people_also_ask INTEGER NOT NULL,
	related_searches INTEGER NOT NULL,
	competitor_headings INTEGER NOT NULL,
	draft_bytes INTEGER NOT NULL,
	affiliate_placeholders INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS seoscribe_runs_created_at ON seoscribe_runs (created_at DESC);
`

const columns = `id, keyword, trigger_name, status, failure_kind, error, model,
	people_also_ask, related_searches, competitor_headings, draft_bytes,
	affiliate_placeholders, duration_ms, created_at`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating postgres schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, r *storage.RunRecord) error {
	query := `INSERT INTO seoscribe_runs (` + columns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := b.pool.Exec(ctx, query,
		r.ID,
		r.Keyword,
		r.Trigger,
		r.Status,
		r.FailureKind,
		r.Error,
		r.Model,
		r.PeopleAlsoAsk,
		r.RelatedSearches,
		r.CompetitorHeadings,
		r.DraftBytes,
		r.AffiliatePlaceholders,
		r.Duration.Milliseconds(),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.ID, err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	query := `SELECT ` + columns + ` FROM seoscribe_runs WHERE 1=1`
	args := []any{}
	n := 1

	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, n)
		args = append(args, v)
		n++
	}

	if filter.Keyword != "" {
		add(` AND keyword = $%d`, filter.Keyword)
	}
	if filter.Trigger != "" {
		add(` AND trigger_name = $%d`, filter.Trigger)
	}
	if filter.Status != "" {
		add(` AND status = $%d`, filter.Status)
	}
	if filter.Since != nil {
		add(` AND created_at >= $%d`, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		add(` LIMIT $%d`, filter.Limit)
	}
	if filter.Offset > 0 {
		add(` OFFSET $%d`, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var results []*storage.RunRecord
	for rows.Next() {
		var r storage.RunRecord
		var durationMs int64

		err := rows.Scan(
			&r.ID, &r.Keyword, &r.Trigger, &r.Status, &r.FailureKind, &r.Error, &r.Model,
			&r.PeopleAlsoAsk, &r.RelatedSearches, &r.CompetitorHeadings, &r.DraftBytes,
			&r.AffiliatePlaceholders, &durationMs, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
