package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FranksOps/seoscribe/internal/storage"
)

var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
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
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

const columns = `id, keyword, trigger_name, status, failure_kind, error, model,
	people_also_ask, related_searches, competitor_headings, draft_bytes,
	affiliate_placeholders, duration_ms, created_at`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dsn, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, r *storage.RunRecord) error {
	query := `INSERT INTO runs (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := b.db.ExecContext(ctx, query,
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
		r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.ID, err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	query := `SELECT ` + columns + ` FROM runs WHERE 1=1`
	args := []any{}

	if filter.Keyword != "" {
		query += ` AND keyword = ?`
		args = append(args, filter.Keyword)
	}
	if filter.Trigger != "" {
		query += ` AND trigger_name = ?`
		args = append(args, filter.Trigger)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}

	query += ` ORDER BY created_at DESC`

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
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

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
