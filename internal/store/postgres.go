// Package store holds the persistent status stores and activity sinks.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// DBTX is the subset of pgx used by the Postgres store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// Schema creates the tables used by Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS export_status (
	key              TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	status           TEXT NOT NULL,
	last_error       TEXT NOT NULL DEFAULT '',
	last_exported_at TIMESTAMPTZ,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS export_status_domain_idx ON export_status (domain);

CREATE TABLE IF NOT EXISTS activity_log (
	id         UUID PRIMARY KEY,
	level      TEXT NOT NULL,
	action     TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	run_id     TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	counts     JSONB,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS activity_log_created_idx ON activity_log (created_at DESC);
`

// Postgres stores export statuses and activity entries in PostgreSQL.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pool. Call Migrate once before use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const upsertStatus = `
	INSERT INTO export_status (key, domain, status, last_error, last_exported_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (key) DO UPDATE SET
		status = EXCLUDED.status,
		last_error = EXCLUDED.last_error,
		last_exported_at = EXCLUDED.last_exported_at,
		updated_at = EXCLUDED.updated_at`

func statusArgs(e core.StatusEntry) []any {
	var exported *time.Time
	if !e.LastExportedAt.IsZero() {
		t := e.LastExportedAt
		exported = &t
	}
	return []any{string(e.Key), string(e.Key.Domain()), string(e.Status), e.LastError, exported, e.UpdatedAt}
}

func (p *Postgres) Get(ctx context.Context, key core.RecordKey) (core.StatusEntry, bool, error) {
	row := p.db.QueryRow(ctx, `
		SELECT key, status, last_error, last_exported_at, updated_at
		FROM export_status WHERE key = $1`, string(key))

	e, err := scanStatus(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.StatusEntry{}, false, nil
	}
	if err != nil {
		return core.StatusEntry{}, false, fmt.Errorf("get status: %w", err)
	}
	return e, true, nil
}

func (p *Postgres) Put(ctx context.Context, e core.StatusEntry) error {
	if _, err := p.db.Exec(ctx, upsertStatus, statusArgs(e)...); err != nil {
		return fmt.Errorf("put status: %w", err)
	}
	return nil
}

// PutMany writes every entry in one round trip.
func (p *Postgres) PutMany(ctx context.Context, entries []core.StatusEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(upsertStatus, statusArgs(e)...)
	}

	br := p.db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec %d: %w", i, err)
		}
	}
	return br.Close()
}

func (p *Postgres) List(ctx context.Context, domain core.Domain) ([]core.StatusEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT key, status, last_error, last_exported_at, updated_at
		FROM export_status WHERE domain = $1 ORDER BY key`, string(domain))
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []core.StatusEntry
	for rows.Next() {
		e, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Clear(ctx context.Context, domain core.Domain) (int, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM export_status WHERE domain = $1`, string(domain))
	if err != nil {
		return 0, fmt.Errorf("clear statuses: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanStatus(row pgx.Row) (core.StatusEntry, error) {
	var (
		e        core.StatusEntry
		key      string
		status   string
		exported *time.Time
	)
	if err := row.Scan(&key, &status, &e.LastError, &exported, &e.UpdatedAt); err != nil {
		return core.StatusEntry{}, err
	}
	e.Key = core.RecordKey(key)
	e.Status = core.Status(status)
	if exported != nil {
		e.LastExportedAt = exported.UTC()
	}
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

// Write implements core.LogSink.
func (p *Postgres) Write(ctx context.Context, e core.LogEntry) error {
	var counts []byte
	if len(e.Counts) > 0 {
		var err error
		if counts, err = json.Marshal(e.Counts); err != nil {
			return fmt.Errorf("encode counts: %w", err)
		}
	}

	_, err := p.db.Exec(ctx, `
		INSERT INTO activity_log (id, level, action, domain, run_id, message, counts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, string(e.Level), string(e.Action), string(e.Domain), e.RunID, e.Message, counts, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivity returns matching activity entries, newest first.
func (p *Postgres) ListActivity(ctx context.Context, f core.ActivityFilter) ([]core.LogEntry, error) {
	if f.Limit <= 0 {
		f.Limit = core.DefaultActivityLimit
	}

	rows, err := p.db.Query(ctx, `
		SELECT id::text, level, action, domain, run_id, message, counts, created_at
		FROM activity_log
		WHERE ($1 = '' OR domain = $1) AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		string(f.Domain), string(f.Action), f.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []core.LogEntry
	for rows.Next() {
		var (
			e                         core.LogEntry
			id, level, action, domain string
			counts                    []byte
		)
		if err := rows.Scan(&id, &level, &action, &domain, &e.RunID, &e.Message, &counts, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.ID = id
		e.Level = core.LogLevel(level)
		e.Action = core.ActivityAction(action)
		e.Domain = core.Domain(domain)
		e.Timestamp = e.Timestamp.UTC()
		if len(counts) > 0 {
			if err := json.Unmarshal(counts, &e.Counts); err != nil {
				return nil, fmt.Errorf("decode counts: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ActivityReader adapts the store to core.ActivityReader.
func (p *Postgres) ActivityReader() core.ActivityReader {
	return activityReader{p}
}

type activityReader struct{ p *Postgres }

func (r activityReader) List(ctx context.Context, f core.ActivityFilter) ([]core.LogEntry, error) {
	return r.p.ListActivity(ctx, f)
}
