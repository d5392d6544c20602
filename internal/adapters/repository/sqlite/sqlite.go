// Package sqlite stores raw records as JSON documents in SQLite and serves
// filtered snapshots from them.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/streetpass/internal/adapters/repository"
	"github.com/okian/streetpass/internal/domain/model"
	"github.com/okian/streetpass/internal/domain/normalize"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    dataset TEXT NOT NULL,
    id TEXT NOT NULL,
    ts_ms INTEGER,
    body TEXT NOT NULL,
    PRIMARY KEY (dataset, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_ts ON documents(dataset, ts_ms);
`

// Provider is a repository.Provider backed by a SQLite database.
type Provider struct {
	db *sql.DB
}

// Open opens dsn and creates the schema when missing.
func Open(ctx context.Context, dsn string) (*Provider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared across queries
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Provider{db: db}, nil
}

// Put inserts or replaces records of dataset. The timestamp column is
// filled from the dataset's time field; unresolvable values store NULL.
func (p *Provider) Put(ctx context.Context, dataset repository.Dataset, records ...model.RawRecord) error {
	spec, err := repository.Lookup(dataset)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (dataset, id, ts_ms, body) VALUES (?, ?, ?, ?)
		ON CONFLICT(dataset, id) DO UPDATE SET ts_ms = excluded.ts_ms, body = excluded.body
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		body, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
		}
		var ts sql.NullInt64
		if ms, ok := normalize.Timestamp(rec.Fields[spec.TimeField]); ok {
			ts = sql.NullInt64{Int64: ms, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, string(dataset), rec.ID, ts, string(body)); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Fetch implements repository.Provider.
func (p *Provider) Fetch(ctx context.Context, dataset repository.Dataset, filter repository.Filter) ([]model.RawRecord, error) {
	if _, err := repository.Lookup(dataset); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args := buildQuery(dataset, filter)
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetch, dataset, err)
	}
	defer rows.Close()

	var out []model.RawRecord
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetch, dataset, err)
		}
		fields, err := decode(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: record %s: %w", repository.ErrFetch, dataset, id, err)
		}
		out = append(out, model.RawRecord{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", repository.ErrFetch, dataset, err)
	}
	return out, nil
}

func buildQuery(dataset repository.Dataset, filter repository.Filter) (string, []any) {
	var b strings.Builder
	args := []any{string(dataset)}
	b.WriteString("SELECT id, body FROM documents WHERE dataset = ?")
	if !filter.Since.IsZero() {
		b.WriteString(" AND ts_ms IS NOT NULL AND ts_ms >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if filter.Desc {
		b.WriteString(" ORDER BY ts_ms IS NULL, ts_ms DESC, id")
	} else {
		b.WriteString(" ORDER BY rowid")
	}
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	return b.String(), args
}

// decode keeps numbers as json.Number so large epoch millis stay exact.
func decode(body string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Close implements repository.Provider.
func (p *Provider) Close(context.Context) error {
	return p.db.Close()
}
