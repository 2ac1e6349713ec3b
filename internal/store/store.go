package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store records processed queries in PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// QueryRecord is one processed user query.
type QueryRecord struct {
	ID         string    `db:"query_id" json:"query_id"`
	Query      string    `db:"query_text" json:"query"`
	CodelistID string    `db:"codelist_id" json:"codelist_id"`
	Standard   string    `db:"standard" json:"standard"`
	AnswerKind string    `db:"answer_kind" json:"answer_kind"`
	Outcome    string    `db:"outcome" json:"outcome"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

const schema = `CREATE SCHEMA IF NOT EXISTS "codelist-genius";

CREATE TABLE IF NOT EXISTS "codelist-genius".query_history (
    query_id    UUID PRIMARY KEY,
    query_text  TEXT NOT NULL,
    codelist_id VARCHAR(64) NOT NULL DEFAULT '',
    standard    VARCHAR(32) NOT NULL DEFAULT '',
    answer_kind VARCHAR(32) NOT NULL DEFAULT '',
    outcome     VARCHAR(32) NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_query_history_created_at
    ON "codelist-genius".query_history (created_at DESC);`

// NewStore creates a new Store instance and opens a database connection.
func NewStore(connString string) (*Store, error) {
	db, err := sqlx.Connect("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromDB constructs a Store from an existing *sql.DB. Useful for tests.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB creates the schema and the query history table.
func (s *Store) InitDB(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute init SQL: %w", err)
	}
	return nil
}

// RecordQuery inserts one history row.
func (s *Store) RecordQuery(ctx context.Context, rec QueryRecord) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO "codelist-genius".query_history
         (query_id, query_text, codelist_id, standard, answer_kind, outcome, created_at)
         VALUES (:query_id, :query_text, :codelist_id, :standard, :answer_kind, :outcome, :created_at)`,
		rec)
	if err != nil {
		return fmt.Errorf("failed to record query %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecentQueries returns up to limit records, newest first.
func (s *Store) ListRecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	var records []QueryRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT query_id::text, query_text, codelist_id, standard, answer_kind, outcome, created_at
         FROM "codelist-genius".query_history
         ORDER BY created_at DESC
         LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query history: %w", err)
	}
	return records, nil
}
