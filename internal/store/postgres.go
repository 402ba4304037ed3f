package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT  NOT NULL,
	position   INT   NOT NULL,
	body       JSONB NOT NULL,
	PRIMARY KEY (collection, position)
)`

// PostgresStore keeps every record as one JSONB row, ordered by position.
type PostgresStore struct{ DB *pgxpool.Pool }

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := s.DB.Query(ctx, `SELECT body FROM documents WHERE collection=$1 ORDER BY position`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(body))
	}
	return out, rows.Err()
}

// Replace swaps the whole collection in one transaction. The advisory lock
// keeps two replacers of the same collection from interleaving.
func (s *PostgresStore) Replace(ctx context.Context, collection string, records []json.RawMessage) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection=$1`, collection); err != nil {
		return err
	}
	for i, rec := range records {
		if _, err := tx.Exec(ctx, `
			INSERT INTO documents(collection, position, body)
			VALUES ($1, $2, $3::jsonb)`,
			collection, i, string(rec),
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
