package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store over three tables: a kv table for buckets, an
// append-only log table, and a sequence table. Variants stay keyed by SKU,
// accounts by user, orders by id, the ledger as an ordered sequence, so every
// balance remains reconstructable from the log.
type Postgres struct {
	DB *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres { return &Postgres{DB: db} }

// EnsureSchema creates the backing tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			bucket TEXT NOT NULL,
			key    TEXT NOT NULL,
			value  JSONB NOT NULL,
			PRIMARY KEY (bucket, key)
		)`,
		`CREATE TABLE IF NOT EXISTS log (
			pos    BIGSERIAL PRIMARY KEY,
			bucket TEXT NOT NULL,
			value  JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS log_bucket_idx ON log (bucket, pos)`,
		`CREATE TABLE IF NOT EXISTS seqs (
			name  TEXT PRIMARY KEY,
			value BIGINT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := p.DB.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var v []byte
	err := p.DB.QueryRow(ctx,
		`SELECT value FROM kv WHERE bucket=$1 AND key=$2`, bucket, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Postgres) Put(ctx context.Context, bucket, key string, value []byte) error {
	_, err := p.DB.Exec(ctx, `
		INSERT INTO kv (bucket, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value`,
		bucket, key, value)
	return err
}

func (p *Postgres) List(ctx context.Context, bucket string) ([][]byte, error) {
	rows, err := p.DB.Query(ctx, `SELECT value FROM kv WHERE bucket=$1`, bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) Append(ctx context.Context, bucket string, value []byte) error {
	_, err := p.DB.Exec(ctx,
		`INSERT INTO log (bucket, value) VALUES ($1, $2)`, bucket, value)
	return err
}

func (p *Postgres) Log(ctx context.Context, bucket string) ([][]byte, error) {
	rows, err := p.DB.Query(ctx,
		`SELECT value FROM log WHERE bucket=$1 ORDER BY pos`, bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) NextID(ctx context.Context, seq string) (int64, error) {
	var id int64
	err := p.DB.QueryRow(ctx, `
		INSERT INTO seqs (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = seqs.value + 1
		RETURNING value`, seq).Scan(&id)
	return id, err
}
