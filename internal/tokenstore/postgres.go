package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"garansi-console/pkg/utils"
)

const createStorageTable = `
CREATE TABLE IF NOT EXISTS console_storage (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// PostgresBackend keeps the session in a shared database table.
type PostgresBackend struct {
	db        *sql.DB
	namespace string
}

// NewPostgres creates the storage table when missing.
func NewPostgres(ctx context.Context, db *sql.DB, namespace string) (*PostgresBackend, error) {
	if db == nil {
		return nil, errors.New("postgres backend requires a database handle")
	}
	if namespace == "" {
		namespace = "default"
	}
	if _, err := db.ExecContext(ctx, createStorageTable); err != nil {
		return nil, fmt.Errorf("create console_storage: %w", err)
	}
	return &PostgresBackend{db: db, namespace: namespace}, nil
}

func (p *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM console_storage WHERE namespace = $1 AND key = $2`,
		p.namespace, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *PostgresBackend) SetAll(ctx context.Context, values map[string]string) error {
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for k, v := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO console_storage (namespace, key, value, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (namespace, key) DO UPDATE
				SET value = EXCLUDED.value, updated_at = now()`,
				p.namespace, k, v,
			)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", k, err)
			}
		}
		return nil
	})
}

func (p *PostgresBackend) DeleteAll(ctx context.Context, keys ...string) error {
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM console_storage WHERE namespace = $1 AND key = $2`,
				p.namespace, k,
			); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

func (p *PostgresBackend) Close() error {
	return p.db.Close()
}
