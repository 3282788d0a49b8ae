package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const preferencesSchema = `CREATE TABLE IF NOT EXISTS widget_preferences (
	client_id  TEXT PRIMARY KEY,
	language   TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is the part of *pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	p, err := newPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	p.pool = pool
	return p, nil
}

func newPostgresStore(ctx context.Context, db querier) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, preferencesSchema); err != nil {
		return nil, fmt.Errorf("create preferences table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Language returns "" when the client never chose one.
func (p *PostgresStore) Language(ctx context.Context, clientID string) (string, error) {
	var lang string
	err := p.db.QueryRow(ctx, "SELECT language FROM widget_preferences WHERE client_id = $1", clientID).Scan(&lang)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return lang, nil
}

func (p *PostgresStore) SetLanguage(ctx context.Context, clientID, lang string) error {
	query := `INSERT INTO widget_preferences (client_id, language, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (client_id) DO UPDATE SET
			language = EXCLUDED.language,
			updated_at = now()`
	_, err := p.db.Exec(ctx, query, clientID, lang)
	return err
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
