package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableDB keeps widget_preferences rows in a map and records statements.
type tableDB struct {
	mu    sync.Mutex
	rows  map[string]string
	stmts []string
	err   error
}

func (d *tableDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stmts = append(d.stmts, sql)
	if d.err != nil {
		return pgconn.CommandTag{}, d.err
	}
	if strings.HasPrefix(sql, "INSERT") {
		d.rows[args[0].(string)] = args[1].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (d *tableDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	return row{val: d.rows[args[0].(string)], err: d.err}
}

type row struct {
	val string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.val == "" {
		return pgx.ErrNoRows
	}
	*dest[0].(*string) = r.val
	return nil
}

func TestPostgresStore(t *testing.T) {
	db := &tableDB{rows: map[string]string{}}
	s, err := newPostgresStore(context.Background(), db)
	require.NoError(t, err)
	assert.Contains(t, db.stmts[0], "CREATE TABLE IF NOT EXISTS widget_preferences")

	exercise(t, s)
	assert.Contains(t, db.stmts[len(db.stmts)-1], "ON CONFLICT (client_id) DO UPDATE")
	require.NoError(t, s.Close())
}

func TestPostgresStoreErrors(t *testing.T) {
	db := &tableDB{rows: map[string]string{}, err: errors.New("conn closed")}
	_, err := newPostgresStore(context.Background(), db)
	assert.Error(t, err)

	s := &PostgresStore{db: db}
	_, err = s.Language(context.Background(), "client-1")
	assert.Error(t, err)
	assert.Error(t, s.SetLanguage(context.Background(), "client-1", "es"))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = NewPostgresStore(ctx, "postgres://widget@127.0.0.1:1/widget?connect_timeout=1")
	assert.Error(t, err)
}

func TestPostgresStoreLive(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.pool.Exec(context.Background(), "DELETE FROM widget_preferences WHERE client_id IN ('client-1', 'client-2')")
	require.NoError(t, err)
	exercise(t, s)
}
