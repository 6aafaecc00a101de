package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	_ DB = (*sql.DB)(nil)
	_ DB = (*FakeDB)(nil)
)

type rowsAffected int64

func (r rowsAffected) LastInsertId() (int64, error) { return 0, errors.New("not supported") }
func (r rowsAffected) RowsAffected() (int64, error) { return int64(r), nil }

func TestFakeDBUnsetPanics(t *testing.T) {
	db := &FakeDB{}
	ctx := context.Background()
	require.Panics(t, func() { db.ExecContext(ctx, "DELETE FROM equipment") })
	require.Panics(t, func() { db.QueryContext(ctx, "SELECT id FROM equipment") })
	require.Panics(t, func() { db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users") })
	require.Panics(t, func() { db.BeginTx(ctx, nil) })
	require.Panics(t, func() { db.PingContext(ctx) })
	require.NoError(t, db.Close())
}

func TestFakeDBDelegates(t *testing.T) {
	ctx := context.Background()
	var queries []string
	closed := false
	db := &FakeDB{
		ExecFn: func(_ context.Context, q string, args ...any) (sql.Result, error) {
			queries = append(queries, q)
			return rowsAffected(len(args)), nil
		},
		PingFn:  func(context.Context) error { return errors.New("busy") },
		CloseFn: func() error { closed = true; return nil },
	}

	res, err := db.ExecContext(ctx, "DELETE FROM equipment WHERE id IN (?, ?)", 1, 2)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Equal(t, []string{"DELETE FROM equipment WHERE id IN (?, ?)"}, queries)

	require.EqualError(t, db.PingContext(ctx), "busy")
	require.NoError(t, db.Close())
	require.True(t, closed)
}
