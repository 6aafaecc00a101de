package auth

import (
	"context"
	"database/sql"
	"testing"

	"lab-inventory/internal/database"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return db
}
