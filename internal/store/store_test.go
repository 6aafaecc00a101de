package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
)

func newTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func mustCreateUser(t *testing.T, db database.DB, email, pantherID, role string, labs ...string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, &model.User{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          email,
		PantherID:      pantherID,
		Role:           role,
		AuthorizedLabs: labs,
		Status:         model.UserStatusActive,
	})
	require.NoError(t, err)
	return u
}
