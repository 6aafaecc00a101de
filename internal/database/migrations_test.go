package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	dbdriver "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	src "github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct{ upErr, downErr, stepsErr error }

func (f fakeMigrator) Up() error       { return f.upErr }
func (f fakeMigrator) Down() error     { return f.downErr }
func (f fakeMigrator) Steps(int) error { return f.stepsErr }

func restore() {
	sqlOpenDB = sql.Open
	sqliteWithInstanceFn = sqlite.WithInstance
	iofsNewFn = iofs.New
	migrateNewWithInstance = func(sourceName string, sourceDriver src.Driver, databaseName string, databaseDriver dbdriver.Driver) (migrateInstance, error) {
		m, err := migrate.NewWithInstance(sourceName, sourceDriver, databaseName, databaseDriver)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func TestRunMigrationsAndRollback(t *testing.T) {
	t.Cleanup(restore)
	sqliteWithInstanceFn = func(*sql.DB, *sqlite.Config) (dbdriver.Driver, error) { return nil, errors.New("drv") }
	require.Error(t, RunMigrations(nil))

	sqliteWithInstanceFn = func(*sql.DB, *sqlite.Config) (dbdriver.Driver, error) { return nil, nil }
	iofsNewFn = func(f fs.FS, s string) (src.Driver, error) { return nil, errors.New("src") }
	require.Error(t, RunMigrations(nil))

	iofsNewFn = func(f fs.FS, s string) (src.Driver, error) { return nil, nil }
	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return nil, errors.New("mig")
	}
	require.Error(t, RunMigrations(nil))
	require.Error(t, RollbackAll(nil))
	require.Error(t, MigrateSteps(nil, 1))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{upErr: errors.New("u")}, nil
	}
	require.Error(t, RunMigrations(nil))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{upErr: migrate.ErrNoChange}, nil
	}
	require.NoError(t, RunMigrations(nil))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) { return fakeMigrator{}, nil }
	require.NoError(t, RollbackAll(nil))
	require.NoError(t, MigrateSteps(nil, -1))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{downErr: errors.New("d"), stepsErr: errors.New("s")}, nil
	}
	require.Error(t, RollbackAll(nil))
	require.Error(t, MigrateSteps(nil, 1))
}

func TestMigrationsAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(ctx, MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db))
	// 第二次沒有變更
	require.NoError(t, RunMigrations(db))

	tableExists := func(name string) bool {
		var n int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n))
		return n == 1
	}
	require.True(t, tableExists("users"))
	require.True(t, tableExists("equipment"))

	_, err = db.ExecContext(ctx, `INSERT INTO users (first_name, last_name, email, panther_id, role) VALUES ('a','b','a@x.edu','1','admin')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO users (first_name, last_name, email, panther_id, role) VALUES ('c','d','a@x.edu','2','admin')`)
	require.True(t, IsUniqueViolation(err))

	_, err = db.ExecContext(ctx, `INSERT INTO equipment (name, category, lab, serial_number, quantity, status) VALUES ('n','c','EC3625','S',0,'Surplus')`)
	require.Error(t, err)
	require.False(t, IsUniqueViolation(err))

	require.NoError(t, RollbackAll(db))
	require.False(t, tableExists("users"))
	require.False(t, tableExists("equipment"))
}
