package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lab-inventory/internal/database"
	"lab-inventory/internal/store"
)

func newTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func restore() {
	listSerialNumbers = store.ListSerialNumbers
	createEquipment = store.CreateEquipment
	deleteAllEquipment = store.DeleteAllEquipment
	countEquipment = store.CountEquipment
	countEquipmentByStatus = store.CountEquipmentByStatus
	countEquipmentByLab = store.CountEquipmentByLab
	listEquipment = store.ListEquipment
	timeNow = time.Now
}
