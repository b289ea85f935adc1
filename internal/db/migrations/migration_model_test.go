package migrations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDb, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive across queries
	sqlDb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDb.Close() })

	require.NoError(t, db.Exec("CREATE TABLE event_logs (id INTEGER PRIMARY KEY, event_type TEXT NOT NULL)").Error)
	return db
}

func TestRunAllAppliesOnce(t *testing.T) {
	db := openTestDB(t)
	mm := NewMigrationManager(db)
	require.NoError(t, mm.EnsureMigrationTable())

	applied, err := mm.RunAll(Steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250310_event_log_type_index"}, applied)
	assert.True(t, db.Migrator().HasIndex("event_logs", "event_log_type_id_index"))

	applied, err = mm.RunAll(Steps)
	require.NoError(t, err)
	assert.Empty(t, applied)

	list, err := mm.Applied()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "20250310_event_log_type_index", list[0].Name)
	assert.False(t, list[0].AppliedAt.IsZero())
}

func TestRunMigrationRollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	mm := NewMigrationManager(db)
	require.NoError(t, mm.EnsureMigrationTable())

	ran, err := mm.RunMigration("broken", func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE TABLE scratch (id INTEGER)").Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, ran)
	assert.Contains(t, err.Error(), "migration broken failed")
	assert.False(t, db.Migrator().HasTable("scratch"))

	list, err := mm.Applied()
	require.NoError(t, err)
	assert.Empty(t, list)
}
