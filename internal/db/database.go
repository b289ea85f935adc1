package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goatnetwork/solver-vault/internal/config"
	"github.com/goatnetwork/solver-vault/internal/db/migrations"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DatabaseManager struct {
	vaultDb *gorm.DB
}

// NewDatabaseManager opens the vault database under DB_DIR. The memory ledger keeps its
// state in an in-memory database, persisting it would outlive the balances it describes.
func NewDatabaseManager() *DatabaseManager {
	path := MEMORY_DSN
	if config.AppConfig.LedgerBackend != config.LEDGER_BACKEND_MEMORY {
		dbDir := config.AppConfig.DbDir
		if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
		path = filepath.Join(dbDir, VAULT_DB_FILE)
	}
	dm, err := OpenDatabaseManager(path)
	if err != nil {
		log.Fatalf("Failed to open vault database: %v", err)
	}
	return dm
}

// OpenDatabaseManager opens and migrates the sqlite database at path
func OpenDatabaseManager(path string) (*DatabaseManager, error) {
	vaultDb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect vault database: %w", err)
	}
	if path == MEMORY_DSN {
		// every pooled connection would otherwise get its own empty database
		sqlDb, err := vaultDb.DB()
		if err != nil {
			return nil, err
		}
		sqlDb.SetMaxOpenConns(1)
	}
	log.Debugf("Vault database connected successfully, path: %s", path)

	dm := &DatabaseManager{vaultDb: vaultDb}
	if err := dm.autoMigrate(); err != nil {
		return nil, err
	}
	log.Debugf("Database migration completed successfully")
	return dm, nil
}

func (dm *DatabaseManager) autoMigrate() error {
	if err := dm.vaultDb.AutoMigrate(&VaultParams{}, &LedgerState{}, &WithdrawRequest{}, &RoleGrant{}, &EventLog{}); err != nil {
		return fmt.Errorf("migrate vault database: %w", err)
	}
	mm := migrations.NewMigrationManager(dm.vaultDb)
	if err := mm.EnsureMigrationTable(); err != nil {
		return err
	}
	if _, err := mm.RunAll(migrations.Steps); err != nil {
		return err
	}
	return nil
}

func (dm *DatabaseManager) GetVaultDB() *gorm.DB {
	return dm.vaultDb
}

func (dm *DatabaseManager) Close() error {
	sqlDb, err := dm.vaultDb.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
