package migrations

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration is one applied schema step of the vault database
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// Step is a named schema change applied at most once
type Step struct {
	Name  string
	Apply func(tx *gorm.DB) error
}

// Steps lists the vault schema changes in the order they ship
var Steps = []Step{
	{Name: "20250310_event_log_type_index", Apply: AddEventLogTypeIndex},
}

type MigrationManager struct {
	db *gorm.DB
}

func NewMigrationManager(db *gorm.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

func (m *MigrationManager) EnsureMigrationTable() error {
	if !m.db.Migrator().HasTable(&Migration{}) {
		log.Debugf("Creating migrations table")
		return m.db.AutoMigrate(&Migration{})
	}
	return nil
}

// RunAll applies every pending step and returns the names it applied
func (m *MigrationManager) RunAll(steps []Step) ([]string, error) {
	var applied []string
	for _, step := range steps {
		ran, err := m.RunMigration(step.Name, step.Apply)
		if err != nil {
			return applied, err
		}
		if ran {
			applied = append(applied, step.Name)
		}
	}
	return applied, nil
}

// RunMigration applies migrationFn and records name in one transaction, skipping steps already recorded
func (m *MigrationManager) RunMigration(name string, migrationFn func(*gorm.DB) error) (bool, error) {
	ran := false
	err := m.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Migration{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("check migration status: %w", err)
		}
		if count > 0 {
			log.Debugf("Migration %s has already been applied, skipping", name)
			return nil
		}

		if err := migrationFn(tx); err != nil {
			return err
		}
		if err := tx.Create(&Migration{Name: name, AppliedAt: time.Now()}).Error; err != nil {
			return fmt.Errorf("record migration: %w", err)
		}
		ran = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("migration %s failed: %w", name, err)
	}
	if ran {
		log.Infof("Applied migration %s", name)
	}
	return ran, nil
}

// Applied lists recorded migrations, oldest first
func (m *MigrationManager) Applied() ([]Migration, error) {
	var list []Migration
	if err := m.db.Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
