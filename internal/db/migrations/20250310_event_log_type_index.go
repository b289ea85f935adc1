package migrations

import (
	"gorm.io/gorm"
)

// AddEventLogTypeIndex serves the event log listing, filtered by type and read newest id first
func AddEventLogTypeIndex(tx *gorm.DB) error {
	return tx.Exec("CREATE INDEX IF NOT EXISTS event_log_type_id_index ON event_logs (event_type, id)").Error
}
