package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"p9e.in/eicr/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01092026_create_schedule_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Schedule{}, &models.CircuitTestResult{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&models.CircuitTestResult{}, &models.Schedule{})
			},
		},
		{
			ID: "01092026_add_schedule_audits",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.ScheduleAudit{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&models.ScheduleAudit{})
			},
		},
		{
			ID: "08092026_index_circuit_render_order",
			Migrate: func(tx *gorm.DB) error {
				// Circuits are always listed by schedule then position.
				table := "circuit_test_results"
				indexName := "idx_" + table + "_schedule_position"
				return tx.Exec("CREATE INDEX IF NOT EXISTS " + pq.QuoteIdentifier(indexName) +
					" ON " + pq.QuoteIdentifier(table) + " (schedule_id, position)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS " + pq.QuoteIdentifier("idx_circuit_test_results_schedule_position")).Error
			},
		},
		{
			ID: "15102026_add_schedule_audit_outcome",
			Migrate: func(tx *gorm.DB) error {
				for _, col := range []string{"Path", "Failed"} {
					if tx.Migrator().HasColumn(&models.ScheduleAudit{}, col) {
						continue
					}
					if err := tx.Migrator().AddColumn(&models.ScheduleAudit{}, col); err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				for _, col := range []string{"Path", "Failed"} {
					if err := tx.Migrator().DropColumn(&models.ScheduleAudit{}, col); err != nil {
						return err
					}
				}
				return nil
			},
		},
	})
	return m.Migrate()
}
