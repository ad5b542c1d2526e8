package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationSyncNextActionDone = "2026-10-01_sync_next_action_done"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSyncNextActionDone, apply: syncNextActionDone},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.apply(tx); err != nil {
				return err
			}
			appliedAt := time.Now().UTC().Unix()
			return tx.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error
		}); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// syncNextActionDone repairs rows where the done flag disagrees with status.
func syncNextActionDone(db *gorm.DB) error {
	if err := db.Model(&planner.NextAction{}).
		Where("status = ? AND done = ?", string(planner.NextActionDone), false).
		Update("done", true).Error; err != nil {
		return err
	}
	return db.Model(&planner.NextAction{}).
		Where("status <> ? AND done = ?", string(planner.NextActionDone), true).
		Update("done", false).Error
}
