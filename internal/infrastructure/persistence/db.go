package persistence

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/newsbot/cryptonews/internal/infrastructure/config"
	"github.com/newsbot/cryptonews/internal/infrastructure/persistence/models"
)

// NewDBConnection opens the single-file embedded sqlite store at
// cfg.Path and migrates it to the current schema.
func NewDBConnection(cfg *config.StorageConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ItemModel{},
		&models.ResultModel{},
		&models.RunModel{},
	)
}
