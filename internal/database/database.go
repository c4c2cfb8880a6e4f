package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZJUSCT/arena/internal/config"
	"github.com/ZJUSCT/arena/internal/database/models"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(storage config.Storage) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch storage.Driver {
	case "", "sqlite":
		dsn := storage.Database
		if !isMemoryDSN(dsn) {
			if _, err := os.Stat(dsn); os.IsNotExist(err) {
				zap.S().Infof("database file not found at '%s', creating directory for it.", dsn)
				if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
					return nil, err
				}
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(storage.Database)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", storage.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// unique index violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.ContestParticipant{},
		&models.Attempt{},
		&models.Wallet{},
		&models.CoinTransaction{},
	)
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
