package database

import (
	"fmt"
	"strings"

	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"github.com/tech-arch1tect/hrcore/services/user"
	"github.com/tech-arch1tect/hrcore/session"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models are the tables owned by this module, in migration order.
func Models() []any {
	return []any{
		&user.Organization{},
		&user.User{},
		&session.Session{},
	}
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", cfg.Driver)
	}
}

// Open connects with error translation enabled so unique violations surface
// as gorm.ErrDuplicatedKey on every driver.
func Open(cfg config.DatabaseConfig, logLevel string, logger *logging.Service) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	mode := gormlogger.Silent
	if strings.EqualFold(logLevel, "debug") {
		mode = gormlogger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(mode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" && strings.Contains(cfg.DSN, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("database connected", zap.String("driver", cfg.Driver))
	return db, nil
}

func Migrate(db *gorm.DB, models ...any) error {
	if len(models) == 0 {
		models = Models()
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}
