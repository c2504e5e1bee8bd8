package database

import (
	"context"

	"github.com/tech-arch1tect/hrcore/config"
	"github.com/tech-arch1tect/hrcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) (*gorm.DB, error) {
	db, err := Open(cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

var Module = fx.Options(
	fx.Provide(ProvideDatabase),
)
