package cmd

import (
	"fmt"
	"log/slog"

	"tradeerp/internal/adapters/out/memory"
	postgresadapter "tradeerp/internal/adapters/out/postgres"
	"tradeerp/internal/core/ports"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the selected persistence driver.
type Storage struct {
	UoWFactory ports.UnitOfWorkFactory
	Close      func() error
}

// OpenStorage connects the driver named by cfg.StorageDriver. PostgreSQL is
// the default; its schema is migrated on open.
func OpenStorage(cfg Config, log *slog.Logger) (Storage, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		log.Warn("Using in-memory storage, data is lost on exit")
		return Storage{
			UoWFactory: memory.NewUnitOfWorkFactory(memory.NewStore()),
			Close:      func() error { return nil },
		}, nil
	case "", StorageDriverPostgres:
	default:
		return Storage{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return Storage{}, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := postgresadapter.AutoMigrate(db); err != nil {
		return Storage{}, fmt.Errorf("migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return Storage{}, err
	}
	return Storage{
		UoWFactory: postgresadapter.NewGormUnitOfWorkFactory(db),
		Close:      sqlDB.Close,
	}, nil
}
