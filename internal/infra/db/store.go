package db

import (
	"fmt"
	"log/slog"

	"github.com/nas11ai/tugas-akhir-sub000/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

// NewStore connects to Postgres when a DSN is configured. Without one
// the service runs in no-db mode: orphan journaling degrades to log
// lines only.
func NewStore(cfg config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.PostgresDSN == "" {
		if logger != nil {
			logger.Info("POSTGRES_DSN not set; orphan journal disabled")
		}
		return &Store{DB: nil}, nil
	}
	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := gdb.AutoMigrate(&OrphanedArtifactModel{}); err != nil {
		return nil, fmt.Errorf("migrate orphan journal: %w", err)
	}
	return &Store{DB: gdb}, nil
}
