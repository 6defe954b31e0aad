package cmd

import (
	"time"

	"procsync/internal/source"
	"procsync/internal/warehouse"
	"procsync/pkg/models"
)

// parseTimeout converts a config duration string, falling back on garbage
func parseTimeout(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func newSourceReader(cfg *models.Config) *source.Reader {
	return source.NewReader(source.Config{
		Path:       cfg.Databases.OperationalPath,
		Timeout:    parseTimeout(cfg.Databases.Timeout, 30*time.Second),
		MaxRetries: cfg.ETL.MaxRetries,
		BatchSize:  cfg.ETL.BatchSize,
	})
}

func newWarehouseService(cfg *models.Config) *warehouse.Service {
	return warehouse.NewService(warehouse.Config{
		Path:        cfg.Databases.AnalyticsPath,
		Timeout:     parseTimeout(cfg.Databases.Timeout, 30*time.Second),
		MaxRetries:  cfg.ETL.MaxRetries,
		WALMode:     cfg.Databases.WALMode,
		ForeignKeys: cfg.Databases.ForeignKeys,
	})
}
