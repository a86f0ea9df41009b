// Package recorder archives fetched price series for offline analysis.
// Nothing recorded is ever read back into application state.
package recorder

import (
	"context"
	"fmt"

	"stockchart/config"
	"stockchart/internal/model"
	"stockchart/pkg/storage/postgres"
	"stockchart/pkg/storage/sqlite"

	"go.uber.org/zap"
)

// Recorder persists a fetched series.
type Recorder interface {
	RecordSeries(ctx context.Context, req model.SeriesRequest, points []model.PricePoint) error
	Close() error
}

// New opens the recorder selected by cfg.Recorder.Driver.
func New(cfg *config.Config, logger *zap.Logger) (Recorder, error) {
	switch cfg.Recorder.Driver {
	case "", "none":
		return NewNoopRecorder(), nil
	case "memory":
		return NewMemoryRecorder(), nil
	case "postgres":
		client, err := postgres.InitializeAndMigratePriceRecord(cfg.Postgres, cfg.Log.Environment, cfg.Recorder.CreateDB)
		if err != nil {
			return nil, fmt.Errorf("postgres recorder: %w", err)
		}
		logger.Info("postgres recorder opened", zap.String("dbname", cfg.Postgres.DBName))
		return client, nil
	case "sqlite":
		archive, err := sqlite.Open(cfg.Recorder.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite recorder: %w", err)
		}
		logger.Info("sqlite recorder opened", zap.String("path", cfg.Recorder.SQLitePath))
		return archive, nil
	default:
		return nil, fmt.Errorf("unknown recorder driver %q", cfg.Recorder.Driver)
	}
}
