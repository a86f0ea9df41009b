package postgres

import (
	"context"
	"fmt"
	"time"

	"stockchart/internal/model"

	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// RecordSeries archives points fetched for req. Points already stored for the
// same symbol, resolution and time are left untouched.
func (p *PostgresClient) RecordSeries(ctx context.Context, req model.SeriesRequest, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	_, err := p.InsertPricePoints(ctx, ToPricePointRecords(req, points))
	return err
}

// InsertPricePoints inserts records in batches and returns how many were new.
func (p *PostgresClient) InsertPricePoints(ctx context.Context, records []PricePointRecord) (int64, error) {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "resolution"},
			{Name: "time"},
		},
		DoNothing: true,
	}).CreateInBatches(records, insertBatchSize)

	if tx.Error != nil {
		return 0, fmt.Errorf("insert price points: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// PruneBefore deletes archived points stamped before the cutoff and returns
// how many were removed.
func (p *PostgresClient) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	tx := p.DB.WithContext(ctx).
		Where("time < ?", before.UTC()).
		Delete(&PricePointRecord{})
	if tx.Error != nil {
		return 0, fmt.Errorf("prune price points: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// ToPricePointRecords converts a fetched series into rows for insertion.
func ToPricePointRecords(req model.SeriesRequest, points []model.PricePoint) []PricePointRecord {
	out := make([]PricePointRecord, 0, len(points))
	for _, pt := range points {
		out = append(out, PricePointRecord{
			Symbol:     req.Symbol,
			Resolution: req.Window.Resolution,
			Time:       pt.Time.UTC(),
			Close:      pt.Close,
			Period:     req.Window.Label,
		})
	}
	return out
}
