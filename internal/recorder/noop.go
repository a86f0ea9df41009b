package recorder

import (
	"context"

	"stockchart/internal/model"
)

// NoopRecorder is used when no archive is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSeries(context.Context, model.SeriesRequest, []model.PricePoint) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
