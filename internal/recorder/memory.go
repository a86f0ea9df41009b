package recorder

import (
	"context"
	"sync"
	"time"

	"stockchart/internal/model"
)

// Recording is one RecordSeries call kept by MemoryRecorder.
type Recording struct {
	Request model.SeriesRequest
	Points  []model.PricePoint
}

// MemoryRecorder keeps every recorded series in memory.
type MemoryRecorder struct {
	mu         sync.Mutex
	recordings []Recording
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		recordings: make([]Recording, 0),
	}
}

func (m *MemoryRecorder) RecordSeries(_ context.Context, req model.SeriesRequest, points []model.PricePoint) error {
	cp := make([]model.PricePoint, len(points))
	copy(cp, points)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordings = append(m.recordings, Recording{Request: req, Points: cp})
	return nil
}

// Recordings returns the recorded series in call order.
func (m *MemoryRecorder) Recordings() []Recording {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to avoid race
	out := make([]Recording, len(m.recordings))
	copy(out, m.recordings)
	return out
}

// PruneBefore drops recorded points stamped before the cutoff. Recordings
// left without points are dropped too.
func (m *MemoryRecorder) PruneBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	kept := m.recordings[:0]
	for _, r := range m.recordings {
		points := make([]model.PricePoint, 0, len(r.Points))
		for _, p := range r.Points {
			if p.Time.Before(before) {
				removed++
				continue
			}
			points = append(points, p)
		}
		if len(points) > 0 {
			kept = append(kept, Recording{Request: r.Request, Points: points})
		}
	}
	m.recordings = kept
	return removed, nil
}

func (m *MemoryRecorder) Close() error { return nil }
