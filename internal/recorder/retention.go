package recorder

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HealthChecker is implemented by recorders backed by a database.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Pruner is implemented by recorders that can drop old points.
type Pruner interface {
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}

// Healthy reports whether rec can take writes. Recorders without a backing
// database always can.
func Healthy(ctx context.Context, rec Recorder) bool {
	hc, ok := rec.(HealthChecker)
	return !ok || hc.Healthy(ctx)
}

// RunRetention prunes points older than retention once right away and then
// every interval until ctx is done. It returns at once when retention is not
// positive or rec cannot prune.
func RunRetention(ctx context.Context, rec Recorder, retention, interval time.Duration, logger *zap.Logger) {
	p, ok := rec.(Pruner)
	if !ok || retention <= 0 || interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	prune := func() {
		cutoff := time.Now().Add(-retention)
		n, err := p.PruneBefore(ctx, cutoff)
		if err != nil {
			logger.Warn("failed to prune archive", zap.Time("before", cutoff), zap.Error(err))
			return
		}
		logger.Info("archive pruned", zap.Time("before", cutoff), zap.Int64("removed", n))
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
