package chart

import (
	"fmt"
	"time"

	"stockchart/internal/model"
)

// DefaultAverageLength is the window used for the moving average overlay.
const DefaultAverageLength = 14

// AveragePoint is one value of a moving average series.
type AveragePoint struct {
	Time    time.Time `json:"time"`
	Value   float64   `json:"value"`
	Samples int       `json:"samples"` // closes that went into Value
}

// MovingAverage computes the trailing simple moving average of points
// (ascending by time) over n samples. The output is parallel to the input.
// Walking the series from the most recent point backwards, each position
// averages itself and the n-1 points before it; near the start of the series
// fewer points exist, so the earliest output averages a single close.
func MovingAverage(points []model.PricePoint, n int) ([]AveragePoint, error) {
	if n <= 0 {
		return nil, fmt.Errorf("moving average length must be positive, got %d", n)
	}

	total := len(points)
	out := make([]AveragePoint, total)
	for i := 0; i < total; i++ {
		// i counts back from the most recent point; j is the ascending index.
		j := total - 1 - i
		lo := j - n + 1
		if lo < 0 {
			lo = 0
		}

		sum := 0.0
		for k := lo; k <= j; k++ {
			sum += points[k].Close
		}
		samples := j - lo + 1
		out[j] = AveragePoint{
			Time:    points[j].Time,
			Value:   sum / float64(samples),
			Samples: samples,
		}
	}
	return out, nil
}
