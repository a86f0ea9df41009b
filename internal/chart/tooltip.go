package chart

import (
	"sort"

	"stockchart/internal/model"
)

// Tooltip is the series point nearest to the pointer.
type Tooltip struct {
	Point model.PricePoint `json:"point"`
	Index int              `json:"index"`
	Pixel
}

// Locate finds the point nearest in time to pointer position x. The pointer
// is inverted through the time scale, the series is bisected for the
// leftmost insertion point, and the closer of the two neighbours wins, ties
// going to the earlier one. Positions before the first or after the last
// point clamp to that end. ok is false for an empty series.
func Locate(x float64, p Projection) (tip Tooltip, ok bool) {
	n := len(p.Points)
	if n == 0 {
		return Tooltip{}, false
	}

	q := p.Time.invertSeconds(x)

	// Leftmost i in [1, n] with points[i].Time >= q.
	i := 1 + sort.Search(n-1, func(k int) bool {
		return seconds(p.Points[1+k].Time) >= q
	})

	idx := i - 1
	if i < n {
		before := q - seconds(p.Points[i-1].Time)
		after := seconds(p.Points[i].Time) - q
		if before > after {
			idx = i
		}
	}

	pt := p.Points[idx]
	return Tooltip{
		Point: pt,
		Index: idx,
		Pixel: p.XY(pt.Time, pt.Close),
	}, true
}
