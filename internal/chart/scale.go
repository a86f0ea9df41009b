package chart

import "math"

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// LinearScale maps a continuous value domain [D0, D1] onto a pixel range
// [R0, R1]. The range may be inverted (R0 > R1) for y axes.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// NewLinearScale returns a scale over the given domain and range.
func NewLinearScale(d0, d1, r0, r1 float64) LinearScale {
	return LinearScale{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map projects v into the range. A zero-width domain maps to the range midpoint.
func (s LinearScale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert maps a range position back into the domain.
func (s LinearScale) Invert(px float64) float64 {
	if s.R1 == s.R0 {
		return s.D0
	}
	return s.D0 + (px-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Nice extends the domain outward to round tick boundaries, using the same
// step selection as Ticks. The domain is returned unchanged when it is empty
// or not finite.
func (s LinearScale) Nice(count int) LinearScale {
	start, stop := s.D0, s.D1
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	if start == stop || !finite(start) || !finite(stop) {
		return s
	}

	var prev float64
	for iter := 0; iter < 10; iter++ {
		step := tickIncrement(start, stop, count)
		if step == 0 || step == prev {
			break
		}
		if step > 0 {
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		} else {
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		}
		prev = step
	}

	if reversed {
		start, stop = stop, start
	}
	s.D0, s.D1 = start, stop
	return s
}

// Ticks returns roughly count evenly spaced, round values inside the domain.
func (s LinearScale) Ticks(count int) []float64 {
	start, stop := s.D0, s.D1
	if start == stop {
		return []float64{start}
	}
	if stop < start {
		start, stop = stop, start
	}
	inc := tickIncrement(start, stop, count)
	if inc == 0 || !finite(inc) {
		return nil
	}

	var ticks []float64
	if inc > 0 {
		r0, r1 := math.Ceil(start/inc), math.Floor(stop/inc)
		for i := r0; i <= r1; i++ {
			ticks = append(ticks, i*inc)
		}
	} else {
		inc = -inc
		r0, r1 := math.Ceil(start*inc), math.Floor(stop*inc)
		for i := r0; i <= r1; i++ {
			ticks = append(ticks, i/inc)
		}
	}
	return ticks
}

// tickIncrement returns the tick step for [start, stop] as a power of ten
// times 1, 2 or 5. Steps below 1 are returned negated and inverted (-10 means
// 0.1) so that they can be applied without floating point drift.
func tickIncrement(start, stop float64, count int) float64 {
	if count < 1 {
		count = 1
	}
	step := (stop - start) / float64(count)
	if step <= 0 || !finite(step) {
		return 0
	}
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}

	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
