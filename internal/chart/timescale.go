package chart

import (
	"sort"
	"time"

	"stockchart/internal/model"
)

// Gap is a span of time, in unix seconds, that takes up no axis width.
type Gap struct {
	From int64
	To   int64
}

// TimeScale maps time onto a pixel range with the listed gaps removed: the
// instant before a gap and the instant after it land on the same x. With no
// gaps it is an ordinary linear time scale.
type TimeScale struct {
	start, end float64 // domain in unix seconds
	r0, r1     float64

	gaps      []Gap
	removed   []float64 // removed[i]: total width of gaps[:i]
	gapStartC []float64 // compressed position of gaps[i].From
	c0, span  float64   // compressed domain start and width
}

// NewTimeScale builds a scale over [start, end]. Gaps are sorted, merged and
// clipped to the domain; gaps outside it are ignored.
func NewTimeScale(start, end time.Time, gaps []Gap, r0, r1 float64) TimeScale {
	s := TimeScale{
		start: seconds(start),
		end:   seconds(end),
		r0:    r0,
		r1:    r1,
	}
	s.gaps = normalizeGaps(gaps, start.Unix(), end.Unix())

	s.removed = make([]float64, len(s.gaps)+1)
	s.gapStartC = make([]float64, len(s.gaps))
	for i, g := range s.gaps {
		s.gapStartC[i] = float64(g.From) - s.removed[i]
		s.removed[i+1] = s.removed[i] + float64(g.To-g.From)
	}

	s.c0 = s.compress(s.start)
	s.span = s.compress(s.end) - s.c0
	return s
}

func normalizeGaps(in []Gap, lo, hi int64) []Gap {
	gaps := make([]Gap, 0, len(in))
	for _, g := range in {
		if g.From < lo {
			g.From = lo
		}
		if g.To > hi {
			g.To = hi
		}
		if g.To > g.From {
			gaps = append(gaps, g)
		}
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].From < gaps[j].From })

	merged := gaps[:0]
	for _, g := range gaps {
		if n := len(merged); n > 0 && g.From <= merged[n-1].To {
			if g.To > merged[n-1].To {
				merged[n-1].To = g.To
			}
			continue
		}
		merged = append(merged, g)
	}
	return merged
}

// compress returns t with the width of every gap before it subtracted.
// Instants inside a gap collapse onto the gap start.
func (s TimeScale) compress(t float64) float64 {
	i := sort.Search(len(s.gaps), func(k int) bool { return float64(s.gaps[k].To) > t })
	removed := s.removed[i]
	if i < len(s.gaps) && float64(s.gaps[i].From) < t {
		removed += t - float64(s.gaps[i].From)
	}
	return t - removed
}

// expand is the inverse of compress. A position on a collapsed gap resolves
// to the instant before the gap.
func (s TimeScale) expand(c float64) float64 {
	j := sort.Search(len(s.gapStartC), func(k int) bool { return s.gapStartC[k] >= c })
	return c + s.removed[j]
}

// Map returns the x position of t.
func (s TimeScale) Map(t time.Time) float64 {
	return s.mapSeconds(seconds(t))
}

func (s TimeScale) mapSeconds(t float64) float64 {
	if s.span == 0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (s.compress(t)-s.c0)/s.span*(s.r1-s.r0)
}

// Invert returns the instant at x position px.
func (s TimeScale) Invert(px float64) time.Time {
	return fromSeconds(s.invertSeconds(px))
}

func (s TimeScale) invertSeconds(px float64) float64 {
	if s.r1 == s.r0 {
		return s.start
	}
	return s.expand(s.c0 + (px-s.r0)/(s.r1-s.r0)*s.span)
}

// Domain returns the time bounds of the scale.
func (s TimeScale) Domain() (time.Time, time.Time) {
	return fromSeconds(s.start), fromSeconds(s.end)
}

// Range returns the pixel bounds of the scale.
func (s TimeScale) Range() (float64, float64) {
	return s.r0, s.r1
}

// Gaps returns the removed spans, sorted and merged.
func (s TimeScale) Gaps() []Gap {
	out := make([]Gap, len(s.gaps))
	copy(out, s.gaps)
	return out
}

// Ticks returns count+1 instants evenly spaced along the axis (not along wall
// clock time), so they skip the gaps.
func (s TimeScale) Ticks(count int) []time.Time {
	if count < 1 {
		count = 1
	}
	ticks := make([]time.Time, 0, count+1)
	for i := 0; i <= count; i++ {
		c := s.c0 + s.span*float64(i)/float64(count)
		ticks = append(ticks, fromSeconds(s.expand(c)))
	}
	return ticks
}

// SessionGaps returns the gaps between trading days: for each pair of
// consecutive calendar days (in loc) that have samples, the span from the
// last sample of the first day to the first sample of the next, less one
// sampling step (step seconds) split evenly across both ends. The two samples
// then sit one step apart like any other neighbours.
func SessionGaps(points []model.PricePoint, loc *time.Location, step int64) []Gap {
	if loc == nil {
		loc = time.UTC
	}
	var (
		gaps    []Gap
		lastDay string
		lastTS  int64
	)
	for i, p := range points {
		day := p.Time.In(loc).Format(time.DateOnly)
		ts := p.Time.Unix()
		if i > 0 && day != lastDay && ts-lastTS > step {
			gaps = append(gaps, Gap{From: lastTS + step/2, To: ts - (step - step/2)})
		}
		lastDay = day
		lastTS = ts
	}
	return gaps
}

// WeekendGaps returns a Saturday 00:00 to Monday 00:00 gap (in loc) for every
// weekend touching [start, end].
func WeekendGaps(start, end time.Time, loc *time.Location) []Gap {
	if loc == nil {
		loc = time.UTC
	}
	s := start.In(loc)
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	// Step back to the Saturday on or before start.
	back := (int(day.Weekday()) - int(time.Saturday) + 7) % 7
	day = day.AddDate(0, 0, -back)

	var gaps []Gap
	for !day.After(end) {
		gaps = append(gaps, Gap{From: day.Unix(), To: day.AddDate(0, 0, 2).Unix()})
		day = day.AddDate(0, 0, 7)
	}
	return gaps
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromSeconds(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second)))
}
