// Package chart holds the rendering-independent chart math: value and time
// scales for a price series, nearest-point tooltip lookup and the moving
// average overlay. Every function is pure and works on plain data.
package chart

import (
	"errors"
	"math"
	"time"

	"stockchart/internal/model"
	"stockchart/pkg/finnhub"
)

const (
	// valuePadding widens the value domain on both sides before it is niced.
	valuePadding = 0.3
	// niceTicks is the tick count the value domain is rounded for.
	niceTicks = 10
	// minFrameSize mirrors the smallest chart the presentation layer draws.
	minFrameSize = 10

	halfDay = 12 * 60 * 60
)

// ErrFrameTooSmall is returned when the target rectangle cannot hold a chart.
var ErrFrameTooSmall = errors.New("chart frame too small")

// Margin is the space reserved around the plot area.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Frame is the pixel rectangle a chart is drawn into.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// InnerWidth is the plot width without margins.
func (f Frame) InnerWidth() float64 { return f.Width - f.Margin.Left - f.Margin.Right }

// InnerHeight is the plot height without margins.
func (f Frame) InnerHeight() float64 { return f.Height - f.Margin.Top - f.Margin.Bottom }

// Pixel is a projected coordinate.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projection is a price series together with the scales that place it in a
// Frame.
type Projection struct {
	Points []model.PricePoint
	Time   TimeScale
	Value  LinearScale
	Frame  Frame
}

// Project builds the scales for points (ascending by time) inside frame.
//
// The value axis spans [min-0.3, max+0.3] rounded outward to clean ticks. For
// intraday resolutions the time axis drops the gaps between trading days, as
// observed in the series (days are split in loc), leaving one sampling step
// between a day's last sample and the next day's first; for daily and coarser
// resolutions only weekends are dropped. Daily and weekly candles are stamped
// at 00:00 UTC of their session, so weekends are cut in UTC.
//
// Empty and single-point series get a one-day time domain and a finite value
// domain around the only close (or zero).
func Project(points []model.PricePoint, frame Frame, resolution string, loc *time.Location) (Projection, error) {
	if frame.InnerWidth() < minFrameSize || frame.InnerHeight() < minFrameSize {
		return Projection{}, ErrFrameTooSmall
	}

	x0 := frame.Margin.Left
	x1 := frame.Margin.Left + frame.InnerWidth()
	yBottom := frame.Margin.Top + frame.InnerHeight()
	yTop := frame.Margin.Top

	lo, hi := closeExtent(points)
	value := NewLinearScale(lo-valuePadding, hi+valuePadding, yBottom, yTop).Nice(niceTicks)

	return Projection{
		Points: points,
		Time:   timeScale(points, resolution, loc, x0, x1),
		Value:  value,
		Frame:  frame,
	}, nil
}

func timeScale(points []model.PricePoint, resolution string, loc *time.Location, x0, x1 float64) TimeScale {
	if len(points) == 0 {
		return NewTimeScale(time.Unix(0, 0), time.Unix(2*halfDay, 0), nil, x0, x1)
	}

	first, last := points[0].Time, points[len(points)-1].Time
	if !last.After(first) {
		return NewTimeScale(first.Add(-halfDay*time.Second), first.Add(halfDay*time.Second), nil, x0, x1)
	}

	// Unknown resolutions are treated as daily or coarser.
	meta, _ := finnhub.ParseResolution(resolution)

	var gaps []Gap
	if meta.Intraday {
		gaps = SessionGaps(points, loc, meta.Seconds)
	} else {
		gaps = WeekendGaps(first, last, time.UTC)
	}

	s := NewTimeScale(first, last, gaps, x0, x1)
	if s.span <= 0 {
		// Every sample sits inside a removed span; fall back to wall clock time.
		s = NewTimeScale(first, last, nil, x0, x1)
	}
	return s
}

func closeExtent(points []model.PricePoint) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if !finite(p.Close) {
			continue
		}
		lo = math.Min(lo, p.Close)
		hi = math.Max(hi, p.Close)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// XY returns the pixel position of a time/value pair.
func (p Projection) XY(t time.Time, v float64) Pixel {
	return Pixel{X: p.Time.Map(t), Y: p.Value.Map(v)}
}

// Path returns the pixel positions of every point in the series.
func (p Projection) Path() []Pixel {
	out := make([]Pixel, len(p.Points))
	for i, pt := range p.Points {
		out[i] = p.XY(pt.Time, pt.Close)
	}
	return out
}

// AveragePath places a moving average on the same axes as the series.
func (p Projection) AveragePath(avg []AveragePoint) []Pixel {
	out := make([]Pixel, len(avg))
	for i, a := range avg {
		out[i] = p.XY(a.Time, a.Value)
	}
	return out
}
