package chart

import (
	"math"
	"testing"
	"time"

	"stockchart/internal/model"
)

var frame = Frame{Width: 600, Height: 400}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func series(start time.Time, step time.Duration, closes ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = model.PricePoint{Time: start.Add(time.Duration(i) * step), Close: c}
	}
	return out
}

// go test -v --run TestLinearScaleNice
func TestLinearScaleNice(t *testing.T) {
	s := NewLinearScale(99.7, 110.3, 400, 0).Nice(10)
	if s.D0 != 99 || s.D1 != 111 {
		t.Errorf("nice domain = [%v, %v], want [99, 111]", s.D0, s.D1)
	}

	s = NewLinearScale(-0.3, 0.3, 400, 0).Nice(10)
	if !approx(s.D0, -0.3) || !approx(s.D1, 0.3) {
		t.Errorf("nice domain = [%v, %v], want [-0.3, 0.3]", s.D0, s.D1)
	}

	s = NewLinearScale(0.12, 0.87, 400, 0).Nice(10)
	if !approx(s.D0, 0.1) || !approx(s.D1, 0.9) {
		t.Errorf("nice domain = [%v, %v], want [0.1, 0.9]", s.D0, s.D1)
	}
}

// go test -v --run TestLinearScaleRoundTrip
func TestLinearScaleRoundTrip(t *testing.T) {
	s := NewLinearScale(100, 200, 400, 0)
	if got := s.Map(100); got != 400 {
		t.Errorf("Map(100) = %v, want 400", got)
	}
	if got := s.Map(200); got != 0 {
		t.Errorf("Map(200) = %v, want 0", got)
	}
	for _, v := range []float64{100, 123.45, 175, 200} {
		if got := s.Invert(s.Map(v)); !approx(got, v) {
			t.Errorf("Invert(Map(%v)) = %v", v, got)
		}
	}
}

// go test -v --run TestLinearScaleTicks
func TestLinearScaleTicks(t *testing.T) {
	ticks := NewLinearScale(99, 111, 400, 0).Ticks(10)
	if len(ticks) != 13 || ticks[0] != 99 || ticks[12] != 111 {
		t.Errorf("unexpected ticks: %v", ticks)
	}

	ticks = NewLinearScale(-0.3, 0.3, 400, 0).Ticks(10)
	if len(ticks) != 13 || !approx(ticks[0], -0.3) || !approx(ticks[6], 0) {
		t.Errorf("unexpected fractional ticks: %v", ticks)
	}
}

// go test -v --run TestProjectEmpty
func TestProjectEmpty(t *testing.T) {
	p, err := Project(nil, frame, "5", time.UTC)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	for _, v := range []float64{p.Value.D0, p.Value.D1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("value domain not finite: [%v, %v]", p.Value.D0, p.Value.D1)
		}
	}
	if p.Value.D0 >= p.Value.D1 {
		t.Errorf("value domain degenerate: [%v, %v]", p.Value.D0, p.Value.D1)
	}

	from, to := p.Time.Domain()
	if !to.After(from) {
		t.Errorf("time domain degenerate: [%s, %s]", from, to)
	}
	x := p.Time.Map(from.Add(time.Hour))
	if math.IsNaN(x) || math.IsInf(x, 0) {
		t.Errorf("time mapping not finite: %v", x)
	}
	if _, ok := Locate(300, p); ok {
		t.Error("Locate on an empty series should report no point")
	}
}

// go test -v --run TestProjectSinglePoint
func TestProjectSinglePoint(t *testing.T) {
	at := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)
	p, err := Project(series(at, time.Minute, 187.5), frame, "D", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if !(p.Value.D0 < 187.5 && 187.5 < p.Value.D1) {
		t.Errorf("value domain [%v, %v] should bracket the close", p.Value.D0, p.Value.D1)
	}
	px := p.XY(at, 187.5)
	if math.IsNaN(px.X) || math.IsNaN(px.Y) {
		t.Fatalf("projected point is NaN: %+v", px)
	}
	if !approx(px.X, 300) {
		t.Errorf("single point x = %v, want centred at 300", px.X)
	}
}

// go test -v --run TestProjectFrameTooSmall
func TestProjectFrameTooSmall(t *testing.T) {
	_, err := Project(nil, Frame{Width: 20, Height: 400, Margin: Margin{Left: 15}}, "5", time.UTC)
	if err != ErrFrameTooSmall {
		t.Fatalf("expected ErrFrameTooSmall, got %v", err)
	}
}

// go test -v --run TestProjectValueAxis
func TestProjectValueAxis(t *testing.T) {
	at := time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC)
	p, err := Project(series(at, 5*time.Minute, 100, 105.2, 110), frame, "5", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if p.Value.D0 > 99.7 || p.Value.D1 < 110.3 {
		t.Errorf("value domain [%v, %v] must contain padded extent [99.7, 110.3]", p.Value.D0, p.Value.D1)
	}
	// Higher prices sit higher on screen.
	if p.Value.Map(110) >= p.Value.Map(100) {
		t.Error("value axis should be inverted")
	}
}

// go test -v --run TestProjectSessionGaps
func TestProjectSessionGaps(t *testing.T) {
	day1 := time.Date(2024, 6, 11, 13, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 12, 13, 30, 0, 0, time.UTC)

	points := append(
		series(day1, 5*time.Minute, 10, 11, 12, 13),
		series(day2, 5*time.Minute, 14, 15, 16, 17)...,
	)
	p, err := Project(points, frame, "5", time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	path := p.Path()
	if !approx(path[0].X, 0) || !approx(path[7].X, 600) {
		t.Fatalf("series should span the frame: first %v last %v", path[0].X, path[7].X)
	}
	// The overnight gap shrinks to one sampling step, so every neighbour pair,
	// across sessions too, is evenly spaced.
	step := path[1].X - path[0].X
	if !approx(step, 600.0/7) {
		t.Errorf("step = %v, want %v", step, 600.0/7)
	}
	for _, i := range []int{1, 2, 3, 4, 5, 6} {
		if got := path[i+1].X - path[i].X; !approx(got, step) {
			t.Errorf("spacing %d->%d = %v, want %v", i, i+1, got, step)
		}
	}

	gaps := p.Time.Gaps()
	if len(gaps) != 1 || gaps[0].From != points[3].Time.Unix()+150 || gaps[0].To != points[4].Time.Unix()-150 {
		t.Errorf("unexpected gaps: %+v", gaps)
	}

	// Inversion lands back on the session, never inside the gap.
	mid := points[1].Time.Add(150 * time.Second)
	if got := p.Time.Invert(p.Time.Map(mid)); got.Unix() != mid.Unix() {
		t.Errorf("Invert(Map(%s)) = %s", mid, got)
	}
	if got := p.Time.Invert(path[4].X); got.Unix() != points[4].Time.Unix() {
		t.Errorf("first sample of day 2 should invert onto itself, got %s", got.UTC())
	}
	// Pointer positions either side of the collapsed gap pick the nearer session.
	left := path[3].X + step*0.4
	right := path[3].X + step*0.6
	if tip, _ := Locate(left, p); tip.Index != 3 {
		t.Errorf("left of the gap picked index %d", tip.Index)
	}
	if tip, _ := Locate(right, p); tip.Index != 4 {
		t.Errorf("right of the gap picked index %d", tip.Index)
	}
}

// go test -v --run TestProjectWeekendGaps
func TestProjectWeekendGaps(t *testing.T) {
	// Wed 2024-06-12 .. Tue 2024-06-18, trading days only.
	days := []time.Time{
		time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC),
	}
	points := make([]model.PricePoint, len(days))
	for i, d := range days {
		points[i] = model.PricePoint{Time: d, Close: float64(100 + i)}
	}

	p, err := Project(points, frame, "D", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	path := p.Path()
	step := path[1].X - path[0].X
	if !approx(step, 150) {
		t.Fatalf("expected 4 equal daily steps of 150px, got %v", step)
	}
	if got := path[3].X - path[2].X; !approx(got, step) {
		t.Errorf("friday->monday spacing = %v, want %v", got, step)
	}
}

// go test -v --run TestWeekendGapsCoverRange
func TestWeekendGapsCoverRange(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) // Saturday
	end := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	gaps := WeekendGaps(start, end, time.UTC)
	if len(gaps) != 3 {
		t.Fatalf("expected 3 weekends, got %d: %+v", len(gaps), gaps)
	}
	for _, g := range gaps {
		from := time.Unix(g.From, 0).UTC()
		if from.Weekday() != time.Saturday || from.Hour() != 0 || g.To-g.From != 2*86400 {
			t.Errorf("bad weekend gap %s (+%ds)", from, g.To-g.From)
		}
	}
}

func lineProjection(t *testing.T) (Projection, []model.PricePoint) {
	t.Helper()
	// One pixel per second: 0, 300 and 600 seconds map to x 0, 300, 600.
	start := time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC)
	points := series(start, 5*time.Minute, 10, 20, 30)
	p, err := Project(points, frame, "5", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return p, points
}

// go test -v --run TestLocateTieGoesEarlier
func TestLocateTieGoesEarlier(t *testing.T) {
	p, _ := lineProjection(t)

	tip, ok := Locate(150, p)
	if !ok {
		t.Fatal("expected a point")
	}
	if tip.Index != 0 {
		t.Errorf("midway query returned index %d, want 0", tip.Index)
	}

	tip, _ = Locate(450, p)
	if tip.Index != 1 {
		t.Errorf("midway query returned index %d, want 1", tip.Index)
	}
}

// go test -v --run TestLocateNearest
func TestLocateNearest(t *testing.T) {
	p, points := lineProjection(t)

	tip, _ := Locate(151, p)
	if tip.Index != 1 {
		t.Errorf("x=151 should pick index 1, got %d", tip.Index)
	}
	if !approx(tip.X, 300) || !approx(tip.Y, p.Value.Map(points[1].Close)) {
		t.Errorf("tooltip pixel = %+v, want projected position of point 1", tip.Pixel)
	}

	tip, _ = Locate(300, p)
	if tip.Index != 1 {
		t.Errorf("exact hit should return index 1, got %d", tip.Index)
	}
}

// go test -v --run TestLocateClampsToEnds
func TestLocateClampsToEnds(t *testing.T) {
	p, points := lineProjection(t)

	tip, ok := Locate(-500, p)
	if !ok || tip.Index != 0 {
		t.Errorf("before first point: got index %d", tip.Index)
	}
	tip, ok = Locate(5000, p)
	if !ok || tip.Index != len(points)-1 {
		t.Errorf("after last point: got index %d", tip.Index)
	}

	single, err := Project(points[:1], frame, "5", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{-10, 300, 900} {
		if tip, ok := Locate(x, single); !ok || tip.Index != 0 {
			t.Errorf("single point x=%v: got %+v ok=%v", x, tip, ok)
		}
	}
}

// go test -v --run TestMovingAverage
func TestMovingAverage(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	start := time.Date(2024, 6, 11, 14, 30, 0, 0, time.UTC)
	points := series(start, 5*time.Minute, closes...)

	avg, err := MovingAverage(points, DefaultAverageLength)
	if err != nil {
		t.Fatal(err)
	}
	if len(avg) != 20 {
		t.Fatalf("expected 20 points, got %d", len(avg))
	}
	if avg[0].Samples != 1 || avg[0].Value != 1 {
		t.Errorf("earliest output = %+v, want a single-sample average of 1", avg[0])
	}
	if avg[13].Samples != 14 || avg[19].Samples != 14 {
		t.Errorf("later outputs should average 14 samples: %d, %d", avg[13].Samples, avg[19].Samples)
	}
	if !approx(avg[19].Value, 13.5) {
		t.Errorf("latest average = %v, want mean(7..20) = 13.5", avg[19].Value)
	}
	if !approx(avg[4].Value, 3) || avg[4].Samples != 5 {
		t.Errorf("avg[4] = %+v, want mean(1..5) = 3 over 5 samples", avg[4])
	}
	for i := range avg {
		if !avg[i].Time.Equal(points[i].Time) {
			t.Fatalf("output %d out of order: %s vs %s", i, avg[i].Time, points[i].Time)
		}
		if avg[i].Samples > DefaultAverageLength {
			t.Fatalf("output %d averages %d samples", i, avg[i].Samples)
		}
	}
}

// go test -v --run TestMovingAverageEdgeCases
func TestMovingAverageEdgeCases(t *testing.T) {
	if _, err := MovingAverage(nil, 0); err == nil {
		t.Error("expected error for zero length")
	}
	avg, err := MovingAverage(nil, 14)
	if err != nil || len(avg) != 0 {
		t.Errorf("empty input: got %v, %v", avg, err)
	}
}
