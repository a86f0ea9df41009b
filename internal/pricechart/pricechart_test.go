package pricechart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockchart/internal/chart"
	"stockchart/internal/model"
	"stockchart/internal/recorder"
	"stockchart/internal/store"
)

var monday = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []model.SeriesRequest
	started chan model.SeriesRequest
	gates   map[string]chan struct{} // keyed by symbol/label
	err     error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		started: make(chan model.SeriesRequest, 16),
		gates:   make(map[string]chan struct{}),
	}
}

func key(symbol, label string) string { return symbol + "/" + label }

func (f *fakeFetcher) gate(symbol, label string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[key(symbol, label)] = g
	return g
}

func (f *fakeFetcher) PriceSeries(ctx context.Context, req model.SeriesRequest) ([]model.PricePoint, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	g := f.gates[key(req.Symbol, req.Window.Label)]
	err := f.err
	f.mu.Unlock()

	f.started <- req
	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return series(req.Symbol), nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// series returns 20 five-minute closes; the first close encodes the symbol.
func series(symbol string) []model.PricePoint {
	base := 100.0
	if symbol == "MSFT" {
		base = 400
	}
	start := time.Date(2024, 6, 10, 13, 30, 0, 0, time.UTC)
	out := make([]model.PricePoint, 20)
	for i := range out {
		out[i] = model.PricePoint{Time: start.Add(time.Duration(i) * 5 * time.Minute), Close: base + float64(i)}
	}
	return out
}

func enriched(code string) model.StockSymbol {
	return model.StockSymbol{Symbol: code, DisplaySymbol: code, Exchange: "NASDAQ", Currency: "USD"}
}

type harness struct {
	store   *store.Store
	fetcher *fakeFetcher
	rec     *recorder.MemoryRecorder
	chart   *Chart
	views   chan View
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   store.New(nil, func() time.Time { return monday }, nil),
		fetcher: newFakeFetcher(),
		rec:     recorder.NewMemoryRecorder(),
		views:   make(chan View, 64),
	}
	for _, code := range []string{"AAPL", "MSFT"} {
		if _, err := h.store.AddSymbol(context.Background(), enriched(code)); err != nil {
			t.Fatal(err)
		}
	}
	h.chart = New(h.store, h.fetcher, h.rec, Options{
		Frame:    chart.Frame{Width: 600, Height: 400},
		Debounce: 10 * time.Millisecond,
		OnChange: func(v View) { h.views <- v },
	}, nil)
	h.chart.Start()
	t.Cleanup(func() {
		h.chart.Close()
		h.store.Close()
	})
	return h
}

func (h *harness) waitFor(t *testing.T, what string, cond func(View) bool) View {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case v := <-h.views:
			if cond(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s; current view: %+v", what, h.chart.View())
			return View{}
		}
	}
}

func (h *harness) waitStarted(t *testing.T) model.SeriesRequest {
	t.Helper()
	select {
	case req := <-h.fetcher.started:
		return req
	case <-time.After(time.Second):
		t.Fatal("no fetch started")
		return model.SeriesRequest{}
	}
}

func loaded(symbol string) func(View) bool {
	return func(v View) bool {
		return !v.Loading && len(v.Points) > 0 && v.Symbol != nil && v.Symbol.Symbol == symbol
	}
}

// go test -v --run TestSelectLoadsSeries
func TestSelectLoadsSeries(t *testing.T) {
	h := newHarness(t)

	h.store.SelectSymbol("AAPL")
	v := h.waitFor(t, "AAPL series", loaded("AAPL"))

	if len(v.Points) != 20 || len(v.Path) != 20 {
		t.Fatalf("expected 20 points and pixels, got %d/%d", len(v.Points), len(v.Path))
	}
	if v.Window.Label != model.Label1D || v.Window.Resolution != "5" {
		t.Errorf("unexpected window: %+v", v.Window)
	}
	if len(v.ValueTicks) == 0 || len(v.TimeTicks) == 0 {
		t.Error("expected axis ticks")
	}

	// Recording happens after the view update.
	deadline := time.Now().Add(time.Second)
	for len(h.rec.Recordings()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	recs := h.rec.Recordings()
	if len(recs) != 1 || recs[0].Request.Symbol != "AAPL" || len(recs[0].Points) != 20 {
		t.Errorf("unexpected recordings: %+v", recs)
	}
}

// go test -v --run TestStaleSeriesDiscarded
func TestStaleSeriesDiscarded(t *testing.T) {
	h := newHarness(t)
	aapl := h.fetcher.gate("AAPL", model.Label1D)
	msft := h.fetcher.gate("MSFT", model.Label1D)

	h.store.SelectSymbol("AAPL")
	h.waitStarted(t)
	h.store.SelectSymbol("MSFT")
	h.waitStarted(t)

	close(msft)
	h.waitFor(t, "MSFT series", loaded("MSFT"))

	close(aapl)
	time.Sleep(30 * time.Millisecond)

	v := h.chart.View()
	if v.Symbol == nil || v.Symbol.Symbol != "MSFT" || v.Points[0].Close != 400 {
		t.Fatalf("stale AAPL result overwrote MSFT: %+v", v.Symbol)
	}
	for _, r := range h.rec.Recordings() {
		if r.Request.Symbol == "AAPL" {
			t.Error("stale series must not be recorded")
		}
	}
}

// go test -v --run TestWindowChangeDiscardsPending
func TestWindowChangeDiscardsPending(t *testing.T) {
	h := newHarness(t)
	oneDay := h.fetcher.gate("AAPL", model.Label1D)

	h.store.SelectSymbol("AAPL")
	h.waitStarted(t)

	if _, err := h.store.SetPeriod(model.Label5D); err != nil {
		t.Fatal(err)
	}
	req := h.waitStarted(t)
	if req.Window.Label != model.Label5D || req.Window.Resolution != "15" {
		t.Fatalf("unexpected second request: %+v", req.Window)
	}
	v := h.waitFor(t, "5D series", func(v View) bool { return loaded("AAPL")(v) && v.Window.Label == model.Label5D })

	close(oneDay)
	time.Sleep(30 * time.Millisecond)
	if got := h.chart.View(); got.Window != v.Window {
		t.Errorf("window changed by stale result: %+v", got.Window)
	}
}

// go test -v --run TestFetchFailureIsInline
func TestFetchFailureIsInline(t *testing.T) {
	h := newHarness(t)
	h.fetcher.mu.Lock()
	h.fetcher.err = model.NewFetchError(model.PriceFetchFailure, "AAPL", errors.New(`candle status "no_data"`))
	h.fetcher.mu.Unlock()

	h.store.SelectSymbol("AAPL")
	v := h.waitFor(t, "error", func(v View) bool { return v.Error != "" })

	if v.Error != "Could not fetch price data" || v.Loading {
		t.Errorf("unexpected view: error=%q loading=%v", v.Error, v.Loading)
	}
	if h.store.State().Error != "" {
		t.Error("price failures must not touch the global error slot")
	}
	if _, ok := h.chart.Tooltip(100); ok {
		t.Error("tooltip should be unavailable without a series")
	}
}

// go test -v --run TestRetryAfterFetchFailure
func TestRetryAfterFetchFailure(t *testing.T) {
	h := newHarness(t)
	h.fetcher.mu.Lock()
	h.fetcher.err = errors.New("connection reset")
	h.fetcher.mu.Unlock()

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)
	if _, err := h.store.SetCustomRange(from, to); err != nil {
		t.Fatal(err)
	}
	h.store.SelectSymbol("AAPL")
	h.waitFor(t, "error", func(v View) bool { return v.Error != "" && v.Window.Label == model.LabelCustom })
	before := h.fetcher.Calls()

	h.fetcher.mu.Lock()
	h.fetcher.err = nil
	h.fetcher.mu.Unlock()

	// Choosing the same range again fetches again.
	if _, err := h.store.SetCustomRange(from, to); err != nil {
		t.Fatal(err)
	}
	v := h.waitFor(t, "custom series", loaded("AAPL"))
	if v.Error != "" || v.Window.Label != model.LabelCustom {
		t.Errorf("unexpected view: error=%q window=%+v", v.Error, v.Window)
	}
	if n := h.fetcher.Calls(); n != before+1 {
		t.Errorf("expected one more fetch, got %d after %d", n, before)
	}

	// So does selecting the same symbol again.
	h.fetcher.mu.Lock()
	h.fetcher.err = errors.New("connection reset")
	h.fetcher.mu.Unlock()
	h.store.SelectSymbol("AAPL")
	h.waitFor(t, "second error", func(v View) bool { return v.Error != "" })
	h.fetcher.mu.Lock()
	h.fetcher.err = nil
	h.fetcher.mu.Unlock()
	h.store.SelectSymbol("AAPL")
	h.waitFor(t, "reselected series", loaded("AAPL"))
}

// go test -v --run TestProfileChangeNotifies
func TestProfileChangeNotifies(t *testing.T) {
	h := newHarness(t)
	h.store.SelectSymbol("AAPL")
	h.waitFor(t, "AAPL series", loaded("AAPL"))

	st := h.store.State()
	sel := *st.Selected
	sel.Profile = &model.CompanyProfile{Name: "Apple Inc"}
	st.Selected = &sel
	h.chart.onState(st)

	v := h.waitFor(t, "profile", func(v View) bool { return v.Symbol != nil && v.Symbol.Profile != nil })
	if v.Symbol.Profile.Name != "Apple Inc" || len(v.Points) != 20 {
		t.Errorf("unexpected view: %+v", v.Symbol)
	}
	if n := h.fetcher.Calls(); n != 1 {
		t.Errorf("profile change must not refetch, %d fetches", n)
	}
}

// go test -v --run TestCloseWaitsForFetch
func TestCloseWaitsForFetch(t *testing.T) {
	h := newHarness(t)
	h.fetcher.gate("AAPL", model.Label1D)

	h.store.SelectSymbol("AAPL")
	h.waitStarted(t)

	done := make(chan struct{})
	go func() {
		h.chart.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the pending fetch")
	}
	if n := len(h.rec.Recordings()); n != 0 {
		t.Errorf("cancelled fetch recorded %d series", n)
	}
}

// go test -v --run TestTooltipAndMovingAverage
func TestTooltipAndMovingAverage(t *testing.T) {
	h := newHarness(t)
	h.store.SelectSymbol("AAPL")
	h.waitFor(t, "AAPL series", loaded("AAPL"))

	tip, ok := h.chart.Tooltip(-50)
	if !ok || tip.Index != 0 || tip.Point.Close != 100 {
		t.Errorf("leftmost tooltip = %+v ok=%v", tip, ok)
	}
	tip, _ = h.chart.Tooltip(10000)
	if tip.Index != 19 {
		t.Errorf("rightmost tooltip index = %d", tip.Index)
	}

	if on := h.chart.ToggleMovingAverage(); !on {
		t.Fatal("toggle should switch the overlay on")
	}
	v := h.chart.View()
	if len(v.Average) != 20 || len(v.AveragePath) != 20 {
		t.Fatalf("expected 20 average points, got %d", len(v.Average))
	}
	if v.Average[0].Samples != 1 || v.Average[19].Samples != 14 {
		t.Errorf("unexpected sample counts: %d, %d", v.Average[0].Samples, v.Average[19].Samples)
	}

	if on := h.chart.ToggleMovingAverage(); on {
		t.Fatal("second toggle should switch the overlay off")
	}
	if v := h.chart.View(); v.Average != nil {
		t.Error("average should be cleared when switched off")
	}
}

// go test -v --run TestResizeReprojectsWithoutFetch
func TestResizeReprojectsWithoutFetch(t *testing.T) {
	h := newHarness(t)
	h.store.SelectSymbol("AAPL")
	before := h.waitFor(t, "AAPL series", loaded("AAPL"))

	h.chart.Resize(800, 300)
	h.chart.Resize(1200, 300)
	v := h.waitFor(t, "resize", func(v View) bool { return v.Frame.Width == 1200 })

	if last := v.Path[len(v.Path)-1].X; last <= before.Path[len(before.Path)-1].X {
		t.Errorf("path not rescaled: %v", last)
	}
	if n := h.fetcher.Calls(); n != 1 {
		t.Errorf("resize must not refetch, %d fetches", n)
	}
}

// go test -v --run TestDeselectClearsChart
func TestDeselectClearsChart(t *testing.T) {
	h := newHarness(t)
	h.store.SelectSymbol("AAPL")
	h.waitFor(t, "AAPL series", loaded("AAPL"))

	h.store.RemoveSymbol("AAPL")
	v := h.waitFor(t, "cleared chart", func(v View) bool { return v.Symbol == nil })
	if len(v.Points) != 0 || v.Loading {
		t.Errorf("chart should be empty: %+v", v)
	}
}

// go test -v --run TestCloseDropsLateSeries
func TestCloseDropsLateSeries(t *testing.T) {
	h := newHarness(t)
	g := h.fetcher.gate("AAPL", model.Label1D)

	h.store.SelectSymbol("AAPL")
	h.waitStarted(t)
	h.chart.Close()
	close(g)
	time.Sleep(30 * time.Millisecond)

	if v := h.chart.View(); len(v.Points) != 0 {
		t.Error("series applied after Close")
	}
	h.store.SelectSymbol("MSFT")
	time.Sleep(30 * time.Millisecond)
	if n := h.fetcher.Calls(); n != 1 {
		t.Errorf("closed chart kept following the store: %d fetches", n)
	}
}
