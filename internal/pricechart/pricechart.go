// Package pricechart drives the price chart for the selected symbol. It
// follows the store, fetches the series whenever the selection or window
// changes, and keeps the projected chart that tooltip queries run against.
package pricechart

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockchart/internal/chart"
	"stockchart/internal/debounce"
	"stockchart/internal/model"
	"stockchart/internal/recorder"
	"stockchart/internal/store"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	valueTicks     = 10
	timeTicks      = 6
)

// SeriesFetcher loads the price series for a request.
type SeriesFetcher interface {
	PriceSeries(ctx context.Context, req model.SeriesRequest) ([]model.PricePoint, error)
}

// StateFeed is the part of the store the chart follows.
type StateFeed interface {
	State() store.State
	Subscribe(bufSize int) (int, <-chan store.State)
	Unsubscribe(id int)
}

// Options configures a Chart.
type Options struct {
	Frame         chart.Frame
	Location      *time.Location // splits trading days for intraday series
	AverageLength int
	Debounce      time.Duration // resize quiet period
	Timeout       time.Duration // per series request
	OnChange      func(View)    // called without the chart lock held
}

// View is the renderable chart state.
type View struct {
	Symbol      *model.StockSymbol   `json:"symbol"`
	Window      model.TimeWindow     `json:"timePeriod"`
	Loading     bool                 `json:"loading"`
	Error       string               `json:"error,omitempty"`
	Frame       chart.Frame          `json:"frame"`
	Points      []model.PricePoint   `json:"points"`
	Path        []chart.Pixel        `json:"path"`
	ShowAverage bool                 `json:"showAverage"`
	Average     []chart.AveragePoint `json:"average,omitempty"`
	AveragePath []chart.Pixel        `json:"averagePath,omitempty"`
	ValueTicks  []float64            `json:"valueTicks"`
	TimeTicks   []time.Time          `json:"timeTicks"`
}

// Chart is the price chart controller.
type Chart struct {
	mu       sync.Mutex
	selected *model.StockSymbol
	req      model.SeriesRequest
	hasReq   bool
	loading  bool
	errMsg   string
	points   []model.PricePoint
	proj     chart.Projection
	hasProj  bool
	showAvg  bool
	avg      []chart.AveragePoint
	closed   bool

	frame   chart.Frame
	loc     *time.Location
	avgLen  int
	timeout time.Duration

	feed     StateFeed
	fetcher  SeriesFetcher
	recorder recorder.Recorder
	resize   *debounce.Debouncer
	onChange func(View)
	logger   *zap.Logger

	subID   int
	started bool
	done    chan struct{}

	ctx     context.Context // cancelled by Close
	cancel  context.CancelFunc
	fetches sync.WaitGroup
}

// New creates a chart controller. Call Start to begin following the store.
func New(feed StateFeed, fetcher SeriesFetcher, rec recorder.Recorder, opts Options, logger *zap.Logger) *Chart {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.AverageLength <= 0 {
		opts.AverageLength = chart.DefaultAverageLength
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Chart{
		ctx:      ctx,
		cancel:   cancel,
		frame:    opts.Frame,
		loc:      opts.Location,
		avgLen:   opts.AverageLength,
		timeout:  opts.Timeout,
		feed:     feed,
		fetcher:  fetcher,
		recorder: rec,
		resize:   debounce.New(opts.Debounce),
		onChange: opts.OnChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start subscribes to the store and handles state changes until Close.
func (c *Chart) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	id, ch := c.feed.Subscribe(1)
	c.subID = id
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		for st := range ch {
			c.onState(st)
		}
	}()
}

func (c *Chart) onState(st store.State) {
	req, ok := st.Request()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !ok {
		if !c.hasReq {
			c.mu.Unlock()
			return
		}
		c.reset()
		c.mu.Unlock()
		c.notify()
		return
	}
	if c.hasReq && c.req.Same(req) {
		// Same series; pick up profile changes on the selected record.
		changed := !sameSymbol(c.selected, st.Selected)
		c.selected = st.Selected
		c.mu.Unlock()
		if changed {
			c.notify()
		}
		return
	}

	c.reset()
	c.selected = st.Selected
	c.req = req
	c.hasReq = true
	c.loading = true
	c.fetches.Add(1)
	c.mu.Unlock()

	c.logger.Debug("fetching price series",
		zap.String("symbol", req.Symbol),
		zap.String("period", req.Window.Label),
		zap.String("resolution", req.Window.Resolution))
	c.notify()
	go c.fetch(req)
}

// reset drops the current series. Caller holds mu.
func (c *Chart) reset() {
	c.selected = nil
	c.req = model.SeriesRequest{}
	c.hasReq = false
	c.loading = false
	c.errMsg = ""
	c.points = nil
	c.proj = chart.Projection{}
	c.hasProj = false
	c.avg = nil
}

func sameSymbol(a, b *model.StockSymbol) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (c *Chart) fetch(req model.SeriesRequest) {
	defer c.fetches.Done()
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	points, err := c.fetcher.PriceSeries(ctx, req)

	c.mu.Lock()
	if !c.accepts(req) {
		c.mu.Unlock()
		c.logger.Debug("dropping stale price series",
			zap.String("symbol", req.Symbol), zap.String("period", req.Window.Label))
		return
	}
	c.loading = false
	if err != nil {
		var ferr *model.FetchError
		if !errors.As(err, &ferr) {
			ferr = model.NewFetchError(model.PriceFetchFailure, req.Symbol, err)
		}
		c.errMsg = ferr.Message()
		c.mu.Unlock()
		c.logger.Warn("price fetch failed", zap.String("symbol", req.Symbol), zap.Error(err))
		c.notify()
		return
	}
	c.points = points
	c.reproject()
	c.mu.Unlock()

	c.notify()

	if err := c.recorder.RecordSeries(ctx, req, points); err != nil {
		c.logger.Warn("failed to record price series", zap.String("symbol", req.Symbol), zap.Error(err))
	}
}

// accepts reports whether a result for req may still be applied: the chart
// is open, it still shows req, and the store still selects req. Caller holds mu.
func (c *Chart) accepts(req model.SeriesRequest) bool {
	if c.closed || !c.hasReq || !c.req.Same(req) {
		return false
	}
	cur, ok := c.feed.State().Request()
	return ok && cur.Same(req)
}

// reproject rebuilds the projection and moving average from points. Caller
// holds mu.
func (c *Chart) reproject() {
	proj, err := chart.Project(c.points, c.frame, c.req.Window.Resolution, c.loc)
	if err != nil {
		c.logger.Debug("chart not projected", zap.Float64("width", c.frame.Width),
			zap.Float64("height", c.frame.Height), zap.Error(err))
		c.proj = chart.Projection{}
		c.hasProj = false
		c.avg = nil
		return
	}
	c.proj = proj
	c.hasProj = true
	c.computeAverage()
}

// computeAverage refreshes the overlay. Caller holds mu.
func (c *Chart) computeAverage() {
	if !c.showAvg || len(c.points) == 0 {
		c.avg = nil
		return
	}
	avg, err := chart.MovingAverage(c.points, c.avgLen)
	if err != nil {
		c.logger.Error("moving average", zap.Error(err))
		c.avg = nil
		return
	}
	c.avg = avg
}

// Resize changes the chart frame once resizing has been quiet for the
// debounce delay. Only the projection is rebuilt; nothing is refetched.
func (c *Chart) Resize(width, height float64) {
	c.resize.Call(func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.frame.Width = width
		c.frame.Height = height
		if len(c.points) > 0 || c.hasProj {
			c.reproject()
		}
		c.mu.Unlock()
		c.notify()
	})
}

// Tooltip returns the point nearest to pointer position x on the current
// projection. ok is false when there is nothing to point at.
func (c *Chart) Tooltip(x float64) (chart.Tooltip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasProj {
		return chart.Tooltip{}, false
	}
	return chart.Locate(x, c.proj)
}

// ToggleMovingAverage switches the overlay and returns the new setting.
func (c *Chart) ToggleMovingAverage() bool {
	c.mu.Lock()
	c.showAvg = !c.showAvg
	on := c.showAvg
	c.computeAverage()
	c.mu.Unlock()

	c.notify()
	return on
}

// View returns the current renderable state.
func (c *Chart) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Symbol:      c.selected,
		Window:      c.req.Window,
		Loading:     c.loading,
		Error:       c.errMsg,
		Frame:       c.frame,
		Points:      c.points,
		ShowAverage: c.showAvg,
		Average:     c.avg,
	}
	if c.hasProj {
		v.Path = c.proj.Path()
		v.AveragePath = c.proj.AveragePath(c.avg)
		v.ValueTicks = c.proj.Value.Ticks(valueTicks)
		v.TimeTicks = c.proj.Time.Ticks(timeTicks)
	}
	return v
}

func (c *Chart) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.View())
}

// Close unsubscribes from the store, cancels a pending resize and in-flight
// fetches, and waits for them to return. Series arriving afterwards are
// dropped.
func (c *Chart) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	id, started := c.subID, c.started
	c.mu.Unlock()

	c.resize.Cancel()
	c.cancel()
	if started {
		c.feed.Unsubscribe(id)
		<-c.done
	}
	c.fetches.Wait()
}
