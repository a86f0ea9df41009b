// Package search drives the symbol search box: input is debounced, only the
// answer to the most recent query is applied, and failures are shown inline.
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockchart/internal/debounce"
	"stockchart/internal/model"
	"stockchart/internal/store"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Searcher looks up symbols matching a free-text query.
type Searcher interface {
	SearchSymbols(ctx context.Context, query string) ([]model.StockSymbol, error)
}

// StateSource exposes the current application state.
type StateSource interface {
	State() store.State
}

// Item is a search result annotated with whether it is already tracked.
type Item struct {
	Symbol  model.StockSymbol `json:"symbol"`
	Tracked bool              `json:"isFavorite"`
}

// View is what the search box shows. With no results the tracked symbols are
// listed instead.
type View struct {
	Query string `json:"query"`
	Items []Item `json:"items"`
	Error string `json:"error,omitempty"`
}

// Box is the search box controller.
type Box struct {
	mu      sync.Mutex
	query   string
	results []model.StockSymbol
	errMsg  string
	seq     uint64
	closed  bool

	searcher  Searcher
	state     StateSource
	debouncer *debounce.Debouncer
	timeout   time.Duration
	onChange  func(View)
	logger    *zap.Logger
}

// Option configures a Box.
type Option func(*Box)

// WithTimeout bounds each search request.
func WithTimeout(d time.Duration) Option {
	return func(b *Box) { b.timeout = d }
}

// WithOnChange registers a callback invoked with the new view after every
// applied change. It is called without the Box lock held.
func WithOnChange(fn func(View)) Option {
	return func(b *Box) { b.onChange = fn }
}

// NewBox creates a search box that debounces input by delay.
func NewBox(searcher Searcher, state StateSource, delay time.Duration, logger *zap.Logger, opts ...Option) *Box {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Box{
		searcher:  searcher,
		state:     state,
		debouncer: debounce.New(delay),
		timeout:   defaultTimeout,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Input records a new query. The fetch runs once input has been quiet for
// the debounce delay; an empty query clears the results without fetching.
func (b *Box) Input(query string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.query = query
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	b.debouncer.Call(func() { b.run(seq, query) })
}

func (b *Box) run(seq uint64, query string) {
	if query == "" {
		b.apply(seq, func() { b.results = nil })
		return
	}
	if !b.current(seq) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	results, err := b.searcher.SearchSymbols(ctx, query)
	if err != nil {
		var ferr *model.FetchError
		if !errors.As(err, &ferr) {
			ferr = model.NewFetchError(model.SearchFetchFailure, query, err)
		}
		b.logger.Warn("symbol search failed", zap.String("query", query), zap.Error(err))
		b.apply(seq, func() { b.errMsg = ferr.Message() })
		return
	}

	b.logger.Debug("symbol search", zap.String("query", query), zap.Int("results", len(results)))
	b.apply(seq, func() {
		b.results = results
		b.errMsg = ""
	})
}

func (b *Box) current(seq uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && seq == b.seq
}

// apply runs mutate under the lock if seq is still the latest query, then
// notifies the listener.
func (b *Box) apply(seq uint64, mutate func()) {
	b.mu.Lock()
	if b.closed || seq != b.seq {
		b.mu.Unlock()
		b.logger.Debug("dropping stale search result", zap.Uint64("seq", seq))
		return
	}
	mutate()
	b.mu.Unlock()

	b.Notify()
}

// Notify pushes the current view to the listener, e.g. after the tracked
// set changed.
func (b *Box) Notify() {
	if b.onChange == nil {
		return
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if !closed {
		b.onChange(b.View())
	}
}

// View returns the current view, annotated against the current state.
func (b *Box) View() View {
	b.mu.Lock()
	v := View{Query: b.query, Error: b.errMsg}
	results := b.results
	b.mu.Unlock()

	st := b.state.State()
	if len(results) == 0 {
		v.Items = make([]Item, len(st.Symbols))
		for i, sym := range st.Symbols {
			v.Items[i] = Item{Symbol: sym, Tracked: true}
		}
		return v
	}

	v.Items = make([]Item, len(results))
	for i, sym := range results {
		v.Items[i] = Item{Symbol: sym, Tracked: st.Tracked(sym.Symbol)}
	}
	return v
}

// Close cancels any pending query. Results arriving afterwards are dropped.
func (b *Box) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.debouncer.Cancel()
}
