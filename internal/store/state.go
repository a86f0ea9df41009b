package store

import "stockchart/internal/model"

// State is an immutable snapshot of the application state. Transitions
// always build a new State; callers must not modify the slices they receive.
type State struct {
	Symbols  []model.StockSymbol `json:"userSymbols"`
	Selected *model.StockSymbol  `json:"selectedSymbol"`
	Window   model.TimeWindow    `json:"timePeriod"`
	Error    string              `json:"errorMessage"`
	Revision uint64              `json:"revision"` // bumped by every Select and SetWindow
}

// NewState returns the startup state: nothing tracked, nothing selected.
func NewState(window model.TimeWindow) State {
	return State{
		Symbols: make([]model.StockSymbol, 0),
		Window:  window,
	}
}

// Lookup returns the tracked record for code.
func (s State) Lookup(code string) (model.StockSymbol, bool) {
	for _, sym := range s.Symbols {
		if sym.Symbol == code {
			return sym, true
		}
	}
	return model.StockSymbol{}, false
}

// Tracked reports whether code is in the tracked set.
func (s State) Tracked(code string) bool {
	_, ok := s.Lookup(code)
	return ok
}

// Codes returns the tracked symbol codes in order.
func (s State) Codes() []string {
	out := make([]string, len(s.Symbols))
	for i, sym := range s.Symbols {
		out[i] = sym.Symbol
	}
	return out
}

// Request returns the price series request implied by the current selection
// and window. ok is false when nothing is selected.
func (s State) Request() (req model.SeriesRequest, ok bool) {
	if s.Selected == nil {
		return model.SeriesRequest{}, false
	}
	return model.SeriesRequest{Symbol: s.Selected.Symbol, Window: s.Window, Revision: s.Revision}, true
}
