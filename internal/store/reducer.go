package store

import (
	"fmt"

	"stockchart/internal/model"
)

// Reduce is the single transition function: it returns the state that
// results from applying a to s. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Add:
		if s.Tracked(a.Symbol.Symbol) {
			return s
		}
		symbols := make([]model.StockSymbol, len(s.Symbols), len(s.Symbols)+1)
		copy(symbols, s.Symbols)
		s.Symbols = append(symbols, a.Symbol)
		return s

	case Remove:
		symbols := make([]model.StockSymbol, 0, len(s.Symbols))
		for _, sym := range s.Symbols {
			if sym.Symbol != a.Code {
				symbols = append(symbols, sym)
			}
		}
		s.Symbols = symbols
		if s.Selected != nil && s.Selected.Symbol == a.Code {
			s.Selected = nil
		}
		return s

	case Select:
		s.Revision++
		s.Selected = nil
		if sym, ok := s.Lookup(a.Code); ok {
			s.Selected = &sym
		}
		return s

	case SetWindow:
		s.Revision++
		s.Window = a.Window
		return s

	case RecordError:
		s.Error = a.Message
		return s

	case ClearError:
		s.Error = ""
		return s

	default:
		panic(fmt.Sprintf("store: unhandled action %T", a))
	}
}
