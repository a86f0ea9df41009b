package store

import "stockchart/internal/model"

// Action is a state transition request. The set of actions is closed: only
// the types in this file implement it.
type Action interface {
	action()
}

// Add appends an (already enriched) symbol to the tracked set.
type Add struct {
	Symbol model.StockSymbol
}

// Remove drops the tracked symbol with the given code.
type Remove struct {
	Code string
}

// Select makes the tracked symbol with the given code current.
type Select struct {
	Code string
}

// SetWindow replaces the current time window.
type SetWindow struct {
	Window model.TimeWindow
}

// RecordError fills the global error slot.
type RecordError struct {
	Message string
}

// ClearError empties the global error slot.
type ClearError struct{}

func (Add) action()         {}
func (Remove) action()      {}
func (Select) action()      {}
func (SetWindow) action()   {}
func (RecordError) action() {}
func (ClearError) action()  {}
