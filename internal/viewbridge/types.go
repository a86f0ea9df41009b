package viewbridge

import "stockchart/internal/model"

// Outgoing message types.
const (
	TypeState   = "state"
	TypeSearch  = "search"
	TypeChart   = "chart"
	TypeTooltip = "tooltip"
	TypeError   = "error"
)

// Incoming operations.
const (
	OpSearch       = "search"
	OpAdd          = "add"
	OpRemove       = "remove"
	OpSelect       = "select"
	OpPeriod       = "period"
	OpRange        = "range"
	OpDismissError = "dismiss_error"
	OpResize       = "resize"
	OpTooltip      = "tooltip"
	OpToggleMA     = "toggle_ma"
)

// Message is pushed to the presentation layer.
type Message struct {
	Type string `json:"type"` // "state", "search", "chart", "tooltip" or "error"
	Data any    `json:"data"`
}

// Request is a user action sent by the presentation layer. Only the fields
// used by Op are set.
type Request struct {
	Op     string             `json:"op"`
	Query  string             `json:"query,omitempty"`  // search
	Symbol *model.StockSymbol `json:"symbol,omitempty"` // add
	Code   string             `json:"code,omitempty"`   // remove, select
	Period string             `json:"period,omitempty"` // period label, e.g. "5D"
	From   int64              `json:"from,omitempty"`   // range, unix seconds
	To     int64              `json:"to,omitempty"`     // range, unix seconds
	Width  float64            `json:"width,omitempty"`  // resize
	Height float64            `json:"height,omitempty"` // resize
	X      float64            `json:"x,omitempty"`      // tooltip pointer position
}
