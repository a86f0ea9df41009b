package model

import "time"

// StockSymbol is a tradable instrument as returned by symbol search.
// Exchange, Currency and Profile stay empty until enrichment completes.
type StockSymbol struct {
	Symbol        string          `json:"symbol"`        // unique code, e.g. "AAPL"
	DisplaySymbol string          `json:"displaySymbol"` // code as shown to the user
	Description   string          `json:"description"`   // e.g. "APPLE INC"
	Type          string          `json:"type"`          // instrument type, e.g. "Common Stock"
	Currency      string          `json:"currency,omitempty"`
	Exchange      string          `json:"exchange,omitempty"`
	Profile       *CompanyProfile `json:"companyProfile,omitempty"`
}

// Enriched reports whether the symbol already carries exchange information.
func (s StockSymbol) Enriched() bool {
	return s.Exchange != ""
}

// Equal reports whether s and o carry the same data, profile included.
func (s StockSymbol) Equal(o StockSymbol) bool {
	sp, op := s.Profile, o.Profile
	s.Profile, o.Profile = nil, nil
	if s != o || (sp == nil) != (op == nil) {
		return false
	}
	return sp == nil || *sp == *op
}

// CompanyProfile holds the descriptive company data attached on enrichment.
type CompanyProfile struct {
	Country              string  `json:"country"`
	MarketCapitalization float64 `json:"marketCapitalization"` // in millions of Currency
	Name                 string  `json:"name"`
	ShareOutstanding     float64 `json:"shareOutstanding"` // in millions
	WebURL               string  `json:"weburl"`
	Logo                 string  `json:"logo"`
	Industry             string  `json:"finnhubIndustry"`
}

// Profile is the enrichment payload for a single symbol.
type Profile struct {
	Exchange string
	Currency string
	Company  CompanyProfile
}

// Merge returns a copy of s carrying the exchange, currency and company
// profile from p.
func (s StockSymbol) Merge(p Profile) StockSymbol {
	company := p.Company
	s.Exchange = p.Exchange
	s.Currency = p.Currency
	s.Profile = &company
	return s
}

// PricePoint is a single close observation of a price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// Period labels for TimeWindow.
const (
	Label1D     = "1D"
	Label5D     = "5D"
	Label1M     = "1M"
	Label6M     = "6M"
	LabelYTD    = "YTD"
	Label1Y     = "1Y"
	Label5Y     = "5Y"
	LabelCustom = "custom"
)

// TimeWindow is a concrete query window for a price series.
type TimeWindow struct {
	From       int64  `json:"from"`       // unix seconds
	To         int64  `json:"to"`         // unix seconds, To >= From
	Resolution string `json:"resolution"` // provider resolution code, e.g. "5", "D"
	Label      string `json:"timePeriod"` // one of the Label* constants
}

// SeriesRequest identifies one price series fetch. Revision counts the
// selection and window changes that produced it, so repeating a selection
// yields a new request even when symbol and window are unchanged.
type SeriesRequest struct {
	Symbol   string
	Window   TimeWindow
	Revision uint64
}

// Same reports whether r and o address the same symbol, window and revision.
func (r SeriesRequest) Same(o SeriesRequest) bool {
	return r.Symbol == o.Symbol && r.Window == o.Window && r.Revision == o.Revision
}
