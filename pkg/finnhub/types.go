package finnhub

// SearchResponse is the payload of GET /search.
type SearchResponse struct {
	Count  int            `json:"count"`
	Result []SearchResult `json:"result"`
}

type SearchResult struct {
	Description   string `json:"description"`   // e.g., "APPLE INC"
	DisplaySymbol string `json:"displaySymbol"` // e.g., "AAPL"
	Symbol        string `json:"symbol"`        // e.g., "AAPL"
	Type          string `json:"type"`          // e.g., "Common Stock"
}

// CandleResponse is the payload of GET /stock/candle. The slices are
// parallel; S is "ok" on success and "no_data" when the window is empty.
type CandleResponse struct {
	S string    `json:"s"`
	C []float64 `json:"c"` // close
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	V []float64 `json:"v"`
	T []int64   `json:"t"` // unix seconds
}

// ProfileResponse is the payload of GET /stock/profile2. An unknown symbol
// yields an empty object.
type ProfileResponse struct {
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
	IPO                  string  `json:"ipo"`
	Logo                 string  `json:"logo"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	Name                 string  `json:"name"`
	Phone                string  `json:"phone"`
	ShareOutstanding     float64 `json:"shareOutstanding"`
	Ticker               string  `json:"ticker"`
	WebURL               string  `json:"weburl"`
}

// Empty reports whether the provider returned no profile.
func (p ProfileResponse) Empty() bool {
	return p.Ticker == "" && p.Name == "" && p.Exchange == ""
}
