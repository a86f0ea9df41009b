package finnhub

import (
	"fmt"
	"math"
	"sort"
	"time"

	"stockchart/internal/model"
)

// ParseCandles converts a candle payload into close points ordered by time.
// Rows with a non-finite close are skipped; when the close and timestamp
// arrays differ in length the extra entries are ignored.
func ParseCandles(resp CandleResponse) ([]model.PricePoint, error) {
	if resp.S != "ok" {
		return nil, fmt.Errorf("candle status %q", resp.S)
	}

	n := len(resp.C)
	if len(resp.T) < n {
		n = len(resp.T)
	}

	out := make([]model.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		c := resp.C[i]
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue // skip unusable row
		}
		out = append(out, model.PricePoint{
			Time:  time.Unix(resp.T[i], 0).UTC(),
			Close: c,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// ToSymbols converts search results into untracked, unenriched symbols.
func ToSymbols(results []SearchResult) []model.StockSymbol {
	out := make([]model.StockSymbol, 0, len(results))
	for _, r := range results {
		out = append(out, model.StockSymbol{
			Symbol:        r.Symbol,
			DisplaySymbol: r.DisplaySymbol,
			Description:   r.Description,
			Type:          r.Type,
		})
	}
	return out
}

// ToProfile converts a profile payload into the enrichment data for a symbol.
func ToProfile(p ProfileResponse) model.Profile {
	return model.Profile{
		Exchange: p.Exchange,
		Currency: p.Currency,
		Company: model.CompanyProfile{
			Country:              p.Country,
			MarketCapitalization: p.MarketCapitalization,
			Name:                 p.Name,
			ShareOutstanding:     p.ShareOutstanding,
			WebURL:               p.WebURL,
			Logo:                 p.Logo,
			Industry:             p.FinnhubIndustry,
		},
	}
}
