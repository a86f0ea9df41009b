// Package watchlist resolves the configured startup symbols into candidates
// for the store.
package watchlist

import (
	"context"
	"strings"

	"stockchart/internal/model"

	"go.uber.org/zap"
)

// Searcher looks up symbols matching a free-text query.
type Searcher interface {
	SearchSymbols(ctx context.Context, query string) ([]model.StockSymbol, error)
}

type Loader struct {
	Searcher Searcher
	Logger   *zap.Logger
}

// LoadSymbols resolves each code through symbol search and streams the
// matching candidate into ch. A code without an exact match, or whose search
// fails, is sent as a bare candidate so that enrichment decides whether it
// can be tracked. Duplicates are skipped. ch is closed on return.
func (l *Loader) LoadSymbols(ctx context.Context, codes []string, ch chan<- model.StockSymbol) error {
	defer close(ch) // Ensure downstream consumers can exit cleanly

	seen := make(map[string]bool, len(codes))
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		candidate := l.resolve(ctx, code)
		select {
		case ch <- candidate:
		case <-ctx.Done():
			l.Logger.Warn("watchlist streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	l.Logger.Info("loaded watchlist", zap.Int("count", len(seen)))
	return nil
}

func (l *Loader) resolve(ctx context.Context, code string) model.StockSymbol {
	bare := model.StockSymbol{Symbol: code, DisplaySymbol: code}

	results, err := l.Searcher.SearchSymbols(ctx, code)
	if err != nil {
		l.Logger.Warn("failed to resolve watchlist symbol", zap.String("symbol", code), zap.Error(err))
		return bare
	}
	for _, r := range results {
		if r.Symbol == code {
			return r
		}
	}
	return bare
}
