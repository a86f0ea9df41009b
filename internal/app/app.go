// Package app wires the engine together: Finnhub client, price archive,
// store, search box, price chart and the websocket view bridge.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"stockchart/config"
	"stockchart/internal/chart"
	"stockchart/internal/model"
	"stockchart/internal/pricechart"
	"stockchart/internal/recorder"
	"stockchart/internal/search"
	"stockchart/internal/store"
	"stockchart/internal/viewbridge"
	"stockchart/internal/watchlist"
	"stockchart/pkg/finnhub"

	"go.uber.org/zap"
)

const (
	maxConcurrentAdds = 5
	shutdownTimeout   = 5 * time.Second
	healthTimeout     = 2 * time.Second
)

// Run starts the engine and serves the view bridge until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Price archive
	rec, err := recorder.New(cfg, logger.Named("recorder"))
	if err != nil {
		return fmt.Errorf("failed to open recorder: %w", err)
	}
	defer rec.Close()

	// Background work on the archive stops before it is closed.
	var background sync.WaitGroup
	defer background.Wait()
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	background.Add(1)
	go func() {
		defer background.Done()
		recorder.RunRetention(runCtx, rec, cfg.Recorder.Retention, cfg.Recorder.PruneInterval, logger.Named("retention"))
	}()

	// Market data client
	token := cfg.Finnhub.APIToken(cfg.Log.Environment)
	if token == "" {
		logger.Warn("finnhub token not configured; requests will be rejected")
	}
	client := finnhub.NewRESTClient(cfg.Finnhub.REST.BaseURL, token, cfg.Finnhub.REST.Timeout)

	loc, err := cfg.Chart.TimeLocation()
	if err != nil {
		return err
	}

	st := store.New(client, func() time.Time { return time.Now().In(loc) }, logger.Named("store"))
	defer st.Close()

	hub := viewbridge.NewHub(logger.Named("hub"))
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	var bridge *viewbridge.Bridge
	box := search.NewBox(client, st, cfg.UI.Debounce, logger.Named("search"),
		search.WithTimeout(cfg.Finnhub.REST.Timeout),
		search.WithOnChange(func(v search.View) { bridge.PushSearch(v) }),
	)
	defer box.Close()

	pc := pricechart.New(st, client, rec, pricechart.Options{
		Frame:         frame(cfg.Chart),
		Location:      loc,
		AverageLength: cfg.Chart.MovingAverage,
		Debounce:      cfg.UI.Debounce,
		Timeout:       cfg.Finnhub.REST.Timeout,
		OnChange:      func(v pricechart.View) { bridge.PushChart(v) },
	}, logger.Named("chart"))
	defer pc.Close()

	bridge = viewbridge.New(hub, st, box, pc, cfg.Finnhub.REST.Timeout, logger.Named("bridge"))

	// Push every state change; tracked flags in the search view follow it.
	_, states := st.Subscribe(1)
	go func() {
		for s := range states {
			bridge.PushState(s)
			box.Notify()
		}
	}()
	pc.Start()

	mux := http.NewServeMux()
	mux.Handle(cfg.Bridge.Path, bridge)
	mux.HandleFunc("/healthz", healthHandler(rec))
	srv := &http.Server{
		Addr:              cfg.Bridge.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("view bridge listening", zap.String("addr", cfg.Bridge.Addr), zap.String("path", cfg.Bridge.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	go SeedWatchlist(ctx, cfg.Watchlist, client, st, cfg.Finnhub.REST.Timeout, logger.Named("watchlist"))

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("view bridge: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("view bridge shutdown", zap.Error(err))
	}
	return nil
}

// healthHandler answers 503 while the price archive is unreachable.
func healthHandler(rec recorder.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if !recorder.Healthy(ctx, rec) {
			http.Error(w, "price archive unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func frame(c config.ChartConfig) chart.Frame {
	return chart.Frame{
		Width:  c.Width,
		Height: c.Height,
		Margin: chart.Margin{
			Top:    c.Margin.Top,
			Right:  c.Margin.Right,
			Bottom: c.Margin.Bottom,
			Left:   c.Margin.Left,
		},
	}
}

// Adder tracks a candidate symbol.
type Adder interface {
	AddSymbol(ctx context.Context, candidate model.StockSymbol) (store.State, error)
}

// SeedWatchlist resolves codes and adds them to the store, a few at a time.
// Failures land in the store's error slot like any other add.
func SeedWatchlist(ctx context.Context, codes []string, searcher watchlist.Searcher, st Adder,
	timeout time.Duration, logger *zap.Logger) {
	if len(codes) == 0 {
		return
	}

	loader := &watchlist.Loader{Searcher: searcher, Logger: logger}
	symbolCh := make(chan model.StockSymbol, len(codes))
	go func() {
		if err := loader.LoadSymbols(ctx, codes, symbolCh); err != nil {
			logger.Warn("failed to load watchlist", zap.Error(err))
		}
	}()

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentAdds)
	for candidate := range symbolCh {
		candidate := candidate // capture
		sem <- struct{}{}
		wg.Add(1)

		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()

			// Context with timeout for safety
			addCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if _, err := st.AddSymbol(addCtx, candidate); err != nil {
				logger.Warn("failed to add watchlist symbol", zap.String("symbol", candidate.Symbol), zap.Error(err))
				return
			}
			logger.Info("watchlist symbol added", zap.String("symbol", candidate.Symbol))
		}()
	}
	wg.Wait()
}
