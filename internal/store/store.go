// Package store holds the application state: the tracked symbols, the
// current selection, the chart time window and the global error slot.
//
// Every change goes through Reduce under a single mutex, so transitions are
// serialized. Network calls (profile enrichment) happen outside the lock and
// feed their outcome back in as ordinary actions.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockchart/internal/model"
	"stockchart/internal/period"

	"go.uber.org/zap"
)

// ProfileFetcher looks up exchange and company data for a symbol code.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, symbol string) (model.Profile, error)
}

// Store is the sole owner of State. Create one per process and pass it to
// the components that need it.
type Store struct {
	mu     sync.Mutex
	state  State
	closed bool

	nextSubID int
	subs      map[int]chan State

	profiles ProfileFetcher
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a Store in the startup state. clock may be nil, in which case
// time.Now is used.
func New(profiles ProfileFetcher, clock func() time.Time, logger *zap.Logger) *Store {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		state:    NewState(period.Default(clock())),
		subs:     make(map[int]chan State),
		profiles: profiles,
		now:      clock,
		logger:   logger,
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the current state and notifies subscribers. After
// Close it is a no-op and returns the final state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Debug("dropping action on closed store", zap.String("action", actionName(a)))
		return s.state
	}

	s.state = Reduce(s.state, a)
	s.logger.Debug("state transition",
		zap.String("action", actionName(a)),
		zap.Strings("symbols", s.state.Codes()),
		zap.String("window", s.state.Window.Label))

	for _, ch := range s.subs {
		publish(ch, s.state)
	}
	return s.state
}

// publish delivers st without blocking. A subscriber that has not consumed
// the previous snapshot gets it replaced by the newer one.
func publish(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

// Subscribe registers a state listener. The current state is delivered
// immediately, then every subsequent transition.
func (s *Store) Subscribe(bufSize int) (id int, ch <-chan State) {
	if bufSize < 1 {
		bufSize = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.nextSubID
	s.nextSubID++
	c := make(chan State, bufSize)
	if s.closed {
		close(c)
		return id, c
	}
	c <- s.state
	s.subs[id] = c
	return id, c
}

// Unsubscribe removes a listener and closes its channel.
func (s *Store) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

// Close stops accepting transitions and closes every subscription. Results
// of fetches still in flight are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// AddSymbol tracks candidate. A candidate without exchange data is enriched
// first; if that fails the error slot is set, the symbol is not added and a
// ProfileEnrichmentFailure is returned. Adding a code that is already tracked
// does nothing.
//
// AddSymbol blocks for the duration of the profile fetch. Callers adding
// several symbols concurrently get them appended in completion order.
func (s *Store) AddSymbol(ctx context.Context, candidate model.StockSymbol) (State, error) {
	if st := s.State(); st.Tracked(candidate.Symbol) {
		return st, nil
	}
	if candidate.Enriched() {
		return s.Dispatch(Add{Symbol: candidate}), nil
	}

	profile, err := s.profiles.FetchProfile(ctx, candidate.Symbol)
	if err != nil {
		var ferr *model.FetchError
		if !errors.As(err, &ferr) {
			ferr = model.NewFetchError(model.ProfileEnrichmentFailure, candidate.Symbol, err)
		}
		s.logger.Warn("profile enrichment failed",
			zap.String("symbol", candidate.Symbol), zap.Error(err))
		st := s.Dispatch(RecordError{Message: ferr.Message()})
		return st, ferr
	}

	enriched := candidate.Merge(profile)
	s.logger.Info("symbol added",
		zap.String("symbol", enriched.Symbol),
		zap.String("exchange", enriched.Exchange))
	return s.Dispatch(Add{Symbol: enriched}), nil
}

// RemoveSymbol stops tracking code, clearing the selection if it pointed at it.
func (s *Store) RemoveSymbol(code string) State {
	return s.Dispatch(Remove{Code: code})
}

// SelectSymbol selects the tracked symbol with the given code, or clears the
// selection when code is not tracked.
func (s *Store) SelectSymbol(code string) State {
	return s.Dispatch(Select{Code: code})
}

// SetPeriod switches to a named period resolved against the store clock.
func (s *Store) SetPeriod(label string) (State, error) {
	w, err := period.Resolve(label, s.now())
	if err != nil {
		return s.State(), err
	}
	return s.Dispatch(SetWindow{Window: w}), nil
}

// SetCustomRange switches to an explicit date range.
func (s *Store) SetCustomRange(from, to time.Time) (State, error) {
	w, err := period.ResolveRange(from, to)
	if err != nil {
		return s.State(), err
	}
	return s.Dispatch(SetWindow{Window: w}), nil
}

// RecordError replaces the global error message.
func (s *Store) RecordError(msg string) State {
	return s.Dispatch(RecordError{Message: msg})
}

// ClearError dismisses the global error message.
func (s *Store) ClearError() State {
	return s.Dispatch(ClearError{})
}

func actionName(a Action) string {
	switch a.(type) {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Select:
		return "select"
	case SetWindow:
		return "set_window"
	case RecordError:
		return "record_error"
	case ClearError:
		return "clear_error"
	default:
		return "unknown"
	}
}
