package model

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is on a FetchError.
var (
	ErrSearchFetch       = errors.New("search fetch failed")
	ErrPriceFetch        = errors.New("price fetch failed")
	ErrProfileEnrichment = errors.New("profile enrichment failed")
)

// FetchKind classifies a failed provider call.
type FetchKind int

const (
	SearchFetchFailure FetchKind = iota
	PriceFetchFailure
	ProfileEnrichmentFailure
)

func (k FetchKind) String() string {
	switch k {
	case SearchFetchFailure:
		return "search"
	case PriceFetchFailure:
		return "price"
	case ProfileEnrichmentFailure:
		return "profile"
	default:
		return fmt.Sprintf("FetchKind(%d)", int(k))
	}
}

func (k FetchKind) sentinel() error {
	switch k {
	case SearchFetchFailure:
		return ErrSearchFetch
	case PriceFetchFailure:
		return ErrPriceFetch
	default:
		return ErrProfileEnrichment
	}
}

// FetchError is returned when a provider call fails at transport level or
// answers with a non-success payload.
type FetchError struct {
	Kind   FetchKind
	Symbol string // symbol or query the fetch was issued for
	Err    error
}

// NewFetchError wraps err as a failure of the given kind.
func NewFetchError(kind FetchKind, symbol string, err error) *FetchError {
	return &FetchError{Kind: kind, Symbol: symbol, Err: err}
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
	}
	return fmt.Sprintf("%s for %s: %v", e.Kind.sentinel(), e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches the kind sentinel so callers can test errors.Is(err, ErrPriceFetch).
func (e *FetchError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Message is the user-facing text for the failure.
func (e *FetchError) Message() string {
	switch e.Kind {
	case SearchFetchFailure:
		return "Could not fetch search results."
	case PriceFetchFailure:
		return "Could not fetch price data"
	default:
		return fmt.Sprintf("Could not add %s: company profile unavailable", e.Symbol)
	}
}
