package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stockchart/internal/model"
)

// DefaultBaseURL is the public Finnhub REST endpoint.
const DefaultBaseURL = "https://finnhub.io/api/v1"

const tokenHeader = "X-Finnhub-Token"

type RESTClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewRESTClient(baseURL, token string, timeout time.Duration) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RESTClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SearchSymbols looks up instruments matching query. Any failure is returned
// as a SearchFetchFailure.
func (c *RESTClient) SearchSymbols(ctx context.Context, query string) ([]model.StockSymbol, error) {
	var result SearchResponse
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &result); err != nil {
		return nil, model.NewFetchError(model.SearchFetchFailure, query, err)
	}
	return ToSymbols(result.Result), nil
}

// PriceSeries fetches the close series for req. A non-ok candle status is a
// PriceFetchFailure like any transport error.
func (c *RESTClient) PriceSeries(ctx context.Context, req model.SeriesRequest) ([]model.PricePoint, error) {
	meta, err := ParseResolution(req.Window.Resolution)
	if err != nil {
		return nil, model.NewFetchError(model.PriceFetchFailure, req.Symbol, err)
	}

	params := url.Values{
		"symbol":     {req.Symbol},
		"resolution": {meta.APIValue},
		"from":       {strconv.FormatInt(req.Window.From, 10)},
		"to":         {strconv.FormatInt(req.Window.To, 10)},
	}

	var result CandleResponse
	if err := c.get(ctx, "/stock/candle", params, &result); err != nil {
		return nil, model.NewFetchError(model.PriceFetchFailure, req.Symbol, err)
	}

	points, err := ParseCandles(result)
	if err != nil {
		return nil, model.NewFetchError(model.PriceFetchFailure, req.Symbol, fmt.Errorf("parse result: %w", err))
	}
	return points, nil
}

// FetchProfile returns exchange, currency and company data for symbol. An
// empty profile means the provider does not know the symbol and is a
// ProfileEnrichmentFailure.
func (c *RESTClient) FetchProfile(ctx context.Context, symbol string) (model.Profile, error) {
	var result ProfileResponse
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &result); err != nil {
		return model.Profile{}, model.NewFetchError(model.ProfileEnrichmentFailure, symbol, err)
	}
	if result.Empty() {
		return model.Profile{}, model.NewFetchError(model.ProfileEnrichmentFailure, symbol,
			fmt.Errorf("empty profile"))
	}
	return ToProfile(result), nil
}

func (c *RESTClient) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("finnhub error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
