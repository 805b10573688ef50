package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// ErrNoData signals that the upstream source returned nothing for a symbol,
// e.g. an unknown ticker or a market holiday.
var ErrNoData = errors.New("no market data for symbol")

// PricePoint is one day of OHLCV data
type PricePoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Fundamentals holds the per-symbol fundamental data fed to the oracle
type Fundamentals struct {
	PERatio float64 `json:"pe_ratio"`
}

// IndexQuote is a spot snapshot of one index for the summary endpoint
type IndexQuote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Client fetches market data from Yahoo Finance, with an optional short-TTL
// Redis cache in front of spot-price lookups.
type Client struct {
	cache *QuoteCache
}

// NewClient creates a market data client. cache may be nil.
func NewClient(cache *QuoteCache) *Client {
	return &Client{cache: cache}
}

// FetchHistory returns the daily price series for the trailing lookback window
func (c *Client) FetchHistory(ctx context.Context, symbol string, lookbackDays int) ([]PricePoint, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	return c.FetchHistoryRange(ctx, symbol, start, end)
}

// FetchHistoryRange returns the daily price series between start and end inclusive
func (c *Client) FetchHistoryRange(ctx context.Context, symbol string, start, end time.Time) ([]PricePoint, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var series []PricePoint
	for iter.Next() {
		bar := iter.Bar()
		series = append(series, PricePoint{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return series, nil
}

// FetchCurrentPrices returns the last market price for each requested symbol.
// The result is a uniform per-symbol mapping regardless of how many symbols
// are requested; symbols the source knows nothing about are simply absent.
func (c *Client) FetchCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))

	var missing []string
	for _, s := range symbols {
		if price, ok := c.cache.Get(ctx, s); ok {
			prices[s] = price
		} else {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return prices, nil
	}

	iter := quote.List(missing)
	var fetched []*finance.Quote
	for iter.Next() {
		fetched = append(fetched, iter.Quote())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch current prices: %w", err)
	}

	for symbol, price := range collectPrices(fetched) {
		prices[symbol] = price
		c.cache.Set(ctx, symbol, price)
	}

	if len(prices) == 0 {
		return nil, ErrNoData
	}
	return prices, nil
}

// FetchFundamentals returns fundamental data for an equity symbol
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*Fundamentals, error) {
	eq, err := equity.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fundamentals for %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return &Fundamentals{PERatio: eq.TrailingPE}, nil
}

// FetchIndexQuotes returns spot snapshots for the given index symbols
func (c *Client) FetchIndexQuotes(ctx context.Context, symbols []string) ([]IndexQuote, error) {
	iter := quote.List(symbols)

	var quotes []IndexQuote
	for iter.Next() {
		q := iter.Quote()
		quotes = append(quotes, IndexQuote{
			Symbol:        q.Symbol,
			Price:         decimal.NewFromFloat(q.RegularMarketPrice).Round(2),
			Change:        decimal.NewFromFloat(q.RegularMarketChange).Round(2),
			ChangePercent: decimal.NewFromFloat(q.RegularMarketChangePercent).Round(2),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch index quotes: %w", err)
	}
	return quotes, nil
}

// collectPrices flattens quote results into the uniform per-symbol mapping.
// Quotes with no usable market price are dropped so callers can treat them as
// the per-symbol NoData case.
func collectPrices(quotes []*finance.Quote) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		if q == nil || q.Symbol == "" || q.RegularMarketPrice == 0 {
			continue
		}
		prices[q.Symbol] = decimal.NewFromFloat(q.RegularMarketPrice)
	}
	return prices
}
