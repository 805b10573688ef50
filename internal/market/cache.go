package market

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// QuoteCache is a short-TTL Redis cache for spot prices, so repeated job runs
// and API calls within the TTL do not hammer the upstream source. A nil
// *QuoteCache is valid and always misses.
type QuoteCache struct {
	cli *redis.Client
	ttl time.Duration
}

// NewQuoteCache connects to Redis. Returns nil if addr is empty, which
// disables caching entirely.
func NewQuoteCache(addr, password string, db int, ttl time.Duration) *QuoteCache {
	if addr == "" {
		return nil
	}
	cli := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &QuoteCache{cli: cli, ttl: ttl}
}

// Get returns the cached price for a symbol, if present
func (qc *QuoteCache) Get(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if qc == nil {
		return decimal.Zero, false
	}
	val, err := qc.cli.Get(ctx, quoteKey(symbol)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// Set stores the price for a symbol. Cache failures are ignored; the cache is
// an optimization, not a source of truth.
func (qc *QuoteCache) Set(ctx context.Context, symbol string, price decimal.Decimal) {
	if qc == nil {
		return
	}
	qc.cli.Set(ctx, quoteKey(symbol), price.String(), qc.ttl)
}

// Close releases the Redis connection
func (qc *QuoteCache) Close() error {
	if qc == nil {
		return nil
	}
	return qc.cli.Close()
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}
