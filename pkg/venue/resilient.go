package venue

import (
	"context"

	"tradebot-core/pkg/retry"
)

// Resilient decorates a Client so that every capability call runs through a
// retry.Caller. The orchestrator only ever sees the decorated client, which
// keeps the "no unretried network call" rule in one place.
type Resilient struct {
	inner  Client
	caller *retry.Caller
}

// WithRetry wraps client with caller.
func WithRetry(client Client, caller *retry.Caller) *Resilient {
	return &Resilient{inner: client, caller: caller}
}

func (r *Resilient) LoadMarkets(ctx context.Context) (map[string]Market, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) (map[string]Market, error) {
		return r.inner.LoadMarkets(ctx)
	})
}

func (r *Resilient) FetchBalance(ctx context.Context) (Balance, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) (Balance, error) {
		return r.inner.FetchBalance(ctx)
	})
}

func (r *Resilient) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) (Ticker, error) {
		return r.inner.FetchTicker(ctx, symbol)
	})
}

func (r *Resilient) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) ([]Candle, error) {
		return r.inner.FetchOHLCV(ctx, symbol, timeframe, limit)
	})
}

func (r *Resilient) FetchOrderBook(ctx context.Context, symbol string, depth int) (OrderBook, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) (OrderBook, error) {
		return r.inner.FetchOrderBook(ctx, symbol, depth)
	})
}

func (r *Resilient) FetchPositions(ctx context.Context, symbols []string) ([]Position, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) ([]Position, error) {
		return r.inner.FetchPositions(ctx, symbols)
	})
}

func (r *Resilient) CreateMarketOrder(ctx context.Context, symbol, side string, qty float64) (Order, error) {
	return retry.Do(ctx, r.caller, func(ctx context.Context) (Order, error) {
		return r.inner.CreateMarketOrder(ctx, symbol, side, qty)
	})
}
