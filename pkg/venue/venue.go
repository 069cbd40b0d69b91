// Package venue abstracts a trading venue behind the capability set the bot
// needs: market metadata, balances, tickers, OHLCV windows, order books,
// positions and market orders. Concrete exchange adapters live outside the
// core and plug in through Client.
package venue

import "context"

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp int64 // milliseconds since epoch
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Market describes one tradable instrument as reported by the venue.
type Market struct {
	Symbol   string
	TakerFee float64
}

// Ticker is the venue's last-trade snapshot for a symbol.
type Ticker struct {
	Symbol string
	Last   float64
}

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price  float64
	Volume float64
}

// OrderBook is a bid/ask ladder snapshot.
type OrderBook struct {
	Symbol string
	Bids   []BookLevel
	Asks   []BookLevel
}

// BidVolume sums the volume across all bid levels.
func (b OrderBook) BidVolume() float64 {
	sum := 0.0
	for _, l := range b.Bids {
		sum += l.Volume
	}
	return sum
}

// AskVolume sums the volume across all ask levels.
func (b OrderBook) AskVolume() float64 {
	sum := 0.0
	for _, l := range b.Asks {
		sum += l.Volume
	}
	return sum
}

// BestBid returns the top-of-book bid price, or 0 when the side is empty.
func (b OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// Balance mirrors the venue's account totals per asset.
type Balance struct {
	Totals map[string]float64
}

// Position is an open position as reported by the venue.
type Position struct {
	Symbol    string
	Side      string // "long" or "short"
	Contracts float64
}

// Order is the venue's acknowledgement of a submitted order.
type Order struct {
	ID     string
	Symbol string
	Side   string
	Qty    float64
}

// Client is the venue capability set. Implementations are expected to be
// safe for concurrent use.
type Client interface {
	LoadMarkets(ctx context.Context) (map[string]Market, error)
	FetchBalance(ctx context.Context) (Balance, error)
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)
	FetchOrderBook(ctx context.Context, symbol string, depth int) (OrderBook, error)
	FetchPositions(ctx context.Context, symbols []string) ([]Position, error)
	CreateMarketOrder(ctx context.Context, symbol, side string, qty float64) (Order, error)
}

// Closes extracts the close series from a candle window.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series from a candle window.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series from a candle window.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
