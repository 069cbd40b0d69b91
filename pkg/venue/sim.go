package venue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Sim is a synthetic venue for paper trading and tests: every symbol follows
// an independent random walk and all capability calls answer locally. It
// never errors, which makes it useful as the simulated-mode data source.
type Sim struct {
	mu       sync.Mutex
	rng      *rand.Rand
	markets  map[string]Market
	prices   map[string]float64
	balances map[string]float64
	step     float64
}

// SimConfig seeds a Sim.
type SimConfig struct {
	Markets  []Market           // tradable instruments; empty gets a small default set
	Balances map[string]float64 // venue-reported balances for FetchBalance
	Start    float64            // initial price for every symbol
	Step     float64            // random-walk step size
	Seed     int64
}

// NewSim builds a simulated venue.
func NewSim(cfg SimConfig) *Sim {
	if len(cfg.Markets) == 0 {
		cfg.Markets = []Market{
			{Symbol: "BTC/USDT", TakerFee: 0.001},
			{Symbol: "ETH/USDT", TakerFee: 0.001},
		}
	}
	if cfg.Start == 0 {
		cfg.Start = 100
	}
	if cfg.Step == 0 {
		cfg.Step = 0.5
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	s := &Sim{
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		markets:  make(map[string]Market, len(cfg.Markets)),
		prices:   make(map[string]float64, len(cfg.Markets)),
		balances: cfg.Balances,
		step:     cfg.Step,
	}
	for _, m := range cfg.Markets {
		s.markets[m.Symbol] = m
		s.prices[m.Symbol] = cfg.Start
	}
	return s
}

// walk advances the symbol's random walk one step and returns the new price.
// Caller must hold s.mu.
func (s *Sim) walk(symbol string) float64 {
	p, ok := s.prices[symbol]
	if !ok {
		p = 100
	}
	p += (s.rng.Float64()*2 - 1) * s.step
	if p < s.step {
		p = s.step
	}
	s.prices[symbol] = p
	return p
}

func (s *Sim) LoadMarkets(ctx context.Context) (map[string]Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Market, len(s.markets))
	for k, v := range s.markets {
		out[k] = v
	}
	return out, nil
}

func (s *Sim) FetchBalance(ctx context.Context) (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[string]float64, len(s.balances))
	for k, v := range s.balances {
		totals[k] = v
	}
	return Balance{Totals: totals}, nil
}

func (s *Sim) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[symbol]; !ok {
		return Ticker{}, fmt.Errorf("sim venue: unknown symbol %s", symbol)
	}
	return Ticker{Symbol: symbol, Last: s.walk(symbol)}, nil
}

func (s *Sim) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[symbol]; !ok {
		return nil, fmt.Errorf("sim venue: unknown symbol %s", symbol)
	}
	now := time.Now().UnixMilli()
	candles := make([]Candle, limit)
	for i := 0; i < limit; i++ {
		open := s.prices[symbol]
		close := s.walk(symbol)
		high := open
		low := close
		if close > high {
			high, low = close, open
		}
		candles[i] = Candle{
			Timestamp: now - int64(limit-i)*60_000,
			Open:      open,
			High:      high + s.step/4,
			Low:       low - s.step/4,
			Close:     close,
			Volume:    50 + s.rng.Float64()*100,
		}
	}
	return candles, nil
}

func (s *Sim) FetchOrderBook(ctx context.Context, symbol string, depth int) (OrderBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[symbol]; !ok {
		return OrderBook{}, fmt.Errorf("sim venue: unknown symbol %s", symbol)
	}
	mid := s.walk(symbol)
	book := OrderBook{Symbol: symbol}
	for i := 0; i < depth; i++ {
		spread := float64(i+1) * s.step / 10
		book.Bids = append(book.Bids, BookLevel{Price: mid - spread, Volume: 5 + s.rng.Float64()*10})
		book.Asks = append(book.Asks, BookLevel{Price: mid + spread, Volume: 5 + s.rng.Float64()*10})
	}
	return book, nil
}

func (s *Sim) FetchPositions(ctx context.Context, symbols []string) ([]Position, error) {
	return nil, nil
}

func (s *Sim) CreateMarketOrder(ctx context.Context, symbol, side string, qty float64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[symbol]; !ok {
		return Order{}, fmt.Errorf("sim venue: unknown symbol %s", symbol)
	}
	return Order{
		ID:     fmt.Sprintf("sim-%d", s.rng.Int63()),
		Symbol: symbol,
		Side:   side,
		Qty:    qty,
	}, nil
}
