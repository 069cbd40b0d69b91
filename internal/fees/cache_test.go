package fees

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tradebot-core/pkg/venue"
)

type marketStub struct {
	mu      sync.Mutex
	markets map[string]venue.Market
	err     error
	calls   int
}

func (m *marketStub) LoadMarkets(ctx context.Context) (map[string]venue.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.markets, nil
}

func (m *marketStub) FetchBalance(context.Context) (venue.Balance, error) {
	return venue.Balance{}, errors.New("not implemented")
}
func (m *marketStub) FetchTicker(context.Context, string) (venue.Ticker, error) {
	return venue.Ticker{}, errors.New("not implemented")
}
func (m *marketStub) FetchOHLCV(context.Context, string, string, int) ([]venue.Candle, error) {
	return nil, errors.New("not implemented")
}
func (m *marketStub) FetchOrderBook(context.Context, string, int) (venue.OrderBook, error) {
	return venue.OrderBook{}, errors.New("not implemented")
}
func (m *marketStub) FetchPositions(context.Context, []string) ([]venue.Position, error) {
	return nil, nil
}
func (m *marketStub) CreateMarketOrder(context.Context, string, string, float64) (venue.Order, error) {
	return venue.Order{}, errors.New("not implemented")
}

func (m *marketStub) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestLoadCachesWithinTTL(t *testing.T) {
	stub := &marketStub{markets: map[string]venue.Market{
		"BTC/USDT": {Symbol: "BTC/USDT", TakerFee: 0.002},
	}}
	c := NewCache(stub, time.Hour, 0.001, zap.NewNop())

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return t0 }

	if got := c.Load(context.Background(), "BTC/USDT"); got != 0.002 {
		t.Fatalf("Load = %v, want 0.002", got)
	}
	if stub.callCount() != 1 {
		t.Fatalf("venue called %d times, want 1", stub.callCount())
	}

	// Just inside the TTL: served from cache.
	c.now = func() time.Time { return t0.Add(time.Hour - time.Millisecond) }
	if got := c.Load(context.Background(), "BTC/USDT"); got != 0.002 {
		t.Fatalf("cached Load = %v, want 0.002", got)
	}
	if stub.callCount() != 1 {
		t.Errorf("venue re-fetched inside TTL (%d calls)", stub.callCount())
	}

	// Just past the TTL: refreshed.
	c.now = func() time.Time { return t0.Add(time.Hour + time.Millisecond) }
	c.Load(context.Background(), "BTC/USDT")
	if stub.callCount() != 2 {
		t.Errorf("venue not re-fetched past TTL (%d calls)", stub.callCount())
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	t.Run("venue error", func(t *testing.T) {
		stub := &marketStub{err: errors.New("venue down")}
		c := NewCache(stub, time.Hour, 0.001, zap.NewNop())

		if got := c.Load(context.Background(), "BTC/USDT"); got != 0.001 {
			t.Fatalf("Load = %v, want default 0.001", got)
		}
		// The failure is stamped too, so the venue is not hammered.
		c.Load(context.Background(), "BTC/USDT")
		if stub.callCount() != 1 {
			t.Errorf("failed lookup retried inside TTL (%d calls)", stub.callCount())
		}
	})

	t.Run("symbol without fee", func(t *testing.T) {
		stub := &marketStub{markets: map[string]venue.Market{
			"BTC/USDT": {Symbol: "BTC/USDT"},
		}}
		c := NewCache(stub, time.Hour, 0.001, zap.NewNop())
		if got := c.Load(context.Background(), "BTC/USDT"); got != 0.001 {
			t.Errorf("Load = %v, want default 0.001", got)
		}
	})
}

func TestSetVenueResetsEntries(t *testing.T) {
	stub := &marketStub{markets: map[string]venue.Market{
		"BTC/USDT": {Symbol: "BTC/USDT", TakerFee: 0.002},
	}}
	c := NewCache(stub, time.Hour, 0.001, zap.NewNop())
	c.Load(context.Background(), "BTC/USDT")

	next := &marketStub{markets: map[string]venue.Market{
		"BTC/USDT": {Symbol: "BTC/USDT", TakerFee: 0.005},
	}}
	c.SetVenue(next)

	if got := c.Load(context.Background(), "BTC/USDT"); got != 0.005 {
		t.Errorf("Load after SetVenue = %v, want 0.005", got)
	}
	if next.callCount() != 1 {
		t.Errorf("new venue called %d times, want 1", next.callCount())
	}
}
