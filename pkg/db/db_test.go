package db

import (
	"context"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := ApplyMigrations(d); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	return d
}

func TestInsertAndListTrades(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	trades := []Trade{
		{ID: "t1", Symbol: "BTC/USDT", Side: "buy", Qty: 0.01, Price: 50000, Fee: 0.5, Mode: "simulated", CreatedAt: base},
		{ID: "t2", Symbol: "ETH/USDT", Side: "sell", Qty: 0.5, Price: 3000, Fee: 1.5, Mode: "simulated", CreatedAt: base.Add(time.Minute)},
		{ID: "t3", Symbol: "BTC/USDT", Side: "sell", Qty: 0.01, Price: 51000, Fee: 0.51, Mode: "real", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, tr := range trades {
		if err := d.InsertTrade(ctx, tr); err != nil {
			t.Fatalf("InsertTrade(%s): %v", tr.ID, err)
		}
	}

	got, err := d.ListTrades(ctx, 0)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListTrades returned %d trades, want 3", len(got))
	}
	// Newest first.
	if got[0].ID != "t3" || got[2].ID != "t1" {
		t.Errorf("unexpected order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}

	limited, err := d.ListTrades(ctx, 2)
	if err != nil {
		t.Fatalf("ListTrades(limit): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited list returned %d trades, want 2", len(limited))
	}
}

func TestTradesBySymbol(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for _, tr := range []Trade{
		{ID: "a", Symbol: "BTC/USDT", Side: "buy", Qty: 1, Price: 100, Fee: 0.1, Mode: "simulated"},
		{ID: "b", Symbol: "ETH/USDT", Side: "buy", Qty: 1, Price: 10, Fee: 0.01, Mode: "simulated"},
	} {
		if err := d.InsertTrade(ctx, tr); err != nil {
			t.Fatalf("InsertTrade: %v", err)
		}
	}

	got, err := d.TradesBySymbol(ctx, "BTC/USDT")
	if err != nil {
		t.Fatalf("TradesBySymbol: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("TradesBySymbol returned %+v, want single trade a", got)
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") did not return an error")
	}
}
