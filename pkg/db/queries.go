package db

import (
	"context"
	"fmt"
	"time"
)

// Trade is one journal row, written after each executed order.
type Trade struct {
	ID        string
	Symbol    string
	Side      string
	Qty       float64
	Price     float64
	Fee       float64
	Mode      string
	CreatedAt time.Time
}

// InsertTrade records a single executed order.
func (d *Database) InsertTrade(ctx context.Context, t Trade) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trades (id, symbol, side, qty, price, fee, mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.Side, t.Qty, t.Price, t.Fee, t.Mode, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// ListTrades returns the most recent trades, newest first. A limit of 0
// means no limit.
func (d *Database) ListTrades(ctx context.Context, limit int) ([]Trade, error) {
	query := `
		SELECT id, symbol, side, qty, price, fee, mode, created_at
		FROM trades ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Qty, &t.Price, &t.Fee, &t.Mode, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// TradesBySymbol returns all trades for one symbol, newest first.
func (d *Database) TradesBySymbol(ctx context.Context, symbol string) ([]Trade, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, symbol, side, qty, price, fee, mode, created_at
		FROM trades WHERE symbol = ? ORDER BY created_at DESC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("trades by symbol: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Qty, &t.Price, &t.Fee, &t.Mode, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
