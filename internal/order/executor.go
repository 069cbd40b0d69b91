// Package order sizes and executes market orders in both simulated and
// real mode, journaling every fill.
package order

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tradebot-core/internal/config"
	"tradebot-core/internal/events"
	"tradebot-core/internal/fees"
	"tradebot-core/internal/ledger"
	"tradebot-core/internal/strategy"
	"tradebot-core/pkg/db"
	"tradebot-core/pkg/venue"
)

// PriceSource supplies a last-known price when the ticker fetch fails.
// The bot keeps an order-book snapshot per symbol for this purpose.
type PriceSource interface {
	LastPrice(symbol string) (float64, bool)
}

// Executor turns strategy signals into balance mutations (simulated mode)
// or venue orders (real mode).
type Executor struct {
	cfg    config.Config
	venue  venue.Client
	ledger *ledger.Ledger
	fees   *fees.Cache
	prices PriceSource
	bus    *events.Bus
	db     *db.Database
	log    *zap.Logger
}

// New builds an executor. db may be nil when journaling is disabled.
func New(cfg config.Config, client venue.Client, led *ledger.Ledger, fc *fees.Cache, prices PriceSource, bus *events.Bus, database *db.Database, log *zap.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		venue:  client,
		ledger: led,
		fees:   fc,
		prices: prices,
		bus:    bus,
		db:     database,
		log:    log.Named("order"),
	}
}

// SetVenue swaps the venue client after a mode switch.
func (e *Executor) SetVenue(client venue.Client) { e.venue = client }

// SetLedger swaps the ledger after a mode switch.
func (e *Executor) SetLedger(led *ledger.Ledger) { e.ledger = led }

// SetConfig refreshes the executor's config snapshot.
func (e *Executor) SetConfig(cfg config.Config) { e.cfg = cfg }

// PositionSize computes the order quantity for symbol at price: the
// configured fraction of the base balance, capped by the held asset
// quantity when there is one.
func (e *Executor) PositionSize(price float64, symbol string) float64 {
	if price == 0 {
		price = 1
	}
	size := e.ledger.Base() * e.cfg.Risk.MaxPositionSize / price

	cap := math.Inf(1)
	if qty := e.ledger.Asset(ledger.AssetOf(symbol)); qty > 0 {
		cap = qty
	}
	return math.Min(size, cap)
}

// Execute places a single-leg market order. In real mode the order goes
// to the venue; in simulated mode the ledger is mutated directly, fee
// included.
func (e *Executor) Execute(ctx context.Context, side strategy.Signal, qty, price float64, symbol string) error {
	if side != strategy.SignalBuy && side != strategy.SignalSell {
		return fmt.Errorf("unsupported order side %q", side)
	}
	if qty <= 0 {
		return fmt.Errorf("order quantity must be positive, got %v", qty)
	}

	feeRate := e.fees.Load(ctx, symbol)

	if e.ledger.Mode() == ledger.Real {
		if _, err := e.venue.CreateMarketOrder(ctx, symbol, string(side), qty); err != nil {
			return fmt.Errorf("create market order: %w", err)
		}
	} else {
		feeAmt := qty * price * feeRate
		asset := ledger.AssetOf(symbol)

		var deltas map[string]float64
		if side == strategy.SignalBuy {
			deltas = map[string]float64{
				asset:              qty,
				e.cfg.BaseCurrency: -(qty*price + feeAmt),
			}
		} else {
			deltas = map[string]float64{
				asset:              -qty,
				e.cfg.BaseCurrency: qty*price - feeAmt,
			}
		}
		if err := e.ledger.Apply(deltas); err != nil {
			return fmt.Errorf("simulated %s %s: %w", side, symbol, err)
		}
	}

	e.log.Info("order executed",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("qty", qty),
		zap.Float64("price", price),
		zap.Float64("fee_rate", feeRate))

	e.RiskAdvisory(price, symbol, side)
	e.journal(ctx, symbol, string(side), qty, price, qty*price*feeRate)
	e.publishBalance()
	return nil
}

// ExecutePair places both legs of a pairs-trading order atomically: in
// simulated mode neither leg mutates the ledger unless both checks pass.
func (e *Executor) ExecutePair(ctx context.Context, sig strategy.Signal, qty float64) error {
	if sig != strategy.SignalSellOneBuyTwo && sig != strategy.SignalBuyOneSellTwo {
		return fmt.Errorf("unsupported pair signal %q", sig)
	}
	if qty <= 0 {
		return fmt.Errorf("order quantity must be positive, got %v", qty)
	}

	sym1 := e.cfg.PairsTrading.Symbol1
	sym2 := e.cfg.PairsTrading.Symbol2

	price1 := e.lastPrice(ctx, sym1)
	price2 := e.lastPrice(ctx, sym2)
	qty2 := qty * price1 / price2

	fee1 := e.fees.Load(ctx, sym1)
	fee2 := e.fees.Load(ctx, sym2)
	feeAmt1 := qty * price1 * fee1
	feeAmt2 := qty2 * price2 * fee2

	asset1 := ledger.AssetOf(sym1)
	asset2 := ledger.AssetOf(sym2)
	base := e.cfg.BaseCurrency

	if e.ledger.Mode() == ledger.Real {
		var side1, side2 string
		if sig == strategy.SignalSellOneBuyTwo {
			side1, side2 = "sell", "buy"
		} else {
			side1, side2 = "buy", "sell"
		}
		if _, err := e.venue.CreateMarketOrder(ctx, sym1, side1, qty); err != nil {
			return fmt.Errorf("pair leg 1 (%s %s): %w", side1, sym1, err)
		}
		if _, err := e.venue.CreateMarketOrder(ctx, sym2, side2, qty2); err != nil {
			return fmt.Errorf("pair leg 2 (%s %s): %w", side2, sym2, err)
		}
		e.journal(ctx, sym1, side1, qty, price1, feeAmt1)
		e.journal(ctx, sym2, side2, qty2, price2, feeAmt2)
	} else {
		var deltas map[string]float64
		var side1, side2 string
		switch sig {
		case strategy.SignalSellOneBuyTwo:
			side1, side2 = "sell", "buy"
			if e.ledger.Asset(asset1) < qty || e.ledger.Base() < feeAmt1+feeAmt2 {
				return fmt.Errorf("pair %s: %w", sig, ledger.ErrInsufficientFunds)
			}
			deltas = map[string]float64{
				asset1: -qty,
				asset2: qty2,
				base:   qty*price1 - qty2*price2 - feeAmt1 - feeAmt2,
			}
		case strategy.SignalBuyOneSellTwo:
			side1, side2 = "buy", "sell"
			if e.ledger.Asset(asset2) < qty2 || e.ledger.Base() < qty*price1+feeAmt1+feeAmt2 {
				return fmt.Errorf("pair %s: %w", sig, ledger.ErrInsufficientFunds)
			}
			deltas = map[string]float64{
				asset1: qty,
				asset2: -qty2,
				base:   qty2*price2 - qty*price1 - feeAmt1 - feeAmt2,
			}
		}
		if err := e.ledger.Apply(deltas); err != nil {
			return fmt.Errorf("pair %s: %w", sig, err)
		}
		// The journal records completed trades only; a failed Apply must
		// leave no rows behind.
		e.journal(ctx, sym1, side1, qty, price1, feeAmt1)
		e.journal(ctx, sym2, side2, qty2, price2, feeAmt2)
	}

	e.log.Info("pair order executed",
		zap.String("signal", string(sig)),
		zap.String("symbol1", sym1),
		zap.String("symbol2", sym2),
		zap.Float64("qty1", qty),
		zap.Float64("qty2", qty2))

	e.publishBalance()
	return nil
}

// RiskAdvisory logs indicative stop-loss and take-profit levels for an
// executed order. The configured percentages are fractions of price. Levels
// are informational only, no orders are placed.
func (e *Executor) RiskAdvisory(price float64, symbol string, sig strategy.Signal) (stopLoss, takeProfit float64) {
	dir := 1.0
	if sig == strategy.SignalSell {
		dir = -1
	}
	stopLoss = price * (1 - e.cfg.Risk.StopLossPercent*dir)
	takeProfit = price * (1 + e.cfg.Risk.TakeProfitPercent*dir)
	e.log.Info("risk levels",
		zap.String("symbol", symbol),
		zap.Float64("stop_loss", stopLoss),
		zap.Float64("take_profit", takeProfit))
	return stopLoss, takeProfit
}

// lastPrice fetches a ticker price and falls back to the cached
// order-book price, then to 1 so a sizing division never panics.
func (e *Executor) lastPrice(ctx context.Context, symbol string) float64 {
	ticker, err := e.venue.FetchTicker(ctx, symbol)
	if err == nil && ticker.Last > 0 {
		return ticker.Last
	}
	if e.prices != nil {
		if p, ok := e.prices.LastPrice(symbol); ok && p > 0 {
			e.log.Warn("ticker unavailable, using cached price",
				zap.String("symbol", symbol), zap.Float64("price", p))
			return p
		}
	}
	e.log.Warn("no price available for symbol", zap.String("symbol", symbol))
	return 1
}

func (e *Executor) journal(ctx context.Context, symbol, side string, qty, price, fee float64) {
	if e.db == nil {
		return
	}
	err := e.db.InsertTrade(ctx, db.Trade{
		ID:     uuid.NewString(),
		Symbol: symbol,
		Side:   side,
		Qty:    qty,
		Price:  price,
		Fee:    fee,
		Mode:   e.ledger.Mode().String(),
	})
	if err != nil {
		e.log.Warn("trade journal write failed", zap.Error(err))
	}
}

func (e *Executor) publishBalance() {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.TopicBalance, e.ledger.Snapshot())
}
