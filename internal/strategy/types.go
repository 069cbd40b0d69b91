// Package strategy holds the pluggable signal-generating algorithms and the
// closed registry that resolves them by name.
package strategy

import (
	"tradebot-core/pkg/venue"
)

// Signal is the directional decision a strategy emits for one cycle.
type Signal string

const (
	SignalNone          Signal = "none"
	SignalBuy           Signal = "buy"
	SignalSell          Signal = "sell"
	SignalSellOneBuyTwo Signal = "sell1_buy2"
	SignalBuyOneSellTwo Signal = "buy1_sell2"
)

// Directional reports whether the signal calls for an order.
func (s Signal) Directional() bool {
	return s != SignalNone && s != ""
}

// Indicators is the narrow functional interface strategies consume. The
// periods for RSI and MACD are fixed at construction so strategies only pass
// the series they operate on.
type Indicators interface {
	SMA(values []float64, period int) []float64
	EMA(values []float64, period int) []float64
	RSI(values []float64) []float64
	MACD(values []float64) (macd, signal []float64)
}

// Strategy turns an OHLCV window into a Signal. Implementations keep no
// external state beyond their own last emitted signal, which the risk stub
// reads for its directional assumption.
type Strategy interface {
	Name() string
	// Lookback is the candle count the strategy needs, including the extra
	// bar used for crossover comparison.
	Lookback() int
	Generate(window []venue.Candle) (Signal, error)
	Last() Signal
}

// PairStrategy is the two-legged variant; the orchestrator fetches the second
// instrument's window when the active strategy implements it.
type PairStrategy interface {
	Strategy
	SecondSymbol() string
	GeneratePair(first, second []venue.Candle) (Signal, error)
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
