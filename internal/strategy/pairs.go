package strategy

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"tradebot-core/internal/config"
	"tradebot-core/pkg/venue"
)

// PairsTrading trades the spread between two instruments: when the z-score of
// the close-price difference crosses the outer thresholds it sells the rich
// leg and buys the cheap one. RSI on the first leg filters exhausted moves.
type PairsTrading struct {
	period  int
	offset  float64
	symbol2 string
	ind     Indicators
	log     *zap.Logger
	signal  Signal
}

func NewPairsTrading(cfg config.PairsTrading, ind Indicators, log *zap.Logger) *PairsTrading {
	return &PairsTrading{
		period:  cfg.Period,
		offset:  cfg.Offset,
		symbol2: cfg.Symbol2,
		ind:     ind,
		log:     log,
		signal:  SignalNone,
	}
}

func (p *PairsTrading) Name() string { return "pairsTrading" }

func (p *PairsTrading) Lookback() int { return p.period + 1 }

func (p *PairsTrading) Last() Signal { return p.signal }

func (p *PairsTrading) SecondSymbol() string { return p.symbol2 }

// Generate exists to satisfy Strategy; the orchestrator always calls
// GeneratePair for this algorithm.
func (p *PairsTrading) Generate(window []venue.Candle) (Signal, error) {
	return SignalNone, errors.New("pairsTrading needs two windows")
}

func (p *PairsTrading) GeneratePair(first, second []venue.Candle) (Signal, error) {
	closes1 := venue.Closes(first)
	closes2 := venue.Closes(second)
	n := len(closes1)
	if len(closes2) < n {
		n = len(closes2)
	}
	if n < 2 {
		return SignalNone, nil
	}

	diff := make([]float64, n)
	mean := 0.0
	for i := 0; i < n; i++ {
		diff[i] = closes1[len(closes1)-n+i] - closes2[len(closes2)-n+i]
		mean += diff[i]
	}
	mean /= float64(n)
	variance := 0.0
	for _, d := range diff {
		variance += (d - mean) * (d - mean)
	}
	std := math.Sqrt(variance / float64(n))
	if std == 0 {
		std = 1
	}

	z := (diff[n-1] - mean) / std
	lastZ := (diff[n-2] - mean) / std
	rsi := last(p.ind.RSI(closes1))
	upper := p.offset / 100
	lower := -upper

	switch {
	case z > upper && lastZ <= upper && rsi < 70:
		p.signal = SignalSellOneBuyTwo
		p.log.Info("pairs signal: sell leg one, buy leg two",
			zap.Float64("zscore", z), zap.Float64("rsi", rsi))
		return SignalSellOneBuyTwo, nil
	case z < lower && lastZ >= lower && rsi > 30:
		p.signal = SignalBuyOneSellTwo
		p.log.Info("pairs signal: buy leg one, sell leg two",
			zap.Float64("zscore", z), zap.Float64("rsi", rsi))
		return SignalBuyOneSellTwo, nil
	}
	return SignalNone, nil
}
