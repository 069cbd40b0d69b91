package strategy

import (
	"go.uber.org/zap"

	"tradebot-core/pkg/venue"
)

// EMACross is the momentum-following algorithm: a price cross over the
// exponential moving average, confirmed by the MACD line being on the same
// side of its signal line.
type EMACross struct {
	period int
	ind    Indicators
	log    *zap.Logger
	signal Signal
}

func NewEMACross(period int, ind Indicators, log *zap.Logger) *EMACross {
	return &EMACross{period: period, ind: ind, log: log, signal: SignalNone}
}

func (e *EMACross) Name() string { return "ema" }

func (e *EMACross) Lookback() int { return e.period + 1 }

func (e *EMACross) Last() Signal { return e.signal }

func (e *EMACross) Generate(window []venue.Candle) (Signal, error) {
	closes := venue.Closes(window)
	if len(closes) < 2 {
		return SignalNone, nil
	}
	ema := last(e.ind.EMA(closes, e.period))
	macd, sig := e.ind.MACD(closes)
	macdLine, sigLine := last(macd), last(sig)
	price := closes[len(closes)-1]
	prev := closes[len(closes)-2]

	switch {
	case price > ema && prev <= ema && macdLine > sigLine:
		e.signal = SignalBuy
		e.log.Info("ema buy signal",
			zap.Float64("price", price), zap.Float64("ema", ema), zap.Float64("macd", macdLine))
		return SignalBuy, nil
	case price < ema && prev >= ema && macdLine < sigLine:
		e.signal = SignalSell
		e.log.Info("ema sell signal",
			zap.Float64("price", price), zap.Float64("ema", ema), zap.Float64("macd", macdLine))
		return SignalSell, nil
	}
	return SignalNone, nil
}
