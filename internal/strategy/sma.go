package strategy

import (
	"go.uber.org/zap"

	"tradebot-core/pkg/venue"
)

// SMACross buys when price crosses above its simple moving average with RSI
// below the overbought line, sells on the mirrored cross when RSI is above
// the oversold line.
type SMACross struct {
	period int
	ind    Indicators
	log    *zap.Logger
	signal Signal
}

func NewSMACross(period int, ind Indicators, log *zap.Logger) *SMACross {
	return &SMACross{period: period, ind: ind, log: log, signal: SignalNone}
}

func (s *SMACross) Name() string { return "sma" }

func (s *SMACross) Lookback() int { return s.period + 1 }

func (s *SMACross) Last() Signal { return s.signal }

func (s *SMACross) Generate(window []venue.Candle) (Signal, error) {
	closes := venue.Closes(window)
	if len(closes) < 2 {
		return SignalNone, nil
	}
	sma := last(s.ind.SMA(closes, s.period))
	rsi := last(s.ind.RSI(closes))
	price := closes[len(closes)-1]
	prev := closes[len(closes)-2]

	switch {
	case price > sma && prev <= sma && rsi < 70:
		s.signal = SignalBuy
		s.log.Info("sma buy signal",
			zap.Float64("price", price), zap.Float64("sma", sma), zap.Float64("rsi", rsi))
		return SignalBuy, nil
	case price < sma && prev >= sma && rsi > 30:
		s.signal = SignalSell
		s.log.Info("sma sell signal",
			zap.Float64("price", price), zap.Float64("sma", sma), zap.Float64("rsi", rsi))
		return SignalSell, nil
	}
	return SignalNone, nil
}
