package strategy

import (
	"go.uber.org/zap"

	"tradebot-core/pkg/venue"
)

// MeanReversion fades moves away from the moving average: sells when price
// crosses above the upper band, buys when it crosses below the lower band.
// The bands sit offset percent around the SMA.
type MeanReversion struct {
	period int
	offset float64
	ind    Indicators
	log    *zap.Logger
	signal Signal
}

func NewMeanReversion(period int, offset float64, ind Indicators, log *zap.Logger) *MeanReversion {
	return &MeanReversion{period: period, offset: offset, ind: ind, log: log, signal: SignalNone}
}

func (m *MeanReversion) Name() string { return "meanReversion" }

func (m *MeanReversion) Lookback() int { return m.period + 1 }

func (m *MeanReversion) Last() Signal { return m.signal }

func (m *MeanReversion) Generate(window []venue.Candle) (Signal, error) {
	closes := venue.Closes(window)
	if len(closes) < 2 {
		return SignalNone, nil
	}
	sma := last(m.ind.SMA(closes, m.period))
	upper := sma * (1 + m.offset/100)
	lower := sma * (1 - m.offset/100)
	price := closes[len(closes)-1]
	prev := closes[len(closes)-2]

	switch {
	case price > upper && prev <= upper:
		m.signal = SignalSell
		m.log.Info("mean-reversion sell signal",
			zap.Float64("price", price), zap.Float64("upper", upper))
		return SignalSell, nil
	case price < lower && prev >= lower:
		m.signal = SignalBuy
		m.log.Info("mean-reversion buy signal",
			zap.Float64("price", price), zap.Float64("lower", lower))
		return SignalBuy, nil
	}
	return SignalNone, nil
}
