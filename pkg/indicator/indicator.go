// Package indicator wraps the TA-Lib port with length guards plus the two
// measures the library does not ship (session VWAP, Ichimoku conversion
// lines). All functions are pure and operate on plain float64 series.
package indicator

import "github.com/markcheno/go-talib"

// SMA returns the simple moving average series; zero-padded until period-1.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return make([]float64, len(values))
	}
	return talib.Sma(values, period)
}

// EMA returns the exponential moving average series.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return make([]float64, len(values))
	}
	return talib.Ema(values, period)
}

// RSI returns Wilder's relative strength index.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return make([]float64, len(values))
	}
	return talib.Rsi(values, period)
}

// MACD returns the MACD line, signal line and histogram.
func MACD(values []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	if len(values) < slow+signal {
		n := len(values)
		return make([]float64, n), make([]float64, n), make([]float64, n)
	}
	return talib.Macd(values, fast, slow, signal)
}

// Bollinger returns the upper, middle and lower bands.
func Bollinger(values []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	if period <= 0 || len(values) < period {
		n := len(values)
		return make([]float64, n), make([]float64, n), make([]float64, n)
	}
	return talib.BBands(values, period, stdDev, stdDev, talib.SMA)
}

// ADX returns the average directional index over high/low/close series.
func ADX(high, low, close []float64, period int) []float64 {
	if period <= 0 || len(close) <= 2*period {
		return make([]float64, len(close))
	}
	return talib.Adx(high, low, close, period)
}

// ATR returns the average true range over high/low/close series.
func ATR(high, low, close []float64, period int) []float64 {
	if period <= 0 || len(close) <= period {
		return make([]float64, len(close))
	}
	return talib.Atr(high, low, close, period)
}

// VWAP returns the cumulative volume-weighted average price, one value per
// bar, using the (high+low+close)/3 typical price.
func VWAP(high, low, close, volume []float64) []float64 {
	out := make([]float64, len(close))
	var cumPV, cumV float64
	for i := range close {
		typical := (high[i] + low[i] + close[i]) / 3
		cumPV += typical * volume[i]
		cumV += volume[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		}
	}
	return out
}

// Ichimoku returns the tenkan-sen (9) and kijun-sen (26) conversion lines,
// computed as moving averages of the bar midpoint.
func Ichimoku(high, low []float64) (tenkan, kijun float64) {
	mid := make([]float64, len(high))
	for i := range high {
		mid[i] = (high[i] + low[i]) / 2
	}
	return Last(SMA(mid, 9)), Last(SMA(mid, 26))
}

// Last returns the final element of a series, or 0 for an empty one.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// Prev returns the second-to-last element of a series, or 0.
func Prev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	return series[len(series)-2]
}
