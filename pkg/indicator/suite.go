package indicator

// Suite binds the configured periods so callers that only hold a close series
// can compute RSI and MACD without threading parameters everywhere.
type Suite struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

func (s Suite) SMA(values []float64, period int) []float64 {
	return SMA(values, period)
}

func (s Suite) EMA(values []float64, period int) []float64 {
	return EMA(values, period)
}

func (s Suite) RSI(values []float64) []float64 {
	return RSI(values, s.RSIPeriod)
}

func (s Suite) MACD(values []float64) (macd, signal []float64) {
	m, sig, _ := MACD(values, s.MACDFast, s.MACDSlow, s.MACDSignal)
	return m, sig
}
