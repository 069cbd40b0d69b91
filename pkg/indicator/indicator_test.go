package indicator

import (
	"math"
	"testing"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	// (3+4+5)/3
	if math.Abs(got[4]-4) > 1e-9 {
		t.Errorf("SMA last = %v, want 4", got[4])
	}
	if math.Abs(got[2]-2) > 1e-9 {
		t.Errorf("SMA[2] = %v, want 2", got[2])
	}
}

func TestShortSeriesGuards(t *testing.T) {
	short := []float64{1, 2}

	if got := SMA(short, 5); len(got) != 2 || got[1] != 0 {
		t.Errorf("SMA guard = %v, want zero padding", got)
	}
	if got := EMA(short, 5); len(got) != 2 || got[1] != 0 {
		t.Errorf("EMA guard = %v, want zero padding", got)
	}
	if got := RSI(short, 14); len(got) != 2 || got[1] != 0 {
		t.Errorf("RSI guard = %v, want zero padding", got)
	}
	macd, sig, hist := MACD(short, 12, 26, 9)
	if len(macd) != 2 || len(sig) != 2 || len(hist) != 2 {
		t.Error("MACD guard did not preserve length")
	}
	if got := ADX(short, short, short, 14); got[1] != 0 {
		t.Errorf("ADX guard = %v, want zeros", got)
	}
	if got := ATR(short, short, short, 14); got[1] != 0 {
		t.Errorf("ATR guard = %v, want zeros", got)
	}
	u, m, l := Bollinger(short, 20, 2)
	if len(u) != 2 || len(m) != 2 || len(l) != 2 {
		t.Error("Bollinger guard did not preserve length")
	}
}

func TestRSIBounds(t *testing.T) {
	// A monotonic rise pushes RSI to the top of its range.
	got := Last(RSI(ramp(30), 14))
	if got < 90 || got > 100 {
		t.Errorf("rising RSI = %v, want near 100", got)
	}
}

func TestBollingerOrdering(t *testing.T) {
	values := []float64{100, 102, 98, 101, 99, 103, 97, 100, 102, 98,
		101, 99, 103, 97, 100, 102, 98, 101, 99, 103, 100}
	upper, middle, lower := Bollinger(values, 20, 2)
	u, m, l := Last(upper), Last(middle), Last(lower)
	if !(u > m && m > l) {
		t.Errorf("band ordering violated: %v %v %v", u, m, l)
	}
}

func TestVWAP(t *testing.T) {
	high := constant(5, 102)
	low := constant(5, 98)
	close := constant(5, 100)
	volume := constant(5, 10)

	got := VWAP(high, low, close, volume)
	// Typical price is constant 100, so VWAP is 100 everywhere.
	for i, v := range got {
		if math.Abs(v-100) > 1e-9 {
			t.Errorf("VWAP[%d] = %v, want 100", i, v)
		}
	}

	if got := VWAP(high, low, close, constant(5, 0)); got[4] != 0 {
		t.Errorf("zero-volume VWAP = %v, want 0", got[4])
	}
}

func TestIchimoku(t *testing.T) {
	high := constant(30, 110)
	low := constant(30, 90)
	tenkan, kijun := Ichimoku(high, low)
	if math.Abs(tenkan-100) > 1e-9 || math.Abs(kijun-100) > 1e-9 {
		t.Errorf("Ichimoku = %v/%v, want 100/100", tenkan, kijun)
	}

	// Too short for the kijun window degrades to zero, not a panic.
	_, kijun = Ichimoku(constant(10, 110), constant(10, 90))
	if kijun != 0 {
		t.Errorf("short kijun = %v, want 0", kijun)
	}
}

func TestLastPrev(t *testing.T) {
	if Last(nil) != 0 || Prev(nil) != 0 {
		t.Error("empty series helpers not zero")
	}
	s := []float64{1, 2, 3}
	if Last(s) != 3 || Prev(s) != 2 {
		t.Errorf("Last/Prev = %v/%v, want 3/2", Last(s), Prev(s))
	}
}
