package strategy

import (
	"testing"

	"go.uber.org/zap"

	"tradebot-core/internal/config"
	"tradebot-core/pkg/venue"
)

// stubIndicators returns fixed values so the crossover logic is tested
// against exact inputs instead of predicted indicator output.
type stubIndicators struct {
	sma, ema, rsi    float64
	macd, macdSignal float64
}

func (s stubIndicators) SMA(values []float64, period int) []float64 { return []float64{s.sma} }
func (s stubIndicators) EMA(values []float64, period int) []float64 { return []float64{s.ema} }
func (s stubIndicators) RSI(values []float64) []float64             { return []float64{s.rsi} }
func (s stubIndicators) MACD(values []float64) (macd, signal []float64) {
	return []float64{s.macd}, []float64{s.macdSignal}
}

func window(closes ...float64) []venue.Candle {
	out := make([]venue.Candle, len(closes))
	for i, c := range closes {
		out[i] = venue.Candle{Close: c, High: c, Low: c, Open: c}
	}
	return out
}

func TestSMACross(t *testing.T) {
	cases := []struct {
		name string
		ind  stubIndicators
		win  []venue.Candle
		want Signal
	}{
		{"cross above buys", stubIndicators{sma: 100, rsi: 50}, window(99, 101), SignalBuy},
		{"cross above blocked by overbought rsi", stubIndicators{sma: 100, rsi: 75}, window(99, 101), SignalNone},
		{"cross below sells", stubIndicators{sma: 100, rsi: 50}, window(101, 99), SignalSell},
		{"cross below blocked by oversold rsi", stubIndicators{sma: 100, rsi: 25}, window(101, 99), SignalNone},
		{"no cross is flat", stubIndicators{sma: 100, rsi: 50}, window(101, 102), SignalNone},
		{"short window is flat", stubIndicators{sma: 100, rsi: 50}, window(101), SignalNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSMACross(20, tc.ind, zap.NewNop())
			got, err := s.Generate(tc.win)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Generate = %q, want %q", got, tc.want)
			}
			if tc.want != SignalNone && s.Last() != tc.want {
				t.Errorf("Last = %q, want %q", s.Last(), tc.want)
			}
		})
	}
}

func TestEMACross(t *testing.T) {
	cases := []struct {
		name string
		ind  stubIndicators
		win  []venue.Candle
		want Signal
	}{
		{"cross above confirmed by macd", stubIndicators{ema: 100, macd: 1, macdSignal: 0.5}, window(99, 101), SignalBuy},
		{"cross above without confirmation", stubIndicators{ema: 100, macd: 0.2, macdSignal: 0.5}, window(99, 101), SignalNone},
		{"cross below confirmed by macd", stubIndicators{ema: 100, macd: -1, macdSignal: -0.5}, window(101, 99), SignalSell},
		{"cross below without confirmation", stubIndicators{ema: 100, macd: -0.2, macdSignal: -0.5}, window(101, 99), SignalNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEMACross(20, tc.ind, zap.NewNop())
			got, err := e.Generate(tc.win)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Generate = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMeanReversion(t *testing.T) {
	// sma 100 with offset 2: bands at 102 and 98.
	cases := []struct {
		name string
		win  []venue.Candle
		want Signal
	}{
		{"cross above upper band sells", window(101.5, 103), SignalSell},
		{"cross below lower band buys", window(98.5, 97), SignalBuy},
		{"inside the bands is flat", window(99, 101), SignalNone},
		{"already outside is flat", window(103, 104), SignalNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMeanReversion(20, 2, stubIndicators{sma: 100}, zap.NewNop())
			got, err := m.Generate(tc.win)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got != tc.want {
				t.Errorf("Generate = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPairsTrading(t *testing.T) {
	pcfg := config.PairsTrading{Period: 20, Offset: 1, Symbol1: "BTC/USDT", Symbol2: "ETH/USDT"}
	flat := window(100, 100, 100, 100, 100)

	t.Run("spread spike sells leg one", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{rsi: 50}, zap.NewNop())
		// diff series 0,0,0,0,10: z jumps from -0.5 to 2.
		got, err := p.GeneratePair(window(100, 100, 100, 100, 110), flat)
		if err != nil {
			t.Fatalf("GeneratePair: %v", err)
		}
		if got != SignalSellOneBuyTwo {
			t.Errorf("GeneratePair = %q, want %q", got, SignalSellOneBuyTwo)
		}
	})

	t.Run("spread collapse buys leg one", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{rsi: 50}, zap.NewNop())
		got, err := p.GeneratePair(window(100, 100, 100, 100, 90), flat)
		if err != nil {
			t.Fatalf("GeneratePair: %v", err)
		}
		if got != SignalBuyOneSellTwo {
			t.Errorf("GeneratePair = %q, want %q", got, SignalBuyOneSellTwo)
		}
	})

	t.Run("rsi filter blocks exhausted moves", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{rsi: 75}, zap.NewNop())
		got, _ := p.GeneratePair(window(100, 100, 100, 100, 110), flat)
		if got != SignalNone {
			t.Errorf("overbought sell = %q, want none", got)
		}

		p = NewPairsTrading(pcfg, stubIndicators{rsi: 25}, zap.NewNop())
		got, _ = p.GeneratePair(window(100, 100, 100, 100, 90), flat)
		if got != SignalNone {
			t.Errorf("oversold buy = %q, want none", got)
		}
	})

	t.Run("stable spread is flat", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{rsi: 50}, zap.NewNop())
		got, err := p.GeneratePair(flat, flat)
		if err != nil {
			t.Fatalf("GeneratePair: %v", err)
		}
		if got != SignalNone {
			t.Errorf("GeneratePair = %q, want none", got)
		}
	})

	t.Run("uneven windows use the common tail", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{rsi: 50}, zap.NewNop())
		got, err := p.GeneratePair(window(55, 100, 100, 100, 100, 110), flat)
		if err != nil {
			t.Fatalf("GeneratePair: %v", err)
		}
		if got != SignalSellOneBuyTwo {
			t.Errorf("GeneratePair = %q, want %q", got, SignalSellOneBuyTwo)
		}
	})

	t.Run("single window errors", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{}, zap.NewNop())
		if _, err := p.Generate(flat); err == nil {
			t.Fatal("Generate accepted a single window")
		}
	})

	t.Run("second symbol", func(t *testing.T) {
		p := NewPairsTrading(pcfg, stubIndicators{}, zap.NewNop())
		if got := p.SecondSymbol(); got != "ETH/USDT" {
			t.Errorf("SecondSymbol = %q, want ETH/USDT", got)
		}
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	cfg := config.Config{
		SMA:           config.SMA{Period: 20},
		EMA:           config.EMA{Period: 20},
		MeanReversion: config.MeanReversion{Period: 20, Offset: 2},
		PairsTrading:  config.PairsTrading{Period: 20, Offset: 1, Symbol2: "ETH/USDT"},
	}

	for _, name := range []string{"sma", "ema", "meanReversion", "pairsTrading"} {
		if !r.Valid(name) {
			t.Errorf("Valid(%q) = false", name)
		}
		s, err := r.New(name, cfg, stubIndicators{}, zap.NewNop())
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, s.Name())
		}
		if s.Lookback() != 21 {
			t.Errorf("New(%q).Lookback() = %d, want 21", name, s.Lookback())
		}
	}

	if r.Valid("bogus") {
		t.Error("Valid(bogus) = true")
	}
	if _, err := r.New("bogus", cfg, stubIndicators{}, zap.NewNop()); err == nil {
		t.Error("New(bogus) did not error")
	}

	names := r.Names()
	want := []string{"ema", "meanReversion", "pairsTrading", "sma"}
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
