// Package selector ranks candidate instruments for automatic selection and
// classifies the market regime that drives strategy switching.
package selector

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tradebot-core/internal/config"
	"tradebot-core/pkg/indicator"
	"tradebot-core/pkg/venue"
)

// Regime is the trend/volatility quadrant of recent price action.
type Regime string

const (
	TrendingVolatile Regime = "trending_volatile"
	TrendingStable   Regime = "trending_stable"
	RangingVolatile  Regime = "ranging_volatile"
	RangingStable    Regime = "ranging_stable"
)

const (
	regimePeriod = 14
	adxTrendMin  = 25
	// candidates considered per selection run, by listing order
	maxCandidates = 50
)

// PairScore is the ephemeral ranking record used during selection.
type PairScore struct {
	Symbol string
	Score  float64
}

// Classify maps trend strength and volatility onto a regime quadrant.
// Volatility counts when the ATR exceeds 1% of the current price.
func Classify(adx, atr, price float64) Regime {
	volatile := atr > price*0.01
	if adx > adxTrendMin {
		if volatile {
			return TrendingVolatile
		}
		return TrendingStable
	}
	if volatile {
		return RangingVolatile
	}
	return RangingStable
}

// Selector scores instruments against the venue.
type Selector struct {
	mu    sync.RWMutex
	venue venue.Client
	log   *zap.Logger
}

func New(client venue.Client, log *zap.Logger) *Selector {
	return &Selector{venue: client, log: log}
}

// SetVenue swaps the backing venue client after a mode switch.
func (s *Selector) SetVenue(client venue.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venue = client
}

func (s *Selector) client() venue.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.venue
}

// Evaluate classifies the regime of an OHLCV window. Anything that prevents
// the computation degrades to RangingStable, never to an error.
func (s *Selector) Evaluate(candles []venue.Candle) Regime {
	if len(candles) == 0 {
		return RangingStable
	}
	closes := venue.Closes(candles)
	price := closes[len(closes)-1]

	adx := indicator.Last(indicator.ADX(venue.Highs(candles), venue.Lows(candles), closes, regimePeriod))
	atr := indicator.Last(indicator.ATR(venue.Highs(candles), venue.Lows(candles), closes, regimePeriod))
	if atr == 0 {
		// window too short for ATR; treat volatility as exactly the cutoff
		atr = price * 0.01
	}
	return Classify(adx, atr, price)
}

// Recommend maps a regime onto the algorithm suited to it: momentum-following
// in trends, mean-reversion in ranges, the baseline crossover otherwise.
func (s *Selector) Recommend(r Regime) string {
	switch r {
	case TrendingVolatile, TrendingStable:
		return "ema"
	case RangingVolatile, RangingStable:
		return "meanReversion"
	default:
		return "sma"
	}
}

// SelectBestPairs ranks the first 50 base-quoted instruments by composite
// score and returns the top maxPairs symbols. Per-symbol fetch failures drop
// the symbol from scoring; if nothing scores, the configured symbol is
// returned alone.
func (s *Selector) SelectBestPairs(ctx context.Context, cfg config.Config) []string {
	client := s.client()
	fallback := []string{cfg.Symbol}

	markets, err := client.LoadMarkets(ctx)
	if err != nil {
		s.log.Error("pair selection: loading markets failed", zap.Error(err))
		return fallback
	}

	suffix := "/" + cfg.BaseCurrency
	symbols := make([]string, 0, len(markets))
	for sym := range markets {
		if strings.HasSuffix(sym, suffix) {
			symbols = append(symbols, sym)
		}
	}
	// Listing order: the venue map has no order of its own, so the sorted
	// symbol list is the enumeration order candidates and ties follow.
	sort.Strings(symbols)
	if len(symbols) > maxCandidates {
		symbols = symbols[:maxCandidates]
	}

	scores := make([]PairScore, 0, len(symbols))
	for _, sym := range symbols {
		score, err := s.scoreSymbol(ctx, client, sym, cfg.LiquidityThreshold)
		if err != nil {
			s.log.Warn("pair selection: symbol skipped", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		scores = append(scores, PairScore{Symbol: sym, Score: score})
	}

	selected := Rank(scores, cfg.AutoSelection.MaxPairs)
	if len(selected) == 0 {
		return fallback
	}
	return selected
}

// scoreSymbol computes the composite score for one candidate:
// 0.4·trend + 0.3·(volatility/price) + 0.2·return24h + 0.1 when liquid.
func (s *Selector) scoreSymbol(ctx context.Context, client venue.Client, symbol string, liquidityMin float64) (float64, error) {
	ticker, err := client.FetchTicker(ctx, symbol)
	if err != nil {
		return 0, err
	}
	candles, err := client.FetchOHLCV(ctx, symbol, "1h", 24)
	if err != nil {
		return 0, err
	}
	book, err := client.FetchOrderBook(ctx, symbol, 20)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 || ticker.Last == 0 {
		return 0, nil
	}

	closes := venue.Closes(candles)
	adx := indicator.Last(indicator.ADX(venue.Highs(candles), venue.Lows(candles), closes, regimePeriod))
	atr := indicator.Last(indicator.ATR(venue.Highs(candles), venue.Lows(candles), closes, regimePeriod))
	return24h := 0.0
	if first := candles[0].Close; first != 0 {
		return24h = (ticker.Last - first) / first
	}

	score := adx*0.4 + atr/ticker.Last*0.3 + return24h*0.2
	if book.BidVolume()+book.AskVolume() > liquidityMin {
		score += 0.1
	}
	return score, nil
}

// Rank sorts scores descending (stable, so ties keep enumeration order) and
// returns at most max symbols.
func Rank(scores []PairScore, max int) []string {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if max > 0 && len(scores) > max {
		scores = scores[:max]
	}
	out := make([]string, len(scores))
	for i, p := range scores {
		out[i] = p.Symbol
	}
	return out
}
