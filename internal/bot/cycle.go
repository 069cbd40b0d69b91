package bot

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"tradebot-core/internal/config"
	"tradebot-core/internal/events"
	"tradebot-core/internal/strategy"
	"tradebot-core/pkg/indicator"
	"tradebot-core/pkg/venue"
)

// regimeWindow is the candle count needed for the ADX/ATR regime read.
const regimeWindow = 30

func (b *Bot) cycleLoop(ctx context.Context, interval time.Duration) {
	defer b.wg.Done()

	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	b.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.tick(ctx)
			}()
		}
	}
}

// tick runs one cycle unless the previous one is still in flight, in which
// case it is skipped rather than queued.
func (b *Bot) tick(ctx context.Context) {
	if !b.cycleMu.TryLock() {
		b.log.Warn("previous cycle still in flight, skipping tick")
		return
	}
	defer b.cycleMu.Unlock()

	// Stop() does not interrupt a cycle already underway; its mutations
	// still land.
	b.runCycle(context.WithoutCancel(ctx))
}

func (b *Bot) runCycle(ctx context.Context) {
	cfg := b.store.Snapshot()

	b.mu.Lock()
	symbols := append([]string(nil), b.symbols...)
	client := b.venue
	b.mu.Unlock()

	for _, sym := range symbols {
		if err := b.tradeSymbol(ctx, cfg, client, sym); err != nil {
			b.log.Error("cycle failed for symbol",
				zap.String("symbol", sym), zap.Error(err))
		}
	}

	b.mu.Lock()
	b.publishBalanceLocked()
	b.mu.Unlock()

	if len(symbols) > 0 {
		b.updateCharts(ctx, cfg, client, symbols[0])
	}
}

func (b *Bot) tradeSymbol(ctx context.Context, cfg config.Config, client venue.Client, sym string) error {
	book, err := client.FetchOrderBook(ctx, sym, cfg.OrderBookDepth)
	if err != nil {
		return fmt.Errorf("fetch order book: %w", err)
	}
	if bb := book.BestBid(); bb > 0 {
		b.setPrice(sym, bb)
	}

	bid, ask := book.BidVolume(), book.AskVolume()
	if bid < cfg.LiquidityThreshold || ask < cfg.LiquidityThreshold {
		b.log.Info("insufficient liquidity, skipping",
			zap.String("symbol", sym), zap.Float64("bid", bid), zap.Float64("ask", ask))
		return nil
	}
	b.bus.Publish(events.TopicLiquidity, events.Liquidity{Symbol: sym, Bid: bid, Ask: ask})

	active := b.activeStrategy()
	limit := active.Lookback()
	if limit < regimeWindow {
		limit = regimeWindow
	}
	candles, err := client.FetchOHLCV(ctx, sym, cfg.Timeframe, limit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("venue returned no candles for %s", sym)
	}

	if swapped := b.adaptStrategy(cfg, candles, active); swapped != nil {
		active = swapped
	}

	sig, err := b.generate(ctx, cfg, client, active, candles)
	if err != nil {
		return err
	}
	if !sig.Directional() {
		return nil
	}

	price := venue.Closes(candles)[len(candles)-1]
	qty := b.exec.PositionSize(price, sym)
	if qty <= 0 || math.IsInf(qty, 1) {
		b.log.Warn("no tradable quantity", zap.String("symbol", sym), zap.Float64("qty", qty))
		return nil
	}

	if sig == strategy.SignalSellOneBuyTwo || sig == strategy.SignalBuyOneSellTwo {
		return b.exec.ExecutePair(ctx, sig, qty)
	}
	return b.exec.Execute(ctx, sig, qty, price, sym)
}

func (b *Bot) generate(ctx context.Context, cfg config.Config, client venue.Client, active strategy.Strategy, candles []venue.Candle) (strategy.Signal, error) {
	if ps, ok := active.(strategy.PairStrategy); ok {
		second, err := client.FetchOHLCV(ctx, ps.SecondSymbol(), cfg.Timeframe, active.Lookback())
		if err != nil {
			return strategy.SignalNone, fmt.Errorf("fetch second leg: %w", err)
		}
		return ps.GeneratePair(candles, second)
	}
	return active.Generate(candles)
}

// adaptStrategy switches to the strategy recommended for the current market
// regime. The swap is persisted so a restart resumes with the same algorithm.
func (b *Bot) adaptStrategy(cfg config.Config, candles []venue.Candle, active strategy.Strategy) strategy.Strategy {
	regime := b.selector.Evaluate(candles)
	rec := b.selector.Recommend(regime)
	if rec == active.Name() || !b.registry.Valid(rec) {
		return nil
	}

	if err := b.store.Update(func(c *config.Config) { c.Strategy = rec }); err != nil {
		b.log.Error("persisting strategy swap failed", zap.Error(err))
		return nil
	}
	next, err := b.registry.New(rec, b.store.Snapshot(), b.indicators(cfg), b.log)
	if err != nil {
		b.log.Error("building recommended strategy failed", zap.Error(err))
		return nil
	}

	b.mu.Lock()
	b.active = next
	b.publishStatusLocked(b.store.Snapshot())
	b.mu.Unlock()

	b.log.Info("strategy adapted to regime",
		zap.String("regime", string(regime)),
		zap.String("from", active.Name()),
		zap.String("to", rec))
	return next
}

func (b *Bot) selectionLoop(ctx context.Context, interval time.Duration) {
	defer b.wg.Done()

	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	// The initial selection already ran synchronously during start.
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.reselectPairs(ctx)
		}
	}
}

// reselectPairs refreshes the trading set from the venue-wide ranking. The
// set is only replaced when membership or order actually changed.
func (b *Bot) reselectPairs(ctx context.Context) {
	cfg := b.store.Snapshot()
	next := b.selector.SelectBestPairs(ctx, cfg)

	b.mu.Lock()
	if sameSet(b.symbols, next) {
		b.mu.Unlock()
		return
	}
	b.symbols = next
	b.mu.Unlock()

	for _, sym := range next {
		b.fees.Load(ctx, sym)
	}
	b.log.Info("trading pairs reselected", zap.Strings("symbols", next))
	b.bus.Publish(events.TopicPairs, pairRows(next))
}

func pairRows(symbols []string) [][]string {
	out := make([][]string, len(symbols))
	for i, sym := range symbols {
		out[i] = []string{sym, "N/A"}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// chartPoints is the length of the dashboard close series.
const chartPoints = 10

func (b *Bot) updateCharts(ctx context.Context, cfg config.Config, client venue.Client, sym string) {
	candles, err := client.FetchOHLCV(ctx, sym, cfg.Timeframe, 60)
	if err != nil {
		b.log.Warn("chart update failed", zap.String("symbol", sym), zap.Error(err))
		return
	}
	if len(candles) == 0 {
		return
	}

	tail := candles
	if len(tail) > chartPoints {
		tail = tail[len(tail)-chartPoints:]
	}
	points := make([]events.CandlePoint, len(tail))
	for i, c := range tail {
		points[i] = events.CandlePoint{X: timeLabel(c.Timestamp), Close: c.Close}
	}
	b.bus.Publish(events.TopicCandles, events.Candles{Symbol: sym, Data: points})

	b.bus.Publish(events.TopicPie, b.pieSlices(cfg))
	b.bus.Publish(events.TopicIndicators, b.indicatorRows(cfg, candles))
}

// pieSlices renders portfolio composition by value: base currency at face
// value, other assets at their last cached price.
func (b *Bot) pieSlices(cfg config.Config) []events.PieSlice {
	b.mu.Lock()
	snapshot := b.ledger.Snapshot()
	b.mu.Unlock()

	values := make(map[string]float64, len(snapshot))
	total := 0.0
	for asset, qty := range snapshot {
		if qty <= 0 {
			continue
		}
		v := qty
		if asset != cfg.BaseCurrency {
			if p, ok := b.LastPrice(asset + "/" + cfg.BaseCurrency); ok {
				v = qty * p
			}
		}
		values[asset] = v
		total += v
	}
	if total == 0 {
		return nil
	}

	slices := make([]events.PieSlice, 0, len(values))
	for asset, v := range values {
		color := "#ffff00"
		if asset == cfg.BaseCurrency {
			color = "#00ff00"
		}
		slices = append(slices, events.PieSlice{
			Percent: v / total * 100,
			Label:   asset,
			Color:   color,
		})
	}
	return slices
}

// indicatorRows computes the dashboard indicator table. Any series that
// cannot be computed from the window renders as "N/A".
func (b *Bot) indicatorRows(cfg config.Config, candles []venue.Candle) [][]string {
	closes := venue.Closes(candles)
	highs := venue.Highs(candles)
	lows := venue.Lows(candles)
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}

	rsi := indicator.Last(indicator.RSI(closes, cfg.Indicators.RSIPeriod))
	macd, _, _ := indicator.MACD(closes, cfg.Indicators.MACDFast, cfg.Indicators.MACDSlow, cfg.Indicators.MACDSignal)
	upper, _, _ := indicator.Bollinger(closes, cfg.Indicators.BollingerPeriod, cfg.Indicators.BollingerStdDev)
	vwap := indicator.Last(indicator.VWAP(highs, lows, closes, volumes))
	tenkan, _ := indicator.Ichimoku(highs, lows)

	return [][]string{
		{"RSI", formatValue(rsi)},
		{"MACD", formatValue(indicator.Last(macd))},
		{"Bollinger Upper", formatValue(indicator.Last(upper))},
		{"VWAP", formatValue(vwap)},
		{"Ichimoku Tenkan", formatValue(tenkan)},
	}
}

func formatValue(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}
