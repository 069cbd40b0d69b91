// Package bot is the orchestrator: it owns the lifecycle state machine, the
// per-cycle trading pipeline, and the command surface the transport calls
// into. All collaborators are injected; nothing here reaches for globals.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradebot-core/internal/config"
	"tradebot-core/internal/events"
	"tradebot-core/internal/fees"
	"tradebot-core/internal/ledger"
	"tradebot-core/internal/order"
	"tradebot-core/internal/selector"
	"tradebot-core/internal/strategy"
	"tradebot-core/pkg/db"
	"tradebot-core/pkg/indicator"
	"tradebot-core/pkg/venue"
)

// VenueFactory builds a venue client for the given configuration. Mode
// switches call it again so simulated and real clients stay separate.
type VenueFactory func(cfg config.Config, creds config.Credentials) (venue.Client, error)

var (
	ErrAlreadyRunning = errors.New("bot is already running")
	ErrNotRunning     = errors.New("bot is not running")
	ErrBusy           = errors.New("command requires the bot to be stopped")
)

// Bot coordinates the venue, ledger, strategies and executor.
type Bot struct {
	store    *config.Store
	bus      *events.Bus
	log      *zap.Logger
	registry *strategy.Registry
	selector *selector.Selector
	fees     *fees.Cache
	exec     *order.Executor
	newVenue VenueFactory
	creds    config.Credentials

	mu      sync.Mutex
	venue   venue.Client
	ledger  *ledger.Ledger
	active  strategy.Strategy
	symbols []string
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// cycleMu is the overlap guard: a tick that finds it held is skipped.
	cycleMu sync.Mutex

	priceMu sync.RWMutex
	prices  map[string]float64
}

// New wires the orchestrator from its collaborators. database may be nil to
// disable the trade journal.
func New(store *config.Store, bus *events.Bus, database *db.Database, factory VenueFactory, creds config.Credentials, log *zap.Logger) (*Bot, error) {
	cfg := store.Snapshot()

	client, err := factory(cfg, creds)
	if err != nil {
		return nil, fmt.Errorf("build venue client: %w", err)
	}

	b := &Bot{
		store:    store,
		bus:      bus,
		log:      log.Named("bot"),
		registry: strategy.NewRegistry(),
		newVenue: factory,
		creds:    creds,
		venue:    client,
		symbols:  []string{cfg.Symbol},
		prices:   make(map[string]float64),
	}

	b.ledger = b.buildLedger(cfg)
	b.fees = fees.NewCache(client, cfg.FeesCacheTTL, cfg.Risk.DefaultTradingFee, log)
	b.selector = selector.New(client, log)
	b.exec = order.New(cfg, client, b.ledger, b.fees, b, bus, database, log)

	if b.active, err = b.registry.New(cfg.Strategy, cfg, b.indicators(cfg), log); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bot) buildLedger(cfg config.Config) *ledger.Ledger {
	if cfg.Mode == config.ModeReal {
		return ledger.NewReal(cfg.BaseCurrency)
	}
	return ledger.NewSimulated(cfg.BaseCurrency, cfg.FictionalBalance)
}

func (b *Bot) indicators(cfg config.Config) indicator.Suite {
	return indicator.Suite{
		RSIPeriod:  cfg.Indicators.RSIPeriod,
		MACDFast:   cfg.Indicators.MACDFast,
		MACDSlow:   cfg.Indicators.MACDSlow,
		MACDSignal: cfg.Indicators.MACDSignal,
	}
}

// Start moves the bot from Idle to Running. In real mode it refuses to start
// without credentials or an initial balance from the venue.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrAlreadyRunning
	}
	cfg := b.store.Snapshot()

	if cfg.Mode == config.ModeReal {
		if !b.creds.Present() {
			return errors.New("real mode requires API credentials")
		}
		bal, err := b.venue.FetchBalance(ctx)
		if err != nil {
			return fmt.Errorf("fetch initial balance: %w", err)
		}
		b.ledger.SetFromVenue(bal)
	}
	b.publishBalanceLocked()

	if cfg.SelectionMode == config.SelectionAuto {
		b.symbols = b.selector.SelectBestPairs(ctx, cfg)
		b.bus.Publish(events.TopicPairs, pairRows(b.symbols))
	}
	for _, sym := range b.symbols {
		b.fees.Load(ctx, sym)
	}

	// Detach from the caller: a command arriving over HTTP must not tear
	// down the schedulers when its request context ends.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.running = true

	b.wg.Add(1)
	go b.cycleLoop(runCtx, cfg.CycleInterval)
	if cfg.SelectionMode == config.SelectionAuto {
		b.wg.Add(1)
		go b.selectionLoop(runCtx, cfg.AutoSelection.EvaluationInterval)
	}

	b.log.Info("bot started",
		zap.String("mode", string(cfg.Mode)),
		zap.String("strategy", cfg.Strategy),
		zap.Strings("symbols", b.symbols))
	b.publishStatusLocked(cfg)
	return nil
}

// Stop cancels the schedulers and returns immediately. A cycle already in
// flight completes and its mutations still apply.
func (b *Bot) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return ErrNotRunning
	}
	b.cancel()
	b.running = false
	b.log.Info("bot stopped")
	b.publishStatusLocked(b.store.Snapshot())
	return nil
}

// Wait blocks until all scheduler goroutines have exited. Called on shutdown.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// Running reports the lifecycle state.
func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Liquidate closes every open position. Only legal while stopped. In real
// mode the venue reports the positions for the selected symbols and each is
// closed with a market order on the opposite side; per-position order
// failures are logged and skipped but a failed final balance fetch is a hard
// error. In simulated mode ledger holdings convert to the base currency at
// the best available price net of fee.
func (b *Bot) Liquidate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrBusy
	}
	cfg := b.store.Snapshot()

	if b.ledger.Mode() == ledger.Real {
		if err := b.closePositions(ctx); err != nil {
			return err
		}
		bal, err := b.venue.FetchBalance(ctx)
		if err != nil {
			return fmt.Errorf("refresh balance after liquidation: %w", err)
		}
		b.ledger.SetFromVenue(bal)
	} else {
		for asset, qty := range b.ledger.Snapshot() {
			if asset == cfg.BaseCurrency || qty <= 0 {
				continue
			}
			symbol := asset + "/" + cfg.BaseCurrency
			price := b.liquidationPrice(ctx, symbol)
			fee := b.fees.Load(ctx, symbol)
			err := b.ledger.Apply(map[string]float64{
				asset:            -qty,
				cfg.BaseCurrency: qty * price * (1 - fee),
			})
			if err != nil {
				b.log.Error("liquidation failed",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			b.log.Info("position liquidated",
				zap.String("symbol", symbol), zap.Float64("qty", qty))
		}
	}

	b.publishBalanceLocked()
	return nil
}

// closePositions asks the venue for the open positions on the selected
// symbols and submits a closing market order for each: longs are sold,
// shorts are bought back.
func (b *Bot) closePositions(ctx context.Context) error {
	positions, err := b.venue.FetchPositions(ctx, b.symbols)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}
	for _, pos := range positions {
		if pos.Contracts <= 0 {
			continue
		}
		side := "sell"
		if pos.Side == "short" {
			side = "buy"
		}
		fee := b.fees.Load(ctx, pos.Symbol)
		if _, err := b.venue.CreateMarketOrder(ctx, pos.Symbol, side, pos.Contracts); err != nil {
			b.log.Error("liquidation order failed",
				zap.String("symbol", pos.Symbol), zap.Error(err))
			continue
		}
		b.log.Info("position closed",
			zap.String("symbol", pos.Symbol),
			zap.String("side", side),
			zap.Float64("contracts", pos.Contracts),
			zap.Float64("fee_rate", fee))
	}
	return nil
}

func (b *Bot) liquidationPrice(ctx context.Context, symbol string) float64 {
	if t, err := b.venue.FetchTicker(ctx, symbol); err == nil && t.Last > 0 {
		return t.Last
	}
	if p, ok := b.LastPrice(symbol); ok {
		return p
	}
	return 1
}

// SwitchMode toggles simulated/real accounting. Only legal while stopped: it
// rebuilds the venue client and resets the ledger.
func (b *Bot) SwitchMode() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrBusy
	}

	var next config.Mode
	if b.store.Snapshot().Mode == config.ModeSimulated {
		next = config.ModeReal
	} else {
		next = config.ModeSimulated
	}
	if err := b.store.Update(func(c *config.Config) { c.Mode = next }); err != nil {
		return fmt.Errorf("persist mode: %w", err)
	}
	cfg := b.store.Snapshot()

	client, err := b.newVenue(cfg, b.creds)
	if err != nil {
		return fmt.Errorf("rebuild venue client: %w", err)
	}
	b.venue = client
	b.ledger = b.buildLedger(cfg)
	b.fees.SetVenue(client)
	b.selector.SetVenue(client)
	b.exec.SetVenue(client)
	b.exec.SetLedger(b.ledger)
	b.exec.SetConfig(cfg)

	b.log.Info("mode switched", zap.String("mode", string(next)))
	b.publishBalanceLocked()
	b.publishStatusLocked(cfg)
	return nil
}

// SetStrategy switches the active strategy. Legal in any state; the swap
// takes effect from the next cycle.
func (b *Bot) SetStrategy(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.registry.Valid(name) {
		return fmt.Errorf("unknown strategy %q (have %s)", name, strings.Join(b.registry.Names(), ", "))
	}
	if err := b.store.Update(func(c *config.Config) { c.Strategy = name }); err != nil {
		return fmt.Errorf("persist strategy: %w", err)
	}
	cfg := b.store.Snapshot()

	next, err := b.registry.New(name, cfg, b.indicators(cfg), b.log)
	if err != nil {
		return err
	}
	b.active = next
	b.log.Info("strategy set", zap.String("strategy", name))
	b.publishStatusLocked(cfg)
	return nil
}

// SetSelectionMode switches between manual and automatic pair selection.
// Only legal while stopped. "automatic" is accepted as an alias for "auto".
func (b *Bot) SetSelectionMode(mode string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrBusy
	}

	var next config.SelectionMode
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "manual":
		next = config.SelectionManual
	case "auto", "automatic":
		next = config.SelectionAuto
	default:
		return fmt.Errorf("unknown selection mode %q", mode)
	}
	if err := b.store.Update(func(c *config.Config) { c.SelectionMode = next }); err != nil {
		return fmt.Errorf("persist selection mode: %w", err)
	}
	if next == config.SelectionManual {
		b.symbols = []string{b.store.Snapshot().Symbol}
	}
	b.log.Info("selection mode set", zap.String("selectionMode", string(next)))
	b.publishStatusLocked(b.store.Snapshot())
	return nil
}

// SetSymbol changes the traded instrument. Only legal while stopped; the
// symbol must exist on the venue, and its fee is warmed into the cache.
func (b *Bot) SetSymbol(ctx context.Context, symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrBusy
	}

	markets, err := b.venue.LoadMarkets(ctx)
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}
	if _, ok := markets[symbol]; !ok {
		return fmt.Errorf("symbol %q is not listed on the venue", symbol)
	}
	if err := b.store.Update(func(c *config.Config) { c.Symbol = symbol }); err != nil {
		return fmt.Errorf("persist symbol: %w", err)
	}
	b.symbols = []string{symbol}
	b.fees.Load(ctx, symbol)
	b.log.Info("symbol set", zap.String("symbol", symbol))
	b.publishStatusLocked(b.store.Snapshot())
	return nil
}

// SetExchange changes the configured venue and rebuilds the client. Only
// legal while stopped.
func (b *Bot) SetExchange(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrBusy
	}
	if err := b.store.Update(func(c *config.Config) { c.Exchange = name }); err != nil {
		return fmt.Errorf("persist exchange: %w", err)
	}
	cfg := b.store.Snapshot()

	client, err := b.newVenue(cfg, b.creds)
	if err != nil {
		return fmt.Errorf("rebuild venue client: %w", err)
	}
	b.venue = client
	b.fees.SetVenue(client)
	b.selector.SetVenue(client)
	b.exec.SetVenue(client)

	b.log.Info("exchange set", zap.String("exchange", name))
	b.publishStatusLocked(cfg)
	return nil
}

// LastPrice returns the most recent order-book price seen for symbol. It is
// the executor's fallback when a ticker fetch fails.
func (b *Bot) LastPrice(symbol string) (float64, bool) {
	b.priceMu.RLock()
	defer b.priceMu.RUnlock()
	p, ok := b.prices[symbol]
	return p, ok
}

func (b *Bot) setPrice(symbol string, price float64) {
	b.priceMu.Lock()
	b.prices[symbol] = price
	b.priceMu.Unlock()
}

// Status snapshots the orchestrator for observers.
func (b *Bot) Status() events.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked(b.store.Snapshot())
}

// Balance snapshots the ledger for observers.
func (b *Bot) Balance() map[string]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Snapshot()
}

// Symbols returns the active trading set.
func (b *Bot) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.symbols...)
}

func (b *Bot) statusLocked(cfg config.Config) events.Status {
	return events.Status{
		Running:       b.running,
		Mode:          string(cfg.Mode),
		SelectionMode: string(cfg.SelectionMode),
		Exchange:      cfg.Exchange,
		Strategy:      cfg.Strategy,
	}
}

func (b *Bot) publishStatusLocked(cfg config.Config) {
	b.bus.Publish(events.TopicStatus, b.statusLocked(cfg))
}

func (b *Bot) publishBalanceLocked() {
	b.bus.Publish(events.TopicBalance, b.ledger.Snapshot())
}

func (b *Bot) activeStrategy() strategy.Strategy {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// timeLabel formats a candle timestamp for the dashboard series.
func timeLabel(tsMillis int64) string {
	return time.UnixMilli(tsMillis).UTC().Format("15:04")
}
