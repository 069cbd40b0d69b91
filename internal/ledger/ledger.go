// Package ledger is the bot's record of owned quantities. It runs in one of
// two modes: Simulated does its own bookkeeping against a fictional balance,
// Real mirrors the balances the venue reports. Only the order executor and
// the orchestrator's liquidation path mutate it.
package ledger

import (
	"errors"
	"strings"
	"sync"

	"tradebot-core/pkg/venue"
)

var (
	// ErrInsufficientFunds means the base-currency entry cannot cover a
	// buy's cost plus fee.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientQuantity means an asset entry cannot cover a sell.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Mode tags the accounting source.
type Mode int

const (
	Simulated Mode = iota
	Real
)

func (m Mode) String() string {
	if m == Real {
		return "real"
	}
	return "simulated"
}

// Ledger holds per-asset quantities keyed by asset symbol (not pair).
type Ledger struct {
	mu       sync.RWMutex
	mode     Mode
	base     string
	balances map[string]float64
}

// NewSimulated seeds a simulated ledger from the configured fictional
// balance. A missing base entry defaults to 10000.
func NewSimulated(base string, fictional map[string]float64) *Ledger {
	seed := fictional[base]
	if seed == 0 {
		seed = 10000
	}
	return &Ledger{
		mode:     Simulated,
		base:     base,
		balances: map[string]float64{base: seed},
	}
}

// NewReal creates an empty real-mode ledger; SetFromVenue fills it.
func NewReal(base string) *Ledger {
	return &Ledger{
		mode:     Real,
		base:     base,
		balances: make(map[string]float64),
	}
}

// Mode returns the accounting mode.
func (l *Ledger) Mode() Mode {
	return l.mode
}

// BaseCurrency returns the base currency symbol.
func (l *Ledger) BaseCurrency() string {
	return l.base
}

// SetFromVenue replaces the ledger contents with the venue's reported totals.
// Only meaningful in Real mode.
func (l *Ledger) SetFromVenue(b venue.Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[string]float64, len(b.Totals))
	for asset, qty := range b.Totals {
		l.balances[asset] = qty
	}
}

// Base returns the base-currency quantity.
func (l *Ledger) Base() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[l.base]
}

// Asset returns the held quantity of one asset.
func (l *Ledger) Asset(asset string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[asset]
}

// Has reports whether the ledger carries a non-zero entry for asset.
func (l *Ledger) Has(asset string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[asset] > 0
}

// Snapshot returns a copy of all entries.
func (l *Ledger) Snapshot() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// Apply commits a set of quantity deltas atomically. If any resulting entry
// would go negative, nothing is mutated: ErrInsufficientFunds for the base
// currency, ErrInsufficientQuantity for any asset.
func (l *Ledger) Apply(deltas map[string]float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for asset, d := range deltas {
		if l.balances[asset]+d < 0 {
			if asset == l.base {
				return ErrInsufficientFunds
			}
			return ErrInsufficientQuantity
		}
	}
	for asset, d := range deltas {
		l.balances[asset] += d
	}
	return nil
}

// AssetOf extracts the asset leg from a pair symbol ("BTC/USDT" -> "BTC").
func AssetOf(symbol string) string {
	if i := strings.Index(symbol, "/"); i >= 0 {
		return symbol[:i]
	}
	return symbol
}
