package strategy

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"tradebot-core/internal/config"
)

// Factory builds a strategy instance from the current configuration.
type Factory func(cfg config.Config, ind Indicators, log *zap.Logger) Strategy

// Registry is the closed name -> strategy mapping. Unknown names are rejected
// when a configuration change is validated, never at signal time.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns the registry with all built-in strategies.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{
		"sma": func(cfg config.Config, ind Indicators, log *zap.Logger) Strategy {
			return NewSMACross(cfg.SMA.Period, ind, log)
		},
		"ema": func(cfg config.Config, ind Indicators, log *zap.Logger) Strategy {
			return NewEMACross(cfg.EMA.Period, ind, log)
		},
		"meanReversion": func(cfg config.Config, ind Indicators, log *zap.Logger) Strategy {
			return NewMeanReversion(cfg.MeanReversion.Period, cfg.MeanReversion.Offset, ind, log)
		},
		"pairsTrading": func(cfg config.Config, ind Indicators, log *zap.Logger) Strategy {
			return NewPairsTrading(cfg.PairsTrading, ind, log)
		},
	}}
}

// Valid reports whether name resolves to a registered strategy.
func (r *Registry) Valid(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names lists the registered strategy names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New instantiates the named strategy.
func (r *Registry) New(name string, cfg config.Config, ind Indicators, log *zap.Logger) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f(cfg, ind, log), nil
}
