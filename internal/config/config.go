// Package config holds the persisted bot configuration. The document is
// rewritten in full after every mutating command so a restart always resumes
// from the last accepted state. Credentials stay in the environment and are
// never written to disk.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Mode selects real or simulated accounting.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeReal      Mode = "real"
)

// SelectionMode selects manual or automatic pair selection.
type SelectionMode string

const (
	SelectionManual SelectionMode = "manual"
	SelectionAuto   SelectionMode = "auto"
)

// Risk groups the risk parameters. The stop-loss and take-profit values are
// fractions of price (0.05 means 5%).
type Risk struct {
	MaxPositionSize   float64 `mapstructure:"maxPositionSize"`
	StopLossPercent   float64 `mapstructure:"stopLossPercent"`
	TakeProfitPercent float64 `mapstructure:"takeProfitPercent"`
	DefaultTradingFee float64 `mapstructure:"defaultTradingFee"`
}

// Indicators groups the chart-indicator parameters.
type Indicators struct {
	RSIPeriod       int     `mapstructure:"rsiPeriod"`
	MACDFast        int     `mapstructure:"macdFast"`
	MACDSlow        int     `mapstructure:"macdSlow"`
	MACDSignal      int     `mapstructure:"macdSignal"`
	BollingerPeriod int     `mapstructure:"bollingerPeriod"`
	BollingerStdDev float64 `mapstructure:"bollingerStdDev"`
}

// SMA holds the sma strategy parameters.
type SMA struct {
	Period int `mapstructure:"period"`
}

// EMA holds the ema strategy parameters.
type EMA struct {
	Period int `mapstructure:"period"`
}

// MeanReversion holds the meanReversion strategy parameters.
type MeanReversion struct {
	Period int     `mapstructure:"period"`
	Offset float64 `mapstructure:"offset"` // percent distance from the mean
}

// PairsTrading holds the pairsTrading strategy parameters.
type PairsTrading struct {
	Period  int     `mapstructure:"period"`
	Offset  float64 `mapstructure:"offset"`
	Symbol1 string  `mapstructure:"symbol1"`
	Symbol2 string  `mapstructure:"symbol2"`
}

// AutoSelection controls the automatic pair-selection loop.
type AutoSelection struct {
	EvaluationInterval time.Duration `mapstructure:"evaluationInterval"`
	MaxPairs           int           `mapstructure:"maxPairs"`
}

// Config is the full persisted document. It is immutable during a cycle;
// mutations go through Store.Update.
type Config struct {
	Exchange           string             `mapstructure:"exchange"`
	BaseCurrency       string             `mapstructure:"baseCurrency"`
	Mode               Mode               `mapstructure:"mode"`
	SelectionMode      SelectionMode      `mapstructure:"selectionMode"`
	Strategy           string             `mapstructure:"strategy"`
	Symbol             string             `mapstructure:"symbol"`
	Timeframe          string             `mapstructure:"timeframe"`
	FictionalBalance   map[string]float64 `mapstructure:"fictionalBalance"`
	Risk               Risk               `mapstructure:"risk"`
	Indicators         Indicators         `mapstructure:"indicators"`
	SMA                SMA                `mapstructure:"sma"`
	EMA                EMA                `mapstructure:"ema"`
	MeanReversion      MeanReversion      `mapstructure:"meanReversion"`
	PairsTrading       PairsTrading       `mapstructure:"pairsTrading"`
	FeesCacheTTL       time.Duration      `mapstructure:"feesCacheTTL"`
	CycleInterval      time.Duration      `mapstructure:"cycleInterval"`
	LiquidityThreshold float64            `mapstructure:"liquidityThreshold"`
	OrderBookDepth     int                `mapstructure:"orderBookDepth"`
	AutoSelection      AutoSelection      `mapstructure:"autoSelection"`
}

// Credentials are the venue API credentials, read from the environment.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Present reports whether both key and secret are set.
func (c Credentials) Present() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// CredentialsFromEnv reads API_KEY / API_SECRET. main loads .env via
// godotenv first, matching how the credentials have always been supplied.
func CredentialsFromEnv() Credentials {
	return Credentials{
		APIKey:    os.Getenv("API_KEY"),
		APISecret: os.Getenv("API_SECRET"),
	}
}

// Store owns the Config and its backing file.
type Store struct {
	mu   sync.RWMutex
	v    *viper.Viper
	cfg  Config
	path string
}

// Load reads the document at path, falling back to defaults for any missing
// key. A missing file is not an error; the defaults are persisted on the
// first Update.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &Store{v: v, cfg: cfg, path: path}, nil
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	if s.cfg.FictionalBalance != nil {
		cfg.FictionalBalance = make(map[string]float64, len(s.cfg.FictionalBalance))
		for k, val := range s.cfg.FictionalBalance {
			cfg.FictionalBalance[k] = val
		}
	}
	return cfg
}

// Update applies mutate to the configuration and rewrites the whole document.
func (s *Store) Update(mutate func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.cfg)
	return s.save()
}

// save must be called with s.mu held.
func (s *Store) save() error {
	c := s.cfg
	s.v.Set("exchange", c.Exchange)
	s.v.Set("baseCurrency", c.BaseCurrency)
	s.v.Set("mode", string(c.Mode))
	s.v.Set("selectionMode", string(c.SelectionMode))
	s.v.Set("strategy", c.Strategy)
	s.v.Set("symbol", c.Symbol)
	s.v.Set("timeframe", c.Timeframe)
	s.v.Set("fictionalBalance", c.FictionalBalance)
	s.v.Set("risk.maxPositionSize", c.Risk.MaxPositionSize)
	s.v.Set("risk.stopLossPercent", c.Risk.StopLossPercent)
	s.v.Set("risk.takeProfitPercent", c.Risk.TakeProfitPercent)
	s.v.Set("risk.defaultTradingFee", c.Risk.DefaultTradingFee)
	s.v.Set("indicators.rsiPeriod", c.Indicators.RSIPeriod)
	s.v.Set("indicators.macdFast", c.Indicators.MACDFast)
	s.v.Set("indicators.macdSlow", c.Indicators.MACDSlow)
	s.v.Set("indicators.macdSignal", c.Indicators.MACDSignal)
	s.v.Set("indicators.bollingerPeriod", c.Indicators.BollingerPeriod)
	s.v.Set("indicators.bollingerStdDev", c.Indicators.BollingerStdDev)
	s.v.Set("sma.period", c.SMA.Period)
	s.v.Set("ema.period", c.EMA.Period)
	s.v.Set("meanReversion.period", c.MeanReversion.Period)
	s.v.Set("meanReversion.offset", c.MeanReversion.Offset)
	s.v.Set("pairsTrading.period", c.PairsTrading.Period)
	s.v.Set("pairsTrading.offset", c.PairsTrading.Offset)
	s.v.Set("pairsTrading.symbol1", c.PairsTrading.Symbol1)
	s.v.Set("pairsTrading.symbol2", c.PairsTrading.Symbol2)
	s.v.Set("feesCacheTTL", c.FeesCacheTTL.String())
	s.v.Set("cycleInterval", c.CycleInterval.String())
	s.v.Set("liquidityThreshold", c.LiquidityThreshold)
	s.v.Set("orderBookDepth", c.OrderBookDepth)
	s.v.Set("autoSelection.evaluationInterval", c.AutoSelection.EvaluationInterval.String())
	s.v.Set("autoSelection.maxPairs", c.AutoSelection.MaxPairs)
	return s.v.WriteConfigAs(s.path)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange", "binance")
	v.SetDefault("baseCurrency", "USDT")
	v.SetDefault("mode", string(ModeSimulated))
	v.SetDefault("selectionMode", string(SelectionManual))
	v.SetDefault("strategy", "sma")
	v.SetDefault("symbol", "BTC/USDT")
	v.SetDefault("timeframe", "1h")
	v.SetDefault("fictionalBalance", map[string]float64{"USDT": 10000})
	v.SetDefault("risk.maxPositionSize", 0.1)
	v.SetDefault("risk.stopLossPercent", 0.05)
	v.SetDefault("risk.takeProfitPercent", 0.1)
	v.SetDefault("risk.defaultTradingFee", 0.001)
	v.SetDefault("indicators.rsiPeriod", 14)
	v.SetDefault("indicators.macdFast", 12)
	v.SetDefault("indicators.macdSlow", 26)
	v.SetDefault("indicators.macdSignal", 9)
	v.SetDefault("indicators.bollingerPeriod", 20)
	v.SetDefault("indicators.bollingerStdDev", 2)
	v.SetDefault("sma.period", 20)
	v.SetDefault("ema.period", 20)
	v.SetDefault("meanReversion.period", 20)
	v.SetDefault("meanReversion.offset", 2)
	v.SetDefault("pairsTrading.period", 20)
	v.SetDefault("pairsTrading.offset", 1)
	v.SetDefault("pairsTrading.symbol1", "BTC/USDT")
	v.SetDefault("pairsTrading.symbol2", "ETH/USDT")
	v.SetDefault("feesCacheTTL", "1h")
	v.SetDefault("cycleInterval", "60s")
	v.SetDefault("liquidityThreshold", 100)
	v.SetDefault("orderBookDepth", 100)
	v.SetDefault("autoSelection.evaluationInterval", "1h")
	v.SetDefault("autoSelection.maxPairs", 3)
}
