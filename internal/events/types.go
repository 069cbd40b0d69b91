package events

import "time"

// Topic enumerates the broadcast channels pushed to observers. They map
// one-to-one onto the dashboard events.
type Topic string

const (
	TopicStatus     Topic = "status"
	TopicBalance    Topic = "balance"
	TopicPairs      Topic = "pairs"
	TopicLiquidity  Topic = "liquidity"
	TopicCandles    Topic = "candles"
	TopicIndicators Topic = "indicators"
	TopicPie        Topic = "pie"
	TopicLog        Topic = "log"
	TopicClearLogs  Topic = "clearLogs"
)

// Topics lists every broadcast topic, in the order the transport subscribes.
func Topics() []Topic {
	return []Topic{
		TopicStatus, TopicBalance, TopicPairs, TopicLiquidity,
		TopicCandles, TopicIndicators, TopicPie, TopicLog, TopicClearLogs,
	}
}

// Status describes the orchestrator to observers.
type Status struct {
	Running       bool   `json:"running"`
	Mode          string `json:"mode"`
	SelectionMode string `json:"selectionMode"`
	Exchange      string `json:"exchange"`
	Strategy      string `json:"strategy"`
}

// Liquidity reports order-book depth for one symbol after the gate passes.
type Liquidity struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

// CandlePoint is one point of the dashboard close series.
type CandlePoint struct {
	X     string  `json:"x"`
	Close float64 `json:"close"`
}

// Candles carries the chart series for one symbol.
type Candles struct {
	Symbol string        `json:"symbol"`
	Data   []CandlePoint `json:"data"`
}

// PieSlice is one segment of the portfolio composition chart.
type PieSlice struct {
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
}

// LogEntry mirrors a logger record onto the push channel.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}
