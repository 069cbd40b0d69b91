// Package logging builds the zap logger and mirrors every record onto the
// event bus so transports can stream the log to observers.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tradebot-core/internal/events"
)

// New returns a production zap logger whose records are also published to bus
// as events.TopicLog payloads. Pass a nil bus to skip the fan-out.
func New(bus *events.Bus) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"

	opts := []zap.Option{}
	if bus != nil {
		opts = append(opts, zap.Hooks(func(entry zapcore.Entry) error {
			bus.Publish(events.TopicLog, events.LogEntry{
				Timestamp: entry.Time,
				Level:     entry.Level.String(),
				Message:   entry.Message,
			})
			return nil
		}))
	}
	return cfg.Build(opts...)
}
