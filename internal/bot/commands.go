package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tradebot-core/internal/events"
)

// HandleCommand parses and executes one operator command. It returns false
// when the text matches no known command; execution errors are logged (and
// so pushed to observers) but still count as handled.
func (b *Bot) HandleCommand(ctx context.Context, text string) bool {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return false
	}

	var (
		err     error
		handled = true
	)
	switch strings.ToLower(fields[0]) {
	case "start":
		err = b.Start(ctx)
	case "stop":
		err = b.Stop()
	case "liquidate":
		err = b.Liquidate(ctx)
	case "switch":
		if len(fields) < 2 {
			return false
		}
		switch strings.ToLower(fields[1]) {
		case "mode":
			err = b.SwitchMode()
		case "selection":
			if len(fields) < 3 {
				return false
			}
			err = b.SetSelectionMode(fields[2])
		default:
			handled = false
		}
	case "set":
		if len(fields) < 3 {
			return false
		}
		switch strings.ToLower(fields[1]) {
		case "exchange":
			err = b.SetExchange(fields[2])
		case "strategy":
			err = b.SetStrategy(fields[2])
		case "symbol":
			err = b.SetSymbol(ctx, fields[2])
		default:
			handled = false
		}
	case "clear":
		if len(fields) < 2 || strings.ToLower(fields[1]) != "logs" {
			return false
		}
		b.bus.Publish(events.TopicClearLogs, struct{}{})
	default:
		handled = false
	}

	if err != nil {
		b.log.Error("command failed", zap.String("command", text), zap.Error(err))
	}
	return handled
}
