package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tradebot-core/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frame is the wire envelope pushed to dashboard clients.
type frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// One outbound channel; the websocket conn allows a single writer.
	out := make(chan frame, 256)
	done := make(chan struct{})

	for _, topic := range events.Topics() {
		stream, unsub := s.Bus.Subscribe(topic, 64)
		defer unsub()

		go func(t events.Topic, stream <-chan any) {
			for msg := range stream {
				select {
				case out <- frame{Event: string(t), Payload: msg}:
				case <-done:
					return
				default: // slow client, drop
				}
			}
		}(topic, stream)
	}

	// Reader only detects the close handshake.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// New clients get the current state before the stream.
	snapshot := []frame{
		{Event: string(events.TopicStatus), Payload: s.Bot.Status()},
		{Event: string(events.TopicBalance), Payload: s.Bot.Balance()},
		{Event: string(events.TopicPairs), Payload: pairsPayload(s.Bot.Symbols())},
	}
	for _, f := range snapshot {
		if err := conn.WriteJSON(f); err != nil {
			return
		}
	}

	for {
		select {
		case f := <-out:
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func pairsPayload(symbols []string) [][]string {
	out := make([][]string, len(symbols))
	for i, sym := range symbols {
		out[i] = []string{sym, "N/A"}
	}
	return out
}
