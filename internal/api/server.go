// Package api exposes the operator surface: a command endpoint, read-only
// status queries, and a websocket that streams the event bus to dashboards.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebot-core/internal/events"
	"tradebot-core/pkg/db"
)

// Commander is the slice of the orchestrator the transport needs.
type Commander interface {
	HandleCommand(ctx context.Context, text string) bool
	Status() events.Status
	Balance() map[string]float64
	Symbols() []string
}

// Server wires HTTP endpoints around the command surface and the event bus.
type Server struct {
	Router *gin.Engine
	Bus    *events.Bus
	Bot    Commander
	DB     *db.Database
	Log    *zap.Logger
}

// Auth carries the operator credentials for the API group. Empty user
// disables authentication (local development).
type Auth struct {
	User     string
	Password string
}

// NewServer builds the router. database may be nil; the trades endpoint then
// returns an empty list.
func NewServer(bus *events.Bus, bot Commander, database *db.Database, auth Auth, log *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(log))
	r.Use(CORSMiddleware())

	s := &Server{
		Router: r,
		Bus:    bus,
		Bot:    bot,
		DB:     database,
		Log:    log.Named("api"),
	}
	s.routes(auth)
	return s
}

func (s *Server) routes(auth Auth) {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	if auth.User != "" {
		api.Use(gin.BasicAuth(gin.Accounts{auth.User: auth.Password}))
	}
	{
		api.POST("/command", s.postCommand)
		api.GET("/status", s.getStatus)
		api.GET("/balance", s.getBalance)
		api.GET("/trades", s.getTrades)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type commandRequest struct {
	Text string `json:"text"`
}

func (s *Server) postCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command text is required"})
		return
	}
	if !s.Bot.HandleCommand(c.Request.Context(), req.Text) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown command", "text": req.Text})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": true})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  s.Bot.Status(),
		"symbols": s.Bot.Symbols(),
	})
}

func (s *Server) getBalance(c *gin.Context) {
	c.JSON(http.StatusOK, s.Bot.Balance())
}

func (s *Server) getTrades(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusOK, []db.Trade{})
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	trades, err := s.DB.ListTrades(c.Request.Context(), limit)
	if err != nil {
		s.Log.Error("listing trades failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trade journal unavailable"})
		return
	}
	if trades == nil {
		trades = []db.Trade{}
	}
	c.JSON(http.StatusOK, trades)
}
