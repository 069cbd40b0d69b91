package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tradebot-core/internal/api"
	"tradebot-core/internal/bot"
	"tradebot-core/internal/config"
	"tradebot-core/internal/events"
	"tradebot-core/internal/logging"
	"tradebot-core/pkg/db"
	"tradebot-core/pkg/retry"
	"tradebot-core/pkg/venue"
)

func main() {
	// .env is optional; in deployments the variables come from the runtime.
	_ = godotenv.Load()

	bus := events.NewBus()
	log, err := logging.New(bus)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal("loading config failed", zap.Error(err))
	}
	cfg := store.Snapshot()

	database, err := db.New(envOr("DB_PATH", "data/trades.db"))
	if err != nil {
		log.Fatal("opening trade journal failed", zap.Error(err))
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatal("migrating trade journal failed", zap.Error(err))
	}

	caller := retry.New("venue", retry.DefaultConfig())
	factory := func(cfg config.Config, creds config.Credentials) (venue.Client, error) {
		// Both modes currently run against the synthetic venue; real
		// exchange adapters plug in here through venue.Client.
		sim := venue.NewSim(venue.SimConfig{Balances: cfg.FictionalBalance})
		return venue.WithRetry(sim, caller), nil
	}

	b, err := bot.New(store, bus, database, factory, config.CredentialsFromEnv(), log)
	if err != nil {
		log.Fatal("building orchestrator failed", zap.Error(err))
	}

	server := api.NewServer(bus, b, database, api.Auth{
		User:     os.Getenv("ADMIN_USER"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}, log)

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api server failed", zap.Error(err))
		}
	}()

	log.Info("ready",
		zap.String("mode", string(cfg.Mode)),
		zap.String("exchange", cfg.Exchange),
		zap.String("symbol", cfg.Symbol),
		zap.String("strategy", cfg.Strategy))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("shutting down")

	if b.Running() {
		if err := b.Stop(); err != nil {
			log.Warn("stopping bot failed", zap.Error(err))
		}
	}
	b.Wait()
	srv.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
