package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/events"
	"github.com/amrouehab/AirBnB-clone-v3/internal/logging"
)

// auditor drains the change queue into an append-only log file.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobal(log)

	sink := events.NewFileLog(cfg.AuditLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	log.Info().Str("queue", cfg.EventsTopic).Str("file", cfg.AuditLog).Msg("auditor started")
	err = events.Consume(ctx, cfg.AMQPURL, cfg.EventsTopic, sink.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("consume")
	}
	log.Info().Msg("auditor stopped")
}
