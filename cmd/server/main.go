package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/database"
	"github.com/amrouehab/AirBnB-clone-v3/internal/events"
	"github.com/amrouehab/AirBnB-clone-v3/internal/handler"
	"github.com/amrouehab/AirBnB-clone-v3/internal/logging"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/router"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobal(log)

	provider, err := openStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("open storage")
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.Error().Err(err).Msg("close storage")
		}
	}()

	pub := newPublisher(cfg)
	defer func() { _ = pub.Close() }()

	ctx := context.Background()
	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Info().Msg("redis unavailable; cache and rate limit disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	h := handler.New(cfg, model.MustValidator(), pub)
	e := router.New(provider, h, router.Options{
		Logger:    log,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		BodyLimit: cfg.BodyLimit,
		JWTSecret: cfg.JWTSecret,
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Origins()),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
	)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           cors(handlers.CompressHandler(e)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Env).
			Str("storage", provider.Name()).
			Bool("auth", cfg.AuthEnabled()).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

// openStorage builds the provider selected by HBNB_TYPE_STORAGE.
func openStorage(cfg config.Config) (*storage.Provider, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemory(), nil
	case config.StorageFile:
		return storage.OpenFile(cfg.FilePath)
	}

	db, driver, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db, driver); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	d, _ := storage.DialectFor(driver)
	return storage.NewSQL(db, d), nil
}

// newPublisher returns the change publisher selected by EVENTS_DRIVER.
func newPublisher(cfg config.Config) events.Publisher {
	switch cfg.Events {
	case config.EventsAMQP:
		return events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsTopic)
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.Brokers(), cfg.EventsTopic)
	}
	return events.Nop{}
}
