package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/config"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/extractor"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/notify"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/observability"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/places"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/registry"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/server"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

func main() {
	log := observability.NewLogger(os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.InitRegistry()

	store := session.NewStore(cfg.RedisURL, cfg.RedisPassword, cfg.MaxHistory, cfg.SessionTimeout, log)
	go store.StartCleanupRoutine(ctx)

	var ext extractor.Extractor
	switch cfg.Extractor {
	case "gemini":
		ext, err = extractor.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gemini extractor")
		}
	case "pattern":
		ext = extractor.NewPattern()
	default:
		ext = extractor.NewOpenAI(cfg.OpenAIAPIKey)
	}

	mapsClient, err := places.NewClient(cfg.GooglePlacesAPIKey, cfg.GoogleRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create places client")
	}
	searcher := places.NewService(mapsClient, log)

	var results registry.Store
	if cfg.RedisURL != "" {
		results = registry.NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
		}), cfg.RegistryTTL)
	} else {
		results = registry.NewMemory(cfg.RegistryCapacity)
	}

	notifier := notify.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioMessagingSID, log)
	if !notifier.Enabled() {
		log.Warn().Msg("twilio messaging not configured, dashboard links stay unsent")
	}

	srv := server.New(cfg, store, ext, searcher, results, notifier, metrics, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
		store.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}
