package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	token := os.Getenv("STANDUP_TOKEN")
	if token == "" {
		log.Fatal().Msg("STANDUP_TOKEN environment variable is required")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := setupStore(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}
	defer store.Close()

	services, err := setupServices(config, store, token)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	services.Coordinator.Start()
	defer services.Coordinator.Close()

	server := setupServer(services)

	go func() {
		log.Info().Str("addr", server.Addr).Int64("team_id", config.Standup.TeamID).Msg("standup console listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
