package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/go/internal/standup/storage"
)

func setupStore(config *Config) (storage.Store, error) {
	store, err := storage.OpenSQLite(config.Standup.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	log.Info().Str("path", config.Standup.StoragePath).Msg("opened state store")
	return store, nil
}
