package main

import (
	"fmt"

	"github.com/huddlehq/huddle/go/clients/standup_api_client"
	"github.com/huddlehq/huddle/go/internal/standup"
	"github.com/huddlehq/huddle/go/internal/standup/storage"
)

type Services struct {
	Coordinator *standup.Coordinator
	Store       storage.Store
}

func setupServices(config *Config, store storage.Store, token string) (*Services, error) {
	// Wire up the chain: REST client → coordinator (socket, state machine,
	// countdown, sinks).
	apiClient := standup_api_client.NewStandupApiClient(config.Standup.APIBase, token)

	coordinator, err := standup.New(standup.Config{
		TeamID:       config.Standup.TeamID,
		Token:        token,
		WSEndpoint:   config.Standup.WSEndpoint,
		APIBaseURL:   config.Standup.APIBase,
		FallbackHost: config.Standup.FallbackHost,
		API:          apiClient,
		Store:        store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build standup coordinator: %w", err)
	}

	return &Services{
		Coordinator: coordinator,
		Store:       store,
	}, nil
}
