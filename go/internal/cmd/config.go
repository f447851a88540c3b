package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Standup struct {
		TeamID       int64  `yaml:"team_id"`
		APIBase      string `yaml:"api_base"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		FallbackHost string `yaml:"fallback_host"`
		StoragePath  string `yaml:"storage_path"`
	} `yaml:"standup"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the optional YAML config file and applies environment
// overrides on top. A missing file is fine; env vars alone can configure
// everything.
func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if v := getEnvAsInt("STANDUP_TEAM_ID", 0); v != 0 {
		config.Standup.TeamID = int64(v)
	}
	config.Standup.APIBase = getEnv("STANDUP_API_BASE", config.Standup.APIBase)
	config.Standup.WSEndpoint = getEnv("STANDUP_WS_ENDPOINT", config.Standup.WSEndpoint)
	config.Standup.FallbackHost = getEnv("STANDUP_FALLBACK_HOST", config.Standup.FallbackHost)
	config.Standup.StoragePath = getEnv("STANDUP_STATE_PATH", config.Standup.StoragePath)

	if config.Standup.TeamID == 0 {
		return nil, fmt.Errorf("team id is required (standup.team_id or STANDUP_TEAM_ID)")
	}
	if config.Standup.StoragePath == "" {
		config.Standup.StoragePath = "standup.db"
	}
	return &config, nil
}
