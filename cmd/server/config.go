package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// config is assembled from three layers, later layers overriding earlier ones: built-in
// defaults, the YAML config file, and environment variables (optionally loaded from a .env
// file by main).
type config struct {
	Port           string `yaml:"port" env:"PORT"`
	APIKey         string `yaml:"apiKey" env:"OPENROUTER_API_KEY"`
	BaseURL        string `yaml:"baseURL" env:"OPENROUTER_BASE_URL"`
	DefaultModel   string `yaml:"defaultModel" env:"OPENROUTER_MODEL"`
	SystemPrompt   string `yaml:"systemPrompt" env:"SYSTEM_PROMPT"`
	FreeModelsOnly bool   `yaml:"freeModelsOnly" env:"FREE_MODELS_ONLY"`
	CachePath      string `yaml:"cachePath" env:"CATALOG_CACHE_PATH"`
	CacheTTL       string `yaml:"cacheTTL" env:"CATALOG_CACHE_TTL"`
	LogLevel       string `yaml:"logLevel" env:"LOG_LEVEL"`
}

func defaultConfig() config {
	return config{
		Port:         "8080",
		DefaultModel: "openrouter/auto",
		CacheTTL:     "1h",
		LogLevel:     "info",
	}
}

// loadConfig reads the optional YAML config file from the user config directory and applies
// environment overrides. A missing file is fine; the environment alone can carry everything.
func loadConfig() (config, error) {
	cfg := defaultConfig()

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return config{}, fmt.Errorf("error getting user config dir: %w", err)
	}
	cfgPath := filepath.Join(cfgDir, "open-router-chat")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		return config{}, fmt.Errorf("error creating config directory: %w", err)
	}

	cfgFile, err := os.Open(filepath.Join(cfgPath, "config.yaml"))
	switch {
	case err == nil:
		defer cfgFile.Close()
		if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("error parsing environment: %w", err)
	}

	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(cfgPath, "catalog.db")
	}

	return cfg, nil
}

func (c config) cacheTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cacheTTL %q: %w", c.CacheTTL, err)
	}
	return ttl, nil
}

func (c config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
