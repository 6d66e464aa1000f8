// Package config loads server configuration from an optional YAML file
// with environment variable overrides for deployment knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boton-fun/headsoccer/internal/engine"
	"github.com/boton-fun/headsoccer/internal/manager"
	"github.com/boton-fun/headsoccer/internal/stats"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Engine   engine.Config  `yaml:"engine"`
	Manager  manager.Config `yaml:"manager"`
	NATS     stats.Config   `yaml:"nats"`
	LogLevel string         `yaml:"log_level"`

	// PublishStats disables the JetStream publisher when false, for local
	// runs without a NATS server.
	PublishStats bool `yaml:"publish_stats"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Engine:       engine.DefaultConfig(),
		Manager:      manager.DefaultConfig(),
		NATS:         stats.DefaultConfig(),
		LogLevel:     "info",
		PublishStats: true,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Server.Port = getEnvAsInt("PORT", cfg.Server.Port)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.PublishStats = getEnvAsBool("PUBLISH_STATS", cfg.PublishStats)
	cfg.Engine.TickRate = getEnvAsInt("TICK_RATE", cfg.Engine.TickRate)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Server.Port)
	}
	if cfg.Engine.TickRate <= 0 {
		return Config{}, fmt.Errorf("invalid tick rate %d", cfg.Engine.TickRate)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
