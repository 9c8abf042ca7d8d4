package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every process-wide setting. It is populated from LISTGEN_*
// environment variables and passed explicitly to each component at
// construction; nothing reads ambient global state.
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`

	// Store selects where credentials and user configurations live.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"redis"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	DBPoolSize  int    `envconfig:"DB_POOL_SIZE" default:"10"`
	Namespace   string `envconfig:"NAMESPACE" default:"listgen"`

	// Tracking service (OAuth, history, lists).
	TraktBaseURL      string `envconfig:"TRAKT_BASE_URL" default:"https://api.trakt.tv"`
	TraktClientID     string `envconfig:"TRAKT_CLIENT_ID" default:""`
	TraktClientSecret string `envconfig:"TRAKT_CLIENT_SECRET" default:""`
	TraktRedirectURI  string `envconfig:"TRAKT_REDIRECT_URI" default:""`

	// AI suggestion service.
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	// Metadata service.
	TMDBBaseURL string `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	TMDBAPIKey  string `envconfig:"TMDB_API_KEY" default:""`

	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	TokenSafetyMargin  time.Duration `envconfig:"TOKEN_SAFETY_MARGIN" default:"5m"`
	NightlyConcurrency int           `envconfig:"NIGHTLY_CONCURRENCY" default:"3"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LISTGEN", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.StoreDriver != "redis" && cfg.StoreDriver != "postgres" {
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	if cfg.NightlyConcurrency < 1 {
		cfg.NightlyConcurrency = 1
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
