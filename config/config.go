package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const minSessionSecretLen = 32

type Config struct {
	Database      DatabaseConfig  `yaml:"database"`
	TMDB          TMDBConfig      `yaml:"tmdb"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	SessionSecret string          `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
	ServerPort    string          `yaml:"port"           env:"PORT"           env-default:"5003"`
	Environment   string          `yaml:"env"            env:"ENV"            env-default:"development"`
	Debug         bool            `yaml:"debug"          env:"DEBUG"          env-default:"false"`
	TrustProxy    bool            `yaml:"trust_proxy"    env:"TRUST_PROXY"    env-default:"false"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"               env:"DATABASE_URL"               env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"         env:"DATABASE_MAX_CONNS"         env-default:"10"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DATABASE_MAX_CONN_LIFETIME" env-default:"5m"`
}

// TMDBConfig holds the external metadata API endpoints. None of them have
// defaults; a deployment must point them somewhere explicitly.
type TMDBConfig struct {
	APIKey       string        `yaml:"api_key"        env:"TMDB_API_KEY"           env-required:"true"`
	SearchURL    string        `yaml:"search_url"     env:"TMDB_SEARCH_URL"        env-required:"true"`
	DetailsURL   string        `yaml:"details_url"    env:"TMDB_MOVIE_DETAILS_URL" env-required:"true"`
	ImageBaseURL string        `yaml:"image_base_url" env:"TMDB_IMAGE_BASE_URL"    env-required:"true"`
	Timeout      time.Duration `yaml:"timeout"        env:"TMDB_TIMEOUT"           env-default:"10s"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RPS     float64 `yaml:"rps"     env:"RATE_LIMIT_RPS"     env-default:"10"`
	Burst   int     `yaml:"burst"   env:"RATE_LIMIT_BURST"   env-default:"20"`
}

// Load reads configuration from the environment, layered over the YAML file
// named by CONFIG_PATH when one is given.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("session_secret must be at least %d characters (got %d)", minSessionSecretLen, len(c.SessionSecret))
	}

	for name, raw := range map[string]string{
		"tmdb.search_url":     c.TMDB.SearchURL,
		"tmdb.details_url":    c.TMDB.DetailsURL,
		"tmdb.image_base_url": c.TMDB.ImageBaseURL,
	} {
		if err := validateAbsURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be > 0 (got %s)", c.TMDB.Timeout)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit: rps and burst must be > 0")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func validateAbsURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
