package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RANKENGINE_CONFIG is set
//  3. env (prefix RANKENGINE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RANKENGINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	}

	// Environment variables: RANKENGINE_ADDR, RANKENGINE_STORE_BACKEND, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("RANKENGINE_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "rankengine_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalid)
	case c.StoreBackend != StoreMemory && c.StoreBackend != StorePostgres:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalid, c.StoreBackend)
	case c.StoreBackend == StorePostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn required for the postgres backend", ErrInvalid)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalid)
	case c.DefaultLeaderboardLimit < 1 || c.DefaultLeaderboardLimit > c.MaxLeaderboardLimit:
		return fmt.Errorf("%w: default_leaderboard_limit must be in [1, max_leaderboard_limit]", ErrInvalid)
	case c.StoreTimeoutMS < 1:
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalid)
	}
	return nil
}
