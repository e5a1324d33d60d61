// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers defaults, an optional YAML file, and environment variables.
package config

// Store backend identifiers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the durable store: memory or postgres.
	StoreBackend string `koanf:"store_backend"`

	// PostgresDSN configures the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RedisAddr enables the Redis leaderboard cache when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// RedisLeaderboardTTLSeconds bounds staleness of the cached board.
	RedisLeaderboardTTLSeconds int `koanf:"redis_leaderboard_ttl_seconds"`

	// MaxLeaderboardLimit caps leaderboard page sizes.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultLeaderboardLimit applies when a query omits the limit.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// StoreTimeoutMS bounds every store operation.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                   "info",
		Addr:                       ":9080",
		StoreBackend:               StoreMemory,
		RedisLeaderboardTTLSeconds: 5,
		MaxLeaderboardLimit:        100,
		DefaultLeaderboardLimit:    50,
		StoreTimeoutMS:             2000,
	}
}
