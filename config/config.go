// Package config loads the settings of the eventcore command line tools
// from the environment, and optionally from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend identifies the event.Store implementation to use.
type Backend string

// Supported Backend values.
const (
	BackendMemory    Backend = "memory"
	BackendSQLite    Backend = "sqlite"
	BackendPostgres  Backend = "postgres"
	BackendFirestore Backend = "firestore"
)

// ErrInvalid is returned by Config.Validate when the configuration
// cannot be used to build an Event Store.
var ErrInvalid = errors.New("config: invalid configuration")

// Config contains all the settings of the command line tools.
type Config struct {
	Backend          Backend `env:"EVENTCORE_BACKEND"           envDefault:"memory"`
	SQLitePath       string  `env:"EVENTCORE_SQLITE_PATH"       envDefault:"eventcore.db"`
	PostgresDSN      string  `env:"EVENTCORE_POSTGRES_DSN"`
	FirestoreProject string  `env:"EVENTCORE_FIRESTORE_PROJECT"`
	LogLevel         string  `env:"EVENTCORE_LOG_LEVEL"         envDefault:"info"`
	LogDevelopment   bool    `env:"EVENTCORE_LOG_DEVELOPMENT"   envDefault:"false"`
	RootPartition    string  `env:"EVENTCORE_ROOT_PARTITION"    envDefault:"default"`
}

// Validate checks that the settings required by the selected Backend are present.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: EVENTCORE_SQLITE_PATH is required by the sqlite backend", ErrInvalid)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: EVENTCORE_POSTGRES_DSN is required by the postgres backend", ErrInvalid)
		}
	case BackendFirestore:
		if c.FirestoreProject == "" {
			return fmt.Errorf("%w: EVENTCORE_FIRESTORE_PROJECT is required by the firestore backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}

	return nil
}

// Load reads the provided .env files, or ".env" when none is specified,
// then parses the environment into a Config.
//
// Missing .env files are ignored. Variables already present in the
// environment take precedence over the ones in the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config.Load: failed to read %s, %w", file, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: failed to parse environment, %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}
