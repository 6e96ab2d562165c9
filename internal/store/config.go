package store

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendFilesystem Backend = "filesystem"
	BackendPostgres   Backend = "postgres"
)

// Config contains library storage configuration.
type Config struct {
	// Backend selects the storage implementation.
	// Default: "filesystem"
	Backend Backend `toml:"backend"`

	// BasePath is the user directory holding the filesystem library.
	// Default: ".node-red"
	BasePath string `toml:"base_path"`

	// MaxEntrySize caps the size of a saved entry body, e.g. "5MB".
	MaxEntrySize    string `toml:"max_entry_size"`
	maxEntrySizeVal int64
}

// Env maps environment variable names for storage configuration.
type Env struct {
	Backend      string
	BasePath     string
	MaxEntrySize string
}

// MaxEntrySizeBytes returns the parsed entry size limit.
func (c *Config) MaxEntrySizeBytes() int64 {
	return c.maxEntrySizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxEntrySize != "" {
		c.MaxEntrySize = overlay.MaxEntrySize
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".node-red"
	}
	if c.MaxEntrySize == "" {
		c.MaxEntrySize = "5MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = Backend(v)
		}
	}
	if env.BasePath != "" {
		if v := os.Getenv(env.BasePath); v != "" {
			c.BasePath = v
		}
	}
	if env.MaxEntrySize != "" {
		if v := os.Getenv(env.MaxEntrySize); v != "" {
			c.MaxEntrySize = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case BackendPostgres:
	default:
		return fmt.Errorf("invalid backend: %s (must be filesystem or postgres)", c.Backend)
	}

	size, err := units.FromHumanSize(c.MaxEntrySize)
	if err != nil {
		return fmt.Errorf("invalid max_entry_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_entry_size must be positive")
	}
	c.maxEntrySizeVal = size

	return nil
}
