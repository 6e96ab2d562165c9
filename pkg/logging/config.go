package logging

import (
	"os"
	"strings"
)

// Env names the environment variables that override the logging section.
// Empty names are skipped.
type Env struct {
	Level  string
	Format string
}

// Config selects the minimum level and the handler format of the process
// logger. Values are case-insensitive.
type Config struct {
	Level  Level  `toml:"level"`
	Format Format `toml:"format"`
}

// Finalize normalizes the section, fills in info/text when unset, applies
// env overrides, and rejects unknown values.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.Level = Level(lookup(env.Level, string(c.Level)))
		c.Format = Format(lookup(env.Format, string(c.Format)))
	}

	c.Level = Level(strings.ToLower(string(c.Level)))
	c.Format = Format(strings.ToLower(string(c.Format)))
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}

	if err := c.Level.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}

// Merge takes every field the overlay sets.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func lookup(name, current string) string {
	if name == "" {
		return current
	}
	if v := os.Getenv(name); v != "" {
		return v
	}
	return current
}
