package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvExamplesPaths overrides the node module search paths (comma separated).
const EnvExamplesPaths = "LIBRARY_EXAMPLES_PATHS"

// ExamplesConfig lists the directories scanned for node example flows.
type ExamplesConfig struct {
	Paths []string `toml:"paths"`
}

// Finalize loads environment overrides and validates the examples configuration.
func (c *ExamplesConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge replaces the search paths when the overlay sets any.
func (c *ExamplesConfig) Merge(overlay *ExamplesConfig) {
	if len(overlay.Paths) > 0 {
		c.Paths = overlay.Paths
	}
}

func (c *ExamplesConfig) loadEnv() {
	if v := os.Getenv(EnvExamplesPaths); v != "" {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		c.Paths = paths
	}
}

func (c *ExamplesConfig) validate() error {
	for i, p := range c.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("paths[%d] is empty", i)
		}
	}
	return nil
}
