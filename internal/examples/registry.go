// Package examples discovers the example flows shipped with installed node
// modules and exposes them as a flow listing keyed by module name.
package examples

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/efinel/node-red/internal/store"
	"github.com/efinel/node-red/pkg/lifecycle"
)

// ExamplesDir is the directory inside a node module holding its example flows.
const ExamplesDir = "examples"

// Registry collects node example flows. It satisfies library.ExampleRegistry.
type Registry struct {
	paths  []string
	logger *slog.Logger

	mu      sync.RWMutex
	modules map[string]any
}

// New creates a Registry over the given node module search paths. Each
// search path holds one directory per node module.
func New(paths []string, logger *slog.Logger) *Registry {
	return &Registry{
		paths:  paths,
		logger: logger.With("system", "examples"),
	}
}

// Start scans the search paths when the lifecycle starts up.
func (r *Registry) Start(lc *lifecycle.Coordinator) error {
	r.logger.Info("starting example registry", "paths", r.paths)

	lc.OnStartup(func() {
		if err := r.Scan(lc.Context()); err != nil {
			r.logger.Error("example scan failed", "error", err)
		}
	})

	return nil
}

// Scan rebuilds the registry from the search paths.
func (r *Registry) Scan(ctx context.Context) error {
	modules := make(map[string]any)

	for _, root := range r.paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				r.logger.Warn("node search path missing", "path", root)
				continue
			}
			return fmt.Errorf("read %s: %w", root, err)
		}

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(root, e.Name(), ExamplesDir)
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			if err := r.add(modules, e.Name(), dir); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	r.modules = modules
	r.mu.Unlock()

	r.logger.Info("example flows registered", "modules", len(modules))
	return nil
}

// AddModule registers the examples directory of a single node module.
func (r *Registry) AddModule(module, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.modules == nil {
		r.modules = make(map[string]any)
	}
	return r.add(r.modules, module, dir)
}

// ExampleFlows returns {"d": {module: listing}} for every module with
// example flows, or nil when there are none.
func (r *Registry) ExampleFlows() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.modules) == 0 {
		return nil
	}

	d := make(map[string]any, len(r.modules))
	for k, v := range r.modules {
		d[k] = v
	}
	return map[string]any{"d": d}
}

func (r *Registry) add(modules map[string]any, module, dir string) error {
	listing, err := store.ListFlows(dir)
	if err != nil {
		return fmt.Errorf("list examples for %s: %w", module, err)
	}
	if len(listing.Files) == 0 && len(listing.Dirs) == 0 {
		return nil
	}

	modules[module] = listing
	r.logger.Debug("example flows added", "module", module, "dir", dir)
	return nil
}
