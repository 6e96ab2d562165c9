package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/efinel/node-red/internal/library"
	"github.com/efinel/node-red/pkg/lifecycle"
)

// filesystem stores library entries as files under <base>/lib/<type>/<path>.
type filesystem struct {
	libDir       string
	maxEntrySize int64
	logger       *slog.Logger
}

// NewFilesystem creates a filesystem library store.
// The base path is resolved to an absolute path during construction.
// Directory creation is deferred to Start() for lifecycle integration.
func NewFilesystem(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return &filesystem{
		libDir:       filepath.Join(absPath, "lib"),
		maxEntrySize: cfg.MaxEntrySizeBytes(),
		logger:       logger.With("system", "store", "backend", BackendFilesystem),
	}, nil
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting library store", "lib_dir", f.libDir)

	lc.OnStartup(func() {
		if err := os.MkdirAll(filepath.Join(f.libDir, library.FlowsType), 0755); err != nil {
			f.logger.Error("library directory initialization failed", "error", err)
			return
		}
		f.logger.Info("library directory initialized")
	})

	return nil
}

func (f *filesystem) GetEntry(ctx context.Context, entryType, path string) (library.Entry, error) {
	full, err := f.fullPath(entryType, path)
	if err != nil {
		return nil, codeError(err)
	}

	info, err := os.Lstat(full)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, codeError(mapFSError(err))
		}
		if path == "" || strings.HasSuffix(path, "/") {
			return []any{}, nil
		}
		if alt := withExtension(entryType, path); alt != path {
			entry, altErr := f.GetEntry(ctx, entryType, alt)
			if altErr == nil {
				return entry, nil
			}
			if !errors.Is(altErr, ErrNotFound) {
				return nil, altErr
			}
		}
		return nil, codeError(fmt.Errorf("%w: %s/%s", ErrNotFound, entryType, path))
	}

	if !info.IsDir() {
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, codeError(mapFSError(err))
		}
		_, body := decodeEntry(string(data))
		return body, nil
	}

	return f.readDir(full)
}

func (f *filesystem) SaveEntry(ctx context.Context, entryType, path string, meta map[string]any, body string) error {
	if f.maxEntrySize > 0 && int64(len(body)) > f.maxEntrySize {
		return codeError(fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(body), f.maxEntrySize))
	}
	if path == "" || strings.HasSuffix(path, "/") {
		return codeError(ErrInvalidKey)
	}

	full, err := f.fullPath(entryType, withExtension(entryType, path))
	if err != nil {
		return codeError(err)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return codeError(mapFSError(fmt.Errorf("create directory: %w", err)))
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), filepath.Base(full)+".*.tmp")
	if err != nil {
		return codeError(mapFSError(fmt.Errorf("create temp file: %w", err)))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(encodeEntry(meta, body)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return codeError(mapFSError(fmt.Errorf("write temp file: %w", err)))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return codeError(mapFSError(fmt.Errorf("close temp file: %w", err)))
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return codeError(mapFSError(fmt.Errorf("chmod temp file: %w", err)))
	}

	if err := os.Rename(tmpPath, full); err != nil {
		os.Remove(tmpPath)
		return codeError(mapFSError(fmt.Errorf("rename temp file: %w", err)))
	}

	f.logger.Debug("library entry saved", "type", entryType, "path", path)
	return nil
}

func (f *filesystem) GetAllFlows(ctx context.Context) (*library.FlowListing, error) {
	listing, err := ListFlows(filepath.Join(f.libDir, library.FlowsType))
	if err != nil {
		return nil, codeError(mapFSError(err))
	}
	return listing, nil
}

func (f *filesystem) readDir(dir string) (library.Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, codeError(mapFSError(err))
	}

	var dirs []string
	var files []map[string]any
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			f.logger.Warn("failed to read library entry metadata", "file", name, "error", err)
			continue
		}
		meta, _ := decodeEntry(string(data))
		meta["fn"] = name
		files = append(files, meta)
	}

	return directoryListing(dirs, files), nil
}

func (f *filesystem) fullPath(entryType, path string) (string, error) {
	if entryType == "" || strings.ContainsAny(entryType, `/\`) || entryType == "." || entryType == ".." {
		return "", ErrInvalidKey
	}

	root := filepath.Join(f.libDir, entryType)
	full := filepath.Join(root, filepath.FromSlash(path))

	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}

	return full, nil
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
