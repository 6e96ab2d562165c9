package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/efinel/node-red/internal/library"
	"github.com/efinel/node-red/internal/store/migrations"
	"github.com/efinel/node-red/pkg/lifecycle"
	"github.com/efinel/node-red/pkg/repository"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

type postgresStore struct {
	db           *sql.DB
	maxEntrySize int64
	logger       *slog.Logger
}

type listedEntry struct {
	path string
	meta []byte
}

// NewPostgres creates a library store backed by the library_entries table.
func NewPostgres(db *sql.DB, cfg *Config, logger *slog.Logger) System {
	return &postgresStore{
		db:           db,
		maxEntrySize: cfg.MaxEntrySizeBytes(),
		logger:       logger.With("system", "store", "backend", BackendPostgres),
	}
}

func (p *postgresStore) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting library store")
	return nil
}

// Migrate applies the embedded schema migrations.
func (p *postgresStore) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	p.logger.Info("library schema migrated", "version", version, "dirty", dirty)
	return nil
}

func (p *postgresStore) GetEntry(ctx context.Context, entryType, path string) (library.Entry, error) {
	if entryType == "" {
		return nil, codeError(ErrInvalidKey)
	}

	if path != "" && !strings.HasSuffix(path, "/") {
		body, err := p.queryBody(ctx, entryType, path)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, codeError(err)
		}
		if alt := withExtension(entryType, path); alt != path {
			body, err := p.queryBody(ctx, entryType, alt)
			if err == nil {
				return body, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, codeError(err)
			}
		}
	}

	listing, err := p.listDir(ctx, entryType, path)
	if err != nil {
		return nil, codeError(err)
	}
	if listing == nil {
		if path == "" || strings.HasSuffix(path, "/") {
			return []any{}, nil
		}
		return nil, codeError(fmt.Errorf("%w: %s/%s", ErrNotFound, entryType, path))
	}

	return listing, nil
}

func (p *postgresStore) SaveEntry(ctx context.Context, entryType, path string, meta map[string]any, body string) error {
	if p.maxEntrySize > 0 && int64(len(body)) > p.maxEntrySize {
		return codeError(fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(body), p.maxEntrySize))
	}
	if entryType == "" || path == "" || strings.HasSuffix(path, "/") {
		return codeError(ErrInvalidKey)
	}

	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	q := `
		INSERT INTO library_entries (type, path, meta, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (type, path) DO UPDATE
		SET meta = EXCLUDED.meta, body = EXCLUDED.body, updated_at = NOW()`

	_, err = repository.WithTx(ctx, p.db, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx, q, entryType, withExtension(entryType, path), string(metaJSON), body)
	})
	if err != nil {
		return codeError(repository.MapError(err, ErrNotFound, ErrPermissionDenied))
	}

	p.logger.Debug("library entry saved", "type", entryType, "path", path)
	return nil
}

func (p *postgresStore) GetAllFlows(ctx context.Context) (*library.FlowListing, error) {
	q := `SELECT path FROM library_entries WHERE type = $1 ORDER BY path`

	paths, err := repository.QueryMany(ctx, p.db, q, []any{library.FlowsType}, scanString)
	if err != nil {
		return nil, codeError(repository.MapError(err, ErrNotFound, ErrPermissionDenied))
	}

	return listingFromPaths(paths), nil
}

func (p *postgresStore) queryBody(ctx context.Context, entryType, path string) (string, error) {
	q := `SELECT body FROM library_entries WHERE type = $1 AND path = $2`

	body, err := repository.QueryOne(ctx, p.db, q, []any{entryType, path}, scanString)
	if err != nil {
		return "", repository.MapError(err, ErrNotFound, ErrPermissionDenied)
	}
	return body, nil
}

// listDir returns one directory level below path, or nil when nothing is
// stored beneath it.
func (p *postgresStore) listDir(ctx context.Context, entryType, path string) ([]any, error) {
	prefix := strings.TrimSuffix(path, "/")
	if prefix != "" {
		prefix += "/"
	}

	q := `
		SELECT path, meta FROM library_entries
		WHERE type = $1 AND path LIKE $2 ESCAPE '\'
		ORDER BY path`

	rows, err := repository.QueryMany(ctx, p.db, q, []any{entryType, escapeLike(prefix) + "%"}, scanListedEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrPermissionDenied)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return listingFromRows(prefix, rows), nil
}

func listingFromRows(prefix string, rows []listedEntry) []any {
	var dirs []string
	var files []map[string]any

	for _, row := range rows {
		rel := strings.TrimPrefix(row.path, prefix)
		if rel == "" || strings.HasPrefix(rel, ".") {
			continue
		}

		if dir, _, nested := strings.Cut(rel, "/"); nested {
			if !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}
			continue
		}

		var meta map[string]any
		if len(row.meta) > 0 {
			_ = json.Unmarshal(row.meta, &meta)
		}
		if meta == nil {
			meta = make(map[string]any)
		}
		meta["fn"] = rel
		files = append(files, meta)
	}

	slices.Sort(dirs)
	return directoryListing(dirs, files)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanString(s repository.Scanner) (string, error) {
	var v string
	err := s.Scan(&v)
	return v, err
}

func scanListedEntry(s repository.Scanner) (listedEntry, error) {
	var e listedEntry
	err := s.Scan(&e.path, &e.meta)
	return e, err
}
