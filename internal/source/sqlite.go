package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ducminhle1904/ad-params/internal/ad"
	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

const schema = `
CREATE TABLE IF NOT EXISTS param_overrides (
	kind       TEXT NOT NULL,
	scope      TEXT NOT NULL,
	symbol     TEXT NOT NULL DEFAULT '',
	timeframe  TEXT NOT NULL,
	field      TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (kind, scope, symbol, timeframe, field)
)`

// Store is a SQLite-backed override store
type Store struct {
	DB     *sql.DB
	path   string
	logger zerolog.Logger
}

// OpenStore opens (and creates if needed) the store at path
func OpenStore(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{
		DB:     db,
		path:   path,
		logger: logger.With().Str("component", "store").Str("path", path).Logger(),
	}, nil
}

// Close releases the underlying DB handle
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Document reads every stored row back into a document. Values stay textual and
// are parsed against the registry by Build.
func (s *Store) Document(ctx context.Context) (Document, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT kind, scope, symbol, timeframe, field, value
		FROM param_overrides
		ORDER BY scope, kind, symbol, timeframe, field`)
	if err != nil {
		return Document{}, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	type entryKey struct {
		scope, kind, symbol, tf string
	}
	index := make(map[entryKey]int)
	var doc Document
	for rows.Next() {
		var k entryKey
		var field, value string
		if err := rows.Scan(&k.kind, &k.scope, &k.symbol, &k.tf, &field, &value); err != nil {
			return Document{}, fmt.Errorf("scan override: %w", err)
		}
		scope, err := ad.ParseScope(k.scope)
		if err != nil {
			return Document{}, perrors.NewInvalidValueError("source.sqlite", "scope", k.scope, "is not a known scope")
		}
		entries := &doc.Strategy
		if scope == ad.ScopeIndicator {
			entries = &doc.Indicator
		}
		i, ok := index[k]
		if !ok {
			*entries = append(*entries, Entry{Kind: k.kind, Symbol: k.symbol, Timeframe: k.tf, Params: map[string]interface{}{}})
			i = len(*entries) - 1
			index[k] = i
		}
		(*entries)[i].Params[field] = value
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("read overrides: %w", err)
	}
	return doc, nil
}

// Sync upserts every entry of a validated snapshot and returns the number of rows written
func (s *Store) Sync(ctx context.Context, snap *Snapshot) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO param_overrides (kind, scope, symbol, timeframe, field, value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, scope, symbol, timeframe, field) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	write := func(scope ad.Scope, kind params.StrategyKind, symbol string, tf params.Timeframe, l params.Layer) error {
		for _, f := range l.Fields() {
			if _, err := stmt.ExecContext(ctx, string(kind), string(scope), symbol, tf.String(), string(f), l[f].String()); err != nil {
				return fmt.Errorf("failed to upsert %s %s/%s/%s %s: %w", scope, kind, symbol, tf, f, err)
			}
			n++
		}
		return nil
	}
	for _, scope := range ad.Scopes() {
		for _, e := range snap.timeframes[scope].Entries() {
			if err := write(scope, e.Kind, "", e.Timeframe, e.Values); err != nil {
				return 0, err
			}
		}
		for _, e := range snap.symbols[scope].Entries() {
			if err := write(scope, e.Kind, e.Symbol, e.Timeframe, e.Values); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.Info().Int("rows", n).Str("from", snap.Source()).Msg("Overrides synced")
	return n, nil
}

// LoadStore reads and validates an existing store. A missing file is reported as
// a missing source rather than created.
func LoadStore(ctx context.Context, path string, reg *ad.Registry, logger zerolog.Logger) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, perrors.NewMissingSourceError("source.sqlite", path, err)
	}
	store, err := OpenStore(ctx, path, logger)
	if err != nil {
		return nil, perrors.NewMissingSourceError("source.sqlite", path, err)
	}
	defer store.Close()

	doc, err := store.Document(ctx)
	if err != nil {
		return nil, err
	}
	return Build(reg, path, doc)
}

// ImportFile validates an override file and syncs it into the store at dbPath
func ImportFile(ctx context.Context, reg *ad.Registry, filePath, dbPath string, logger zerolog.Logger) (int, error) {
	snap, err := LoadFile(filePath, reg)
	if err != nil {
		return 0, err
	}
	store, err := OpenStore(ctx, dbPath, logger)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.Sync(ctx, snap)
}
