// Package journal persists execution message logs. It is the reference
// implementation of the host-side log store the engine is designed
// against: the engine itself performs no I/O and persists nothing.
//
// Each stream holds one entity's conversation as an append-only, offset
// ordered sequence of messages. Streams are identified by time-sortable
// UUIDv7 tokens.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// TokenGenerator generates unique stream tokens.
// Implemented by UUIDv7Generator (production) and the fixed generator in
// internal/testutil (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 stream tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which keeps stream listings chronological.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Journal provides durable storage for execution message logs.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db     *sql.DB
	tokens TokenGenerator
}

// Option configures a Journal.
type Option func(*Journal)

// WithTokenGenerator replaces the stream token generator.
// Tests use a fixed generator for deterministic stream ids.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(j *Journal) {
		j.tokens = g
	}
}

// Open creates or opens a journal database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	j := &Journal{db: db, tokens: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// CreateStream allocates a new stream for an entity kind and returns its
// token.
func (j *Journal) CreateStream(ctx context.Context, entityKind string) (string, error) {
	if entityKind == "" {
		return "", fmt.Errorf("create stream: entity kind must not be empty")
	}
	id := j.tokens.Generate()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO streams (id, entity_kind) VALUES (?, ?)`, id, entityKind)
	if err != nil {
		return "", fmt.Errorf("create stream: %w", err)
	}
	return id, nil
}
