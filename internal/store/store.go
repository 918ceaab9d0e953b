package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// A bundle travels as one file, so it keeps a rollback journal; WAL would
// leave -wal and -shm files next to it.
const (
	writeParams = "_journal_mode=DELETE&_synchronous=FULL&_busy_timeout=5000"
	readParams  = "mode=ro&_busy_timeout=5000"
)

// migration upgrades a bundle to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations are applied in order to bundles whose user_version is lower.
var migrations = []migration{
	{1, "index fixture digests", `CREATE INDEX IF NOT EXISTS idx_fixtures_digest ON fixtures(digest)`},
}

// schemaVersion is the user_version of a fully migrated bundle.
var schemaVersion = migrations[len(migrations)-1].version

// Store is an open fixture bundle.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens a bundle for packing, applying the schema and any
// pending migrations. Reopening an existing bundle is safe.
func Open(path string) (*Store, error) {
	db, err := connect(path, writeParams)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply bundle schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return newStore(db), nil
}

// OpenReadOnly opens an existing bundle for loading. It fails when the file
// is missing or was written by a newer schema.
func OpenReadOnly(path string) (*Store, error) {
	db, err := connect(path, readParams)
	if err != nil {
		return nil, err
	}
	version, err := userVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version > schemaVersion {
		db.Close()
		return nil, fmt.Errorf("bundle %s has schema version %d, newest known is %d", path, version, schemaVersion)
	}
	return newStore(db), nil
}

func connect(path, params string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?"+params)
	if err != nil {
		return nil, fmt.Errorf("open bundle %s: %w", path, err)
	}
	// One connection keeps the pragmas and the single writer consistent.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open bundle %s: %w", path, err)
	}
	return db, nil
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// migrate applies every migration newer than the bundle's user_version.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate bundle to v%d (%s): %w", m.version, m.name, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("migrate bundle to v%d: %w", m.version, err)
		}
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read bundle version: %w", err)
	}
	return version, nil
}

// SetLogger replaces the discard logger installed by Open.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger.With("component", "bundle")
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
