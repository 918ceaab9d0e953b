package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/docgolden/internal/canon"
	"github.com/roach88/docgolden/internal/fixture"
)

var (
	// ErrNotFound is returned for a name the bundle does not hold.
	ErrNotFound = errors.New("fixture not in bundle")

	// ErrCorrupt is returned when stored content no longer matches its digest.
	ErrCorrupt = errors.New("fixture content does not match digest")
)

// Info describes a packed bundle.
type Info struct {
	ID    string
	Root  string
	Count int
}

// Pack replaces the bundle contents with the named files under root.
//
// Names are slash-separated paths relative to root, as written by
// fixture.Index. Their order is preserved and becomes the order Names
// returns. The whole pack runs in one transaction: on error the previous
// contents are kept.
func (s *Store) Pack(ctx context.Context, root string, names []string) (*Info, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fixtures`); err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}

	for seq, name := range names {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fixtures (seq, name, digest, size, content)
			VALUES (?, ?, ?, ?, ?)
		`, seq, name, canon.Digest(canon.DomainFixture, data), len(data), data)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", name, err)
		}
		s.logger.Debug("packed fixture", "name", name, "bytes", len(data))
	}

	info := &Info{ID: uuid.NewString(), Root: root, Count: len(names)}
	meta := map[string]string{
		"id":    info.ID,
		"root":  info.Root,
		"count": strconv.Itoa(info.Count),
	}
	for key, value := range meta {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bundle (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return nil, fmt.Errorf("pack: write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	s.logger.Info("bundle packed", "bundle_id", info.ID, "root", root, "fixtures", info.Count)
	return info, nil
}

// Info returns the metadata of the last pack. An unpacked bundle has an
// empty ID.
func (s *Store) Info(ctx context.Context) (*Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM bundle`)
	if err != nil {
		return nil, fmt.Errorf("bundle info: %w", err)
	}
	defer rows.Close()

	info := &Info{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("bundle info: %w", err)
		}
		switch key {
		case "id":
			info.ID = value
		case "root":
			info.Root = value
		case "count":
			if info.Count, err = strconv.Atoi(value); err != nil {
				return nil, fmt.Errorf("bundle info: count %q: %w", value, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bundle info: %w", err)
	}
	return info, nil
}

// Names implements fixture.Lister in pack order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM fixtures ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list fixtures: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return names, nil
}

// Get returns the content of one fixture after checking its digest.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var digest string
	var content []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT digest, content FROM fixtures WHERE name = ?
	`, name).Scan(&digest, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	if canon.Digest(canon.DomainFixture, content) != digest {
		return nil, fmt.Errorf("%s: %w", name, ErrCorrupt)
	}
	return content, nil
}

// Fetch implements fixture.Source. It completes synchronously.
func (s *Store) Fetch(ctx context.Context, name string, done fixture.FetchFunc) {
	data, err := s.Get(ctx, name)
	done(name, data, err)
}
