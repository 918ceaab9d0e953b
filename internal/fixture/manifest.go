package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultManifestName is the manifest file written next to the harness.
const DefaultManifestName = "fixtures.json"

// Lister provides the fixture names a Loader dispatches.
type Lister interface {
	Names(ctx context.Context) ([]string, error)
}

// ManifestFile reads names from a manifest written by Index.
type ManifestFile string

// Names implements Lister.
func (m ManifestFile) Names(ctx context.Context) ([]string, error) {
	return ReadManifest(string(m))
}

// StaticNames is a Lister over an in-memory list.
type StaticNames []string

// Names implements Lister.
func (s StaticNames) Names(ctx context.Context) ([]string, error) {
	return []string(s), nil
}

// WriteManifest persists names as a JSON array, creating parent directories.
func WriteManifest(path string, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the names written by WriteManifest.
func ReadManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return names, nil
}
