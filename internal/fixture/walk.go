package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// HiddenPrefix marks directory entries the walker and loader skip.
const HiddenPrefix = "."

// WalkOptions controls enumeration.
type WalkOptions struct {
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root. Matching files are omitted; matching
	// directories are not descended into.
	Exclude []string
}

// Walk recursively enumerates files under root, skipping any entry whose
// name starts with HiddenPrefix. Returned paths are root-joined.
//
// Order follows os.ReadDir (sorted by name within each directory).
// Filesystem errors are returned unmodified; there are no retries.
func Walk(root string, opts WalkOptions) ([]string, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return walk(root, root, opts)
}

func walk(root, dir string, opts WalkOptions) ([]string, error) {
	list, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var results []string
	for _, entry := range list {
		if strings.HasPrefix(entry.Name(), HiddenPrefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if excluded(root, path, opts.Exclude) {
			continue
		}

		// Follow symlinks the same way os.Stat does.
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			sub, err := walk(root, path, opts)
			if err != nil {
				return nil, err
			}
			results = append(results, sub...)
			continue
		}
		results = append(results, path)
	}
	return results, nil
}

func excluded(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// RelativeNames converts root-joined paths into slash-separated names
// relative to root.
func RelativeNames(root string, paths []string) ([]string, error) {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, fmt.Errorf("relative name for %q: %w", p, err)
		}
		names = append(names, filepath.ToSlash(rel))
	}
	return names, nil
}

// Index walks root and persists the relative names to manifestPath.
// It returns the names it wrote.
func Index(root, manifestPath string, opts WalkOptions) ([]string, error) {
	paths, err := Walk(root, opts)
	if err != nil {
		return nil, err
	}
	names, err := RelativeNames(root, paths)
	if err != nil {
		return nil, err
	}
	if err := WriteManifest(manifestPath, names); err != nil {
		return nil, err
	}
	return names, nil
}
