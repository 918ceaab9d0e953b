package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/docgolden/internal/fixture"
	"github.com/roach88/docgolden/internal/store"
)

// BundleOptions holds flags for the bundle command.
type BundleOptions struct {
	*RootOptions
	ExamplesDir string
}

// BundleResult is the bundle command payload.
type BundleResult struct {
	Path  string `json:"path"`
	ID    string `json:"id"`
	Root  string `json:"root"`
	Count int    `json:"count"`
}

// NewBundleCommand creates the bundle command.
func NewBundleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BundleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bundle [bundle.db]",
		Short: "Pack the examples directory into a SQLite fixture bundle",
		Long: `Walk the examples directory and pack every fixture into a single
SQLite file. Loading from the bundle needs neither the directory nor a
manifest. Re-running replaces the bundle contents.

Examples:
  docgolden bundle fixtures.db
  docgolden bundle --examples ./examples fixtures.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundle(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ExamplesDir, "examples", "", "examples directory (default from config)")

	return cmd
}

func runBundle(opts *BundleOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.configOrFail(f)
	if err != nil {
		return err
	}

	path := cfg.BundlePath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return f.Fail(ExitCommandError, ErrCodeBundle, errors.New("no bundle path: pass one or set bundle_path"), nil)
	}
	dir := cfg.ExamplesDir
	if opts.ExamplesDir != "" {
		dir = opts.ExamplesDir
	}

	paths, err := fixture.Walk(dir, cfg.WalkOptions())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("examples directory not found: %s", dir), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeIndex, err, nil)
	}
	names, err := fixture.RelativeNames(dir, paths)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeIndex, err, nil)
	}

	b, err := store.Open(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBundle, err, nil)
	}
	defer b.Close()
	b.SetLogger(opts.logger(cmd))

	info, err := b.Pack(cmd.Context(), dir, names)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBundle, err, nil)
	}

	result := BundleResult{Path: path, ID: info.ID, Root: info.Root, Count: info.Count}
	return f.Success(result, fmt.Sprintf("✓ Packed %d fixture(s) from %s into %s", info.Count, dir, path))
}
