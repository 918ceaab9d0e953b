package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/docgolden/internal/fixture"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Manifest string
	Exclude  []string
}

// IndexResult is the index command payload.
type IndexResult struct {
	ExamplesDir string   `json:"examples_dir"`
	Manifest    string   `json:"manifest"`
	Count       int      `json:"count"`
	Names       []string `json:"names"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index [examples-dir]",
		Short: "Write the fixture manifest for an examples directory",
		Long: `Walk the examples directory and write the manifest of fixture names
the loader reads. Hidden entries are skipped; --exclude adds doublestar
patterns on top of the configured ones.

Examples:
  docgolden index
  docgolden index ./examples --manifest fixtures.json
  docgolden index --exclude "**/*.tmp" --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "manifest path (default from config)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "additional exclude pattern (repeatable)")

	return cmd
}

func runIndex(opts *IndexOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.configOrFail(f)
	if err != nil {
		return err
	}

	dir := cfg.ExamplesDir
	if len(args) == 1 {
		dir = args[0]
	}
	manifest := cfg.ManifestPath
	if opts.Manifest != "" {
		manifest = opts.Manifest
	}
	walkOpts := cfg.WalkOptions()
	walkOpts.Exclude = append(walkOpts.Exclude, opts.Exclude...)

	names, err := fixture.Index(dir, manifest, walkOpts)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("examples directory not found: %s", dir), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeIndex, err, nil)
	}

	f.VerboseLog("%s", strings.Join(names, "\n"))
	result := IndexResult{ExamplesDir: dir, Manifest: manifest, Count: len(names), Names: names}
	return f.Success(result, fmt.Sprintf("✓ Indexed %d fixture(s) from %s into %s", len(names), dir, manifest))
}
