package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/docgolden/internal/fixture"
	"github.com/roach88/docgolden/internal/harness"
)

// SourceOptions selects where fixtures are loaded from. Shared by load and
// compare.
type SourceOptions struct {
	Bundle string
	Remote string
	Index  bool
}

func (s *SourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Bundle, "bundle", "", "load fixtures from a SQLite bundle")
	cmd.Flags().StringVar(&s.Remote, "remote", "", "fetch fixtures over HTTP from this base URL")
	cmd.Flags().BoolVar(&s.Index, "index", false, "index the examples directory before loading")
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Source SourceOptions
}

// LoadResult is the load command payload.
type LoadResult struct {
	RunID     string   `json:"run_id"`
	Documents int      `json:"documents"`
	Assets    int      `json:"assets"`
	Names     []string `json:"names"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load every fixture and report what was found",
		Long: `Load all fixtures through the configured transport (examples
directory, HTTP, or bundle) and report document and asset counts. Any
fixture that fails to fetch or parse fails the command.

Examples:
  docgolden load --index
  docgolden load --bundle fixtures.db --format json
  docgolden load --remote http://localhost:9000/examples/`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, cmd)
		},
	}
	opts.Source.register(cmd)

	return cmd
}

func runLoad(opts *LoadOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	h, err := openHarness(opts.RootOptions, opts.Source, f, cmd)
	if err != nil {
		return err
	}
	defer h.Close()

	docs, assets := h.Store().Counts()
	result := LoadResult{RunID: h.RunID(), Documents: docs, Assets: assets, Names: h.Store().Names()}
	return f.Success(result, fmt.Sprintf("✓ Loaded %d document(s) and %d asset(s)", docs, assets))
}

// openHarness builds a harness from config and flags and loads every
// fixture. Failures are reported through f.
func openHarness(root *RootOptions, src SourceOptions, f *OutputFormatter, cmd *cobra.Command) (*harness.Harness, error) {
	cfg, err := root.configOrFail(f)
	if err != nil {
		return nil, err
	}
	if src.Bundle != "" {
		cfg.BundlePath = src.Bundle
	}
	if src.Remote != "" {
		cfg.RemoteBaseURL = src.Remote
	}

	h, err := harness.New(harness.Options{Config: cfg, Logger: root.logger(cmd)})
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeBundle, err, nil)
	}

	if src.Index {
		names, err := h.Index()
		if err != nil {
			h.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeIndex, err, nil)
		}
		f.VerboseLog("Indexed %d fixture(s)", len(names))
	}

	if err := h.Load(cmd.Context()); err != nil {
		h.Close()
		var loadErr *fixture.LoadError
		switch {
		case errors.As(err, &loadErr):
			return nil, f.Fail(ExitCommandError, ErrCodeLoad, err, map[string]string{"fixture": loadErr.Name})
		case errors.Is(err, fs.ErrNotExist):
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, err, nil)
		default:
			return nil, f.Fail(ExitCommandError, ErrCodeLoad, err, nil)
		}
	}
	f.VerboseLog("Fixture load %s complete", h.RunID())
	return h, nil
}
