package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/docgolden/internal/archive"
	"github.com/roach88/docgolden/internal/golden"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Source SourceOptions
}

// CompareResult is the compare command payload.
type CompareResult struct {
	ExpectedName string `json:"expected_name"`
	Same         bool   `json:"same"`
}

// diffDetails is the error payload of a failed comparison.
type diffDetails struct {
	Path       string `json:"path,omitempty"`
	Reason     string `json:"reason,omitempty"`
	ActualPath string `json:"actual_path"`
	Diff       string `json:"diff,omitempty"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <generated> <expected-name>",
		Short: "Compare a generated archive with its baseline",
		Long: `Load the fixtures and compare a generated archive file against the
baseline fixture named expected-name. XML entries are compared after
normalization; images byte for byte.

On mismatch or a missing baseline the generated archive is copied next to
the examples directory under the expected name.

Exit codes:
  0 - Archives match
  1 - Archives differ or the baseline is missing
  2 - Command error (unreadable file, load failure, etc.)

Examples:
  docgolden compare out.docx tag-example-expected.docx
  docgolden compare out.docx tag-example-expected.docx --bundle fixtures.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}
	opts.Source.register(cmd)

	return cmd
}

func runCompare(opts *CompareOptions, generatedPath, expectedName string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	raw, err := os.ReadFile(generatedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("generated file not found: %s", generatedPath), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}
	generated, err := archive.Open(raw)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("%s: %w", generatedPath, err), nil)
	}

	h, err := openHarness(opts.RootOptions, opts.Source, f, cmd)
	if err != nil {
		return err
	}
	defer h.Close()

	err = h.ShouldBeSame(generated, expectedName)
	var missing *golden.MissingBaselineError
	var diff *golden.DiffFailure
	switch {
	case err == nil:
		return f.Success(CompareResult{ExpectedName: expectedName, Same: true},
			fmt.Sprintf("✓ %s matches %s", generatedPath, expectedName))
	case errors.As(err, &diff):
		if f.Format != "json" {
			fmt.Fprintln(f.Writer, "✗ Archives differ")
			if diff.Diff != "" {
				fmt.Fprintln(f.Writer, diff.Diff)
			}
		}
		return f.Fail(ExitFailure, ErrCodeDiff, err, diffDetails{
			Path:       diff.Path,
			Reason:     string(diff.Reason),
			ActualPath: diff.ActualPath,
			Diff:       diff.Diff,
		})
	case errors.As(err, &missing):
		return f.Fail(ExitFailure, ErrCodeMissingBaseline, err, diffDetails{ActualPath: missing.ActualPath})
	default:
		return f.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}
}
