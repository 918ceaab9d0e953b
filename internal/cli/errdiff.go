package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/docgolden/internal/errmatch"
)

// ErrdiffResult is the errdiff command payload.
type ErrdiffResult struct {
	Match bool `json:"match"`
}

// shapeDetails is the error payload of a failed shape comparison.
type shapeDetails struct {
	Check string `json:"check"`
	Path  string `json:"path,omitempty"`
	Diff  string `json:"diff,omitempty"`
}

// NewErrdiffCommand creates the errdiff command.
func NewErrdiffCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errdiff <actual.yaml> <expected.yaml>",
		Short: "Compare a recorded error against an expected error shape",
		Long: `Normalize a recorded structured error and compare it with an expected
shape, exactly as tests do. Volatile fields (explanation, stack) are
ignored; offsets, root causes and recorded lengths are checked first.

Exit codes:
  0 - Shapes match
  1 - Shapes differ
  2 - Command error (unreadable or malformed file)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runErrdiff(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runErrdiff(opts *RootOptions, actualPath, expectedPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	actual, err := loadShape(f, actualPath)
	if err != nil {
		return err
	}
	expected, err := loadShape(f, expectedPath)
	if err != nil {
		return err
	}

	err = errmatch.Compare(actual, expected)
	var failure *errmatch.AssertionFailure
	switch {
	case err == nil:
		return f.Success(ErrdiffResult{Match: true}, "✓ Error shapes match")
	case errors.As(err, &failure):
		if f.Format != "json" && failure.Diff != "" {
			fmt.Fprintln(f.Writer, "✗ Error shapes differ")
			fmt.Fprintln(f.Writer, failure.Diff)
		}
		return f.Fail(ExitFailure, ErrCodeShape, err, shapeDetails{
			Check: failure.Check,
			Path:  failure.Path,
			Diff:  failure.Diff,
		})
	default:
		return f.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}
}

func loadShape(f *OutputFormatter, path string) (*errmatch.StructuredError, error) {
	se, err := errmatch.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("error file not found: %s", path), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, err, nil)
	}
	return se, nil
}
