package golden

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is.
var (
	// ErrMissingBaseline matches every MissingBaselineError.
	ErrMissingBaseline = errors.New("missing baseline")

	// ErrDiff matches every DiffFailure.
	ErrDiff = errors.New("archive differs from baseline")
)

// MissingBaselineError is returned when no reference archive is registered
// for a fixture name. The generated archive has been written to ActualPath
// so it can be promoted to a new baseline.
type MissingBaselineError struct {
	ExpectedName string
	ActualPath   string
}

// Error implements the error interface.
func (e *MissingBaselineError) Error() string {
	return fmt.Sprintf("expected file %s does not exist (actual output written to %s)", e.ExpectedName, e.ActualPath)
}

// Is makes errors.Is(err, ErrMissingBaseline) hold.
func (e *MissingBaselineError) Is(target error) bool {
	return target == ErrMissingBaseline
}

// Reason categorizes a DiffFailure.
type Reason string

const (
	ReasonMissingExpected Reason = "missing_in_expected"
	ReasonMissingActual   Reason = "missing_in_generated"
	ReasonDirFlag         Reason = "dir_flag"
	ReasonBinaryLength    Reason = "binary_length"
	ReasonBinaryContent   Reason = "binary_content"
	ReasonEmptyNamespace  Reason = "empty_namespace"
	ReasonNormalize       Reason = "normalize"
	ReasonContent         Reason = "content"
)

// DiffFailure describes the first mismatching entry between a generated
// archive and its baseline.
type DiffFailure struct {
	ExpectedName string
	Path         string
	Reason       Reason

	// ActualLen and ExpectedLen are content lengths (after newline/tab
	// stripping for text entries). Zero when not applicable.
	ActualLen   int
	ExpectedLen int

	// Side names the archive that failed for presence and namespace checks:
	// "generated" or "expected".
	Side string

	// Diff is a unified diff of the normalized contents, when available.
	Diff string

	// ActualPath is where the generated archive was written.
	ActualPath string

	// Err holds a normalizer failure.
	Err error
}

// Error implements the error interface.
func (e *DiffFailure) Error() string {
	var b strings.Builder
	switch e.Reason {
	case ReasonMissingExpected:
		fmt.Fprintf(&b, "The file %s doesn't exist on %s", e.Path, e.ExpectedName)
	case ReasonMissingActual:
		fmt.Fprintf(&b, "The file %s doesn't exist on generated file", e.Path)
	case ReasonDirFlag:
		fmt.Fprintf(&b, "IsDir differs for %q", e.Path)
	case ReasonEmptyNamespace:
		fmt.Fprintf(&b, "The file %s has empty namespaces (%s)", e.Path, e.Side)
	case ReasonNormalize:
		fmt.Fprintf(&b, "Content differs for %q: %v", e.Path, e.Err)
	default:
		fmt.Fprintf(&b, "Content differs for %q lengths: %q, %q", e.Path,
			fmt.Sprint(e.ActualLen), fmt.Sprint(e.ExpectedLen))
	}
	if e.Diff != "" {
		b.WriteString("\n")
		b.WriteString(e.Diff)
	}
	return b.String()
}

// Unwrap returns the normalizer error, if any.
func (e *DiffFailure) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDiff) hold.
func (e *DiffFailure) Is(target error) bool {
	return target == ErrDiff
}
