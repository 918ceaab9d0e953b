package errmatch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAssertion matches every AssertionFailure via errors.Is.
var ErrAssertion = errors.New("error shape assertion failed")

// AssertionFailure reports that a thrown error does not match its expected
// shape.
type AssertionFailure struct {
	// Check names the failing step: "thrown", "type", "id", "explanation",
	// "stack", "offset", "rootError", "errors", a length field, or "shape".
	Check   string
	Message string

	// Path locates the failing sub-error, e.g. "properties.errors[1]".
	Path string

	// Actual and Expected hold indented canonical JSON of the normalized
	// shapes when the final equality check fails.
	Actual   string
	Expected string
	Diff     string
}

// Error implements the error interface.
func (f *AssertionFailure) Error() string {
	var b strings.Builder
	if f.Path != "" {
		fmt.Fprintf(&b, "%s: ", f.Path)
	}
	fmt.Fprintf(&b, "%s: %s", f.Check, f.Message)
	if f.Diff != "" {
		b.WriteString("\n")
		b.WriteString(f.Diff)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrAssertion) hold.
func (f *AssertionFailure) Is(target error) bool {
	return target == ErrAssertion
}

func failf(check, format string, args ...any) *AssertionFailure {
	return &AssertionFailure{Check: check, Message: fmt.Sprintf(format, args...)}
}

// at prefixes the failure path with a parent location.
func at(err error, path string) error {
	var f *AssertionFailure
	if errors.As(err, &f) {
		if f.Path == "" {
			f.Path = path
		} else {
			f.Path = path + "." + f.Path
		}
	}
	return err
}
