package fixture

import (
	"errors"
	"fmt"
)

// ErrLoad matches every LoadError via errors.Is.
var ErrLoad = errors.New("fixture load failed")

// ErrNotReset is returned by Start when SetCompletionCallback was not called
// since the previous run.
var ErrNotReset = errors.New("completion callback must be set before each run")

// LoadError reports a failed fixture fetch or parse. It is fatal to the run.
type LoadError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load fixture %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying I/O or parse error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLoad) hold for any LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}
