package errmatch

import (
	"github.com/roach88/docgolden/internal/canon"
)

// Error names raised by the generator.
const (
	NameTemplate    = "TemplateError"
	NameRendering   = "RenderingError"
	NameScopeParser = "ScopeParserError"
	NameInternal    = "InternalError"
)

// MultiErrorID is the id of an aggregated error.
const MultiErrorID = "multi_error"

// StructuredError is the error shape the generator raises. The same type
// describes expected shapes in fixtures; the *Length fields are only
// meaningful there.
type StructuredError struct {
	Name       string     `yaml:"name"`
	Message    string     `yaml:"message"`
	Properties Properties `yaml:"properties"`

	// Stack and Line are volatile platform diagnostics. They are checked
	// loosely and never compared structurally.
	Stack string `yaml:"-"`
	Line  int    `yaml:"-"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// Unwrap exposes the root cause so errors.Is/As can reach it.
func (e *StructuredError) Unwrap() error {
	return e.Properties.RootError
}

// Properties holds the named diagnostic fields of a StructuredError.
type Properties struct {
	// ID identifies the error kind, for example "unopened_tag".
	ID string

	// Explanation is human-readable and volatile.
	Explanation string

	// Offset is the position(s) in the template. nil means absent.
	Offset canon.Value

	// RootError is the underlying cause. Only its message is compared.
	RootError error

	// Errors holds the sub-errors of an aggregated failure.
	Errors []*StructuredError

	// ParagraphParts and Postparsed are large parser diagnostics.
	// nil means absent.
	ParagraphParts []canon.Value
	Postparsed     []canon.Object

	// ParagraphPartsLength and PostparsedLength appear on expected shapes
	// only. When set, the actual array is checked by length instead of by
	// content.
	ParagraphPartsLength *int
	PostparsedLength     *int

	// Context holds any other diagnostic fields (tag, xtag, file, ...).
	Context canon.Object
}

// RootCause is a plain error carrying only a message. Expected shapes use it
// for rootError.
type RootCause struct {
	Message string
}

// Error implements the error interface.
func (r *RootCause) Error() string {
	return r.Message
}

// WrapMultiError builds the canonical aggregate shape around errs, used as
// the expected shape for tests asserting several simultaneous failures.
func WrapMultiError(errs ...*StructuredError) *StructuredError {
	if errs == nil {
		errs = []*StructuredError{}
	}
	return &StructuredError{
		Name:    NameTemplate,
		Message: "Multi error",
		Properties: Properties{
			ID:     MultiErrorID,
			Errors: errs,
		},
	}
}

// IntPtr is a helper for the *Length fields.
func IntPtr(n int) *int {
	return &n
}
