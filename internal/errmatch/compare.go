package errmatch

import (
	"errors"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/docgolden/internal/canon"
)

// AssertThrows calls fn and checks the error it returns against expected.
//
// The returned error must be (or wrap) a *StructuredError exposing a
// non-empty id and explanation. It is then normalized against expected and
// compared structurally. Returns nil on a match and *AssertionFailure
// otherwise.
func AssertThrows(fn func() error, expected *StructuredError) error {
	thrown := fn()
	if thrown == nil {
		return failf("thrown", "no error has been thrown")
	}

	var actual *StructuredError
	if !errors.As(thrown, &actual) {
		return failf("type", "expected a structured error, got %T: %v", thrown, thrown)
	}
	if actual.Properties.ID == "" {
		return failf("id", "error has no properties.id: %v", actual)
	}
	if actual.Properties.Explanation == "" {
		return failf("explanation", "error has no properties.explanation: %v", actual)
	}

	return Compare(actual, expected)
}

// Compare normalizes actual against expected and checks deep equality of
// the normalized forms.
func Compare(actual, expected *StructuredError) error {
	got, want, err := Normalize(actual, expected)
	if err != nil {
		return err
	}

	gotRaw, err := canon.MarshalCanonical(got)
	if err != nil {
		return fmt.Errorf("encode actual error: %w", err)
	}
	wantRaw, err := canon.MarshalCanonical(want)
	if err != nil {
		return fmt.Errorf("encode expected error: %w", err)
	}
	if string(gotRaw) == string(wantRaw) {
		return nil
	}

	gotText, _ := canon.MarshalIndent(got)
	wantText, _ := canon.MarshalIndent(want)
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(wantText + "\n"),
		B:        difflib.SplitLines(gotText + "\n"),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	return &AssertionFailure{
		Check:    "shape",
		Message:  "normalized error does not match expected shape",
		Actual:   gotText,
		Expected: wantText,
		Diff:     diff,
	}
}

// Snapshot returns the indented canonical JSON of a normalized error, for
// golden files. expected supplies the offset and length checks. A nil
// expected checks actual against its own diagnostic lengths, which leaves
// paragraphParts and postparsed out of the snapshot at every nesting level.
func Snapshot(actual, expected *StructuredError) ([]byte, error) {
	if expected == nil {
		expected = withOwnLengths(actual)
	}
	got, _, err := Normalize(actual, expected)
	if err != nil {
		return nil, err
	}
	text, err := canon.MarshalIndent(got)
	if err != nil {
		return nil, err
	}
	return []byte(text + "\n"), nil
}

// withOwnLengths copies e with each diagnostic array replaced by its length.
func withOwnLengths(e *StructuredError) *StructuredError {
	if e == nil {
		return nil
	}
	out := *e
	p := &out.Properties
	if p.ParagraphParts != nil {
		p.ParagraphPartsLength = IntPtr(len(p.ParagraphParts))
		p.ParagraphParts = nil
	}
	if p.Postparsed != nil {
		p.PostparsedLength = IntPtr(len(p.Postparsed))
		p.Postparsed = nil
	}
	if p.Errors != nil {
		p.Errors = make([]*StructuredError, len(e.Properties.Errors))
		for i, sub := range e.Properties.Errors {
			p.Errors[i] = withOwnLengths(sub)
		}
	}
	return &out
}
