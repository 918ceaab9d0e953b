package errmatch

import (
	"fmt"
	"strings"

	"github.com/roach88/docgolden/internal/canon"
)

// Volatile per-item fields of postparsed entries.
var postparsedVolatile = []string{"lIndex", "offset"}

// Normalize returns the comparable forms of actual and expected.
//
// Volatile fields (explanation, stack, line) are dropped from actual.
// Offsets are compared and then dropped from both sides. A root error is
// reduced to message equality and dropped. ParagraphParts and Postparsed
// are checked against expected *Length fields when present and then dropped.
// Sub-errors are normalized pairwise and must match in count.
//
// Any early check that fails is returned as *AssertionFailure.
func Normalize(actual, expected *StructuredError) (got, want canon.Object, err error) {
	if actual == nil || expected == nil {
		return nil, nil, failf("shape", "cannot normalize a nil error")
	}

	if actual.Stack != "" && !strings.Contains(actual.Stack, expected.Message) {
		return nil, nil, failf("stack", "stack does not mention %q", expected.Message)
	}

	gotProps, wantProps, err := normalizeProperties(&actual.Properties, &expected.Properties)
	if err != nil {
		return nil, nil, err
	}

	got = canon.Object{
		"name":       canon.String(actual.Name),
		"message":    canon.String(actual.Message),
		"properties": gotProps,
	}
	want = canon.Object{
		"name":       canon.String(expected.Name),
		"message":    canon.String(expected.Message),
		"properties": wantProps,
	}
	return got, want, nil
}

func normalizeProperties(a, e *Properties) (got, want canon.Object, err error) {
	got = a.Context.Clone()
	if got == nil {
		got = canon.Object{}
	}
	want = e.Context.Clone()
	if want == nil {
		want = canon.Object{}
	}

	if a.ID != "" {
		got["id"] = canon.String(a.ID)
	}
	if e.ID != "" {
		want["id"] = canon.String(e.ID)
	}

	// The actual explanation is volatile; an expected one can never match.
	if e.Explanation != "" {
		want["explanation"] = canon.String(e.Explanation)
	}

	// Offsets are compared here, then left out of the structural check.
	if e.Offset != nil {
		if a.Offset == nil {
			return nil, nil, failf("offset", "expected offset %s, got none", render(e.Offset))
		}
		if !canon.Equal(a.Offset, e.Offset) {
			return nil, nil, failf("offset", "expected offset %s, got %s", render(e.Offset), render(a.Offset))
		}
	}

	if a.RootError != nil {
		if e.RootError == nil {
			return nil, nil, failf("rootError", "unexpected root error %q", rootMessage(a.RootError))
		}
		if gotMsg, wantMsg := rootMessage(a.RootError), rootMessage(e.RootError); gotMsg != wantMsg {
			return nil, nil, failf("rootError", "expected root error message %q, got %q", wantMsg, gotMsg)
		}
	} else if e.RootError != nil {
		want["rootError"] = canon.Object{"message": canon.String(rootMessage(e.RootError))}
	}

	if err := checkLength(got, want, "paragraphParts", toArray(a.ParagraphParts), e.ParagraphPartsLength, toArray(e.ParagraphParts)); err != nil {
		return nil, nil, err
	}
	if err := checkLength(got, want, "postparsed", stripPostparsed(a.Postparsed), e.PostparsedLength, objectsToArray(e.Postparsed)); err != nil {
		return nil, nil, err
	}

	if a.Errors != nil {
		if e.Errors == nil {
			return nil, nil, failf("errors", "actual error aggregates %d sub-error(s), expected shape has none", len(a.Errors))
		}
		if len(a.Errors) != len(e.Errors) {
			return nil, nil, failf("errors", "expected %d sub-error(s), got %d", len(e.Errors), len(a.Errors))
		}
		gotErrs := make(canon.Array, len(a.Errors))
		wantErrs := make(canon.Array, len(e.Errors))
		for i := range a.Errors {
			g, w, err := Normalize(a.Errors[i], e.Errors[i])
			if err != nil {
				return nil, nil, at(err, fmt.Sprintf("properties.errors[%d]", i))
			}
			gotErrs[i] = g
			wantErrs[i] = w
		}
		got["errors"] = gotErrs
		want["errors"] = wantErrs
	} else if e.Errors != nil {
		want["errors"] = describeAll(e.Errors)
	}

	return got, want, nil
}

// rootMessage is the message of a root cause. A structured cause contributes
// its Message without the Name prefix that Error adds.
func rootMessage(err error) string {
	if se, ok := err.(*StructuredError); ok {
		return se.Message
	}
	return err.Error()
}

// checkLength compares an actual array to an expected recorded length.
// When both are present and agree, neither side keeps the field. Otherwise
// whatever is present is kept for the structural check.
func checkLength(got, want canon.Object, field string, actual canon.Array, expectedLen *int, expected canon.Array) error {
	lengthKey := field + "Length"
	if actual != nil && expectedLen != nil {
		if len(actual) != *expectedLen {
			return failf(lengthKey, "expected %s length %d, got %d", field, *expectedLen, len(actual))
		}
		if expected != nil {
			want[field] = expected
		}
		return nil
	}
	if actual != nil {
		got[field] = actual
	}
	if expectedLen != nil {
		want[lengthKey] = canon.Int(*expectedLen)
	}
	if expected != nil {
		want[field] = expected
	}
	return nil
}

func toArray(vals []canon.Value) canon.Array {
	if vals == nil {
		return nil
	}
	out := make(canon.Array, len(vals))
	copy(out, vals)
	return out
}

func objectsToArray(objs []canon.Object) canon.Array {
	if objs == nil {
		return nil
	}
	out := make(canon.Array, len(objs))
	for i, o := range objs {
		out[i] = o
	}
	return out
}

// stripPostparsed copies postparsed items without their volatile fields.
func stripPostparsed(items []canon.Object) canon.Array {
	if items == nil {
		return nil
	}
	out := make(canon.Array, len(items))
	for i, item := range items {
		out[i] = item.Without(postparsedVolatile...)
	}
	return out
}

// describe renders an expected shape without normalization, for the case
// where the actual error has nothing to pair it with.
func describe(e *StructuredError) canon.Object {
	props := e.Properties.Context.Clone()
	if props == nil {
		props = canon.Object{}
	}
	if e.Properties.ID != "" {
		props["id"] = canon.String(e.Properties.ID)
	}
	if e.Properties.Errors != nil {
		props["errors"] = describeAll(e.Properties.Errors)
	}
	return canon.Object{
		"name":       canon.String(e.Name),
		"message":    canon.String(e.Message),
		"properties": props,
	}
}

func describeAll(errs []*StructuredError) canon.Array {
	out := make(canon.Array, len(errs))
	for i, e := range errs {
		out[i] = describe(e)
	}
	return out
}

func render(v canon.Value) string {
	raw, err := canon.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(raw)
}
