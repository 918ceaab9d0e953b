package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/docgolden/internal/archive"
	"github.com/roach88/docgolden/internal/errmatch"
	"github.com/roach88/docgolden/internal/xmlnorm"
)

// newGoldie returns the snapshot store under testdata/golden.
func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// AssertErrorGolden compares the normalized form of err against the golden
// file testdata/golden/{name}.golden.
//
// Volatile fields (explanation, stack, offsets) and the parser diagnostics
// paragraphParts and postparsed are not part of the snapshot, so the file
// only changes when the error's identity or context does. To regenerate golden files, run:
//
//	go test ./... -update
func AssertErrorGolden(t *testing.T, name string, err *errmatch.StructuredError) {
	t.Helper()

	snapshot, serr := errmatch.Snapshot(err, nil)
	if serr != nil {
		t.Fatalf("snapshot %s: %v", name, serr)
	}
	newGoldie(t).Assert(t, name, snapshot)
}

// AssertDocumentGolden compares the normalized XML of one archive entry
// against testdata/golden/{name}.golden.
func AssertDocumentGolden(t *testing.T, name string, a *archive.Archive, entry string, opts xmlnorm.Options) {
	t.Helper()

	text, ok := a.Text(entry)
	if !ok {
		t.Fatalf("archive has no entry %q", entry)
	}
	normalized, err := xmlnorm.Normalize(text, opts)
	if err != nil {
		t.Fatalf("normalize %s: %v", entry, err)
	}
	newGoldie(t).Assert(t, name, []byte(normalized))
}
