package golden

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/docgolden/internal/archive"
	"github.com/roach88/docgolden/internal/xmlnorm"
)

// DefaultBinarySuffixes are compared byte for byte.
var DefaultBinarySuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".emf", ".wmf"}

// emptyNamespace matches a namespace declaration bound to the empty string.
var emptyNamespace = regexp.MustCompile(`xmlns:[a-z0-9]+=""`)

// Baselines resolves a fixture name to its reference archive.
// *fixture.Store implements it.
type Baselines interface {
	Archive(name string) (*archive.Archive, bool)
}

// Config wires an Engine.
type Config struct {
	Baselines Baselines

	// OutputDir receives actual-output files, one per expected name.
	OutputDir string

	// BinarySuffixes overrides DefaultBinarySuffixes when non-nil. Matching
	// ignores case.
	BinarySuffixes []string

	Logger *slog.Logger
}

// Engine compares generated archives to baselines.
//
// Comparisons against distinct expected names may run concurrently. Two
// comparisons against the same name race on the same actual-output file.
type Engine struct {
	baselines      Baselines
	outputDir      string
	binarySuffixes []string
	logger         *slog.Logger
}

// NewEngine creates an Engine. A nil Logger discards output.
func NewEngine(cfg Config) *Engine {
	suffixes := DefaultBinarySuffixes
	if cfg.BinarySuffixes != nil {
		suffixes = make([]string, len(cfg.BinarySuffixes))
		for i, s := range cfg.BinarySuffixes {
			suffixes[i] = strings.ToLower(s)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		baselines:      cfg.Baselines,
		outputDir:      cfg.OutputDir,
		binarySuffixes: suffixes,
		logger:         logger.With("component", "golden"),
	}
}

// ActualPath returns where the generated archive for expectedName is written.
func (e *Engine) ActualPath(expectedName string) string {
	return filepath.Join(e.outputDir, filepath.FromSlash(expectedName))
}

// CompareToExpected checks generated against the baseline registered as
// expectedName.
//
// Returns *MissingBaselineError when no baseline exists and *DiffFailure on
// the first mismatch; both leave the generated archive at ActualPath. A
// failure to write that file is joined to the returned error, never
// substituted for it.
func (e *Engine) CompareToExpected(generated *archive.Archive, expectedName string, opts xmlnorm.Options) error {
	expected, ok := e.baselines.Archive(expectedName)
	if !ok {
		actualPath := e.ActualPath(expectedName)
		werr := e.writeActual(generated, expectedName)
		e.logger.Warn("expected file does not exist",
			"expected_name", expectedName,
			"actual_path", actualPath,
		)
		return joinWrite(&MissingBaselineError{ExpectedName: expectedName, ActualPath: actualPath}, werr)
	}

	if failure := Compare(generated, expected, expectedName, e.binarySuffixes, opts); failure != nil {
		failure.ActualPath = e.ActualPath(expectedName)
		werr := e.writeActual(generated, expectedName)
		e.logger.Warn("expected file differs from actual file",
			"expected_name", expectedName,
			"path", failure.Path,
			"reason", string(failure.Reason),
			"actual_path", failure.ActualPath,
		)
		return joinWrite(failure, werr)
	}

	return e.removeActual(expectedName)
}

func joinWrite(failure, werr error) error {
	if werr == nil {
		return failure
	}
	return errors.Join(failure, werr)
}

// writeActual serializes generated to ActualPath(expectedName).
func (e *Engine) writeActual(generated *archive.Archive, expectedName string) error {
	data, err := generated.Serialize()
	if err != nil {
		return fmt.Errorf("write actual output: %w", err)
	}
	path := e.ActualPath(expectedName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("write actual output: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write actual output: %w", err)
	}
	return nil
}

// removeActual deletes a stale actual-output file. A missing file is fine.
func (e *Engine) removeActual(expectedName string) error {
	err := os.Remove(e.ActualPath(expectedName))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove stale actual output: %w", err)
}

// Compare returns the first difference between generated and expected, or
// nil when they match. It has no side effects.
func Compare(generated, expected *archive.Archive, expectedName string, binarySuffixes []string, opts xmlnorm.Options) *DiffFailure {
	for _, path := range unionPaths(generated, expected) {
		if f := compareEntry(generated, expected, path, binarySuffixes, opts); f != nil {
			f.ExpectedName = expectedName
			return f
		}
	}
	return nil
}

// unionPaths returns the sorted, deduplicated entry paths of both archives.
func unionPaths(a, b *archive.Archive) []string {
	paths := append(a.Names(), b.Names()...)
	slices.Sort(paths)
	return slices.Compact(paths)
}

func compareEntry(generated, expected *archive.Archive, path string, binarySuffixes []string, opts xmlnorm.Options) *DiffFailure {
	want, ok := expected.Entry(path)
	if !ok {
		return &DiffFailure{Path: path, Reason: ReasonMissingExpected, Side: "expected"}
	}
	got, ok := generated.Entry(path)
	if !ok {
		return &DiffFailure{Path: path, Reason: ReasonMissingActual, Side: "generated"}
	}
	if got.IsDir != want.IsDir {
		return &DiffFailure{Path: path, Reason: ReasonDirFlag}
	}
	if got.IsDir {
		return nil
	}

	if isBinary(path, binarySuffixes) {
		return compareBinary(path, got.Content, want.Content)
	}
	return compareText(path, string(got.Content), string(want.Content), opts)
}

func compareBinary(path string, got, want []byte) *DiffFailure {
	if len(got) != len(want) {
		return &DiffFailure{Path: path, Reason: ReasonBinaryLength, ActualLen: len(got), ExpectedLen: len(want)}
	}
	if string(got) != string(want) {
		return &DiffFailure{Path: path, Reason: ReasonBinaryContent, ActualLen: len(got), ExpectedLen: len(want)}
	}
	return nil
}

func compareText(path, got, want string, opts xmlnorm.Options) *DiffFailure {
	text1 := RemoveSpaces(got)
	text2 := RemoveSpaces(want)

	// Empty namespaces are a generation bug even when both sides agree.
	if emptyNamespace.MatchString(text1) {
		return &DiffFailure{Path: path, Reason: ReasonEmptyNamespace, Side: "generated"}
	}
	if emptyNamespace.MatchString(text2) {
		return &DiffFailure{Path: path, Reason: ReasonEmptyNamespace, Side: "expected"}
	}
	if text1 == text2 {
		return nil
	}

	pText1, err := xmlnorm.Normalize(text1, opts)
	if err != nil {
		return &DiffFailure{Path: path, Reason: ReasonNormalize, Side: "generated", ActualLen: len(text1), ExpectedLen: len(text2), Err: err}
	}
	pText2, err := xmlnorm.Normalize(text2, opts)
	if err != nil {
		return &DiffFailure{Path: path, Reason: ReasonNormalize, Side: "expected", ActualLen: len(text1), ExpectedLen: len(text2), Err: err}
	}
	if pText1 == pText2 {
		return nil
	}

	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(pText2),
		B:        difflib.SplitLines(pText1),
		FromFile: "expected/" + path,
		ToFile:   "generated/" + path,
		Context:  3,
	})
	return &DiffFailure{
		Path:        path,
		Reason:      ReasonContent,
		ActualLen:   len(text1),
		ExpectedLen: len(text2),
		Diff:        diff,
	}
}

// isBinary matches path case-insensitively against lowercase suffixes.
func isBinary(path string, suffixes []string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// RemoveSpaces strips newlines and tabs, the layout whitespace generators
// are free to vary.
func RemoveSpaces(text string) string {
	return strings.NewReplacer("\n", "", "\t", "").Replace(text)
}
