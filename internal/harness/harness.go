package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/roach88/docgolden/internal/archive"
	"github.com/roach88/docgolden/internal/config"
	"github.com/roach88/docgolden/internal/errmatch"
	"github.com/roach88/docgolden/internal/fixture"
	"github.com/roach88/docgolden/internal/golden"
	"github.com/roach88/docgolden/internal/store"
)

// ErrNoGenerator is returned by Render when the harness has no Generator.
var ErrNoGenerator = errors.New("no generator configured")

// Generator produces an output archive from a template archive.
//
// Options are passed through untouched; the harness never interprets them.
// Generation failures should be, or wrap, *errmatch.StructuredError so that
// ExpectToThrow can match them.
type Generator interface {
	Generate(ctx context.Context, template *archive.Archive, options map[string]any) (*archive.Archive, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, template *archive.Archive, options map[string]any) (*archive.Archive, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, template *archive.Archive, options map[string]any) (*archive.Archive, error) {
	return f(ctx, template, options)
}

// Options wires a Harness.
type Options struct {
	// Config supplies paths, suffixes and XML options. nil means
	// config.Default().
	Config *config.Config

	// Lister and Source override the fixture transport derived from Config.
	Lister fixture.Lister
	Source fixture.Source

	// HTTPClient is used when Config selects a remote base URL.
	HTTPClient *http.Client

	Generator Generator
	Logger    *slog.Logger
}

// Harness owns one test run's fixture store, loader and diff engine.
type Harness struct {
	cfg       *config.Config
	store     *fixture.Store
	loader    *fixture.Loader
	engine    *golden.Engine
	generator Generator
	bundle    *store.Store
	logger    *slog.Logger
}

// New creates a Harness.
//
// Fixture transport follows Config: a bundle path selects the SQLite
// bundle for both listing and fetching, a remote base URL selects HTTP
// fetches over the manifest, and otherwise fixtures are read from the
// examples directory.
func New(opts Options) (*Harness, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Harness{
		cfg:       cfg,
		store:     fixture.NewStore(),
		generator: opts.Generator,
		logger:    logger.With("component", "harness"),
	}

	lister, source := opts.Lister, opts.Source
	if lister == nil || source == nil {
		defLister, defSource, err := h.transport(opts.HTTPClient, logger)
		if err != nil {
			return nil, err
		}
		if lister == nil {
			lister = defLister
		}
		if source == nil {
			source = defSource
		}
	}

	h.loader = fixture.NewLoader(fixture.LoaderConfig{
		Lister:     lister,
		Source:     source,
		Store:      h.store,
		Classifier: cfg.Classifier(),
		Logger:     logger,
	})
	h.engine = golden.NewEngine(golden.Config{
		Baselines:      h.store,
		OutputDir:      cfg.OutputDir,
		BinarySuffixes: cfg.BinarySuffixes,
		Logger:         logger,
	})
	return h, nil
}

func (h *Harness) transport(client *http.Client, logger *slog.Logger) (fixture.Lister, fixture.Source, error) {
	switch {
	case h.cfg.BundlePath != "":
		b, err := store.OpenReadOnly(h.cfg.BundlePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open fixture bundle: %w", err)
		}
		b.SetLogger(logger)
		h.bundle = b
		h.logger.Debug("using fixture bundle", "path", h.cfg.BundlePath)
		return b, b, nil
	case h.cfg.RemoteBaseURL != "":
		h.logger.Debug("using remote fixtures", "base_url", h.cfg.RemoteBaseURL)
		return fixture.ManifestFile(h.cfg.ManifestPath),
			fixture.HTTPSource{BaseURL: h.cfg.RemoteBaseURL, Client: client}, nil
	default:
		return fixture.ManifestFile(h.cfg.ManifestPath),
			fixture.DirSource{Root: h.cfg.ExamplesDir}, nil
	}
}

// Close releases the fixture bundle, if one is open.
func (h *Harness) Close() error {
	if h.bundle == nil {
		return nil
	}
	return h.bundle.Close()
}

// Config returns the configuration in effect.
func (h *Harness) Config() *config.Config {
	return h.cfg
}

// Store returns the fixture store.
func (h *Harness) Store() *fixture.Store {
	return h.store
}

// Engine returns the diff engine.
func (h *Harness) Engine() *golden.Engine {
	return h.engine
}

// Index walks the examples directory and writes the manifest the loader
// reads. It returns the indexed names.
func (h *Harness) Index() ([]string, error) {
	names, err := fixture.Index(h.cfg.ExamplesDir, h.cfg.ManifestPath, h.cfg.WalkOptions())
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", h.cfg.ExamplesDir, err)
	}
	h.logger.Info("examples indexed", "dir", h.cfg.ExamplesDir, "fixtures", len(names))
	return names, nil
}

// Start begins loading fixtures and returns immediately. done receives nil
// once every fixture is in the store, or the first load error.
func (h *Harness) Start(ctx context.Context, done func(error)) error {
	h.loader.SetCompletionCallback(done)
	return h.loader.Start(ctx)
}

// Load loads every fixture and blocks until the store is complete.
func (h *Harness) Load(ctx context.Context) error {
	return h.loader.Load(ctx)
}

// RunID identifies the most recent load in logs.
func (h *Harness) RunID() string {
	return h.loader.RunID()
}

// ShouldBeSame compares generated to the baseline named expectedName.
//
// On mismatch or a missing baseline the generated archive is written next to
// the examples directory and the failure is returned; on success any stale
// actual output is removed.
func (h *Harness) ShouldBeSame(generated *archive.Archive, expectedName string) error {
	return h.engine.CompareToExpected(generated, expectedName, h.cfg.XMLOptions())
}

// ExpectToThrow runs fn and matches the error it returns against expected.
func (h *Harness) ExpectToThrow(fn func() error, expected *errmatch.StructuredError) error {
	return errmatch.AssertThrows(fn, expected)
}

// ExpectToThrowFile is ExpectToThrow with the expected shape read from a
// YAML file.
func (h *Harness) ExpectToThrowFile(fn func() error, path string) error {
	expected, err := errmatch.LoadFile(path)
	if err != nil {
		return err
	}
	return errmatch.AssertThrows(fn, expected)
}

// CreateDoc returns a fresh archive of the named document fixture that the
// caller may mutate freely.
func (h *Harness) CreateDoc(name string) (*archive.Archive, error) {
	return h.store.OpenDocument(name)
}

// MakeDocx builds a minimal document from a word/document.xml body and
// registers it under name. The returned archive is the caller's own copy.
func (h *Harness) MakeDocx(name, documentXML string) (*archive.Archive, error) {
	a := archive.FromDocumentXML(documentXML)
	raw, err := a.Serialize()
	if err != nil {
		return nil, fmt.Errorf("make %s: %w", name, err)
	}
	h.store.PutArchive(name, a.Clone(), raw)
	return a, nil
}

// Render opens the named template and passes it to the Generator.
func (h *Harness) Render(ctx context.Context, templateName string, options map[string]any) (*archive.Archive, error) {
	if h.generator == nil {
		return nil, ErrNoGenerator
	}
	template, err := h.CreateDoc(templateName)
	if err != nil {
		return nil, err
	}
	return h.generator.Generate(ctx, template, options)
}

// RenderAndCompare renders templateName and compares the output with
// expectedName.
func (h *Harness) RenderAndCompare(ctx context.Context, templateName string, options map[string]any, expectedName string) error {
	out, err := h.Render(ctx, templateName, options)
	if err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}
	return h.ShouldBeSame(out, expectedName)
}
