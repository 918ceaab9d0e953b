package harness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgolden/internal/archive"
	"github.com/roach88/docgolden/internal/canon"
	"github.com/roach88/docgolden/internal/config"
	"github.com/roach88/docgolden/internal/errmatch"
	"github.com/roach88/docgolden/internal/fixture"
	"github.com/roach88/docgolden/internal/golden"
	"github.com/roach88/docgolden/internal/store"
)

func expectedUnopened() *errmatch.StructuredError {
	return &errmatch.StructuredError{
		Name:    errmatch.NameTemplate,
		Message: "Unopened tag",
		Properties: errmatch.Properties{
			ID:     "unopened_tag",
			Offset: canon.Int(0),
			Context: canon.Object{
				"xtag":    canon.String("foo"),
				"context": canon.String("foo}"),
				"file":    canon.String("word/document.xml"),
			},
		},
	}
}

func TestHarness_Index(t *testing.T) {
	root, cfg := setupExamples(t)
	h, err := New(Options{Config: cfg})
	require.NoError(t, err)

	names, err := h.Index()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"image.png",
		"tag-example-expected.docx",
		"tag-example.docx",
		"unopened.docx",
	}, names)

	onDisk, err := fixture.ReadManifest(filepath.Join(root, "fixtures.json"))
	require.NoError(t, err)
	assert.Equal(t, names, onDisk)
}

func TestHarness_Load(t *testing.T) {
	_, h := loadedHarness(t)

	docs, assets := h.Store().Counts()
	assert.Equal(t, 3, docs)
	assert.Equal(t, 1, assets)
	assert.NotEmpty(t, h.RunID())

	png, ok := h.Store().Asset("image.png")
	require.True(t, ok)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png)
}

func TestHarness_RenderAndCompare(t *testing.T) {
	root, h := loadedHarness(t)
	ctx := context.Background()
	actualPath := filepath.Join(root, "tag-example-expected.docx")

	err := h.RenderAndCompare(ctx, "tag-example.docx", map[string]any{
		"data": map[string]any{"first_name": "Jane"},
	}, "tag-example-expected.docx")
	require.ErrorIs(t, err, golden.ErrDiff)
	assert.FileExists(t, actualPath)

	var failure *golden.DiffFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "word/document.xml", failure.Path)
	assert.Contains(t, failure.Diff, "+          Hello Jane")

	// A passing comparison removes the stale actual output.
	require.NoError(t, h.RenderAndCompare(ctx, "tag-example.docx", johnData(), "tag-example-expected.docx"))
	assert.NoFileExists(t, actualPath)
}

func TestHarness_MissingBaseline(t *testing.T) {
	root, h := loadedHarness(t)

	out, err := h.Render(context.Background(), "tag-example.docx", johnData())
	require.NoError(t, err)

	err = h.ShouldBeSame(out, "new-baseline.docx")
	require.ErrorIs(t, err, golden.ErrMissingBaseline)

	written, err := os.ReadFile(filepath.Join(root, "new-baseline.docx"))
	require.NoError(t, err)
	reopened, err := archive.Open(written)
	require.NoError(t, err)
	text, _ := reopened.Text(archive.DocumentXMLPath)
	assert.Contains(t, text, "Hello John")
}

func TestHarness_RenderUnknownTemplate(t *testing.T) {
	_, h := loadedHarness(t)
	_, err := h.Render(context.Background(), "absent.docx", nil)
	assert.ErrorContains(t, err, `no document fixture named "absent.docx"`)
}

func TestHarness_RenderWithoutGenerator(t *testing.T) {
	_, cfg := setupExamples(t)
	h, err := New(Options{Config: cfg})
	require.NoError(t, err)

	_, err = h.Render(context.Background(), "tag-example.docx", nil)
	assert.ErrorIs(t, err, ErrNoGenerator)
}

func TestHarness_ExpectToThrow(t *testing.T) {
	_, h := loadedHarness(t)
	ctx := context.Background()

	render := func() error {
		_, err := h.Render(ctx, "unopened.docx", nil)
		return err
	}
	assert.NoError(t, h.ExpectToThrow(render, expectedUnopened()))

	wrong := expectedUnopened()
	wrong.Properties.Offset = canon.Int(3)
	assert.ErrorIs(t, h.ExpectToThrow(render, wrong), errmatch.ErrAssertion)

	ok := func() error {
		_, err := h.Render(ctx, "tag-example.docx", johnData())
		return err
	}
	err := h.ExpectToThrow(ok, expectedUnopened())
	var failure *errmatch.AssertionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "thrown", failure.Check)
}

func TestHarness_ExpectToThrowFile(t *testing.T) {
	_, h := loadedHarness(t)
	path := filepath.Join(t.TempDir(), "unopened.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: TemplateError
message: Unopened tag
properties:
  id: unopened_tag
  xtag: foo
  context: "foo}"
  file: word/document.xml
  offset: 0
`), 0o644))

	err := h.ExpectToThrowFile(func() error {
		_, err := h.Render(context.Background(), "unopened.docx", nil)
		return err
	}, path)
	assert.NoError(t, err)

	err = h.ExpectToThrowFile(func() error { return nil }, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHarness_CreateDocIsIndependent(t *testing.T) {
	_, h := loadedHarness(t)

	first, err := h.CreateDoc("tag-example.docx")
	require.NoError(t, err)
	first.Put(archive.DocumentXMLPath, []byte("<changed/>"))

	second, err := h.CreateDoc("tag-example.docx")
	require.NoError(t, err)
	text, _ := second.Text(archive.DocumentXMLPath)
	assert.Contains(t, text, "Hello {first_name}")
}

func TestHarness_MakeDocx(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	h, err := New(Options{Config: cfg, Lister: fixture.StaticNames{}, Source: fixture.DirSource{}})
	require.NoError(t, err)

	made, err := h.MakeDocx("made.docx", documentXML("Hi"))
	require.NoError(t, err)
	assert.NoError(t, h.ShouldBeSame(made, "made.docx"))

	// Mutating the returned archive leaves the stored baseline alone.
	made.Put(archive.DocumentXMLPath, []byte(documentXML("Bye")))
	assert.ErrorIs(t, h.ShouldBeSame(made, "made.docx"), golden.ErrDiff)
}

func TestHarness_StartCallback(t *testing.T) {
	_, cfg := setupExamples(t)
	h, err := New(Options{Config: cfg})
	require.NoError(t, err)
	_, err = h.Index()
	require.NoError(t, err)

	done := make(chan error, 1)
	require.NoError(t, h.Start(context.Background(), func(err error) { done <- err }))
	require.NoError(t, <-done)

	_, ok := h.Store().Archive("unopened.docx")
	assert.True(t, ok)
}

func TestHarness_MissingManifest(t *testing.T) {
	_, cfg := setupExamples(t)
	h, err := New(Options{Config: cfg})
	require.NoError(t, err)

	err = h.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHarness_BundleTransport(t *testing.T) {
	ctx := context.Background()
	root, cfg := setupExamples(t)

	names, err := fixture.Index(cfg.ExamplesDir, cfg.ManifestPath, cfg.WalkOptions())
	require.NoError(t, err)

	bundlePath := filepath.Join(root, "fixtures.db")
	b, err := store.Open(bundlePath)
	require.NoError(t, err)
	_, err = b.Pack(ctx, cfg.ExamplesDir, names)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	// The bundle is self-contained.
	require.NoError(t, os.RemoveAll(cfg.ExamplesDir))
	cfg.BundlePath = bundlePath

	h, err := New(Options{Config: cfg, Generator: fakeGenerator()})
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Load(ctx))
	assert.NoError(t, h.RenderAndCompare(ctx, "tag-example.docx", johnData(), "tag-example-expected.docx"))
}

func TestHarness_RemoteTransport(t *testing.T) {
	ctx := context.Background()
	_, cfg := setupExamples(t)

	srv := httptest.NewServer(http.FileServer(http.Dir(cfg.ExamplesDir)))
	defer srv.Close()
	cfg.RemoteBaseURL = srv.URL + "/"

	h, err := New(Options{Config: cfg, Generator: fakeGenerator(), HTTPClient: srv.Client()})
	require.NoError(t, err)
	_, err = h.Index()
	require.NoError(t, err)

	require.NoError(t, h.Load(ctx))
	docs, assets := h.Store().Counts()
	assert.Equal(t, 3, docs)
	assert.Equal(t, 1, assets)
	assert.NoError(t, h.RenderAndCompare(ctx, "tag-example.docx", johnData(), "tag-example-expected.docx"))
}

func TestHarness_BadBundlePath(t *testing.T) {
	cfg := config.Default()
	cfg.BundlePath = "/nonexistent/dir/fixtures.db"
	_, err := New(Options{Config: cfg})
	assert.ErrorContains(t, err, "open fixture bundle")
}
