package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/docgolden/internal/archive"
	"github.com/roach88/docgolden/internal/canon"
	"github.com/roach88/docgolden/internal/config"
	"github.com/roach88/docgolden/internal/errmatch"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func documentXML(text string) string {
	return `<w:document ` + wordNS + `><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`
}

var (
	textRun     = regexp.MustCompile(`<w:t>([^<]*)</w:t>`)
	placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)
	unopened    = regexp.MustCompile(`([a-z_]*)\}`)
)

// fakeGenerator substitutes {name} placeholders from options["data"] and
// reports a closing brace with no opening one as an unopened tag.
func fakeGenerator() Generator {
	return GeneratorFunc(func(ctx context.Context, template *archive.Archive, options map[string]any) (*archive.Archive, error) {
		text, ok := template.Text(archive.DocumentXMLPath)
		if !ok {
			return nil, &errmatch.StructuredError{
				Name:    errmatch.NameInternal,
				Message: "Missing document",
				Properties: errmatch.Properties{
					ID:          "missing_document",
					Explanation: "The template has no word/document.xml",
				},
			}
		}

		for _, m := range textRun.FindAllStringSubmatch(text, -1) {
			content := m[1]
			closeAt := strings.Index(content, "}")
			openAt := strings.Index(content, "{")
			if closeAt >= 0 && (openAt < 0 || closeAt < openAt) {
				loc := unopened.FindStringSubmatchIndex(content)
				xtag := content[loc[2]:loc[3]]
				return nil, &errmatch.StructuredError{
					Name:    errmatch.NameTemplate,
					Message: "Unopened tag",
					Properties: errmatch.Properties{
						ID:          "unopened_tag",
						Explanation: fmt.Sprintf("The tag beginning with %q is unopened", xtag),
						Offset:      canon.Int(loc[2]),
						Context: canon.Object{
							"xtag":    canon.String(xtag),
							"context": canon.String(xtag + "}"),
							"file":    canon.String(archive.DocumentXMLPath),
						},
					},
				}
			}
		}

		data, _ := options["data"].(map[string]any)
		rendered := placeholder.ReplaceAllStringFunc(text, func(tag string) string {
			return fmt.Sprint(data[tag[1:len(tag)-1]])
		})

		out := template.Clone()
		out.Put(archive.DocumentXMLPath, []byte(rendered))
		return out, nil
	})
}

func writeDocx(t *testing.T, path, xml string) {
	t.Helper()
	raw, err := archive.FromDocumentXML(xml).Serialize()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

// setupExamples lays out a project root with a config file and an examples
// directory, and returns the root and the loaded config.
func setupExamples(t *testing.T) (string, *config.Config) {
	t.Helper()
	root := t.TempDir()
	examples := filepath.Join(root, "examples")

	writeDocx(t, filepath.Join(examples, "tag-example.docx"), documentXML("Hello {first_name}"))
	// Same content, different layout.
	writeDocx(t, filepath.Join(examples, "tag-example-expected.docx"),
		"<w:document "+wordNS+">\n  <w:body>\n    <w:p><w:r><w:t>Hello John</w:t></w:r></w:p>\n  </w:body>\n</w:document>")
	writeDocx(t, filepath.Join(examples, "unopened.docx"), documentXML("foo} bar"))
	require.NoError(t, os.WriteFile(filepath.Join(examples, "image.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(examples, ".DS_Store"), []byte("x"), 0o644))

	cfgPath := filepath.Join(root, config.DefaultFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte("examples_dir: examples\n"), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return root, cfg
}

// loadedHarness indexes and loads the examples of a fresh project.
func loadedHarness(t *testing.T) (string, *Harness) {
	t.Helper()
	root, cfg := setupExamples(t)
	h, err := New(Options{Config: cfg, Generator: fakeGenerator()})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	_, err = h.Index()
	require.NoError(t, err)
	require.NoError(t, h.Load(context.Background()))
	return root, h
}

func johnData() map[string]any {
	return map[string]any{"data": map[string]any{"first_name": "John"}}
}
