// Package harness is the test-facing facade over fixture loading, archive
// comparison and error matching for a document generator.
//
// One Harness serves one test run. It owns the fixture store, the loader
// that fills it, and the diff engine that compares generated archives to
// the baselines in that store.
//
// # Usage
//
// Index the examples directory once, then load fixtures and compare:
//
//	h, err := harness.New(harness.Options{Config: cfg, Generator: gen})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	if _, err := h.Index(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := h.Load(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := h.Render(ctx, "tag-example.docx", map[string]any{"first_name": "John"})
//	...
//	err = h.ShouldBeSame(out, "tag-example-expected.docx")
//
// # Suites
//
// Render cases can also be described in YAML and run in bulk:
//
//	name: loops
//	description: "Loop expansion"
//	cases:
//	  - name: simple loop
//	    input: tag-loop-example.docx
//	    data: { users: [{ name: John }, { name: Mary }] }
//	    expect: tag-loop-expected.docx
//	  - name: unopened tag
//	    input: unopened.docx
//	    error:
//	      name: TemplateError
//	      message: Unopened tag
//	      properties: { id: unopened_tag, xtag: foo, offset: 5 }
//
// A case either expects an output baseline or an error shape, never both.
//
// # Golden snapshots
//
// AssertErrorGolden and AssertDocumentGolden store normalized forms under
// testdata/golden. Regenerate them with:
//
//	go test ./... -update
package harness
