// Package archive is the container collaborator used by the harness: a thin,
// ordered view over zip archives that exposes entry names, directory flags,
// and raw entry bytes.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
)

// DocumentXMLPath is the main part of a word-processing document.
const DocumentXMLPath = "word/document.xml"

// Entry is one named item inside an archive.
type Entry struct {
	Name    string
	IsDir   bool
	Content []byte
}

// Archive is an ordered mapping from entry path to entry.
// Insertion order is preserved so Serialize is reproducible.
type Archive struct {
	order   []string
	entries map[string]*Entry
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{entries: make(map[string]*Entry)}
}

// Open parses zip bytes into an Archive.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := New()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			a.PutDir(f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %q: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %q: %w", f.Name, err)
		}
		a.Put(f.Name, content)
	}
	return a, nil
}

// FromDocumentXML builds a minimal document archive whose only part is
// word/document.xml. Parent directories are created as directory entries.
func FromDocumentXML(content string) *Archive {
	a := New()
	a.PutDir("word/")
	a.Put(DocumentXMLPath, []byte(content))
	return a
}

// Put adds or replaces a file entry.
func (a *Archive) Put(name string, content []byte) {
	a.put(&Entry{Name: name, Content: content})
}

// PutDir adds a directory entry. A trailing slash is added if missing.
func (a *Archive) PutDir(name string) {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	a.put(&Entry{Name: name, IsDir: true})
}

func (a *Archive) put(e *Entry) {
	if _, ok := a.entries[e.Name]; !ok {
		a.order = append(a.order, e.Name)
	}
	a.entries[e.Name] = e
}

// Entry returns the entry stored under name.
func (a *Archive) Entry(name string) (*Entry, bool) {
	e, ok := a.entries[name]
	return e, ok
}

// Text returns the content of a file entry as a string.
func (a *Archive) Text(name string) (string, bool) {
	e, ok := a.entries[name]
	if !ok || e.IsDir {
		return "", false
	}
	return string(e.Content), true
}

// Names returns entry paths in insertion order.
func (a *Archive) Names() []string {
	return slices.Clone(a.order)
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.order)
}

// Clone returns a deep copy that shares no byte slices with a.
func (a *Archive) Clone() *Archive {
	out := New()
	for _, name := range a.order {
		e := a.entries[name]
		out.put(&Entry{Name: e.Name, IsDir: e.IsDir, Content: slices.Clone(e.Content)})
	}
	return out
}

// Serialize writes the archive as a zip with DEFLATE compression.
// Directory entries are stored uncompressed with no content.
func (a *Archive) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range a.order {
		e := a.entries[name]
		method := zip.Deflate
		if e.IsDir {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			return nil, fmt.Errorf("serialize entry %q: %w", e.Name, err)
		}
		if e.IsDir {
			continue
		}
		if _, err := w.Write(e.Content); err != nil {
			return nil, fmt.Errorf("serialize entry %q: %w", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("serialize archive: %w", err)
	}
	return buf.Bytes(), nil
}
