package fixture

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/docgolden/internal/archive"
)

// Kind classifies a fixture.
type Kind int

const (
	// KindAsset is an opaque file kept as raw bytes (images, fonts, ...).
	KindAsset Kind = iota
	// KindDocument is an archive parsed into an *archive.Archive.
	KindDocument
)

func (k Kind) String() string {
	if k == KindDocument {
		return "document"
	}
	return "asset"
}

// DefaultDocumentSuffixes are the file extensions parsed as archives.
var DefaultDocumentSuffixes = []string{".docx", ".pptx"}

// Classifier maps a fixture name to its Kind by suffix.
type Classifier struct {
	DocumentSuffixes []string
}

// Classify returns the kind for name. ok is false for hidden names, which
// must be skipped entirely.
func (c Classifier) Classify(name string) (kind Kind, ok bool) {
	if strings.HasPrefix(name, HiddenPrefix) {
		return KindAsset, false
	}
	suffixes := c.DocumentSuffixes
	if suffixes == nil {
		suffixes = DefaultDocumentSuffixes
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return KindDocument, true
		}
	}
	return KindAsset, true
}

// Document is a loaded document fixture. It owns both the parsed archive
// and the bytes it was parsed from.
type Document struct {
	Name    string
	Archive *archive.Archive
	Raw     []byte
}

// Store holds the fixtures of one run, keyed by name.
// It is written by a Loader and read-only afterwards.
//
// Thread-safety: all methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	assets map[string][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		docs:   make(map[string]*Document),
		assets: make(map[string][]byte),
	}
}

// PutDocument parses raw as an archive and stores it under name.
func (s *Store) PutDocument(name string, raw []byte) (*Document, error) {
	a, err := parseDocument(name, raw)
	if err != nil {
		return nil, err
	}
	return s.PutArchive(name, a, raw), nil
}

func parseDocument(name string, raw []byte) (*archive.Archive, error) {
	a, err := archive.Open(raw)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", name, err)
	}
	return a, nil
}

// PutArchive stores an already-parsed archive. raw may be nil for archives
// built in memory; OpenDocument then serializes on demand.
func (s *Store) PutArchive(name string, a *archive.Archive, raw []byte) *Document {
	doc := &Document{Name: name, Archive: a, Raw: raw}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, name)
	s.docs[name] = doc
	return doc
}

// PutAsset stores raw bytes under name.
func (s *Store) PutAsset(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
	s.assets[name] = data
}

// Document returns the document fixture stored under name.
func (s *Store) Document(name string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	return doc, ok
}

// Archive returns the parsed archive of a document fixture.
func (s *Store) Archive(name string) (*archive.Archive, bool) {
	doc, ok := s.Document(name)
	if !ok {
		return nil, false
	}
	return doc.Archive, true
}

// Asset returns the raw bytes of an asset fixture.
func (s *Store) Asset(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.assets[name]
	return data, ok
}

// OpenDocument returns a fresh archive for a document fixture, independent
// of the stored one, so callers may mutate it.
func (s *Store) OpenDocument(name string) (*archive.Archive, error) {
	doc, ok := s.Document(name)
	if !ok {
		return nil, fmt.Errorf("no document fixture named %q", name)
	}
	if doc.Raw == nil {
		return doc.Archive.Clone(), nil
	}
	return archive.Open(doc.Raw)
}

// Names returns every stored fixture name, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs)+len(s.assets))
	for name := range s.docs {
		names = append(names, name)
	}
	for name := range s.assets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Counts returns the number of documents and assets.
func (s *Store) Counts() (documents, assets int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), len(s.assets)
}

// Reset removes every fixture.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Document)
	s.assets = make(map[string][]byte)
}
