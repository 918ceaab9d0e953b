// Package config loads the harness configuration file.
//
// The file is YAML. It is validated against an embedded CUE schema before
// being decoded, so unknown keys and malformed values are rejected with a
// position. Defaults fill whatever the file leaves out.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/docgolden/internal/fixture"
	"github.com/roach88/docgolden/internal/golden"
	"github.com/roach88/docgolden/internal/xmlnorm"
)

//go:embed schema.cue
var schemaSource string

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "docgolden.yaml"

// DefaultExamplesDir is used when the file does not name one.
const DefaultExamplesDir = "examples"

// Config is the harness configuration.
type Config struct {
	// ExamplesDir holds the fixture tree.
	ExamplesDir string `yaml:"examples_dir"`

	// ManifestPath is where Index writes the fixture name list.
	// Defaults to fixtures.json next to ExamplesDir, so the manifest is
	// never indexed itself.
	ManifestPath string `yaml:"manifest_path"`

	// OutputDir receives actual outputs. Defaults to the parent of
	// ExamplesDir.
	OutputDir string `yaml:"output_dir"`

	DocumentSuffixes []string `yaml:"document_suffixes"`
	BinarySuffixes   []string `yaml:"binary_suffixes"`
	Exclude          []string `yaml:"exclude"`

	// RemoteBaseURL switches fixture loading to HTTP when set.
	RemoteBaseURL string `yaml:"remote_base_url"`

	// BundlePath switches fixture loading to a SQLite bundle when set.
	BundlePath string `yaml:"bundle_path"`

	XML XMLConfig `yaml:"xml"`
}

// XMLConfig controls XML normalization.
type XMLConfig struct {
	Indent string `yaml:"indent"`

	// SortAttributes defaults to true. nil means unset.
	SortAttributes *bool `yaml:"sort_attributes"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the config file at path. Relative directories in
// the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse validates and decodes YAML config data, then applies defaults.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if raw != nil {
		if err := validate(raw); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// validate unifies the decoded document with the #Config definition.
func validate(raw any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ExamplesDir == "" {
		c.ExamplesDir = DefaultExamplesDir
	}
	parent := filepath.Dir(filepath.Clean(c.ExamplesDir))
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(parent, fixture.DefaultManifestName)
	}
	if c.OutputDir == "" {
		c.OutputDir = parent
	}
	if c.DocumentSuffixes == nil {
		c.DocumentSuffixes = slices.Clone(fixture.DefaultDocumentSuffixes)
	}
	if c.BinarySuffixes == nil {
		c.BinarySuffixes = slices.Clone(golden.DefaultBinarySuffixes)
	}
	if c.XML.Indent == "" {
		c.XML.Indent = xmlnorm.DefaultIndent
	}
	if c.XML.SortAttributes == nil {
		sorted := true
		c.XML.SortAttributes = &sorted
	}
}

// resolve makes relative paths relative to base.
func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.ExamplesDir, &c.ManifestPath, &c.OutputDir, &c.BundlePath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// XMLOptions converts the xml section for the normalizer.
func (c *Config) XMLOptions() xmlnorm.Options {
	return xmlnorm.Options{
		Indent:             c.XML.Indent,
		KeepAttributeOrder: c.XML.SortAttributes != nil && !*c.XML.SortAttributes,
	}
}

// Classifier returns the fixture classifier for the configured suffixes.
func (c *Config) Classifier() fixture.Classifier {
	return fixture.Classifier{DocumentSuffixes: c.DocumentSuffixes}
}

// WalkOptions returns the walker options for the configured excludes.
func (c *Config) WalkOptions() fixture.WalkOptions {
	return fixture.WalkOptions{Exclude: c.Exclude}
}
