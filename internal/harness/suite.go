package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docgolden/internal/errmatch"
)

// Suite is a named list of render cases.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	// Description explains what this suite covers.
	Description string `yaml:"description"`

	Cases []Case `yaml:"cases"`
}

// Case renders one template and checks the outcome.
type Case struct {
	Name string `yaml:"name"`

	// Input is the template fixture name.
	Input string `yaml:"input"`

	// Options are passed to the generator untouched.
	Options map[string]any `yaml:"options,omitempty"`

	// Data is merged into Options under the "data" key.
	Data map[string]any `yaml:"data,omitempty"`

	// Expect names the baseline the output must match.
	Expect string `yaml:"expect,omitempty"`

	// Error is the expected error shape, inline.
	Error *errmatch.StructuredError `yaml:"error,omitempty"`

	// ErrorFile is the expected error shape, as a YAML file path relative
	// to the suite file.
	ErrorFile string `yaml:"error_file,omitempty"`
}

// generatorOptions returns the options handed to the generator.
func (c *Case) generatorOptions() map[string]any {
	opts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		opts[k] = v
	}
	if c.Data != nil {
		opts["data"] = c.Data
	}
	return opts
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return ParseSuite(data, filepath.Dir(path))
}

// ParseSuite parses suite YAML, resolving error_file paths against baseDir.
func ParseSuite(data []byte, baseDir string) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.ErrorFile != "" && !filepath.IsAbs(c.ErrorFile) && baseDir != "" {
			c.ErrorFile = filepath.Join(baseDir, c.ErrorFile)
		}
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Input == "" {
			return fmt.Errorf("cases[%d]: input is required", i)
		}

		outcomes := 0
		for _, set := range []bool{c.Expect != "", c.Error != nil, c.ErrorFile != ""} {
			if set {
				outcomes++
			}
		}
		if outcomes != 1 {
			return fmt.Errorf("cases[%d]: exactly one of expect, error, error_file is required", i)
		}

		if c.ErrorFile != "" {
			if _, err := os.Stat(c.ErrorFile); os.IsNotExist(err) {
				return fmt.Errorf("cases[%d]: error file not found: %s", i, c.ErrorFile)
			}
		}
	}
	return nil
}
