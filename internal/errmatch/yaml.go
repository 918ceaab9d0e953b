package errmatch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docgolden/internal/canon"
)

// UnmarshalYAML decodes properties, routing known keys to named fields and
// everything else into Context.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}

	*p = Properties{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if err := p.decodeField(key, val); err != nil {
			return fmt.Errorf("line %d: properties.%s: %w", val.Line, key, err)
		}
	}
	return nil
}

func (p *Properties) decodeField(key string, val *yaml.Node) error {
	switch key {
	case "id":
		return val.Decode(&p.ID)
	case "explanation":
		return val.Decode(&p.Explanation)
	case "offset":
		v, err := decodeValue(val)
		if err != nil {
			return err
		}
		p.Offset = v
	case "rootError":
		var root struct {
			Message string `yaml:"message"`
		}
		if err := val.Decode(&root); err != nil {
			return err
		}
		p.RootError = &RootCause{Message: root.Message}
	case "errors":
		errs := []*StructuredError{}
		if err := val.Decode(&errs); err != nil {
			return err
		}
		p.Errors = errs
	case "paragraphParts":
		v, err := decodeValue(val)
		if err != nil {
			return err
		}
		arr, ok := v.(canon.Array)
		if !ok {
			return fmt.Errorf("must be a sequence")
		}
		p.ParagraphParts = []canon.Value(arr)
	case "postparsed":
		v, err := decodeValue(val)
		if err != nil {
			return err
		}
		arr, ok := v.(canon.Array)
		if !ok {
			return fmt.Errorf("must be a sequence")
		}
		p.Postparsed = make([]canon.Object, len(arr))
		for i, item := range arr {
			obj, ok := item.(canon.Object)
			if !ok {
				return fmt.Errorf("[%d] must be a mapping", i)
			}
			p.Postparsed[i] = obj
		}
	case "paragraphPartsLength":
		var n int
		if err := val.Decode(&n); err != nil {
			return err
		}
		p.ParagraphPartsLength = &n
	case "postparsedLength":
		var n int
		if err := val.Decode(&n); err != nil {
			return err
		}
		p.PostparsedLength = &n
	default:
		v, err := decodeValue(val)
		if err != nil {
			return err
		}
		if p.Context == nil {
			p.Context = canon.Object{}
		}
		p.Context[key] = v
	}
	return nil
}

func decodeValue(node *yaml.Node) (canon.Value, error) {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	return canon.FromAny(raw)
}

// LoadFile reads one StructuredError from a YAML file.
func LoadFile(path string) (*StructuredError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error shape: %w", err)
	}
	return Parse(data)
}

// Parse decodes one StructuredError from YAML.
func Parse(data []byte) (*StructuredError, error) {
	var se StructuredError
	if err := yaml.Unmarshal(data, &se); err != nil {
		return nil, fmt.Errorf("parse error shape: %w", err)
	}
	return &se, nil
}
