package syntax

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Format selects a tree serialization.
type Format string

// Supported tree formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Codec errors.
var (
	ErrUnknownFormat = errors.New("unknown tree format")
	ErrInvalidTree   = errors.New("tree does not match schema")
)

//go:embed schema.json
var treeSchema []byte

//nolint:gochecknoglobals // Compiled once; gojsonschema schemas are safe for concurrent use.
var schemaLoader = gojsonschema.NewBytesLoader(treeSchema)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// Encode writes the tree rooted at root.
func Encode(writer io.Writer, root *Node, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(writer)
		enc.SetIndent("", "  ")

		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("encode json tree: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(writer)
		enc.SetIndent(2) //nolint:mnd // conventional YAML indent

		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("encode yaml tree: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("close yaml encoder: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return nil
}

// Decode reads a tree and restores parent links. JSON input is validated
// against the embedded schema first.
func Decode(reader io.Reader, format Format) (*Node, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}

	root := &Node{}

	switch format {
	case FormatJSON:
		if err := Validate(data); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(data, root); err != nil {
			return nil, fmt.Errorf("decode json tree: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, root); err != nil {
			return nil, fmt.Errorf("decode yaml tree: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	root.Relink()

	return root, nil
}

// Validate checks JSON tree data against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate tree: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidTree, strings.Join(problems, "; "))
}

// Marshal encodes root as compact JSON.
func Marshal(root *Node) ([]byte, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}

	return data, nil
}

// Unmarshal decodes JSON produced by Marshal and restores parent links.
// Unlike Decode it skips schema validation and is meant for trusted data.
func Unmarshal(data []byte) (*Node, error) {
	root := &Node{}

	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}

	root.Relink()

	return root, nil
}
