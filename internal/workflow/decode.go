package workflow

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a workflow serialization.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat maps a user-supplied format name onto a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks a Format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Decode reads one workflow in format f from r and validates it.
func Decode(r io.Reader, f Format) (*Workflow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading workflow: %w", err)
	}

	var w Workflow
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &w)
	case FormatYAML:
		err = yaml.Unmarshal(data, &w)
	case FormatTOML:
		err = toml.Unmarshal(data, &w)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s workflow: %w", f, err)
	}

	if err := Validate(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadFile decodes the workflow stored at path, choosing the format from
// its extension.
func LoadFile(path string) (*Workflow, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workflow: %w", err)
	}
	defer file.Close()

	w, err := Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Validate checks the invariants the rest of flowlane relies on: the
// workflow and every group are named, and group names are unique.
// Downstream references to unknown groups are allowed; layout reports them
// as diagnostics instead.
func Validate(w *Workflow) error {
	if w.Name == "" {
		return fmt.Errorf("workflow: %w", ErrMissingName)
	}
	seen := make(map[string]bool, len(w.Groups))
	for i, g := range w.Groups {
		if g.Name == "" {
			return fmt.Errorf("workflow %s: group %d: %w", w.Name, i, ErrMissingName)
		}
		if seen[g.Name] {
			return fmt.Errorf("workflow %s: %w: %s", w.Name, ErrDuplicateGroup, g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}
