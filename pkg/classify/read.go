package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input formats accepted by ReadRelationships.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// envelope is the list shape served by the source API: {data, count}.
type envelope struct {
	Data []RawRelationship `json:"data" yaml:"data"`
}

// ReadRelationships decodes raw relationships in the given format. Both a
// bare list and a {"data": [...]} envelope are accepted.
func ReadRelationships(r io.Reader, format string) ([]RawRelationship, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch format {
	case FormatJSON:
		if data[0] == '[' {
			var rels []RawRelationship
			if err := json.Unmarshal(data, &rels); err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
			return rels, nil
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return env.Data, nil
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var rels []RawRelationship
			if err := node.Decode(&rels); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
			return rels, nil
		}
		var env envelope
		if err := node.Decode(&env); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return env.Data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ReadRelationshipsFile reads a JSON or YAML file, picking the format from
// the extension.
func ReadRelationshipsFile(path string) ([]RawRelationship, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRelationships(f, FormatFromPath(path))
}

// FormatFromPath returns FormatYAML for .yaml/.yml files and FormatJSON
// otherwise.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
