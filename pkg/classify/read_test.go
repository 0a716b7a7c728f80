package classify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRelationships(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
		want   int
	}{
		{"json list", FormatJSON, `[{"from":"APP-1","to":"API-2","type":"calls"}]`, 1},
		{"json envelope", FormatJSON, `{"data":[{"from":"A","to":"B"},{"from":"C","to":"D"}],"count":2}`, 2},
		{"yaml list", FormatYAML, "- from: APP-1\n  to: API-2\n  type: calls\n", 1},
		{"yaml envelope", FormatYAML, "data:\n  - from: A\n    to: B\ncount: 1\n", 1},
		{"empty", FormatJSON, "  \n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rels, err := ReadRelationships(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)
			assert.Len(t, rels, tt.want)
		})
	}
}

func TestReadRelationshipsFields(t *testing.T) {
	input := "- from: APP-1\n  to: API-2\n  type: calls\n  description: Portal calls API\n"
	rels, err := ReadRelationships(strings.NewReader(input), FormatYAML)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, RawRelationship{From: "APP-1", To: "API-2", Type: "calls", Description: "Portal calls API"}, rels[0])
}

func TestReadRelationshipsErrors(t *testing.T) {
	_, err := ReadRelationships(strings.NewReader(`{"data":`), FormatJSON)
	assert.Error(t, err)

	_, err = ReadRelationships(strings.NewReader(`[]`), "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestReadRelationshipsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rels.yml")
	require.NoError(t, os.WriteFile(path, []byte("- {from: COMP-1, to: SRV-1, type: deployed}\n"), 0o644))

	rels, err := ReadRelationshipsFile(path)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "SRV-1", rels[0].To)

	_, err = ReadRelationshipsFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("A.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("a.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("noext"))
}
