package diagram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superrelativity/relgraph/pkg/classify"
)

const sample = `@startuml
!include <C4/C4_Container>
System_Ext(partner, "Partner Portal", "external ordering")
System(APP-1, "Portal")
Container(API-1, "Orders API", "Go", "order endpoints")
ContainerDb(DATA-1, "Orders DB", "PostgreSQL")
Component(COMP-1, "order-service")

Rel(APP-1, API-1, "calls", "REST")
Rel_D(API-1, COMP-1, "exposes")
Rel_Right(COMP-1, DATA-1, "reads and writes", "SQL")
Rel(partner, APP-1, "uses")
@enduml`

func TestParseRelations(t *testing.T) {
	rels := ParseRelations(sample)
	require.Len(t, rels, 4)
	assert.Equal(t, classify.RawRelationship{From: "APP-1", To: "API-1", Type: "calls", Description: "calls REST"}, rels[0])
	assert.Equal(t, classify.RawRelationship{From: "API-1", To: "COMP-1", Type: "exposes", Description: "exposes"}, rels[1])
	assert.Equal(t, "COMP-1", rels[2].From)
	assert.Equal(t, "reads and writes SQL", rels[2].Description)
	assert.Equal(t, "partner", rels[3].From)
}

func TestParseElements(t *testing.T) {
	els := ParseElements(sample)
	require.Len(t, els, 5)

	assert.Equal(t, Element{Alias: "partner", Name: "Partner Portal", Kind: "System_Ext", Description: "external ordering"}, els[0])
	assert.Equal(t, Element{Alias: "APP-1", Name: "Portal", Kind: "System"}, els[1])
	assert.Equal(t, Element{Alias: "API-1", Name: "Orders API", Kind: "Container", Technology: "Go", Description: "order endpoints"}, els[2])
	assert.Equal(t, Element{Alias: "DATA-1", Name: "Orders DB", Kind: "ContainerDb", Description: "PostgreSQL"}, els[3])
	assert.Equal(t, "Component", els[4].Kind)
}

func TestContentMarkdown(t *testing.T) {
	md := "# Context\n\n```plantuml\n@startuml\nRel(a, b, \"calls\")\n@enduml\n```\n\ntext Rel(x, y, \"ignored\")\n\n@startuml\nRel(c, d, \"uses\")\n@enduml\n"
	rels := ParseRelations(md)
	require.Len(t, rels, 2)
	assert.Equal(t, "a", rels[0].From)
	assert.Equal(t, "c", rels[1].From)
}

func TestParseNoBlocks(t *testing.T) {
	rels := ParseRelations(`Rel(a, b, "calls")`)
	require.Len(t, rels, 1)
	assert.Empty(t, ParseRelations("nothing here"))
}

func TestResolve(t *testing.T) {
	d := Parse(sample)
	rels := d.Resolve(map[string]string{"partner": "APP-9"})
	assert.Equal(t, "APP-9", rels[3].From)
	assert.Equal(t, "APP-1", rels[3].To)
	assert.Equal(t, "partner", d.Relations[3].From, "Resolve must not modify the diagram")
}

func TestClassifyDiagram(t *testing.T) {
	res := classify.NewClassifier(nil, nil, classify.Options{}).ClassifyAll(t.Context(), ParseRelations(sample))
	assert.Equal(t, 4, res.Stats.Total)
	require.NotEmpty(t, res.Accepted)
	assert.Equal(t, classify.Calls, res.Accepted[0].CanonicalType)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.puml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	d, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, d.Elements, 5)
	assert.Len(t, d.Relations, 4)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.puml"))
	assert.Error(t, err)
}

func TestIsDiagramPath(t *testing.T) {
	for path, want := range map[string]bool{
		"a.puml":    true,
		"A.PUML":    true,
		"doc.md":    true,
		"rels.json": false,
		"rels.yaml": false,
	} {
		assert.Equal(t, want, IsDiagramPath(path), path)
	}
}
