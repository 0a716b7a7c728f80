package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/superrelativity/relgraph/pkg/graph"
)

func testLayout() graph.Layout {
	return graph.Layout{
		Nodes: []graph.LayoutNode{
			{Node: graph.Node{ID: "APP-1", Label: "Portal", NodeType: "Application"}},
			{Node: graph.Node{ID: "API-1", NodeType: "API", Level: 1}, Collapsible: true, Collapsed: true},
			{Node: graph.Node{ID: "COMP-1", NodeType: "Component", Level: 2}, Hidden: true},
			{Node: graph.Node{ID: "BF-1", NodeType: "BusinessFunction", Level: 2}, IsReverse: true},
		},
		Edges: []graph.LayoutEdge{
			{Edge: graph.Edge{ID: "1", Source: "APP-1", Target: "API-1", RelationshipType: "CALLS"}},
			{Edge: graph.Edge{ID: "2", Source: "API-1", Target: "COMP-1", Label: "exposes"}, Hidden: true},
			{Edge: graph.Edge{ID: "3", Source: "BF-1", Target: "API-1"}},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testLayout(), Options{})

	for _, want := range []string{
		"rankdir=LR",
		`"APP-1" [label="Portal"`,
		`label="API-1 [+]"`,
		`"APP-1" -> "API-1" [label="CALLS"]`,
		`"BF-1" -> "API-1";`,
		`{ rank=same; "APP-1"; }`,
		"dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "COMP-1") {
		t.Errorf("hidden node should be omitted:\n%s", dot)
	}
}

func TestToDOTShowHidden(t *testing.T) {
	dot := ToDOT(testLayout(), Options{ShowHidden: true, Detailed: true})

	if !strings.Contains(dot, `"API-1" -> "COMP-1" [label="exposes", style=dotted`) {
		t.Errorf("hidden edge should be drawn dotted:\n%s", dot)
	}
	if !strings.Contains(dot, `level: 2`) {
		t.Errorf("detailed label missing level:\n%s", dot)
	}
	if !strings.Contains(dot, `{ rank=same; "COMP-1"; "BF-1"; }`) {
		t.Errorf("level 2 rank missing:\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(graph.Layout{}, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT(empty) = %q", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testLayout(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output is not SVG")
	}
	if !strings.Contains(string(svg), `viewBox="0 0 `) {
		t.Error("viewBox should be normalized")
	}
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG(context.Background(), ToDOT(testLayout(), Options{}))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("RenderPNG() output is not PNG")
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() should fail on invalid DOT")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20">`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
}
