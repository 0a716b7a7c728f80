package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/superrelativity/relgraph/pkg/entity"
	"github.com/superrelativity/relgraph/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// ShowHidden draws hidden nodes and edges in grey instead of omitting them.
	ShowHidden bool
	// Detailed adds type, level and properties to node labels.
	Detailed bool
}

var fillColors = map[entity.Type]string{
	entity.Application:      "#dbeafe",
	entity.API:              "#dcfce7",
	entity.BusinessFunction: "#fef3c7",
	entity.Component:        "#ede9fe",
	entity.DataObject:       "#fce7f3",
	entity.Table:            "#fae8ff",
	entity.Server:           "#e5e7eb",
	entity.AppChange:        "#ffedd5",
	entity.InfraChange:      "#fee2e2",
}

// ToDOT converts a layout to Graphviz DOT.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10, color=\"#999999\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	drawn := make(map[string]bool, len(l.Nodes))
	levels := make(map[int][]string)
	for _, n := range l.Nodes {
		if n.Hidden && !opts.ShowHidden {
			continue
		}
		drawn[n.ID] = true
		levels[n.Level] = append(levels[n.Level], n.ID)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	for _, lv := range slices.Sorted(maps.Keys(levels)) {
		quoted := make([]string, len(levels[lv]))
		for i, id := range levels[lv] {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if !drawn[e.Source] || !drawn[e.Target] {
			continue
		}
		var attrs []string
		if label := edgeLabel(e.Edge); label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", label))
		}
		if e.Hidden {
			attrs = append(attrs, "style=dotted", "color=\"#dddddd\"")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeLabel(e graph.Edge) string {
	if e.RelationshipType != "" {
		return e.RelationshipType
	}
	return e.Label
}

func fmtLabel(n graph.LayoutNode, detailed bool) string {
	label := n.DisplayLabel()
	if n.Collapsed {
		label += " [+]"
	}
	if !detailed {
		return label
	}

	parts := []string{fmt.Sprintf("level: %d", n.Level)}
	if n.NodeType != "" {
		parts = append([]string{n.NodeType}, parts...)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Properties)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Properties[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n graph.LayoutNode, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}

	typ := entity.ParseType(n.NodeType)
	if n.NodeType == "" {
		typ = entity.Resolve(n.ID)
	}
	fill := "white"
	if c, ok := fillColors[typ]; ok {
		fill = c
	}

	switch {
	case n.Hidden:
		attrs = append(attrs, "style=\"rounded,filled,dotted\"", "fillcolor=\"#f5f5f5\"", "fontcolor=\"#aaaaaa\"")
	case n.IsReverse:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", fmt.Sprintf("fillcolor=%q", fill))
	default:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
