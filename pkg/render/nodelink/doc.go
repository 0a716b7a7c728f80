// Package nodelink renders layouts as node-link diagrams.
//
// # Overview
//
// [ToDOT] converts the visible part of a layout into Graphviz DOT. Levels
// run left to right (rankdir=LR) and nodes of one level share a rank, so
// the diagram mirrors the layout columns. Nodes are filled by entity type;
// reverse nodes get a dashed outline and collapsed nodes a "+" marker.
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Options
//
//   - ShowHidden: include hidden nodes and edges (greyed out)
//   - Detailed: add type, level and properties to labels
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz installation is needed.
package nodelink
