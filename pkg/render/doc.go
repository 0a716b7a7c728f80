// Package render provides output formats for composed layouts.
//
// # Overview
//
// Layouts are rendered as node-link diagrams by the [nodelink] subpackage:
// a Graphviz DOT document is generated from the visible part of a layout
// and turned into SVG or PNG in-process with go-graphviz. The layout JSON
// itself is also a valid output.
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// This package holds the format names shared by the CLI, the API and the
// pipeline.
package render

import "fmt"

// Output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// Formats is the set of supported output formats.
var Formats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// ValidateFormats checks that every format is supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !Formats[f] {
			return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, json)", f)
		}
	}
	return nil
}
