package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/observability"
	"github.com/superrelativity/relgraph/pkg/render"
	"github.com/superrelativity/relgraph/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. The DOT
// document is generated once and shared by the Graphviz formats.
func Render(ctx context.Context, l graph.Layout, opts Options) (artifacts map[string][]byte, err error) {
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	dot := nodelink.ToDOT(l, nodelink.Options{ShowHidden: opts.ShowHidden, Detailed: opts.Detailed})
	artifacts = make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte

		switch format {
		case render.FormatDOT:
			data = []byte(dot)
		case render.FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case render.FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		case render.FormatJSON:
			data, err = graph.MarshalLayout(l)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
