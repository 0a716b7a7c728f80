package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/layout"
	"github.com/superrelativity/relgraph/pkg/pipeline"
	"github.com/superrelativity/relgraph/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output base path; the format is appended as extension
	formats    []string // output formats: "dot", "svg", "png", "json"
	showHidden bool     // draw hidden nodes dimmed instead of dropping them
	detailed   bool     // add node type and level to labels
	expand     []string // nodes to expand before rendering
	expandAll  bool     // expand every collapsible node before rendering
	noCache    bool
}

// renderCommand creates the render command for generating diagrams from a
// layout.json file.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.layout.json]",
		Short: "Render a composed layout to DOT, SVG, PNG or JSON",
		Long: `Render a composed layout to DOT, SVG, PNG or JSON.

Only visible nodes are drawn unless --show-hidden is set. Nodes named with
--expand (or every node with --expand-all) are expanded first, so a layout
can be rendered at any collapse state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats, comma separated: dot, svg, png, json (default: svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input without .layout.json)")
	cmd.Flags().BoolVar(&opts.showHidden, "show-hidden", false, "draw hidden nodes dimmed")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node type and level in labels")
	cmd.Flags().StringSliceVar(&opts.expand, "expand", nil, "expand these nodes before rendering")
	cmd.Flags().BoolVar(&opts.expandAll, "expand-all", false, "expand every node before rendering")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return slices.Sorted(maps.Keys(render.Formats)), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	state := layout.Restore(layout.Snapshot{Layout: l})
	if opts.expandAll {
		state.ExpandAll()
	}
	for _, id := range opts.expand {
		if !state.Has(id) {
			printWarning("unknown node %q", id)
			continue
		}
		state.Expand(id)
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, state.Layout(), pipeline.Options{
		Formats:    opts.formats,
		ShowHidden: opts.showHidden,
		Detailed:   opts.detailed,
		Logger:     c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(input, ".json")
		base = strings.TrimSuffix(base, ".layout")
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	printSuccess("Render complete")
	for _, format := range slices.Sorted(maps.Keys(artifacts)) {
		path := base + "." + format
		if format == "json" {
			path = base + ".rendered.json"
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(state.Stats(), cacheHit)
	return nil
}
