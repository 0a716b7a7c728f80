package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/superrelativity/relgraph/internal/config"
	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/pipeline"
	"github.com/superrelativity/relgraph/pkg/store"
)

// layoutFlags are shared by the layout and browse commands.
type layoutFlags struct {
	root          string
	depth         int
	types         []string
	columnWidth   float64
	rowHeight     float64
	fallbackRoots int
	noCache       bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "query the configured store around this entity instead of reading a file")
	cmd.Flags().IntVar(&f.depth, "depth", store.DefaultDepth, "traversal depth for --root")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "relationship types to follow for --root (default: all)")
	cmd.Flags().Float64Var(&f.columnWidth, "column-width", 0, "horizontal distance between levels")
	cmd.Flags().Float64Var(&f.rowHeight, "row-height", 0, "vertical distance between rows")
	cmd.Flags().IntVar(&f.fallbackRoots, "fallback-roots", 0, "roots chosen by out-degree when the graph has none")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options overlays the flags on the configured pipeline defaults.
func (f *layoutFlags) options(cfg *config.Config) pipeline.Options {
	opts := pipelineOptions(cfg)
	if f.columnWidth > 0 {
		opts.ColumnWidth = f.columnWidth
	}
	if f.rowHeight > 0 {
		opts.RowHeight = f.rowHeight
	}
	if f.fallbackRoots > 0 {
		opts.FallbackRoots = f.fallbackRoots
	}
	return opts
}

// loadGraph reads the input graph from args[0] or, with --root, from the
// configured store.
func (c *CLI) loadGraph(ctx context.Context, cfg *config.Config, args []string, f *layoutFlags) (graph.Graph, string, error) {
	if f.root == "" {
		if len(args) == 0 {
			return graph.Graph{}, "", fmt.Errorf("a graph file or --root is required")
		}
		g, err := graph.ReadGraphFile(args[0])
		if err != nil {
			return graph.Graph{}, "", fmt.Errorf("load graph %s: %w", args[0], err)
		}
		return g, args[0], nil
	}

	s, err := c.newStore(ctx, cfg)
	if err != nil {
		return graph.Graph{}, "", err
	}
	defer s.Close()
	g, err := s.Graph(ctx, store.Query{Root: f.root, Depth: f.depth, Types: f.types})
	if err != nil {
		return graph.Graph{}, "", fmt.Errorf("query %s: %w", f.root, err)
	}
	return g, f.root + ".json", nil
}

// layoutCommand creates the layout command for composing collapsible
// layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compose the collapsible hierarchical layout of a graph",
		Long: `Compose the collapsible hierarchical layout of a graph.

The layout command takes a graph.json file ({nodes, edges}) or, with --root,
queries the configured store, assigns levels and positions, and writes the
initial collapse state as a layout.json file that 'render' and 'browse'
accept.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args, &flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the graph, composes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, args []string, flags *layoutFlags, output string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	g, input, err := c.loadGraph(ctx, cfg, args, flags)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Composing layout...")
	spinner.Start()

	state, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, flags.options(cfg))
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compose layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	l := state.Layout()
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(l.Stats, cacheHit)
	if len(l.Dangling) > 0 {
		printWarning("%d edges reference unknown nodes and were ignored", len(l.Dangling))
	}
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
