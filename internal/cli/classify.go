package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/diagram"
)

// classifyCommand creates the classify command.
func (c *CLI) classifyCommand() *cobra.Command {
	var (
		output           string
		aliases          map[string]string
		matchDescription bool
		workers          int
	)

	cmd := &cobra.Command{
		Use:   "classify [relationships.json|.yaml|.puml|.md]",
		Short: "Classify raw relationships into typed edges",
		Long: `Classify raw relationships into typed edges.

The input is a JSON or YAML list of {from, to, type, description} records, or
a C4 PlantUML context diagram (.puml, or markdown with @startuml blocks) whose
Rel(...) lines are classified. Diagram aliases can be mapped to entity ids
with --alias ALIAS=ID.

The result (accepted edges, rejections and stats) is written as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runClassify(cmd.Context(), args[0], output, aliases, cmd.Flags().Changed("match-description"), matchDescription, workers)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.classified.json)")
	cmd.Flags().StringToStringVar(&aliases, "alias", nil, "map a diagram alias to an entity id (ALIAS=ID)")
	cmd.Flags().BoolVar(&matchDescription, "match-description", false, "match rule keywords against type and description")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent classification workers (default: config sync.workers)")

	return cmd
}

func (c *CLI) runClassify(ctx context.Context, input, output string, aliases map[string]string, overrideMatch, matchDescription bool, workers int) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	rels, err := readRelationships(input, aliases)
	if err != nil {
		return err
	}

	opts := pipelineOptions(cfg)
	if overrideMatch {
		opts.MatchDescription = matchDescription
	}
	if workers > 0 {
		opts.Workers = workers
	}

	runner, err := c.newRunner(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Classify(ctx, rels, opts)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	prog.done(fmt.Sprintf("Classified %d relationships", res.Stats.Total))

	outputPath := output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".classified.json"
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Classification complete")
	printFile(outputPath)
	printClassifyStats(res)
	for _, rej := range res.Rejected {
		printWarning("%s → %s: %s", rej.Relationship.From, rej.Relationship.To, rej.Reason())
	}
	return nil
}

// readRelationships loads relationships from a data file or a context
// diagram.
func readRelationships(path string, aliases map[string]string) ([]classify.RawRelationship, error) {
	if diagram.IsDiagramPath(path) {
		d, err := diagram.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return d.Resolve(aliases), nil
	}
	rels, err := classify.ReadRelationshipsFile(path)
	if err != nil {
		return nil, fmt.Errorf("load relationships %s: %w", path, err)
	}
	return rels, nil
}

// printClassifyStats prints the accepted counts per relation type.
func printClassifyStats(res classify.Result) {
	types := make([]string, 0, len(res.Stats.ByType))
	for t := range res.Stats.ByType {
		types = append(types, string(t))
	}
	slices.Sort(types)

	rows := make([][]string, 0, len(types))
	for _, t := range types {
		rows = append(rows, []string{t, fmt.Sprint(res.Stats.ByType[classify.RelationType(t)])})
	}
	printTable([]string{"Type", "Count"}, rows)
	printDetail("%d accepted · %d rejected · %s", res.Stats.Accepted, res.Stats.Rejected, res.Stats.Duration.Round(time.Millisecond))
}
