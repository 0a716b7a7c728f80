package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the browse command, an interactive tree over the
// collapse state of a layout.
func (c *CLI) browseCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "browse [graph.json]",
		Short: "Interactively expand and collapse a layout",
		Long: `Interactively expand and collapse a layout.

The graph is read from graph.json or, with --root, from the configured store,
and composed with the same defaults as 'layout'. Press enter or space to
toggle the selected node.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args, &flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, args []string, flags *layoutFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	g, _, err := c.loadGraph(ctx, cfg, args, flags)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	state, err := runner.Layout(ctx, g, flags.options(cfg))
	if err != nil {
		return fmt.Errorf("compose layout: %w", err)
	}
	if len(state.Visible()) == 0 {
		printInfo("Graph is empty")
		return nil
	}

	p := tea.NewProgram(NewBrowseModel(ctx, runner, state), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
