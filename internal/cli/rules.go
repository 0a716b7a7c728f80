package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/superrelativity/relgraph/pkg/classify"
)

// rulesCommand creates the rules command, which prints the classification
// whitelist.
func (c *CLI) rulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the allowed relationship rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := classify.Rules()
			rows := make([][]string, 0, len(rules))
			for _, r := range rules {
				rows = append(rows, ruleRow(r))
			}
			printTable([]string{"From", "To", "Keywords", "Type", "Infers"}, rows)
			return nil
		},
	}
}

func ruleRow(r classify.Rule) []string {
	to := make([]string, len(r.To))
	for i, t := range r.To {
		to[i] = t.String()
	}
	keywords := "any"
	if !r.Unconditional() {
		keywords = strings.Join(r.Keywords, ", ")
	}
	var infers []string
	if r.Mode {
		infers = append(infers, "mode")
	}
	if r.RW {
		infers = append(infers, "rw")
	}
	return []string{r.From.String(), strings.Join(to, ", "), keywords, string(r.Type), strings.Join(infers, ", ")}
}
