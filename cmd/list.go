package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkedev/planning-sync/internal/sources"
)

// newListCmd creates the 'list' subcommand. It reads only the compiled-in
// registry, so it works with no configuration or credentials at all.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured sources",
		Run: func(cmd *cobra.Command, _ []string) {
			printSourceTable(cmd)
		},
	}
}

func printSourceTable(cmd *cobra.Command) {
	bar := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 80)

	cmd.Println()
	cmd.Println(bar)
	cmd.Println("CONFIGURED PLANNING SOURCES")
	cmd.Println(bar)
	cmd.Println()
	cmd.Printf("%-30s %-6s %-8s %-20s\n", "ID", "Type", "Freq", "Category")
	cmd.Println(rule)

	active := sources.All()
	disabled := sources.Disabled()

	var weekly, monthly int
	count := func(src sources.Source) {
		switch src.Cadence {
		case sources.CadenceWeekly:
			weekly++
		case sources.CadenceMonthly:
			monthly++
		}
	}

	for _, src := range active {
		count(src)
		cmd.Printf("%-30s %-6s %-8s %-20s\n", src.ID, src.Kind, src.Cadence, src.Category)
	}
	for _, src := range disabled {
		count(src)
		cmd.Printf("%-30s %-6s %-8s %-20s (disabled)\n", src.ID, src.Kind, src.Cadence, src.Category)
	}

	cmd.Println(rule)
	cmd.Printf("Total: %d sources (%d active, %d disabled)\n",
		len(active)+len(disabled), len(active), len(disabled))
	cmd.Printf("  Weekly: %d\n", weekly)
	cmd.Printf("  Monthly: %d\n", monthly)
}
