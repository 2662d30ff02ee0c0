package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkedev/planning-sync/internal/sources"
	"github.com/mkedev/planning-sync/internal/sync"
)

// newSyncCmd creates and configures the 'sync' subcommand. Exactly one of
// --frequency, --source, or --all selects the scope; cobra enforces the
// exclusivity.
func newSyncCmd() *cobra.Command {
	var (
		frequency  string
		sourceID   string
		allSources bool
		force      bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync planning documents",
		Long: `Fetches the selected sources, detects content changes by hash, and
republishes changed content to the search index. Metadata for every source
is recorded whether or not its content changed. Failures are isolated per
source; the command exits nonzero when any source failed.`,
		Example: `  planning-sync sync --frequency weekly
  planning-sync sync --source home-building-sites
  planning-sync sync --all --force
  planning-sync sync --all --dry-run`,

		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if frequency != "" {
				if _, ok := sources.ParseCadence(frequency); !ok {
					return fmt.Errorf("invalid frequency %q (expected weekly or monthly)", frequency)
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				cmd.PrintErrln("Missing configuration; see .env.example for the required variables.")
				return err
			}
			if dryRun {
				// Selection is previewed from the registry alone; no
				// services are needed.
				return nil
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				return runDryRun(cmd, frequency, sourceID)
			}

			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			// Close before reporting the exit status so progress events
			// flush even on a failed run.
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				a.Close(closeCtx)
			}()

			ctx := cmd.Context()
			switch {
			case sourceID != "":
				cmd.Printf("\nSyncing single source: %s\n", sourceID)
				summary := a.GetSync().SyncOne(ctx, sourceID, force)
				for _, out := range summary.Outcomes {
					printOutcome(cmd, out)
				}
				if summary.Failed > 0 {
					return fmt.Errorf("sync failed for source %s", sourceID)
				}
				return nil
			case frequency != "":
				cadence, _ := sources.ParseCadence(frequency)
				cmd.Printf("\nSyncing %s sources...\n", frequency)
				summary := a.GetSync().SyncByCadence(ctx, cadence, force)
				printSummary(cmd, summary)
				return failIfAnyFailed(summary)
			default:
				cmd.Println("\nSyncing all sources...")
				summary := a.GetSync().SyncAll(ctx, force)
				printSummary(cmd, summary)
				return failIfAnyFailed(summary)
			}
		},
	}

	cmd.Flags().StringVar(&frequency, "frequency", "", "sync sources by frequency (weekly or monthly)")
	cmd.Flags().StringVar(&sourceID, "source", "", "sync a specific source by ID")
	cmd.Flags().BoolVar(&allSources, "all", false, "sync all sources")
	cmd.Flags().BoolVar(&force, "force", false, "force re-sync even if content unchanged")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview what would be synced without executing")

	cmd.MarkFlagsOneRequired("frequency", "source", "all")
	cmd.MarkFlagsMutuallyExclusive("frequency", "source", "all")

	return cmd
}

// runDryRun prints the selection that a real run would sync, without
// touching the network or any credentialed service.
func runDryRun(cmd *cobra.Command, frequency, sourceID string) error {
	selected, err := selectSources(frequency, sourceID)
	if err != nil {
		return err
	}
	cmd.Println("\n[DRY RUN] The following sources would be synced:")
	for _, src := range selected {
		cmd.Printf("  - %s (%s)\n", src.ID, src.Kind)
	}
	cmd.Printf("\nTotal: %d sources\n", len(selected))
	return nil
}

func selectSources(frequency, sourceID string) ([]sources.Source, error) {
	switch {
	case frequency != "":
		cadence, ok := sources.ParseCadence(frequency)
		if !ok {
			return nil, fmt.Errorf("invalid frequency %q (expected weekly or monthly)", frequency)
		}
		return sources.ByCadence(cadence), nil
	case sourceID != "":
		src, ok := sources.ByID(sourceID)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", sourceID)
		}
		return []sources.Source{src}, nil
	default:
		return sources.All(), nil
	}
}

func printOutcome(cmd *cobra.Command, out sync.Outcome) {
	status := "OK"
	if !out.Success {
		status = "FAIL"
	}
	cmd.Printf("[%s] %s: %s - %s\n", status, out.SourceID, out.Action, out.Message)
}

func printSummary(cmd *cobra.Command, s sync.Summary) {
	bar := strings.Repeat("=", 60)
	cmd.Println()
	cmd.Println(bar)
	cmd.Println("SYNC SUMMARY")
	cmd.Println(bar)
	cmd.Printf("Total sources:  %d\n", s.Total)
	cmd.Printf("Created:        %d\n", s.Created)
	cmd.Printf("Updated:        %d\n", s.Updated)
	cmd.Printf("Skipped:        %d\n", s.Skipped)
	cmd.Printf("Failed:         %d\n", s.Failed)
	cmd.Println(bar)

	if s.Failed > 0 {
		cmd.Println("\nFailed sources:")
		for _, out := range s.Failures() {
			cmd.Printf("  - %s: %s\n", out.SourceID, out.Message)
		}
	}
}

func failIfAnyFailed(s sync.Summary) error {
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d sources failed", s.Failed, s.Total)
	}
	return nil
}
