package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkedev/planning-sync/internal/logging"
	"github.com/mkedev/planning-sync/internal/probe"
	"github.com/mkedev/planning-sync/internal/sources"
)

// newCheckCmd creates the 'check' subcommand, a connectivity probe that
// needs no credentials and syncs nothing.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe every source URL and report availability",
		Long: `Issues a plain HTTP request against each configured source, including
disabled ones, and reports status, content type, and size. Useful for
spotting moved or retired pages before a sync run trips over them.`,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	prober := probe.New(probe.Config{UserAgent: cfg.Scrape.UserAgent}, logger)

	failures := 0
	cmd.Println("\nProbing active sources:")
	for _, report := range prober.CheckAll(cmd.Context(), sources.All()) {
		printReport(cmd, report)
		if !report.OK {
			failures++
		}
	}

	if disabled := sources.Disabled(); len(disabled) > 0 {
		cmd.Println("\nProbing disabled sources (informational):")
		for _, report := range prober.CheckAll(cmd.Context(), disabled) {
			printReport(cmd, report)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d active sources unreachable", failures)
	}
	return nil
}

func printReport(cmd *cobra.Command, r probe.Report) {
	if r.OK {
		cmd.Printf("[OK]   %s: %d %s (%d bytes in %s)\n",
			r.SourceID, r.StatusCode, r.ContentType, r.Bytes, r.Duration.Round(time.Millisecond))
		return
	}
	msg := r.Error
	if msg == "" {
		msg = fmt.Sprintf("status %d", r.StatusCode)
	}
	cmd.Printf("[FAIL] %s: %s\n", r.SourceID, msg)
}
