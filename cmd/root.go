// Package cmd defines and implements the CLI commands for the planning-sync
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/app"
	"github.com/mkedev/planning-sync/internal/config"
	"github.com/mkedev/planning-sync/internal/sync"
	pkgconfig "github.com/mkedev/planning-sync/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of the application container the commands use. Keeping it
// an interface lets tests substitute a fake through the newApp factory.
type App interface {
	Close(ctx context.Context)
	GetLogger() *zap.Logger
	GetSync() *sync.Orchestrator
}

// newApp is the application factory. It's a variable so tests can replace it
// with a fake factory.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	return app.NewApp(ctx, cfg)
}

// loadConfig bootstraps viper from the usual sources and unmarshals the
// typed configuration. Credential checks are left to the commands that need
// them, so list and check work on a bare environment.
func loadConfig() (config.Config, error) {
	v, err := pkgconfig.NewViper(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}

// resolveApp pulls the App out of the context placed there by a command's
// PreRunE.
func resolveApp(ctx context.Context) (App, error) {
	a, ok := ctx.Value(appKey).(App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planning-sync",
		Short: "Keeps Milwaukee planning documents synced into a searchable index.",
		Long: `planning-sync crawls a fixed registry of Milwaukee planning pages and
documents, detects content changes by hash, and republishes changed content
to the search index while recording sync metadata for every source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ., $HOME/.planning-sync, /etc/planning-sync)")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
