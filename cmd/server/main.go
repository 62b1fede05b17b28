// Command promise-tracker runs the promise tracker API and its maintenance
// tasks.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"promisetracker/internal/platform/config"
	"promisetracker/internal/platform/logger"
)

const programName = "promise-tracker"

type rootOptions struct {
	configFile string
}

// load reads the configuration and builds the process logger.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format).With("component", programName)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           programName,
		Short:         "Track political promises, their results and review status",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", os.Getenv("PROMISE_TRACKER_CONFIG"), "path to a YAML config file")

	root.AddCommand(
		serveCommand(opts),
		migrateCommand(opts),
		seedCommand(opts),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
