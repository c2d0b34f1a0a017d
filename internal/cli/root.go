// Package cli implements the incomectl command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	app "github.com/okian/incomelens/internal/app"
	"github.com/okian/incomelens/internal/config"
	"github.com/okian/incomelens/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	mlURL      string
	output     string
	logLevel   string

	cfg *config.Config
}

// NewRootCommand builds the incomectl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "incomectl",
		Short: "incomectl - offline income predictions and dataset summaries",
		Long: `incomectl runs the income predictor from the command line.

It estimates salaries with the heuristic tables, asks the prediction service
for single or batch predictions (falling back to the heuristic result when the
service is unavailable) and summarizes census datasets.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides INCOME_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.mlURL, "ml-url", "", "Prediction service base URL (overrides config)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", formatJSON, "Output format: json | yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug | info | warn | error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return opts.load(cmd.Context(), cmd.ErrOrStderr())
	}

	cmd.AddCommand(newEstimateCommand(opts))
	cmd.AddCommand(newPredictCommand(opts))
	cmd.AddCommand(newBatchCommand(opts))
	cmd.AddCommand(newSummarizeCommand(opts))

	return cmd
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// load resolves configuration and logging before any subcommand runs.
func (o *globalOptions) load(ctx context.Context, stderr io.Writer) error {
	if err := checkFormat(o.output); err != nil {
		return err
	}

	cfg, err := config.Load(ctx, config.WithFile(o.configFile))
	if err != nil {
		return err
	}
	if o.mlURL != "" {
		cfg.MLBaseURL = o.mlURL
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	o.cfg = cfg

	if err := logger.Init(logger.WithOutput(stderr), logger.WithFormat("console")); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", cfg.LogLevel, err)
	}
	return nil
}

// service builds the prediction stack from the resolved configuration.
func (o *globalOptions) service() (*app.Service, error) {
	return app.NewFromConfig(o.cfg, logger.Get())
}
