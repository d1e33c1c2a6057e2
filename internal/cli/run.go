package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/perfdigest/internal/chart"
	"github.com/vvka-141/perfdigest/internal/config"
	"github.com/vvka-141/perfdigest/internal/db"
	"github.com/vvka-141/perfdigest/internal/fetch"
	"github.com/vvka-141/perfdigest/internal/load"
	"github.com/vvka-141/perfdigest/internal/logging"
	"github.com/vvka-141/perfdigest/internal/mailer"
	"github.com/vvka-141/perfdigest/internal/report"
	"github.com/vvka-141/perfdigest/internal/services"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the fetch, load, report, chart and mail pipeline once",
	Long: `Run executes one digest:

1. Downloads the Tabjolt output files from the configured bucket folder
2. Bulk-loads each file into its table (malformed rows go to rejected.txt)
3. Runs the summary, detail and comparison queries
4. Renders average_time_graph.png from the Avg series
5. Emails the HTML report with the chart inline

Secrets in the config file may be written as ${ENV_VAR}; a .env file in the
working directory is loaded first.

Examples:
  perfdigest run
  perfdigest run --config /etc/perfdigest/perfdigest.yaml --verbose
  perfdigest run --dry-run`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runRun,
}

type runFlagValues struct {
	configPath string
	dryRun     bool
	timeout    time.Duration
}

var runFlags runFlagValues

func resetRunFlags() {
	runFlags = runFlagValues{}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.configPath, "config", "c", perfdigest.DefaultConfigFile,
		"Path to the YAML configuration file")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false,
		"Write the composed email to <work_dir>/"+perfdigest.DryRunFileName+" instead of sending it")
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", perfdigest.DefaultTimeout,
		"Abort the whole run after this duration")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runFlags.configPath)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))
	defer logger.Sync() //nolint:errcheck

	svc, cleanup, err := buildRunService(cfg, logger, runFlags.dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	timeout := runFlags.timeout
	if timeout <= 0 {
		timeout = perfdigest.DefaultTimeout
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := svc.Run(ctx); err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}
	return nil
}

// loadConfig maps a missing file onto the configuration exit code.
func loadConfig(path string) (*config.RunConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: %w\n\nTip: create one with: perfdigest init", perfdigest.ErrInvalidConfig, err)
		}
		return nil, err
	}
	return cfg, nil
}

// buildRunService wires every component from cfg. cleanup releases the
// connector.
func buildRunService(cfg *config.RunConfig, logger perfdigest.Logger, dryRun bool) (*services.RunService, func(), error) {
	if err := os.MkdirAll(cfg.Report.WorkDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create work dir %s: %w", cfg.Report.WorkDir, err)
	}

	connector, err := db.NewConnector(cfg.ConnectionConfig())
	if err != nil {
		return nil, nil, err
	}
	if tc, ok := connector.(*db.TokenBasedConnector); ok {
		connector = tc.WithLogger(logger)
	}
	opener := db.NewOpener(connector)
	cleanup := func() {
		if err := opener.Close(); err != nil {
			logger.Verbose("Closing connector: %v", err)
		}
	}

	fetcher, err := fetch.New(cfg.S3, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var mailOpts []mailer.Option
	if dryRun {
		mailOpts = append(mailOpts, mailer.WithDryRun(cfg.WorkPath(perfdigest.DryRunFileName)))
	}

	svc := services.NewRunService(
		fetcher,
		load.New(opener, cfg.WorkPath(perfdigest.RejectedFileName), logger),
		report.New(opener, logger),
		chart.New(opener, cfg.WorkPath(perfdigest.ChartFileName), logger),
		mailer.New(cfg.SMTP, logger, mailOpts...),
		logger,
		services.DefaultPlan(cfg.Report.WorkDir),
		services.Queries{
			Summary:      report.SummaryQueries,
			Detail:       report.DetailQuery,
			AboveAverage: report.AboveAverageQuery,
			BelowAverage: report.BelowAverageQuery,
		},
		cfg.Report.Subject,
	)
	return svc, cleanup, nil
}
