package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

var rootCmd = &cobra.Command{
	Use:   "perfdigest",
	Short: "Daily Tabjolt performance digest",
	Long: `perfdigest downloads Tabjolt load-test output from object storage, bulk-loads
it into the analytical database, runs the report queries, renders the average
time trend chart and emails an HTML summary with the chart inline.

Each step logs its own failures and the run continues with the next step.
The email is only sent when report results and the chart are both present.

Exit Codes:
  0  - Run completed (individual steps may have failed, see the log)
  1  - General error (run interrupted or timed out)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid or missing configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", perfdigest.ErrUsage, err)
	})
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", perfdigest.ErrUsage, err)
		}
		return nil
	}
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
