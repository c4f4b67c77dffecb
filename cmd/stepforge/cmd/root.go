// Package cmd is the stepforge CLI's command tree: plan (print a dry-run
// plan as a table), run (execute a step end to end with a progress bar over
// the plan), and cache export/import (archive a persistent cache entry's
// step_dir). It exists purely to exercise pkg/step, pkg/plan, and pkg/cache
// by hand; the demo graph it builds lives in demo.go.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arvonlabs/stepforge/pkg/logger"
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "stepforge",
	Short: "stepforge runs a deterministic step execution engine with content-addressed caching.",
	Long: `stepforge is a command-line tool for exercising the engine: planning a
step's dependency graph without executing it, running it end to end against
a cache, and moving a persistent cache entry's working directory in and out
of an archive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logOpts := logger.DefaultOptions()
		logOpts.ColorConsole = true
		if verboseFlag {
			logOpts.ConsoleLevel = logger.DebugLevel
		}
		logger.Init(logOpts)
		return nil
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheCmd)
}
