package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/arvonlabs/stepforge/pkg/logger"
	"github.com/arvonlabs/stepforge/pkg/plan"
	"github.com/arvonlabs/stepforge/pkg/step"
)

var runCacheRoot string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo graph to completion, printing progress over the dry-run plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := buildDemoGraph()
		if err != nil {
			return err
		}

		c, err := openCache(runCacheRoot)
		if err != nil {
			return err
		}

		entries, err := plan.Plan([]step.Step{root}, c)
		if err != nil {
			return err
		}

		bar := progressbar.Default(int64(len(entries)), "running steps")
		for _, e := range entries {
			state := logger.CacheMiss
			if e.CacheHit {
				state = logger.CacheHit
			}
			logger.Get().With(
				logger.StepField(e.Step.Name()),
				logger.UniqueIDField(e.Step.UniqueID()),
				logger.CacheStateField(state),
			).Infof("resolving step result")

			if _, err := e.Step.Result(c); err != nil {
				return fmt.Errorf("step %s failed: %w", e.Step.Name(), err)
			}
			_ = bar.Add(1)
		}

		result, err := root.Result(c)
		if err != nil {
			return err
		}
		fmt.Printf("\nresult: %v\n", result)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCacheRoot, "cache-dir", "", "persistent cache root (default $HOME/.stepforge/cache)")
}
