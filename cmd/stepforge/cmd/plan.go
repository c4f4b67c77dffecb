package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/arvonlabs/stepforge/pkg/plan"
	"github.com/arvonlabs/stepforge/pkg/step"
)

var planCacheRoot string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the dry-run plan for the demo graph without executing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := buildDemoGraph()
		if err != nil {
			return err
		}

		c, err := openCache(planCacheRoot)
		if err != nil {
			return err
		}

		entries, err := plan.Plan([]step.Step{root}, c)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"STEP", "UNIQUE ID", "CACHE HIT"})
		for _, e := range entries {
			hit := color.RedString("no")
			if e.CacheHit {
				hit = color.GreenString("yes")
			}
			table.Append([]string{e.Step.Name(), e.Step.UniqueID(), hit})
		}
		table.Render()
		fmt.Printf("%d step(s) in plan\n", len(entries))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planCacheRoot, "cache-dir", "", "persistent cache root (default $HOME/.stepforge/cache)")
}
