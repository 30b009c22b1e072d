package commands

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/SlitCut/internal/engine"
)

var (
	compareInput    inputFlags
	compareSettings settingsFlags
	compareBaseline float64
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare plans across pattern limits and trim windows",
	Long: `Plans the job once per scenario (current settings, one pattern fewer,
two patterns more, exact fits only) and optionally against slitting every
product from a single raw width.`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	fs := compareCmd.Flags()
	compareInput.register(fs)
	compareSettings.register(fs)
	fs.Float64Var(&compareBaseline, "baseline-width", 0, "also price the single-width baseline at this raw width")
}

func runCompare(cmd *cobra.Command, args []string) error {
	job, err := loadJob(compareInput)
	if err != nil {
		return err
	}
	compareSettings.apply(cmd.Flags(), &job.Settings)

	groups, prices, err := engine.JobInputs(job)
	if err != nil {
		return err
	}

	planner := engine.NewPlanner(engine.WithLogger(logger))
	comparisons, err := planner.CompareScenarios(cmd.Context(), engine.BuildDefaultScenarios(job.Settings), groups, job.Domain, prices)
	if err != nil {
		return err
	}

	baselines, err := buildBaselines(job, compareBaseline)
	if err != nil {
		return err
	}
	printComparison(cmd.OutOrStdout(), comparisons, baselines, compareBaseline)
	return nil
}
