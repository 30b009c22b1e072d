package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SlitCut/internal/engine"
	"github.com/piwi3910/SlitCut/internal/export"
	"github.com/piwi3910/SlitCut/internal/model"
	"github.com/piwi3910/SlitCut/internal/project"
)

// recentJobsLimit bounds the recent job list kept in the config.
const recentJobsLimit = 10

var errNoPlan = errors.New("no group could be planned")

type outputFlags struct {
	json          string
	xlsx          string
	pdf           string
	labels        string
	dxf           string
	saveJob       string
	baselineWidth float64
}

var (
	solveInput    inputFlags
	solveSettings settingsFlags
	solveOutput   outputFlags
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Plan raw coil widths and slitting patterns for a job",
	Example: `  slitcut solve --job week42.slitjob --out-pdf plan.pdf
  slitcut solve --orders orders.xlsx --min 1000 --max 1300 --max-patterns 4`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	fs := solveCmd.Flags()
	solveInput.register(fs)
	solveSettings.register(fs)
	fs.StringVar(&solveOutput.json, "out-json", "", "write group results as JSON")
	fs.StringVar(&solveOutput.xlsx, "out-xlsx", "", "write the plan workbook")
	fs.StringVar(&solveOutput.pdf, "out-pdf", "", "write the PDF report")
	fs.StringVar(&solveOutput.labels, "out-labels", "", "write QR job tickets (PDF)")
	fs.StringVar(&solveOutput.dxf, "out-dxf", "", "write the knife layout (DXF)")
	fs.StringVar(&solveOutput.saveJob, "save-job", "", "save the job with its results")
	fs.Float64Var(&solveOutput.baselineWidth, "baseline-width", 0, "report savings against slitting every product from this width")
}

func runSolve(cmd *cobra.Command, args []string) error {
	job, err := loadJob(solveInput)
	if err != nil {
		return err
	}
	solveSettings.apply(cmd.Flags(), &job.Settings)

	planner := engine.NewPlanner(engine.WithLogger(logger))
	results, err := planner.PlanJob(cmd.Context(), job)
	if err != nil {
		return err
	}
	job.Results = results

	printResults(cmd.OutOrStdout(), results, job.Settings.Density)

	baselines, err := buildBaselines(job, solveOutput.baselineWidth)
	if err != nil {
		return err
	}
	if err := writeOutputs(job, baselines, solveOutput); err != nil {
		return err
	}

	for _, gr := range results {
		if gr.Solved() {
			return nil
		}
	}
	return errNoPlan
}

// buildBaselines computes the single-width baseline of every group, aligned
// with the plan results. A zero width disables the baseline.
func buildBaselines(job model.Job, width float64) ([]model.GroupResult, error) {
	if width <= 0 {
		return nil, nil
	}
	groups, prices, err := engine.JobInputs(job)
	if err != nil {
		return nil, err
	}
	baselines := make([]model.GroupResult, 0, len(groups))
	for _, g := range groups {
		b, err := engine.SingleWidthBaseline(g, width, prices)
		if err != nil {
			return nil, fmt.Errorf("baseline for %s: %w", g.Key(), err)
		}
		baselines = append(baselines, b)
	}
	return baselines, nil
}

func writeOutputs(job model.Job, baselines []model.GroupResult, out outputFlags) error {
	report := export.Report{
		Title:     appConfig.ReportTitle,
		Results:   job.Results,
		Settings:  job.Settings,
		Baselines: baselines,
	}
	if job.Name != "" && job.Name != "Untitled" {
		report.Title = fmt.Sprintf("%s: %s", report.Title, job.Name)
	}

	if out.json != "" {
		data, err := json.MarshalIndent(job.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		if err := os.WriteFile(out.json, data, 0644); err != nil {
			return err
		}
		logger.Info("wrote results", "path", out.json)
	}

	writers := []struct {
		path  string
		write func(string) error
	}{
		{out.xlsx, func(p string) error { return export.ExportXLSX(p, report) }},
		{out.pdf, func(p string) error { return export.ExportPDF(p, report) }},
		{out.labels, func(p string) error { return export.ExportLabels(p, job.Results) }},
		{out.dxf, func(p string) error { return export.ExportDXF(p, job.Results) }},
	}
	for _, w := range writers {
		if w.path == "" {
			continue
		}
		if err := w.write(w.path); err != nil {
			if errors.Is(err, export.ErrNothingToExport) {
				logger.Warn("skipped export", "path", w.path, "reason", err)
				continue
			}
			return fmt.Errorf("failed to write %s: %w", w.path, err)
		}
		logger.Info("wrote export", "path", w.path)
	}

	if out.saveJob != "" {
		if err := project.SaveJob(out.saveJob, job); err != nil {
			return err
		}
		logger.Info("saved job", "path", out.saveJob)
		rememberJob(out.saveJob)
	}
	return nil
}

// rememberJob records a saved job in the config's recent list.
func rememberJob(path string) {
	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = project.DefaultConfigPath()
	}
	project.AddRecentJob(&appConfig, path, recentJobsLimit)
	if err := project.SaveAppConfig(cfgPath, appConfig); err != nil {
		logger.Warn("could not update recent jobs", "config", cfgPath, "error", err)
	}
}
