package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/piwi3910/SlitCut/internal/engine"
	"github.com/piwi3910/SlitCut/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AFFF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#585858"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// printResults writes one table per group followed by the plan totals.
func printResults(w io.Writer, results []model.GroupResult, density float64) {
	var cost float64
	for _, gr := range results {
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Group %s", gr.Group.Key())))
		if !gr.Solved() {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %s: %s", gr.Status, gr.Reason)))
			fmt.Fprintln(w)
			continue
		}

		t := newTable("#", "Raw (mm)", "Knives", "Trim (mm)", "Length (m)", "Util %", "Cost")
		for i, r := range gr.Records {
			t.Row(
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("%g", r.RawWidth),
				r.Describe(),
				fmt.Sprintf("%.1f", r.TrimWidth),
				fmt.Sprintf("%.1f", r.LengthUsed/1000),
				fmt.Sprintf("%.2f", r.Utilization()),
				fmt.Sprintf("%.2f", r.Cost),
			)
		}
		fmt.Fprintln(w, t.String())

		est := model.CalculatePlanEstimate(gr, density)
		fmt.Fprintf(w, "  %d pattern(s), utilization %.2f%%, weight %.0f kg, cost %s, solved in %s (%d nodes, %d candidate patterns)\n\n",
			gr.ActivePatterns(), est.Utilization, est.WeightKg, est.MaterialCost.StringFixed(2),
			gr.Elapsed.Round(time.Millisecond), gr.Nodes, gr.CatalogSize)
		cost += gr.Objective
	}
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Total material cost: %.2f", cost)))
}

// printComparison writes one row per scenario, plus the baseline when given.
func printComparison(w io.Writer, comparisons []engine.ComparisonResult, baselines []model.GroupResult, baselineWidth float64) {
	t := newTable("Scenario", "Max Patterns", "Patterns Used", "Waste %", "Unsolved", "Total Cost")
	for _, cr := range comparisons {
		t.Row(
			cr.Scenario.Name,
			fmt.Sprintf("%d", cr.Scenario.Settings.MaxPatterns),
			fmt.Sprintf("%d", cr.PatternsUsed),
			fmt.Sprintf("%.2f", cr.WastePercent),
			fmt.Sprintf("%d", cr.Unsolved),
			fmt.Sprintf("%.2f", cr.TotalCost),
		)
	}
	if len(baselines) > 0 {
		var cost, used, raw float64
		patterns := 0
		for _, b := range baselines {
			cost += b.Objective
			patterns += b.ActivePatterns()
			for _, r := range b.Records {
				used += r.UsedWidth() * r.LengthUsed
				raw += r.RawWidth * r.LengthUsed
			}
		}
		waste := 0.0
		if raw > 0 {
			waste = 100 - used/raw*100
		}
		t.Row(fmt.Sprintf("Single Width %g", baselineWidth), "-", fmt.Sprintf("%d", patterns), fmt.Sprintf("%.2f", waste), "0", fmt.Sprintf("%.2f", cost))
	}
	fmt.Fprintln(w, titleStyle.Render("Scenario Comparison"))
	fmt.Fprintln(w, t.String())
}
