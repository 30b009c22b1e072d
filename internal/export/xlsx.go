package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SlitCut/internal/model"
)

const (
	planSheet    = "Plan"
	summarySheet = "Summary"
)

var planHeaders = []string{"Group", "Pattern", "Raw Width (mm)", "Knives", "Strips", "Trim (mm)", "Utilization (%)", "Length (m)", "Unit Cost", "Cost"}

// ExportXLSX writes the plan as a workbook with a "Plan" sheet listing every
// pattern record and a "Summary" sheet with one row per group.
func ExportXLSX(path string, report Report) error {
	if report.solvedCount() == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeRow(f, planSheet, 1, toCells(planHeaders)); err != nil {
		return err
	}
	row := 2
	for _, gr := range report.Results {
		for i, r := range gr.Records {
			strips := 0
			for _, c := range r.Counts {
				strips += c.Count
			}
			cells := []interface{}{
				gr.Group.Key(), i + 1, r.RawWidth, r.Describe(), strips,
				r.TrimWidth, r.Utilization(), r.LengthUsed / 1000, r.UnitCost, r.Cost,
			}
			if err := writeRow(f, planSheet, row, cells); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetCellStyle(planSheet, "A1", "J1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	summaryHeaders := []string{"Group", "Status", "Reason", "Patterns", "Coil Run (m)", "Utilization (%)", "Weight (kg)", "Cost", "Baseline Cost", "Savings"}
	if err := writeRow(f, summarySheet, 1, toCells(summaryHeaders)); err != nil {
		return err
	}
	for i, gr := range report.Results {
		est := model.CalculatePlanEstimate(gr, report.Settings.Density)
		cost, _ := est.MaterialCost.Float64()
		cells := []interface{}{
			gr.Group.Key(), string(gr.Status), gr.Reason, gr.ActivePatterns(),
			est.RawLength / 1000, est.Utilization, est.WeightKg, cost,
		}
		if base, ok := report.baseline(i); ok && gr.Solved() {
			baseEst := model.CalculatePlanEstimate(base, 0)
			baseCost, _ := baseEst.MaterialCost.Float64()
			diff, _ := savings(gr, base)
			saved, _ := diff.Float64()
			cells = append(cells, baseCost, saved)
		}
		if err := writeRow(f, summarySheet, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "J1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	return f.SaveAs(path)
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
