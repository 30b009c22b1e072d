package export

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SlitCut/internal/model"
)

func TestExportXLSX_Sheets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.xlsx")

	report := Report{Results: buildTestResults(), Settings: buildTestSettings()}
	if err := ExportXLSX(path, report); err != nil {
		t.Fatalf("ExportXLSX returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("cannot open workbook: %v", err)
	}
	defer f.Close()

	planRows, err := f.GetRows(planSheet)
	if err != nil {
		t.Fatalf("cannot read %s sheet: %v", planSheet, err)
	}
	// header + 3 pattern records
	if len(planRows) != 4 {
		t.Fatalf("expected 4 plan rows, got %d", len(planRows))
	}
	if planRows[1][0] != "DX51D/1.5" || planRows[1][3] != "4x166 + 2x285" {
		t.Errorf("unexpected first record row: %v", planRows[1])
	}

	summaryRows, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("cannot read %s sheet: %v", summarySheet, err)
	}
	// header + 3 groups, including the unsolved one
	if len(summaryRows) != 4 {
		t.Fatalf("expected 4 summary rows, got %d", len(summaryRows))
	}
	if summaryRows[3][1] != string(model.StatusNoSolution) || summaryRows[3][2] != "infeasible" {
		t.Errorf("unexpected unsolved row: %v", summaryRows[3])
	}
}

func TestExportXLSX_NothingSolved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.xlsx")

	err := ExportXLSX(path, Report{Results: buildTestResults()[2:]})
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}
