package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter_Comma(t *testing.T) {
	data := []byte("Label,Width,Length,Count\nC100,166,9775,400\nC160,285,7444,350\n")
	got := DetectCSVDelimiter(data)
	if got != ',' {
		t.Errorf("expected comma delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Semicolon(t *testing.T) {
	data := []byte("Label;Width;Length;Count\nC100;166;9775;400\nC160;285;7444;350\n")
	got := DetectCSVDelimiter(data)
	if got != ';' {
		t.Errorf("expected semicolon delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Tab(t *testing.T) {
	data := []byte("Label\tWidth\tLength\tCount\nC100\t166\t9775\t400\n")
	got := DetectCSVDelimiter(data)
	if got != '\t' {
		t.Errorf("expected tab delimiter, got %q", got)
	}
}

func TestDetectCSVDelimiter_Pipe(t *testing.T) {
	data := []byte("Label|Width|Length|Count\nC100|166|9775|400\n")
	got := DetectCSVDelimiter(data)
	if got != '|' {
		t.Errorf("expected pipe delimiter, got %q", got)
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"Label", "Grade", "Thickness", "Width", "Length", "Count"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	want := ColumnMapping{Label: 0, Grade: 1, Thickness: 2, Width: 3, Length: 4, Count: 5}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_AlternativeNames(t *testing.T) {
	row := []string{"QTY", "Strip Width", "Material", "Piece Length", "Name", "THK"}
	mapping, isHeader := DetectColumns(row)

	if !isHeader {
		t.Error("expected header to be detected")
	}
	want := ColumnMapping{Label: 4, Grade: 2, Thickness: 5, Width: 1, Length: 3, Count: 0}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"C100", "Q235", "2.5", "166", "9775", "400"})
	if isHeader {
		t.Error("expected no header")
	}
	if mapping.Width != 3 || mapping.Length != 4 || mapping.Count != 5 {
		t.Errorf("expected six-column positional mapping, got %+v", mapping)
	}

	mapping, _ = DetectColumns([]string{"C100", "166", "9775", "400"})
	if mapping.Label != 0 || mapping.Width != 1 || mapping.Grade != -1 {
		t.Errorf("expected four-column positional mapping, got %+v", mapping)
	}

	mapping, _ = DetectColumns([]string{"166", "9775", "400"})
	if mapping.Label != -1 || mapping.Width != 0 || mapping.Count != 2 {
		t.Errorf("expected three-column positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Label,Grade,Thickness,Width,Length,Count\nC100,Q235,2.5,166,9775,400\nC160,Q235,2.5,285,7444,350\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}

	o := result.Orders[0]
	if o.Label != "C100" || o.Grade != "Q235" || o.Thickness != 2.5 {
		t.Errorf("unexpected order header fields: %+v", o)
	}
	if o.Width != 166 || o.Length != 9775 || o.Count != 400 {
		t.Errorf("unexpected order size fields: %+v", o)
	}
	if o.Demand() != 9775*400 {
		t.Errorf("expected demand %d, got %g", 9775*400, o.Demand())
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "C100,166,9775,400\nC160,285,7444,350\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d (errors: %v)", len(result.Orders), result.Errors)
	}
	if result.Orders[1].Width != 285 {
		t.Errorf("expected width 285, got %f", result.Orders[1].Width)
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	data := "Profil,Breite,Laenge,Stueck\nC100,166,9775,400\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d (errors: %v)", len(result.Orders), result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the skipped header")
	}
}

func TestImportCSVFromReader_SemicolonDecimalComma(t *testing.T) {
	data := "Label;Thickness;Width;Length;Count\nC100;2,5;166;9775;400\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Orders[0].Thickness != 2.5 {
		t.Errorf("expected thickness 2.5, got %g", result.Orders[0].Thickness)
	}
}

func TestImportCSVFromReader_EmptyFile(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader(""), ',')
	if len(result.Errors) == 0 {
		t.Error("expected error for empty input")
	}
}

func TestImportCSVFromReader_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"width":  "Label,Width,Length,Count\nA,abc,100,1\n",
		"length": "Label,Width,Length,Count\nA,100,,1\n",
		"count":  "Label,Width,Length,Count\nA,100,100,1.5\n",
		"zero":   "Label,Width,Length,Count\nA,100,100,0\n",
		"neg":    "Label,Width,Length,Count\nA,-100,100,1\n",
	}
	for name, data := range cases {
		result := ImportCSVFromReader(strings.NewReader(data), ',')
		if len(result.Errors) != 1 {
			t.Errorf("%s: expected 1 error, got %v", name, result.Errors)
		}
		if len(result.Orders) != 0 {
			t.Errorf("%s: expected no orders, got %d", name, len(result.Orders))
		}
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Label,Width,Length,Count\nA,166,100,1\nB,bad,100,1\n\nC,285,200,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Orders) != 2 {
		t.Errorf("expected 2 valid orders, got %d", len(result.Orders))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Line 3") {
		t.Errorf("expected one error on Line 3, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_EmptyLabel(t *testing.T) {
	data := "Label,Width,Length,Count\n,166,100,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Orders) != 1 || result.Orders[0].Label != "Order 1" {
		t.Errorf("expected generated label 'Order 1', got %+v", result.Orders)
	}
}

func TestImportCSVFromReader_InvalidThicknessWarns(t *testing.T) {
	data := "Label,Thickness,Width,Length,Count\nA,thin,166,100,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Orders) != 1 {
		t.Fatalf("expected the order to be kept, got %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "thickness") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected thickness warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	data := "Label,Width,Count\nA,166,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Length") {
		t.Errorf("expected missing Length column error, got %v", result.Errors)
	}
}

// ─── CSV File Import Tests ──────────────────────────────────

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := writeFile(t, "orders.csv", "Label;Width;Length;Count\nC100;166;9775;400\nC160;285;7444;350\n")

	result := ImportCSV(path)

	if len(result.Orders) != 2 {
		t.Errorf("expected 2 orders, got %d (errors: %v)", len(result.Orders), result.Errors)
	}
	hasSemicolonWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			hasSemicolonWarning = true
		}
	}
	if !hasSemicolonWarning {
		t.Error("expected warning about semicolon delimiter detection")
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/path/file.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	result := ImportCSV(writeFile(t, "empty.csv", ""))
	if len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Price and width import Tests ──────────────────────────

func TestImportPriceBreaks(t *testing.T) {
	path := writeFile(t, "prices.csv", "Start Width,Unit Cost\n1200,4190\n1000,4240\n")

	result := ImportPriceBreaks(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Prices) != 2 {
		t.Fatalf("expected 2 price breaks, got %d", len(result.Prices))
	}
	if result.Prices[0].StartWidth != 1000 || result.Prices[0].UnitCost != 4240 {
		t.Errorf("expected sorted first break (1000, 4240), got %+v", result.Prices[0])
	}
}

func TestImportPriceBreaks_ReorderedAndInvalid(t *testing.T) {
	path := writeFile(t, "prices.csv", "price,from\n4240,1000\nx,1200\n")

	result := ImportPriceBreaks(path)

	if len(result.Prices) != 1 || result.Prices[0].StartWidth != 1000 {
		t.Errorf("expected one break at 1000, got %+v", result.Prices)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", result.Errors)
	}
}

func TestImportWidths(t *testing.T) {
	path := writeFile(t, "widths.csv", "width\n1250\n1000\n1250\n-3\n")

	result := ImportWidths(path)

	if len(result.Widths) != 2 || result.Widths[0] != 1000 || result.Widths[1] != 1250 {
		t.Errorf("expected [1000 1250], got %v", result.Widths)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected duplicate warning, got %v", result.Warnings)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error for the negative width, got %v", result.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, sheets map[string][][]interface{}, order []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if current := f.GetSheetName(0); i == 0 && current != name {
			if err := f.SetSheetName(current, name); err != nil {
				t.Fatalf("failed to rename sheet: %v", err)
			}
		} else if i > 0 {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("failed to create sheet: %v", err)
			}
		}
		for r, row := range sheets[name] {
			for c, cell := range row {
				cellRef, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("failed to create cell reference: %v", err)
				}
				if err := f.SetCellValue(name, cellRef, cell); err != nil {
					t.Fatalf("failed to set cell value: %v", err)
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_OrdersOnly(t *testing.T) {
	path := createTestExcel(t, map[string][][]interface{}{
		"Sheet1": {
			{"Label", "Grade", "Thickness", "Width", "Length", "Count"},
			{"C100", "Q235", 2.5, 166, 9775, 400},
			{"C160", "Q235", 2.5, 285, 7444, 350},
		},
	}, []string{"Sheet1"})

	result := ImportExcel(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}
	if result.Orders[1].Width != 285 || result.Orders[1].Thickness != 2.5 {
		t.Errorf("unexpected order %+v", result.Orders[1])
	}
	if len(result.Prices) != 0 || len(result.Widths) != 0 {
		t.Errorf("expected no prices or widths, got %v / %v", result.Prices, result.Widths)
	}
}

func TestImportExcel_Workbook(t *testing.T) {
	path := createTestExcel(t, map[string][][]interface{}{
		"Notes":  {{"free text"}},
		"Orders": {{"Width", "Length", "Count"}, {166, 9775, 400}},
		"Prices": {{"Start", "Cost"}, {1000, 4240}, {1200, 4190}},
		"Widths": {{"Width"}, {1000}, {1100}, {1200}},
	}, []string{"Notes", "Orders", "Prices", "Widths"})

	result := ImportExcel(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Orders) != 1 {
		t.Errorf("expected orders from the Orders sheet, got %d", len(result.Orders))
	}
	if len(result.Prices) != 2 {
		t.Errorf("expected 2 price breaks, got %v", result.Prices)
	}
	if len(result.Widths) != 3 {
		t.Errorf("expected 3 widths, got %v", result.Widths)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	result := ImportExcel("/nonexistent/path/file.xlsx")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}
