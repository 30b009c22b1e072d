// Package importer provides CSV and Excel import functionality for order
// lists, price-break schedules and raw coil widths. It supports automatic
// delimiter detection, flexible column mapping, and case-insensitive header
// recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SlitCut/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Orders   []model.Order
	Prices   []model.PriceBreak
	Widths   []float64
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Label     int
	Grade     int
	Thickness int
	Width     int
	Length    int
	Count     int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":     {"label", "name", "part", "part name", "description", "desc", "item", "profile"},
	"grade":     {"grade", "material", "steel", "steel grade", "mat"},
	"thickness": {"thickness", "thick", "t", "gauge", "thk"},
	"width":     {"width", "w", "strip width", "expanded width", "unfolded width"},
	"length":    {"length", "len", "l", "piece length", "unit length"},
	"count":     {"count", "qty", "quantity", "num", "amount", "pcs", "pieces"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // Allow variable field counts

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a positional
// mapping chosen by the row's column count and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Grade: -1, Thickness: -1, Width: -1, Length: -1, Count: -1}
	slots := map[string]*int{
		"label":     &mapping.Label,
		"grade":     &mapping.Grade,
		"thickness": &mapping.Thickness,
		"width":     &mapping.Width,
		"length":    &mapping.Length,
		"count":     &mapping.Count,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if *slots[role] == -1 {
						*slots[role] = i
					}
				}
			}
		}
	}

	if isHeader {
		return mapping, true
	}
	return positionalMapping(len(row)), false
}

// positionalMapping is used for files without a header:
// 6+ columns: Label, Grade, Thickness, Width, Length, Count
// 4-5 columns: Label, Width, Length, Count
// fewer: Width, Length, Count
func positionalMapping(cols int) ColumnMapping {
	switch {
	case cols >= 6:
		return ColumnMapping{Label: 0, Grade: 1, Thickness: 2, Width: 3, Length: 4, Count: 5}
	case cols >= 4:
		return ColumnMapping{Label: 0, Grade: -1, Thickness: -1, Width: 1, Length: 2, Count: 3}
	default:
		return ColumnMapping{Label: -1, Grade: -1, Thickness: -1, Width: 0, Length: 1, Count: 2}
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts a decimal comma as written by European spreadsheets.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

// parseRow extracts an Order from a row using the given column mapping.
// Returns the order, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, orderCount int) (model.Order, string, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Order %d", orderCount+1)
	}

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return model.Order{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	width, err := parseNumber(widthStr)
	if err != nil {
		return model.Order{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), ""
	}

	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return model.Order{}, fmt.Sprintf("%s: Missing length value", rowLabel), ""
	}
	length, err := parseNumber(lengthStr)
	if err != nil {
		return model.Order{}, fmt.Sprintf("%s: Invalid length '%s'", rowLabel, lengthStr), ""
	}

	countStr := getCell(row, mapping.Count)
	if countStr == "" {
		return model.Order{}, fmt.Sprintf("%s: Missing count value", rowLabel), ""
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return model.Order{}, fmt.Sprintf("%s: Invalid count '%s'", rowLabel, countStr), ""
	}

	if width <= 0 || length <= 0 || count <= 0 {
		return model.Order{}, fmt.Sprintf("%s: Width, length, and count must be positive", rowLabel), ""
	}

	order := model.Order{
		Label:  label,
		Grade:  getCell(row, mapping.Grade),
		Width:  width,
		Length: length,
		Count:  count,
	}

	// Optional thickness
	var warning string
	if thickStr := getCell(row, mapping.Thickness); thickStr != "" {
		thick, err := parseNumber(thickStr)
		if err != nil || thick < 0 {
			warning = fmt.Sprintf("%s: Invalid thickness '%s', ignoring", rowLabel, thickStr)
		} else {
			order.Thickness = thick
		}
	}

	return order, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// readCSVFile loads a CSV file with delimiter detection. Problems are
// recorded on result; nil rows mean nothing could be read.
func readCSVFile(path string, result *ImportResult) [][]string {
	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return nil
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return nil
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return nil
	}
	return records
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportCSV imports orders from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}
	records := readCSVFile(path, &result)
	if records == nil {
		return result
	}
	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports orders from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	records, err := readCSV(reader, delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// Sheet names ImportExcel looks for besides the order sheet.
const (
	OrdersSheet = "Orders"
	PricesSheet = "Prices"
	WidthsSheet = "Widths"
)

// ImportExcel imports orders from an Excel (.xlsx) file. Orders are read
// from a sheet named "Orders", or the first sheet. When the workbook also
// has "Prices" and "Widths" sheets, the price breaks and raw widths are
// imported from them.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	orderSheet := sheets[0]
	hasSheet := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		hasSheet[s] = true
	}
	if hasSheet[OrdersSheet] {
		orderSheet = OrdersSheet
	}

	rows, err := f.GetRows(orderSheet)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	result = importFromRows(rows, "Row", nil)

	if hasSheet[PricesSheet] && orderSheet != PricesSheet {
		priceRows, err := f.GetRows(PricesSheet)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot read %s sheet: %v", PricesSheet, err))
		} else {
			merge(&result, priceBreaksFromRows(priceRows, PricesSheet+" row"))
		}
	}
	if hasSheet[WidthsSheet] && orderSheet != WidthsSheet {
		widthRows, err := f.GetRows(WidthsSheet)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot read %s sheet: %v", WidthsSheet, err))
		} else {
			merge(&result, widthsFromRows(widthRows, WidthsSheet+" row"))
		}
	}

	return result
}

func merge(dst *ImportResult, src ImportResult) {
	dst.Prices = append(dst.Prices, src.Prices...)
	dst.Widths = append(dst.Widths, src.Widths...)
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
}

// importFromRows is the shared order import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into orders.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	// Detect columns from first row
	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		// Validate that required columns were found
		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Count == -1 {
			missing = append(missing, "Count")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if _, err := parseNumber(getCell(rows[0], mapping.Width)); err != nil {
		// Width column is not numeric - might be an unrecognized header.
		// Skip it as a header but use positional mapping
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		order, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Orders))

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Orders = append(result.Orders, order)
	}

	return result
}

var (
	priceStartAliases = []string{"start", "start width", "start_width", "from", "width", "min width"}
	priceCostAliases  = []string{"cost", "price", "unit cost", "unit_cost", "unit price"}
)

// ImportPriceBreaks imports a price-break schedule from a CSV file with a
// start width and a unit cost per row.
func ImportPriceBreaks(path string) ImportResult {
	result := ImportResult{}
	records := readCSVFile(path, &result)
	if records == nil {
		return result
	}
	out := priceBreaksFromRows(records, "Line")
	out.Warnings = append(result.Warnings, out.Warnings...)
	return out
}

func priceBreaksFromRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{}
	startCol, costCol := 0, 1
	startRow := 0
	if len(rows) > 0 {
		header := rows[0]
		s, c := findColumn(header, priceStartAliases), findColumn(header, priceCostAliases)
		if s >= 0 || c >= 0 {
			startRow = 1
			if s >= 0 {
				startCol = s
			}
			if c >= 0 {
				costCol = c
			}
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		start, err := parseNumber(getCell(row, startCol))
		if err != nil || start <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Invalid start width '%s'", rowLabel, getCell(row, startCol)))
			continue
		}
		cost, err := parseNumber(getCell(row, costCol))
		if err != nil || cost < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Invalid unit cost '%s'", rowLabel, getCell(row, costCol)))
			continue
		}
		result.Prices = append(result.Prices, model.PriceBreak{StartWidth: start, UnitCost: cost})
	}
	sort.Slice(result.Prices, func(i, j int) bool { return result.Prices[i].StartWidth < result.Prices[j].StartWidth })
	return result
}

// ImportWidths imports raw coil widths from a CSV file, one per row in the
// first column. Duplicates are reported as warnings and dropped.
func ImportWidths(path string) ImportResult {
	result := ImportResult{}
	records := readCSVFile(path, &result)
	if records == nil {
		return result
	}
	out := widthsFromRows(records, "Line")
	out.Warnings = append(result.Warnings, out.Warnings...)
	return out
}

func widthsFromRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{}
	seen := make(map[float64]bool)
	for i, row := range rows {
		cell := getCell(row, 0)
		if cell == "" {
			continue
		}
		w, err := parseNumber(cell)
		if err != nil {
			if i == 0 {
				continue // header
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s %d: Invalid width '%s'", rowPrefix, i+1, cell))
			continue
		}
		if w <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s %d: Width must be positive", rowPrefix, i+1))
			continue
		}
		if seen[w] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s %d: Duplicate width %g", rowPrefix, i+1, w))
			continue
		}
		seen[w] = true
		result.Widths = append(result.Widths, w)
	}
	sort.Float64s(result.Widths)
	return result
}

func findColumn(header []string, aliases []string) int {
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, alias := range aliases {
			if normalized == alias {
				return i
			}
		}
	}
	return -1
}
