// Package export provides functionality for exporting slitting plans to
// various file formats.
package export

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/SlitCut/internal/model"
)

// ErrNothingToExport is returned when no group has a plan to export.
var ErrNothingToExport = errors.New("no solved groups to export")

// Report is the data rendered by the PDF and spreadsheet exporters.
type Report struct {
	Title    string
	Results  []model.GroupResult
	Settings model.SlitSettings
	// Baselines optionally holds the single-width baseline of each group,
	// aligned with Results; savings are reported when present.
	Baselines []model.GroupResult
}

func (r Report) title() string {
	if r.Title == "" {
		return "Slitting Plan"
	}
	return r.Title
}

func (r Report) baseline(i int) (model.GroupResult, bool) {
	if i >= len(r.Baselines) || !r.Baselines[i].Solved() {
		return model.GroupResult{}, false
	}
	return r.Baselines[i], true
}

func (r Report) solvedCount() int {
	n := 0
	for _, gr := range r.Results {
		if gr.Solved() {
			n++
		}
	}
	return n
}

// stripColor represents an RGB color for a product strip.
type stripColor struct {
	R, G, B int
}

// stripColors is indexed by product position so a width keeps its color
// across every pattern of a group.
var stripColors = []stripColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	bandHeight   = 9.0
	bandGap      = 7.0
	drawAreaTop  = marginTop + headerHeight + 14.0
)

// ExportPDF generates a PDF document containing the slitting plan. Each
// solved group is rendered on its own page with a cross-section of every
// pattern, followed by a summary page with overall statistics.
func ExportPDF(path string, report Report) error {
	if report.solvedCount() == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(report.title(), true)

	for i, gr := range report.Results {
		if !gr.Solved() {
			continue
		}
		pdf.AddPage()
		renderGroupPage(pdf, gr, report.Settings.Density)
		if base, ok := report.baseline(i); ok {
			renderSavingsLine(pdf, gr, base)
		}
	}

	pdf.AddPage()
	renderSummaryPage(pdf, report)

	return pdf.OutputFileAndClose(path)
}

// renderGroupPage draws the patterns of one group on the current PDF page.
func renderGroupPage(pdf *fpdf.Fpdf, gr model.GroupResult, density float64) {
	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Group %s: %d pattern(s)", gr.Group.Key(), gr.ActivePatterns())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	// Stats line
	est := model.CalculatePlanEstimate(gr, density)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Coil run: %.0f m | Utilization: %.2f%% | Weight: %.0f kg | Material cost: %s",
		est.RawLength/1000, est.Utilization, est.WeightKg, est.MaterialCost.StringFixed(2))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	// Scale the widest coil to the drawing width
	drawWidth := pageWidth - marginLeft - marginRight - 70
	maxRaw := 0.0
	for _, r := range gr.Records {
		maxRaw = math.Max(maxRaw, r.RawWidth)
	}
	if maxRaw == 0 {
		return
	}
	scale := drawWidth / maxRaw
	colorOf := productColors(gr.Group.Products)

	y := drawAreaTop
	for i, r := range gr.Records {
		if y+bandHeight > pageHeight-marginBottom-10 {
			break
		}
		drawPatternBand(pdf, r, i+1, scale, colorOf, marginLeft, y)
		y += bandHeight + bandGap
	}

	drawProductsLegend(pdf, gr.Group.Products, colorOf, pageHeight-marginBottom-6)
}

// productColors assigns a color to every product width.
func productColors(products []model.Product) map[float64]stripColor {
	colors := make(map[float64]stripColor, len(products))
	for i, p := range products {
		colors[p.Width] = stripColors[i%len(stripColors)]
	}
	return colors
}

// drawPatternBand renders one pattern as a cross-section of the coil: the
// product strips side by side, then the trim.
func drawPatternBand(pdf *fpdf.Fpdf, r model.PatternRecord, num int, scale float64, colorOf map[float64]stripColor, x0, y float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x0, y-4)
	pdf.CellFormat(120, 4, fmt.Sprintf("P%d  %.0f mm: %s", num, r.RawWidth, r.Describe()), "", 0, "L", false, 0, "")

	// Coil outline
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.4)
	pdf.SetFillColor(220, 220, 220)
	pdf.Rect(x0, y, r.RawWidth*scale, bandHeight, "FD")

	x := x0
	pdf.SetLineWidth(0.2)
	for _, c := range r.Counts {
		col, ok := colorOf[c.Width]
		if !ok {
			col = stripColors[0]
		}
		w := c.Width * scale
		for n := 0; n < c.Count; n++ {
			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.Rect(x, y, w, bandHeight, "FD")
			if w > 8 {
				pdf.SetFont("Helvetica", "", 6)
				label := fmt.Sprintf("%g", c.Width)
				lw := pdf.GetStringWidth(label)
				pdf.SetXY(x+(w-lw)/2, y+bandHeight/2-2)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
			x += w
		}
	}

	if r.TrimWidth > 0 {
		tw := r.TrimWidth * scale
		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.Rect(x, y, tw, bandHeight, "FD")
		drawHatchPattern(pdf, x, y, tw, bandHeight)
	}

	// Run data to the right of the band
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(x0+r.RawWidth*scale+4, y+1)
	info := fmt.Sprintf("L %.1f m | trim %.1f mm | %.2f%%", r.LengthUsed/1000, r.TrimWidth, r.Utilization())
	pdf.CellFormat(70, 4, info, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark scrap.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 1.5
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawProductsLegend renders the product colors at the bottom of the page.
func drawProductsLegend(pdf *fpdf.Fpdf, products []model.Product, colorOf map[float64]stripColor, y float64) {
	if len(products) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(20, 4, "Products:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	maxX := pageWidth - marginRight

	for _, p := range products {
		col := colorOf[p.Width]
		label := fmt.Sprintf("%g mm", p.Width)
		if p.Label != "" {
			label = fmt.Sprintf("%s (%g mm)", p.Label, p.Width)
		}
		labelW := pdf.GetStringWidth(label) + 6

		// Wrap to next line if needed
		if xPos+labelW > maxX {
			y += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, y+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, y)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSavingsLine prints the comparison with the single-width baseline.
func renderSavingsLine(pdf *fpdf.Fpdf, gr, baseline model.GroupResult) {
	diff, pct := savings(gr, baseline)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(0, 110, 0)
	pdf.SetXY(marginLeft, marginTop+headerHeight+5)
	text := fmt.Sprintf("Saves %s (%.2f%%) against slitting every product from %.0f mm coil",
		diff.StringFixed(2), pct, baselineWidth(baseline))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, text, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func savings(gr, baseline model.GroupResult) (decimal.Decimal, float64) {
	planned := model.CalculatePlanEstimate(gr, 0)
	base := model.CalculatePlanEstimate(baseline, 0)
	return planned.Savings(base.MaterialCost)
}

func baselineWidth(baseline model.GroupResult) float64 {
	if len(baseline.Records) == 0 {
		return 0
	}
	return baseline.Records[0].RawWidth
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, report Report) {
	// Title
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, report.title()+" Summary", "", 0, "L", false, 0, "")

	// Separator line
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	// Per-group breakdown table
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Group Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{40, 35, 25, 35, 35, 30, 40, 27}
	headers := []string{"Group", "Status", "Patterns", "Coil Run (m)", "Utilization", "Weight (kg)", "Cost", "Solve Time"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	total := decimal.Zero
	for i, gr := range report.Results {
		est := model.CalculatePlanEstimate(gr, report.Settings.Density)
		total = total.Add(est.MaterialCost)
		xPos = marginLeft
		rowData := []string{
			gr.Group.Key(),
			string(gr.Status),
			fmt.Sprintf("%d", gr.ActivePatterns()),
			fmt.Sprintf("%.1f", est.RawLength/1000),
			fmt.Sprintf("%.2f%%", est.Utilization),
			fmt.Sprintf("%.0f", est.WeightKg),
			est.MaterialCost.StringFixed(2),
			gr.Elapsed.Round(time.Millisecond).String(),
		}

		// Alternate row background
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	y += 4
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 6, "Total material cost: "+total.StringFixed(2), "", 0, "L", false, 0, "")
	y += 8

	// Groups without a plan
	for _, gr := range report.Results {
		if gr.Solved() {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(250, 6, fmt.Sprintf("WARNING: no plan for %s (%s)", gr.Group.Key(), gr.Reason), "", 0, "L", false, 0, "")
		y += 6
	}
	pdf.SetTextColor(0, 0, 0)

	// Optimizer settings summary
	y += 6
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Optimizer Settings", "", 0, "L", false, 0, "")
	y += 9

	tolerance := "narrowest product"
	if report.Settings.TrimTolerance != nil {
		tolerance = fmt.Sprintf("%.1f mm", *report.Settings.TrimTolerance)
	}
	settingsItems := []struct {
		label string
		value string
	}{
		{"Max Patterns", fmt.Sprintf("%d", report.Settings.MaxPatterns)},
		{"Trim Tolerance", tolerance},
		{"Time Limit", report.Settings.TimeLimit.String()},
		{"Node Limit", fmt.Sprintf("%d", report.Settings.NodeLimit)},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}

	// Footer
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by SlitCut - Coil Slitting Optimizer", "", 0, "C", false, 0, "")
}
