package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SlitCut/internal/model"
)

// TicketInfo holds the data encoded into each job ticket's QR code. One
// ticket travels with every pattern run on the slitting line.
type TicketInfo struct {
	Group     string  `json:"group"`
	Pattern   int     `json:"pattern"`
	PatternID string  `json:"pattern_id"`
	RawWidth  float64 `json:"raw_width_mm"`
	Knives    string  `json:"knives"`
	Length    float64 `json:"length_m"`
	Trim      float64 `json:"trim_mm"`
	Strips    int     `json:"strips"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded job tickets, one per pattern of
// every solved group, laid out on Avery 5160 sheets.
func ExportLabels(path string, results []model.GroupResult) error {
	tickets := CollectTicketInfos(results)
	if len(tickets) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, ticket := range tickets {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderTicket(pdf, x, y, i, ticket); err != nil {
			return fmt.Errorf("failed to render ticket for %s pattern %d: %w", ticket.Group, ticket.Pattern, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderTicket draws a single ticket at the given position.
func renderTicket(pdf *fpdf.Fpdf, x, y float64, seq int, info TicketInfo) error {
	// Draw light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", seq)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	// Place QR code on the right side of the label
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	title := fmt.Sprintf("%s P%d  %.0f mm", info.Group, info.Pattern, info.RawWidth)
	pdf.CellFormat(textW, 4.5, truncate(pdf, title, textW), "", 1, "L", false, 0, "")

	// Knife setup
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, truncate(pdf, info.Knives, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	run := fmt.Sprintf("Run %.1f m, %d strips", info.Length, info.Strips)
	pdf.CellFormat(textW, 3, run, "", 1, "L", false, 0, "")

	if info.Trim > 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, fmt.Sprintf("Edge trim %.1f mm", info.Trim), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)

	return nil
}

// truncate shortens text with an ellipsis until it fits width.
func truncate(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

// CollectTicketInfos extracts one ticket per pattern record of every solved
// group, numbered from 1 within each group.
func CollectTicketInfos(results []model.GroupResult) []TicketInfo {
	var tickets []TicketInfo
	for _, gr := range results {
		if !gr.Solved() {
			continue
		}
		for i, r := range gr.Records {
			strips := 0
			for _, c := range r.Counts {
				strips += c.Count
			}
			tickets = append(tickets, TicketInfo{
				Group:     gr.Group.Key(),
				Pattern:   i + 1,
				PatternID: r.PatternID,
				RawWidth:  r.RawWidth,
				Knives:    r.Describe(),
				Length:    r.LengthUsed / 1000,
				Trim:      r.TrimWidth,
				Strips:    strips,
			})
		}
	}
	return tickets
}
