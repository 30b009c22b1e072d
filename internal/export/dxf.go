package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/SlitCut/internal/model"
)

// DXF layer names used by the knife layout.
const (
	LayerCoil   = "COIL"
	LayerKnives = "KNIVES"
	LayerText   = "TEXT"
)

const (
	dxfBandHeight = 60.0 // drawing units per pattern band
	dxfBandGap    = 40.0
	dxfTextHeight = 12.0
)

// ExportDXF writes a knife layout drawing: one band per pattern with the coil
// outline on COIL, a vertical line per knife position on KNIVES and the
// pattern description on TEXT. X coordinates are millimetres across the coil.
func ExportDXF(path string, results []model.GroupResult) error {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerCoil, dxf.DefaultColor, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerCoil, err)
	}
	if _, err := d.AddLayer(LayerKnives, color.Red, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerKnives, err)
	}
	if _, err := d.AddLayer(LayerText, color.Cyan, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerText, err)
	}

	bands := 0
	y := 0.0
	for _, gr := range results {
		if !gr.Solved() {
			continue
		}
		for i, r := range gr.Records {
			if err := drawKnifeBand(d, gr.Group.Key(), i+1, r, y); err != nil {
				return err
			}
			y -= dxfBandHeight + dxfBandGap
			bands++
		}
	}
	if bands == 0 {
		return ErrNothingToExport
	}

	return d.SaveAs(path)
}

func drawKnifeBand(d *drawing.Drawing, group string, num int, r model.PatternRecord, y float64) error {
	top := y
	bottom := y - dxfBandHeight

	if err := d.ChangeLayer(LayerCoil); err != nil {
		return err
	}
	outline := [][4]float64{
		{0, bottom, r.RawWidth, bottom},
		{r.RawWidth, bottom, r.RawWidth, top},
		{r.RawWidth, top, 0, top},
		{0, top, 0, bottom},
	}
	for _, l := range outline {
		if _, err := d.Line(l[0], l[1], 0, l[2], l[3], 0); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerKnives); err != nil {
		return err
	}
	for _, x := range KnifePositions(r) {
		if _, err := d.Line(x, bottom, 0, x, top, 0); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerText); err != nil {
		return err
	}
	label := fmt.Sprintf("%s P%d %gmm %s L=%.1fm", group, num, r.RawWidth, r.Describe(), r.LengthUsed/1000)
	_, err := d.Text(label, 0, top+dxfTextHeight/2, 0, dxfTextHeight)
	return err
}

// KnifePositions returns the x offsets of the knives across a pattern: one
// between adjacent strips and one at the edge of the trim. Coil edges are not
// included.
func KnifePositions(r model.PatternRecord) []float64 {
	var knives []float64
	x := 0.0
	for _, c := range r.Counts {
		for n := 0; n < c.Count; n++ {
			x += c.Width
			knives = append(knives, x)
		}
	}
	// The last strip ends at the coil edge when there is no trim.
	if len(knives) > 0 && r.TrimWidth <= 0 {
		knives = knives[:len(knives)-1]
	}
	return knives
}
