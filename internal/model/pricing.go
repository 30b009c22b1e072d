package model

import (
	"fmt"
	"sort"
)

// PriceBreak starts a price bracket: raw widths from StartWidth up to the
// next break cost UnitCost.
type PriceBreak struct {
	StartWidth float64 `json:"start_width" yaml:"start_width"` // mm, inclusive
	UnitCost   float64 `json:"unit_cost" yaml:"unit_cost"`
}

// PriceTable is a sorted price-break schedule. Brackets are half-open
// [start_i, start_i+1); the last one extends to infinity.
type PriceTable struct {
	breaks []PriceBreak
}

// NewPriceTable sorts the breaks and validates them.
func NewPriceTable(breaks []PriceBreak) (PriceTable, error) {
	if len(breaks) == 0 {
		return PriceTable{}, fmt.Errorf("%w: no price breaks", ErrInvalidPriceTable)
	}
	sorted := make([]PriceBreak, len(breaks))
	copy(sorted, breaks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartWidth < sorted[j].StartWidth })

	for i, b := range sorted {
		if b.StartWidth <= 0 {
			return PriceTable{}, fmt.Errorf("%w: start width %g must be positive", ErrInvalidPriceTable, b.StartWidth)
		}
		if b.UnitCost < 0 {
			return PriceTable{}, fmt.Errorf("%w: unit cost %g at %g must not be negative", ErrInvalidPriceTable, b.UnitCost, b.StartWidth)
		}
		if i > 0 && sorted[i-1].StartWidth == b.StartWidth {
			return PriceTable{}, fmt.Errorf("%w: duplicate start width %g", ErrInvalidPriceTable, b.StartWidth)
		}
	}
	return PriceTable{breaks: sorted}, nil
}

// Breaks returns a copy of the sorted breaks.
func (t PriceTable) Breaks() []PriceBreak {
	out := make([]PriceBreak, len(t.breaks))
	copy(out, t.breaks)
	return out
}

// MinWidth returns the smallest priced width.
func (t PriceTable) MinWidth() float64 {
	if len(t.breaks) == 0 {
		return 0
	}
	return t.breaks[0].StartWidth
}

// bracket returns the index of the greatest start <= width, or -1.
func (t PriceTable) bracket(width float64) int {
	i := sort.Search(len(t.breaks), func(i int) bool { return t.breaks[i].StartWidth > width })
	return i - 1
}

// Lookup returns the unit cost for a raw width.
func (t PriceTable) Lookup(width float64) (float64, error) {
	i := t.bracket(width)
	if i < 0 {
		return 0, fmt.Errorf("%w: width %g is below the first price break %g", ErrUncoveredWidth, width, t.MinWidth())
	}
	return t.breaks[i].UnitCost, nil
}

// Covers checks that every raw width of the domain can be priced. It is
// enough to check the narrowest one.
func (t PriceTable) Covers(domain RawWidthDomain) error {
	widths, err := domain.Widths()
	if err != nil {
		return err
	}
	if len(t.breaks) == 0 {
		return fmt.Errorf("%w: no price breaks", ErrInvalidPriceTable)
	}
	if _, err := t.Lookup(widths[0]); err != nil {
		return err
	}
	return nil
}

// BoundaryWidths returns the narrowest domain width inside each price bracket.
// Only these widths can profit from patterns with trim: any other width with
// trim is beaten by the narrower exact width in the same, or a cheaper, bracket.
func (t PriceTable) BoundaryWidths(widths []float64) []float64 {
	seen := make(map[int]bool, len(t.breaks))
	var out []float64
	for _, w := range widths {
		i := t.bracket(w)
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, w)
	}
	return out
}
