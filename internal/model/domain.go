package model

import (
	"fmt"
	"math"
	"sort"
)

// RawWidthDomain describes the raw coil widths that may be bought: either a
// contiguous range Min..Max stepping by Step, or an explicit list of widths.
// When List is set the range fields are ignored.
type RawWidthDomain struct {
	Min  float64   `json:"min,omitempty" yaml:"min"`   // mm
	Max  float64   `json:"max,omitempty" yaml:"max"`   // mm
	Step float64   `json:"step,omitempty" yaml:"step"` // mm, defaults to 1
	List []float64 `json:"widths,omitempty" yaml:"widths"`
}

// RangeDomain returns a contiguous integer domain min..max.
func RangeDomain(min, max float64) RawWidthDomain {
	return RawWidthDomain{Min: min, Max: max, Step: 1}
}

// DiscreteDomain returns a domain of explicit widths.
func DiscreteDomain(widths ...float64) RawWidthDomain {
	return RawWidthDomain{List: widths}
}

// maxRangeWidths caps range expansion so a typo cannot allocate millions of widths.
const maxRangeWidths = 100000

// Widths expands the domain into sorted, de-duplicated candidate widths.
func (d RawWidthDomain) Widths() ([]float64, error) {
	if len(d.List) > 0 {
		seen := make(map[float64]bool, len(d.List))
		out := make([]float64, 0, len(d.List))
		for _, w := range d.List {
			if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: width %g must be positive", ErrInvalidDomain, w)
			}
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
		sort.Float64s(out)
		return out, nil
	}

	step := d.Step
	if step == 0 {
		step = 1
	}
	switch {
	case step < 0:
		return nil, fmt.Errorf("%w: step %g must be positive", ErrInvalidDomain, step)
	case d.Min <= 0:
		return nil, fmt.Errorf("%w: minimum width %g must be positive", ErrInvalidDomain, d.Min)
	case d.Min > d.Max:
		return nil, fmt.Errorf("%w: minimum %g exceeds maximum %g", ErrInvalidDomain, d.Min, d.Max)
	}

	n := int(math.Floor((d.Max-d.Min)/step+1e-9)) + 1
	if n > maxRangeWidths {
		return nil, fmt.Errorf("%w: range %g..%g step %g yields %d widths", ErrInvalidDomain, d.Min, d.Max, step, n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Min + float64(i)*step
	}
	return out, nil
}

// String renders the domain for logs and reports.
func (d RawWidthDomain) String() string {
	if len(d.List) > 0 {
		return fmt.Sprintf("%v", d.List)
	}
	if d.Step == 0 || d.Step == 1 {
		return fmt.Sprintf("%g..%g", d.Min, d.Max)
	}
	return fmt.Sprintf("%g..%g/%g", d.Min, d.Max, d.Step)
}
