package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a strip width that must be produced, with its total length demand.
type Product struct {
	ID     string  `json:"id" yaml:"id"`
	Label  string  `json:"label" yaml:"label"`
	Width  float64 `json:"width" yaml:"width"`   // mm
	Demand float64 `json:"demand" yaml:"demand"` // total length, mm
}

func NewProduct(label string, width, demand float64) Product {
	return Product{
		ID:     uuid.New().String()[:8],
		Label:  label,
		Width:  width,
		Demand: demand,
	}
}

// Validate reports whether the product can take part in a plan.
func (p Product) Validate() error {
	if p.Width <= 0 {
		return fmt.Errorf("%w: width %g must be positive", ErrInvalidProduct, p.Width)
	}
	if p.Demand < 0 {
		return fmt.Errorf("%w: demand %g for width %g must not be negative", ErrInvalidProduct, p.Demand, p.Width)
	}
	return nil
}

// NormalizeProducts merges products sharing a width (summing their demand)
// and returns them sorted by ascending width. Labels of merged products are
// joined so reports can still name them.
func NormalizeProducts(products []Product) ([]Product, error) {
	byWidth := make(map[float64]*Product, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if existing, ok := byWidth[p.Width]; ok {
			existing.Demand += p.Demand
			if p.Label != "" && !strings.Contains(existing.Label, p.Label) {
				if existing.Label == "" {
					existing.Label = p.Label
				} else {
					existing.Label += ", " + p.Label
				}
			}
			continue
		}
		cp := p
		if cp.ID == "" {
			cp.ID = uuid.New().String()[:8]
		}
		byWidth[p.Width] = &cp
	}

	out := make([]Product, 0, len(byWidth))
	for _, p := range byWidth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Width < out[j].Width })
	return out, nil
}

// MinProductWidth returns the narrowest product width, or 0 for no products.
func MinProductWidth(products []Product) float64 {
	if len(products) == 0 {
		return 0
	}
	minW := products[0].Width
	for _, p := range products[1:] {
		if p.Width < minW {
			minW = p.Width
		}
	}
	return minW
}

// Pattern is one way of slitting a raw coil of RawWidth into product strips.
// Counts is aligned with the normalized product slice it was generated from.
type Pattern struct {
	ID        string  `json:"id"`
	RawWidth  float64 `json:"raw_width"`  // mm
	Counts    []int   `json:"counts"`     // strips per product, same order as products
	TrimWidth float64 `json:"trim_width"` // mm of scrap across the coil
	UnitCost  float64 `json:"unit_cost"`  // price of the raw width bracket
}

// UsedWidth returns the total width of product strips in the pattern.
func (p Pattern) UsedWidth() float64 {
	return p.RawWidth - p.TrimWidth
}

// EffectiveWidth is the width charged per unit length: scrap trim is
// credited at half its width for partial recovery value.
func (p Pattern) EffectiveWidth() float64 {
	return p.RawWidth - p.TrimWidth/2
}

// CostPerLength returns the material cost of running one unit of length.
func (p Pattern) CostPerLength() float64 {
	return p.UnitCost * p.EffectiveWidth()
}

// Strips returns the total number of strips cut by the pattern.
func (p Pattern) Strips() int {
	total := 0
	for _, c := range p.Counts {
		total += c
	}
	return total
}

// ProductCount is the number of strips of one product width in a pattern.
type ProductCount struct {
	ProductID string  `json:"product_id"`
	Label     string  `json:"label,omitempty"`
	Width     float64 `json:"width"` // mm
	Count     int     `json:"count"`
}

// PatternRecord is one pattern selected by the optimizer together with the
// length of raw coil to run through it.
type PatternRecord struct {
	PatternID  string         `json:"pattern_id"`
	RawWidth   float64        `json:"raw_width"` // mm
	Counts     []ProductCount `json:"counts"`
	LengthUsed float64        `json:"length_used"` // mm of raw coil
	TrimWidth  float64        `json:"trim_width"`  // mm
	UnitCost   float64        `json:"unit_cost"`
	Cost       float64        `json:"cost"` // UnitCost × effective width × LengthUsed
}

// UsedWidth returns the width of product strips in the record's pattern.
func (r PatternRecord) UsedWidth() float64 {
	return r.RawWidth - r.TrimWidth
}

// Utilization returns the share of raw width turned into product, in percent.
func (r PatternRecord) Utilization() float64 {
	if r.RawWidth == 0 {
		return 0
	}
	return r.UsedWidth() / r.RawWidth * 100.0
}

// Describe renders the pattern as "2x166 + 3x285".
func (r PatternRecord) Describe() string {
	parts := make([]string, 0, len(r.Counts))
	for _, c := range r.Counts {
		parts = append(parts, fmt.Sprintf("%dx%g", c.Count, c.Width))
	}
	return strings.Join(parts, " + ")
}

// Status is the outcome of one optimization call.
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusNoSolution Status = "NO_SOLUTION" // infeasible, or no proven optimum within the solve bound
	StatusError      Status = "ERROR"
)

// GroupResult holds the plan for one (grade, thickness) group.
type GroupResult struct {
	Group       Group           `json:"group"`
	Status      Status          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Records     []PatternRecord `json:"records,omitempty"`
	Objective   float64         `json:"objective"`
	CatalogSize int             `json:"catalog_size"`
	Nodes       int             `json:"nodes"`
	Elapsed     time.Duration   `json:"elapsed"`
}

// Solved reports whether the group has a usable plan.
func (gr GroupResult) Solved() bool {
	return gr.Status == StatusOptimal
}

// ActivePatterns returns the number of distinct patterns that are run.
func (gr GroupResult) ActivePatterns() int {
	return len(gr.Records)
}

// ProducedLength returns the total length of a product width produced by the plan.
func (gr GroupResult) ProducedLength(width float64) float64 {
	var total float64
	for _, r := range gr.Records {
		for _, c := range r.Counts {
			if c.Width == width {
				total += float64(c.Count) * r.LengthUsed
			}
		}
	}
	return total
}

// RawArea returns raw width × length summed over all records (mm²).
func (gr GroupResult) RawArea() float64 {
	var total float64
	for _, r := range gr.Records {
		total += r.RawWidth * r.LengthUsed
	}
	return total
}

// TotalEfficiency returns overall material utilization in percent.
func (gr GroupResult) TotalEfficiency() float64 {
	var used, raw float64
	for _, r := range gr.Records {
		used += r.UsedWidth() * r.LengthUsed
		raw += r.RawWidth * r.LengthUsed
	}
	if raw == 0 {
		return 0
	}
	return used / raw * 100.0
}

// SlitSettings holds the optimizer configuration for one plan.
type SlitSettings struct {
	MaxPatterns   int           `json:"max_patterns" yaml:"max_patterns"`               // distinct setups allowed per run
	TrimTolerance *float64      `json:"trim_tolerance,omitempty" yaml:"trim_tolerance"` // edge-pass trim window; nil = narrowest product
	TimeLimit     time.Duration `json:"time_limit,omitempty" yaml:"time_limit"`         // 0 = unbounded
	NodeLimit     int           `json:"node_limit,omitempty" yaml:"node_limit"`         // branch-and-bound nodes, 0 = solver default
	Workers       int           `json:"workers,omitempty" yaml:"workers"`               // parallel groups / widths, 0 = GOMAXPROCS
	Density       float64       `json:"density,omitempty" yaml:"density"`               // kg/dm³, used for weight reporting
}

func DefaultSettings() SlitSettings {
	return SlitSettings{
		MaxPatterns: 5,
		TimeLimit:   30 * time.Second,
		NodeLimit:   100000,
		Density:     7.85,
	}
}

// Validate checks the settings independently of any product data.
func (s SlitSettings) Validate() error {
	if s.MaxPatterns < 0 {
		return fmt.Errorf("%w: max patterns %d must not be negative", ErrInvalidSettings, s.MaxPatterns)
	}
	if s.TrimTolerance != nil && *s.TrimTolerance < 0 {
		return fmt.Errorf("%w: trim tolerance %g must not be negative", ErrInvalidSettings, *s.TrimTolerance)
	}
	if s.TimeLimit < 0 || s.NodeLimit < 0 || s.Workers < 0 {
		return fmt.Errorf("%w: limits and workers must not be negative", ErrInvalidSettings)
	}
	return nil
}

// Tolerance returns the edge-pass trim window for the given products.
func (s SlitSettings) Tolerance(products []Product) float64 {
	if s.TrimTolerance != nil {
		return *s.TrimTolerance
	}
	return MinProductWidth(products)
}

// Job ties everything together for save/load.
type Job struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Domain   RawWidthDomain `json:"domain"`
	Prices   []PriceBreak   `json:"price_breaks"`
	Orders   []Order        `json:"orders"`
	Settings SlitSettings   `json:"settings"`
	Results  []GroupResult  `json:"results,omitempty"`
}

func NewJob() Job {
	return Job{
		ID:       uuid.New().String(),
		Name:     "Untitled",
		Orders:   []Order{},
		Settings: DefaultSettings(),
	}
}
