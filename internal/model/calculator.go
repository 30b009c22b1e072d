package model

import "github.com/shopspring/decimal"

// PlanEstimate holds the downstream metrics of a solved group: material
// area, utilization, coil weight and money.
type PlanEstimate struct {
	RawArea      float64         `json:"raw_area"`     // raw coil consumed (sq mm)
	ProductArea  float64         `json:"product_area"` // product strips produced (sq mm)
	TrimArea     float64         `json:"trim_area"`    // scrap (sq mm)
	Utilization  float64         `json:"utilization"`  // ProductArea / RawArea in percent
	RawLength    float64         `json:"raw_length"`   // total coil length run (mm)
	WeightKg     float64         `json:"weight_kg"`    // raw coil weight at the group thickness
	MaterialCost decimal.Decimal `json:"material_cost"`
	Setups       int             `json:"setups"` // distinct patterns run
}

// mm3PerDm3 converts cubic millimetres to cubic decimetres for kg/dm³ densities.
const mm3PerDm3 = 1e6

// CalculatePlanEstimate computes reporting metrics for a group result.
// Density is in kg/dm³ (7.85 for carbon steel); a zero density or thickness
// leaves the weight at zero. Money is accumulated in decimal so per-record
// costs add up exactly in reports.
func CalculatePlanEstimate(gr GroupResult, density float64) PlanEstimate {
	est := PlanEstimate{Setups: len(gr.Records)}
	cost := decimal.Zero
	for _, r := range gr.Records {
		est.RawArea += r.RawWidth * r.LengthUsed
		est.ProductArea += r.UsedWidth() * r.LengthUsed
		est.RawLength += r.LengthUsed
		cost = cost.Add(decimal.NewFromFloat(r.Cost))
	}
	est.TrimArea = est.RawArea - est.ProductArea
	if est.RawArea > 0 {
		est.Utilization = est.ProductArea / est.RawArea * 100.0
	}
	if density > 0 && gr.Group.Thickness > 0 {
		est.WeightKg = est.RawArea * gr.Group.Thickness / mm3PerDm3 * density
	}
	est.MaterialCost = cost.Round(2)
	return est
}

// Savings returns how much cheaper the plan is than a baseline cost, in
// money and as a percentage of the baseline.
func (e PlanEstimate) Savings(baseline decimal.Decimal) (decimal.Decimal, float64) {
	diff := baseline.Sub(e.MaterialCost)
	if baseline.IsZero() {
		return diff, 0
	}
	pct, _ := diff.Div(baseline).Mul(decimal.NewFromInt(100)).Float64()
	return diff, pct
}
