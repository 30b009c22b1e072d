package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/SlitCut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.SlitSettings
}

// ComparisonResult holds the group results and totals for a single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Results      []model.GroupResult
	TotalCost    float64
	PatternsUsed int
	WastePercent float64
	Unsolved     int
}

// CompareScenarios plans the groups once per scenario and returns the results
// in scenario order. This shows what a different setup ceiling or trim
// window would cost on the same orders.
func (p *Planner) CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, groups []model.Group, domain model.RawWidthDomain, prices model.PriceTable) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		groupResults, err := p.Plan(ctx, groups, domain, prices, scenario.Settings)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		results = append(results, summarize(scenario, groupResults))
	}

	return results, nil
}

func summarize(scenario ComparisonScenario, groupResults []model.GroupResult) ComparisonResult {
	cr := ComparisonResult{Scenario: scenario, Results: groupResults}
	var used, raw float64
	for _, gr := range groupResults {
		if !gr.Solved() {
			cr.Unsolved++
			continue
		}
		cr.TotalCost += gr.Objective
		cr.PatternsUsed += gr.ActivePatterns()
		for _, r := range gr.Records {
			used += r.UsedWidth() * r.LengthUsed
			raw += r.RawWidth * r.LengthUsed
		}
	}
	if raw > 0 {
		cr.WastePercent = 100.0 - used/raw*100.0
	}
	return cr
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.SlitSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: One setup fewer
	if baseSettings.MaxPatterns > 1 {
		fewer := baseSettings
		fewer.MaxPatterns = baseSettings.MaxPatterns - 1
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Max %d Patterns", fewer.MaxPatterns),
			Settings: fewer,
		})
	}

	// Scenario: Two setups more
	more := baseSettings
	more.MaxPatterns = baseSettings.MaxPatterns + 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Max %d Patterns", more.MaxPatterns),
		Settings: more,
	})

	// Scenario: Exact fits only
	if baseSettings.TrimTolerance == nil || *baseSettings.TrimTolerance > 0 {
		exact := baseSettings
		zero := 0.0
		exact.TrimTolerance = &zero
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Exact Fit Only",
			Settings: exact,
		})
	}

	return scenarios
}

// ErrProductTooWide is returned when a product does not fit the baseline width.
var ErrProductTooWide = errors.New("product wider than raw coil")

// SingleWidthBaseline plans the naive way: every product is slit alone from
// coils of rawWidth, as many strips across as fit, and run just long enough
// to meet its demand. It is the reference the optimized plan is measured
// against.
func SingleWidthBaseline(group model.Group, rawWidth float64, prices model.PriceTable) (model.GroupResult, error) {
	gr := model.GroupResult{Group: group, Status: model.StatusOptimal, Reason: "single-width baseline"}
	cost, err := prices.Lookup(rawWidth)
	if err != nil {
		return gr, err
	}
	products, err := model.NormalizeProducts(group.Products)
	if err != nil {
		return gr, err
	}
	gr.Group.Products = products

	for i, p := range products {
		if p.Demand <= 0 {
			continue
		}
		count := int(math.Floor(rawWidth/p.Width + exactTol))
		if count == 0 {
			return gr, fmt.Errorf("%w: %g exceeds %g", ErrProductTooWide, p.Width, rawWidth)
		}
		counts := make([]int, len(products))
		counts[i] = count
		pat := model.Pattern{
			ID:        fmt.Sprintf("%g/%s", rawWidth, countsKey(counts)),
			RawWidth:  rawWidth,
			Counts:    counts,
			TrimWidth: rawWidth - float64(count)*p.Width,
			UnitCost:  cost,
		}
		lengths := []float64{p.Demand / float64(count)}
		gr.Records = append(gr.Records, AssembleRecords([]model.Pattern{pat}, lengths, products)...)
	}
	gr.Objective = RecordsCost(gr.Records)
	return gr, nil
}
