package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/SlitCut/internal/milp"
	"github.com/piwi3910/SlitCut/internal/model"
)

// Formulation is the mixed-integer model over a pattern catalog. Every
// pattern i gets a run length and a binary "in use" switch:
//
//	minimize   Σ cost_i · (raw_i − trim_i/2) · length_i
//	subject to Σ_i count_ip · length_i >= demand_p   for each product p
//	           Σ_i used_i <= maxPatterns
//	           length_i <= M_i · used_i
//
// M_i is the longest run that can still be useful: the largest
// demand_p / count_ip over the demanded products the pattern cuts.
// Lengths are scaled by the largest demand and the objective by its largest
// coefficient; Lengths and Objective unscale the solver values.
type Formulation struct {
	Problem  *milp.Problem
	Patterns []model.Pattern // patterns that received variables
	Length   []milp.Var
	Used     []milp.Var

	lengthScale float64
	costScale   float64
}

// BuildModel builds the formulation for patterns cut from products. Counts
// of every pattern must be aligned with products.
func BuildModel(patterns []model.Pattern, products []model.Product, maxPatterns int) (*Formulation, error) {
	if maxPatterns < 0 {
		return nil, fmt.Errorf("%w: max patterns %d must not be negative", model.ErrInvalidSettings, maxPatterns)
	}
	lengthScale := 0.0
	for _, p := range products {
		lengthScale = max(lengthScale, p.Demand)
	}
	if lengthScale == 0 {
		lengthScale = 1
	}

	type candidate struct {
		pattern model.Pattern
		bigM    float64
		cost    float64
	}
	var candidates []candidate
	costScale := 0.0
	for _, pat := range patterns {
		if len(pat.Counts) != len(products) {
			return nil, fmt.Errorf("pattern %s has %d counts for %d products", pat.ID, len(pat.Counts), len(products))
		}
		bigM := 0.0
		for p, c := range pat.Counts {
			if c > 0 && products[p].Demand > 0 {
				bigM = max(bigM, products[p].Demand/float64(c))
			}
		}
		if bigM == 0 {
			continue
		}
		cost := pat.CostPerLength() * lengthScale
		costScale = max(costScale, cost)
		candidates = append(candidates, candidate{pattern: pat, bigM: bigM / lengthScale, cost: cost})
	}
	if costScale == 0 {
		costScale = 1
	}

	f := &Formulation{
		Problem:     milp.NewProblem(),
		Patterns:    make([]model.Pattern, len(candidates)),
		Length:      make([]milp.Var, len(candidates)),
		Used:        make([]milp.Var, len(candidates)),
		lengthScale: lengthScale,
		costScale:   costScale,
	}
	prob := f.Problem
	objective := make([]milp.Term, 0, len(candidates))
	cardinality := make([]milp.Term, 0, len(candidates))
	for i, cand := range candidates {
		f.Patterns[i] = cand.pattern
		f.Length[i] = prob.AddVar("length_"+cand.pattern.ID, milp.Continuous, 0, math.Inf(1))
		f.Used[i] = prob.AddVar("used_"+cand.pattern.ID, milp.Binary, 0, 1)
		prob.AddConstraint("link_"+cand.pattern.ID, milp.LessEq, 0,
			milp.T(f.Length[i], 1), milp.T(f.Used[i], -cand.bigM))
		objective = append(objective, milp.T(f.Length[i], cand.cost/costScale))
		cardinality = append(cardinality, milp.T(f.Used[i], 1))
	}

	for p, prod := range products {
		if prod.Demand <= 0 {
			continue
		}
		var terms []milp.Term
		for i, pat := range f.Patterns {
			if c := pat.Counts[p]; c > 0 {
				terms = append(terms, milp.T(f.Length[i], float64(c)))
			}
		}
		prob.AddConstraint(fmt.Sprintf("demand_%g", prod.Width), milp.GreaterEq, prod.Demand/lengthScale, terms...)
	}
	prob.AddConstraint("max_patterns", milp.LessEq, float64(maxPatterns), cardinality...)
	prob.Minimize(0, objective...)
	return f, nil
}

// Lengths returns the unscaled run length of every pattern in sol. A pattern
// whose switch is off runs for zero length, whatever residue the relaxation
// left on its length.
func (f *Formulation) Lengths(sol *milp.Solution) []float64 {
	out := make([]float64, len(f.Length))
	for i, v := range f.Length {
		if sol.Value(f.Used[i]) < 0.5 {
			continue
		}
		out[i] = sol.Value(v) * f.lengthScale
	}
	return out
}

// Objective returns the unscaled objective of sol.
func (f *Formulation) Objective(sol *milp.Solution) float64 {
	return sol.Objective * f.costScale
}

// SolveCatalog builds the model for patterns and solves it. Infeasibility and
// hitting a solve bound are reported through the result status, with no
// records. A returned error means the solver itself failed; the result then
// carries StatusError.
func SolveCatalog(ctx context.Context, solver milp.Solver, patterns []model.Pattern, products []model.Product, settings model.SlitSettings) (model.GroupResult, error) {
	gr := model.GroupResult{CatalogSize: len(patterns)}
	f, err := BuildModel(patterns, products, settings.MaxPatterns)
	if err != nil {
		return gr, err
	}

	sol, err := solver.Solve(ctx, f.Problem, milp.Options{
		TimeLimit: settings.TimeLimit,
		NodeLimit: settings.NodeLimit,
	})
	if err != nil {
		gr.Status = model.StatusError
		gr.Reason = err.Error()
		return gr, fmt.Errorf("solver failed: %w", err)
	}
	gr.Nodes = sol.Nodes

	switch sol.Status {
	case milp.StatusOptimal:
		gr.Status = model.StatusOptimal
		gr.Records = AssembleRecords(f.Patterns, f.Lengths(sol), products)
		gr.Objective = RecordsCost(gr.Records)
	case milp.StatusInfeasible:
		gr.Status = model.StatusNoSolution
		gr.Reason = "infeasible"
	case milp.StatusFeasible, milp.StatusLimit:
		gr.Status = model.StatusNoSolution
		gr.Reason = "limit: " + sol.Limit
	default:
		gr.Status = model.StatusError
		gr.Reason = "solver returned " + sol.Status.String()
		return gr, fmt.Errorf("%w: %s", ErrSolver, sol.Status)
	}
	return gr, nil
}

// ErrSolver marks solver outcomes that are neither a plan nor a proven absence of one.
var ErrSolver = errors.New("unexpected solver outcome")
