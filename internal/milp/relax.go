package milp

import (
	"context"
	"errors"
	"math"
)

const rowTol = 1e-9

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

type lpResult struct {
	status    lpStatus
	objective float64
	x         []float64
}

// switchLink records a variable u that only appears in one row that lets it
// grow, a·x − b·u <= 0, with a, b > 0. Everywhere else a larger u only
// tightens a row, and its cost is not negative. While u is free with a zero
// lower bound, an optimal relaxation has u = ratio·x with ratio = a/b, so
// the node LP drops u and its row and bounds x by upper(u)/ratio instead.
type switchLink struct {
	row   int
	x     Var
	ratio float64
}

// relaxation holds the structure of a Problem shared by all its nodes.
type relaxation struct {
	p     *Problem
	links map[Var]switchLink
}

func newRelaxation(p *Problem) *relaxation {
	r := &relaxation{p: p, links: make(map[Var]switchLink)}

	cost := make([]float64, len(p.vars))
	for _, t := range p.objective {
		cost[t.Var] += t.Coef
	}

	rows := make([]map[Var]float64, len(p.cons))
	loosens := make([]int, len(p.vars))
	loosenRow := make([]int, len(p.vars))
	blocked := make([]bool, len(p.vars))
	for i, c := range p.cons {
		rows[i] = mergeTerms(c.terms)
		for v, coef := range rows[i] {
			switch {
			case c.sense == Equal:
				blocked[v] = true
			case (c.sense == LessEq) == (coef < 0):
				loosens[v]++
				loosenRow[v] = i
			}
		}
	}

	for j := range p.vars {
		u := Var(j)
		if blocked[j] || loosens[j] != 1 || cost[j] < 0 || p.vars[j].lower < 0 {
			continue
		}
		i := loosenRow[j]
		c := p.cons[i]
		if c.sense != LessEq || c.rhs != 0 || len(rows[i]) != 2 {
			continue
		}
		b := -rows[i][u]
		for x, a := range rows[i] {
			if x != u && a > 0 && b > 0 && p.vars[x].lower >= 0 {
				r.links[u] = switchLink{row: i, x: x, ratio: a / b}
			}
		}
	}
	// A bounded variable that is itself a switch would chain substitutions.
	for u, l := range r.links {
		if _, ok := r.links[l.x]; ok {
			delete(r.links, u)
		}
	}
	return r
}

func mergeTerms(terms []Term) map[Var]float64 {
	out := make(map[Var]float64, len(terms))
	for _, t := range terms {
		out[t.Var] += t.Coef
	}
	for v, c := range out {
		if c == 0 {
			delete(out, v)
		}
	}
	return out
}

// solve solves the relaxation of the node with variable bounds lo/hi.
//
// Fixed variables are substituted, free switches are folded into the
// variable they bound, the remaining variables are shifted by their lower
// bound and rows over a single column become upper bounds. What is left goes
// to the bounded simplex, which stops with ctx.
func (r *relaxation) solve(ctx context.Context, lo, hi []float64) (lpResult, error) {
	p := r.p
	n := len(p.vars)
	hi = clone(hi)

	folded := make(map[Var]switchLink, len(r.links))
	skipRow := make(map[int]bool, len(r.links))
	for u, l := range r.links {
		if hi[u]-lo[u] <= rowTol || math.Abs(lo[u]) > rowTol || lo[l.x] < 0 {
			continue
		}
		folded[u] = l
		skipRow[l.row] = true
		hi[l.x] = math.Min(hi[l.x], hi[u]/l.ratio)
	}

	col := make([]int, n)
	free := 0
	for j := range p.vars {
		if hi[j] < lo[j]-rowTol {
			return lpResult{status: lpInfeasible}, nil
		}
		if _, ok := folded[Var(j)]; ok || hi[j]-lo[j] <= rowTol {
			col[j] = -1
			continue
		}
		col[j] = free
		free++
	}

	// expand adds coef·v to coefs over the node columns and returns the
	// constant part it contributes.
	expand := func(coefs map[int]float64, v Var, coef float64) float64 {
		if l, ok := folded[v]; ok {
			v, coef = l.x, coef*l.ratio
		}
		if k := col[v]; k >= 0 {
			coefs[k] += coef
		}
		return coef * lo[v]
	}

	bp := &boundedProgram{cost: make([]float64, free), upper: make([]float64, free)}
	for j, k := range col {
		if k >= 0 {
			bp.upper[k] = hi[j] - lo[j]
		}
	}
	objective := make(map[int]float64, len(p.objective))
	for _, t := range p.objective {
		expand(objective, t.Var, t.Coef)
	}
	for k, v := range objective {
		bp.cost[k] = v
	}

	for i, c := range p.cons {
		if skipRow[i] {
			continue
		}
		row := lpRow{coef: make(map[int]float64, len(c.terms)), sense: c.sense, rhs: c.rhs}
		for _, t := range c.terms {
			row.rhs -= expand(row.coef, t.Var, t.Coef)
		}
		for k, v := range row.coef {
			if v == 0 {
				delete(row.coef, k)
			}
		}
		switch {
		case len(row.coef) == 0:
			if !constantRowHolds(row.sense, row.rhs) {
				return lpResult{status: lpInfeasible}, nil
			}
			continue
		case len(row.coef) == 1:
			if k, ub, ok := singletonUpper(row); ok {
				if ub < -rowTol {
					return lpResult{status: lpInfeasible}, nil
				}
				bp.upper[k] = math.Min(bp.upper[k], math.Max(ub, 0))
				continue
			}
		}
		bp.rows = append(bp.rows, row)
	}

	y, ok, err := bp.solve(ctx)
	switch {
	case errors.Is(err, errUnbounded):
		return lpResult{status: lpUnbounded}, nil
	case err != nil:
		return lpResult{}, err
	case !ok:
		return lpResult{status: lpInfeasible}, nil
	}

	x := clone(lo)
	for j, k := range col {
		if k >= 0 {
			x[j] = lo[j] + y[k]
		}
	}
	for u, l := range folded {
		x[u] = l.ratio * x[l.x]
	}
	return lpResult{status: lpOptimal, objective: p.Evaluate(x), x: x}, nil
}

// singletonUpper reports the bound of a single-column row that only limits
// its column from above.
func singletonUpper(row lpRow) (int, float64, bool) {
	for k, a := range row.coef {
		if (row.sense == LessEq && a > 0) || (row.sense == GreaterEq && a < 0) {
			return k, row.rhs / a, true
		}
	}
	return 0, 0, false
}

func constantRowHolds(sense Sense, rhs float64) bool {
	switch sense {
	case LessEq:
		return rhs >= -rowTol
	case GreaterEq:
		return rhs <= rowTol
	default:
		return math.Abs(rhs) <= rowTol
	}
}
