package milp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	costTol  = 1e-9  // reduced costs within costTol of zero are optimal
	pivotTol = 1e-9  // smaller column entries are not pivoted on
	feasTol  = 1e-7  // phase one residual accepted as feasible, relative to the largest rhs
	ratioTol = 1e-12 // ratio test ties
)

// blandAfter is the number of consecutive degenerate steps after which the
// entering and leaving choices fall back to Bland's rule.
const blandAfter = 50

// checkEvery is how many simplex steps run between context checks.
const checkEvery = 16

var (
	errUnbounded  = errors.New("milp: linear relaxation is unbounded")
	errIterations = errors.New("milp: simplex iteration limit reached")
)

// lpRow is Σ coef[k]·y[k] (sense) rhs over the columns of a boundedProgram.
type lpRow struct {
	coef  map[int]float64
	sense Sense
	rhs   float64
}

// boundedProgram is min cost·y subject to rows and 0 <= y <= upper.
type boundedProgram struct {
	rows  []lpRow
	cost  []float64
	upper []float64 // math.Inf(1) when unbounded above
}

// tableau is the dense simplex tableau B⁻¹A of a boundedProgram with its
// slack and artificial columns. Nonbasic columns sit at zero or, when
// atUpper is set, at their upper bound.
type tableau struct {
	t       *mat.Dense
	xb      []float64 // value of the basic column of each row
	basis   []int
	isBasic []bool
	atUpper []bool
	upper   []float64
	banned  []bool // columns that may not enter
}

// solve runs the two-phase bounded simplex. It returns errUnbounded when the
// program is unbounded and ok=false when it is infeasible. ctx is checked
// between steps so a long solve can be interrupted.
func (bp *boundedProgram) solve(ctx context.Context) (y []float64, ok bool, err error) {
	n, m := len(bp.cost), len(bp.rows)
	if m == 0 {
		y = make([]float64, n)
		for k, c := range bp.cost {
			if c < 0 {
				if math.IsInf(bp.upper[k], 1) {
					return nil, false, errUnbounded
				}
				y[k] = bp.upper[k]
			}
		}
		return y, true, nil
	}

	// Normalize every row to a non-negative rhs, then give it a slack
	// column for inequalities and an artificial column unless the slack
	// can start in the basis.
	cols := n
	slack := make([]int, m)
	artificial := make([]int, m)
	sign := make([]float64, m)
	sense := make([]Sense, m)
	maxRHS := 1.0
	for i, r := range bp.rows {
		sign[i], sense[i] = 1, r.sense
		if r.rhs < 0 {
			sign[i] = -1
			switch r.sense {
			case LessEq:
				sense[i] = GreaterEq
			case GreaterEq:
				sense[i] = LessEq
			}
		}
		maxRHS = math.Max(maxRHS, math.Abs(r.rhs))
		slack[i], artificial[i] = -1, -1
		if sense[i] != Equal {
			slack[i] = cols
			cols++
		}
		if sense[i] != LessEq {
			artificial[i] = cols
			cols++
		}
	}

	tb := &tableau{
		t:       mat.NewDense(m, cols, nil),
		xb:      make([]float64, m),
		basis:   make([]int, m),
		isBasic: make([]bool, cols),
		atUpper: make([]bool, cols),
		upper:   make([]float64, cols),
		banned:  make([]bool, cols),
	}
	copy(tb.upper, bp.upper)
	for k := n; k < cols; k++ {
		tb.upper[k] = math.Inf(1)
	}
	phaseOne := make([]float64, cols)
	hasArtificial := false
	for i, r := range bp.rows {
		for k, v := range r.coef {
			tb.t.Set(i, k, sign[i]*v)
		}
		switch sense[i] {
		case LessEq:
			tb.t.Set(i, slack[i], 1)
			tb.basis[i] = slack[i]
		case GreaterEq:
			tb.t.Set(i, slack[i], -1)
		}
		if a := artificial[i]; a >= 0 {
			tb.t.Set(i, a, 1)
			tb.basis[i] = a
			phaseOne[a] = 1
			hasArtificial = true
		}
		tb.isBasic[tb.basis[i]] = true
		tb.xb[i] = sign[i] * r.rhs
	}

	if hasArtificial {
		if err := tb.iterate(ctx, phaseOne); err != nil {
			return nil, false, err
		}
		residual := 0.0
		for i, b := range tb.basis {
			if phaseOne[b] > 0 {
				residual += tb.xb[i]
			}
		}
		if residual > feasTol*maxRHS {
			return nil, false, nil
		}
		for i := range bp.rows {
			if a := artificial[i]; a >= 0 {
				tb.upper[a] = 0
				tb.banned[a] = true
			}
		}
	}

	phaseTwo := make([]float64, cols)
	copy(phaseTwo, bp.cost)
	if err := tb.iterate(ctx, phaseTwo); err != nil {
		return nil, false, err
	}

	y = make([]float64, n)
	for k := range y {
		if tb.atUpper[k] {
			y[k] = tb.upper[k]
		}
	}
	for i, b := range tb.basis {
		if b < n {
			y[b] = math.Max(tb.xb[i], 0)
		}
	}
	return y, true, nil
}

// iterate minimizes cost from the current basis until no column improves it.
func (tb *tableau) iterate(ctx context.Context, cost []float64) error {
	m, cols := tb.t.Dims()

	d := make([]float64, cols)
	copy(d, cost)
	for i, b := range tb.basis {
		if cb := cost[b]; cb != 0 {
			floats.AddScaled(d, -cb, tb.t.RawRowView(i))
		}
	}

	maxIter := 50*(m+cols) + 1000
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if iter > maxIter {
			return errIterations
		}
		bland := degenerate > blandAfter

		j, dir := tb.entering(d, bland)
		if j < 0 {
			return nil
		}

		// Ratio test: the step is bounded by the entering column's own
		// range and by every basic column reaching a bound.
		theta := tb.upper[j]
		leave, leaveToUpper, leaveAlpha := -1, false, 0.0
		for i := 0; i < m; i++ {
			alpha := dir * tb.t.At(i, j)
			var limit float64
			var toUpper bool
			switch {
			case alpha > pivotTol:
				limit = tb.xb[i] / alpha
			case alpha < -pivotTol:
				ub := tb.upper[tb.basis[i]]
				if math.IsInf(ub, 1) {
					continue
				}
				limit, toUpper = (ub-tb.xb[i])/-alpha, true
			default:
				continue
			}
			limit = math.Max(limit, 0)
			switch {
			case limit < theta-ratioTol:
			case limit <= theta+ratioTol && leave >= 0:
				if bland && tb.basis[i] > tb.basis[leave] {
					continue
				}
				if !bland && math.Abs(alpha) <= math.Abs(leaveAlpha) {
					continue
				}
			default:
				continue
			}
			theta, leave, leaveToUpper, leaveAlpha = limit, i, toUpper, alpha
		}
		if math.IsInf(theta, 1) {
			return errUnbounded
		}

		if theta > ratioTol {
			degenerate = 0
			for i := 0; i < m; i++ {
				tb.xb[i] -= dir * theta * tb.t.At(i, j)
			}
		} else {
			degenerate++
		}

		if leave < 0 {
			tb.atUpper[j] = !tb.atUpper[j]
			continue
		}

		entered := theta
		if dir < 0 {
			entered = tb.upper[j] - theta
		}
		out := tb.basis[leave]
		tb.isBasic[out] = false
		tb.atUpper[out] = leaveToUpper
		tb.pivot(leave, j, d)
		tb.basis[leave] = j
		tb.isBasic[j] = true
		tb.atUpper[j] = false
		tb.xb[leave] = entered
	}
}

// entering picks the nonbasic column whose move lowers the objective the
// most, or with bland the lowest such column. dir is +1 when the column
// rises from zero and -1 when it drops from its upper bound.
func (tb *tableau) entering(d []float64, bland bool) (int, float64) {
	pick, pickDir, score := -1, 0.0, 0.0
	for j, dj := range d {
		if tb.isBasic[j] || tb.banned[j] || tb.upper[j] <= 0 {
			continue
		}
		var s, dir float64
		switch {
		case !tb.atUpper[j] && dj < -costTol:
			s, dir = -dj, 1
		case tb.atUpper[j] && dj > costTol:
			s, dir = dj, -1
		default:
			continue
		}
		if bland {
			return j, dir
		}
		if s > score {
			pick, pickDir, score = j, dir, s
		}
	}
	return pick, pickDir
}

// pivot makes column j basic in row r and updates the reduced costs.
func (tb *tableau) pivot(r, j int, d []float64) {
	m, _ := tb.t.Dims()
	prow := tb.t.RawRowView(r)
	floats.Scale(1/prow[j], prow)
	prow[j] = 1
	for i := 0; i < m; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		if f := row[j]; f != 0 {
			floats.AddScaled(row, -f, prow)
			row[j] = 0
		}
	}
	if f := d[j]; f != 0 {
		floats.AddScaled(d, -f, prow)
		d[j] = 0
	}
}
