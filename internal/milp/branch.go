package milp

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

const intTol = 1e-6

// BranchAndBound is a depth-first branch-and-bound solver. Each node solves
// the LP relaxation with a bounded simplex over a gonum tableau; the integer
// variable with the largest fractional value is branched on, up-branch first.
// The time limit and ctx are also checked inside a node's simplex.
type BranchAndBound struct {
	Logger *slog.Logger
}

func NewBranchAndBound(logger *slog.Logger) *BranchAndBound {
	if logger == nil {
		logger = slog.Default()
	}
	return &BranchAndBound{Logger: logger}
}

type node struct {
	lo, hi []float64
	bound  float64 // parent relaxation objective
}

// Solve runs the search until the tree is exhausted or a limit is hit.
func (s *BranchAndBound) Solve(ctx context.Context, p *Problem, opts Options) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = intTol
	}
	nodeLimit := opts.NodeLimit
	if nodeLimit <= 0 {
		nodeLimit = DefaultNodeLimit
	}
	start := time.Now()
	var deadline time.Time
	lpCtx := ctx
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
		var cancel context.CancelFunc
		lpCtx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	relaxed := newRelaxation(p)

	root := node{lo: make([]float64, len(p.vars)), hi: make([]float64, len(p.vars)), bound: math.Inf(-1)}
	for j, v := range p.vars {
		root.lo[j], root.hi[j] = v.lower, v.upper
		if v.kind != Continuous {
			root.lo[j] = math.Ceil(v.lower - tol)
			root.hi[j] = math.Floor(v.upper + tol)
		}
	}

	sol := &Solution{Status: StatusInfeasible}
	best := math.Inf(1)
	var incumbent []float64
	stack := []node{root}

	for len(stack) > 0 {
		if limit := s.limitHit(ctx, sol.Nodes, nodeLimit, deadline); limit != "" {
			sol.Limit = limit
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nd.bound >= best-pruneTol(best) {
			continue
		}
		sol.Nodes++

		res, err := relaxed.solve(lpCtx, nd.lo, nd.hi)
		if err != nil {
			if lpCtx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				sol.Limit = s.limitHit(ctx, 0, nodeLimit, deadline)
				if sol.Limit == "" {
					sol.Limit = "time limit"
				}
				break
			}
			return nil, err
		}
		switch res.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			if sol.Nodes == 1 {
				sol.Status = StatusUnbounded
				sol.Elapsed = time.Since(start)
				return sol, nil
			}
			continue
		}
		if res.objective >= best-pruneTol(best) {
			continue
		}

		j := branchVar(p, res.x, tol)
		if j < 0 {
			best = res.objective
			incumbent = roundIntegers(p, res.x)
			logger.Debug("milp incumbent", "objective", best, "nodes", sol.Nodes)
			continue
		}

		v := res.x[j]
		down := node{lo: clone(nd.lo), hi: clone(nd.hi), bound: res.objective}
		down.hi[j] = math.Floor(v)
		up := node{lo: clone(nd.lo), hi: clone(nd.hi), bound: res.objective}
		up.lo[j] = math.Ceil(v)
		stack = append(stack, down, up)
	}

	sol.Elapsed = time.Since(start)
	switch {
	case incumbent != nil && sol.Limit == "":
		sol.Status = StatusOptimal
	case incumbent != nil:
		sol.Status = StatusFeasible
	case sol.Limit != "":
		sol.Status = StatusLimit
	}
	if incumbent != nil {
		sol.Values = incumbent
		sol.Objective = p.Evaluate(incumbent)
	}
	logger.Debug("milp solve finished",
		"status", sol.Status.String(),
		"nodes", sol.Nodes,
		"objective", sol.Objective,
		"elapsed", sol.Elapsed)
	return sol, nil
}

func (s *BranchAndBound) limitHit(ctx context.Context, nodes, nodeLimit int, deadline time.Time) string {
	if err := ctx.Err(); err != nil {
		return err.Error()
	}
	if nodes >= nodeLimit {
		return "node limit"
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return "time limit"
	}
	return ""
}

// branchVar picks the fractional integer variable with the largest value,
// or -1 when the point is integral.
func branchVar(p *Problem, x []float64, tol float64) int {
	pick, val := -1, math.Inf(-1)
	for j, v := range p.vars {
		if v.kind == Continuous {
			continue
		}
		if math.Abs(x[j]-math.Round(x[j])) <= tol {
			continue
		}
		if x[j] > val {
			pick, val = j, x[j]
		}
	}
	return pick
}

func roundIntegers(p *Problem, x []float64) []float64 {
	out := clone(x)
	for j, v := range p.vars {
		if v.kind != Continuous {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func pruneTol(best float64) float64 {
	if math.IsInf(best, 1) {
		return 0
	}
	return 1e-9 * math.Max(1, math.Abs(best))
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
