package milp

import (
	"context"
	"time"
)

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal    Status = iota // proven optimal
	StatusInfeasible               // no point satisfies the constraints
	StatusUnbounded                // objective decreases without bound
	StatusFeasible                 // a limit was hit after an incumbent was found
	StatusLimit                    // a limit was hit before any incumbent
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusFeasible:
		return "feasible"
	case StatusLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// Options bounds a solve. Zero values pick the defaults.
type Options struct {
	TimeLimit time.Duration // 0 = no time limit
	NodeLimit int           // 0 = DefaultNodeLimit
	Tolerance float64       // integrality tolerance, 0 = 1e-6
}

const DefaultNodeLimit = 100000

// Solution is the result of a solve. Values is indexed by Var and is only
// set for StatusOptimal and StatusFeasible.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
	Limit     string // which limit stopped the search, if any
	Elapsed   time.Duration
}

// Value returns the value of v, or 0 when the solution carries no values.
func (s *Solution) Value(v Var) float64 {
	if s == nil || int(v) < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// HasValues reports whether the solution carries a feasible point.
func (s *Solution) HasValues() bool {
	return s != nil && (s.Status == StatusOptimal || s.Status == StatusFeasible)
}

// Solver solves a Problem. An error means the solver failed; infeasibility
// and limits are reported through Solution.Status.
type Solver interface {
	Solve(ctx context.Context, p *Problem, opts Options) (*Solution, error)
}
