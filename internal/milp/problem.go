// Package milp declares small mixed-integer linear programs and solves them.
//
// A Problem is built by adding variables, linear constraints and a linear
// objective; a Solver turns it into a Solution. The default solver is a
// depth-first branch-and-bound over gonum's simplex method.
package milp

import (
	"errors"
	"fmt"
	"math"
)

// VarKind is the domain of a decision variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
}

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Var is a handle to a variable of the Problem that created it.
type Var int

// Term is Coef × Var.
type Term struct {
	Var  Var
	Coef float64
}

// T is shorthand for building a Term.
func T(v Var, coef float64) Term {
	return Term{Var: v, Coef: coef}
}

var (
	ErrUnknownVar   = errors.New("milp: unknown variable")
	ErrInvalidBound = errors.New("milp: invalid variable bounds")
)

type variable struct {
	name  string
	kind  VarKind
	lower float64
	upper float64
}

type constraint struct {
	name  string
	terms []Term
	sense Sense
	rhs   float64
}

// Problem is a minimization problem over bounded variables.
type Problem struct {
	vars      []variable
	cons      []constraint
	objective []Term
	offset    float64
}

func NewProblem() *Problem {
	return &Problem{}
}

// AddVar declares a variable with lower <= x <= upper. The lower bound must be
// finite; upper may be math.Inf(1). Binary variables are clamped to [0, 1].
func (p *Problem) AddVar(name string, kind VarKind, lower, upper float64) Var {
	if kind == Binary {
		lower = math.Max(lower, 0)
		upper = math.Min(upper, 1)
	}
	p.vars = append(p.vars, variable{name: name, kind: kind, lower: lower, upper: upper})
	return Var(len(p.vars) - 1)
}

// AddConstraint adds Σ terms (sense) rhs. Terms on the same variable are summed.
func (p *Problem) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	p.cons = append(p.cons, constraint{name: name, terms: terms, sense: sense, rhs: rhs})
}

// Minimize sets the objective to Σ terms + offset.
func (p *Problem) Minimize(offset float64, terms ...Term) {
	p.objective = terms
	p.offset = offset
}

func (p *Problem) NumVars() int        { return len(p.vars) }
func (p *Problem) NumConstraints() int { return len(p.cons) }

// Name returns the name the variable was declared with.
func (p *Problem) Name(v Var) string {
	if int(v) < 0 || int(v) >= len(p.vars) {
		return ""
	}
	return p.vars[v].name
}

// validate checks variable handles and bounds before solving.
func (p *Problem) validate() error {
	for i, v := range p.vars {
		if math.IsInf(v.lower, 0) || math.IsNaN(v.lower) || math.IsNaN(v.upper) {
			return fmt.Errorf("%w: %s has lower bound %g", ErrInvalidBound, v.name, v.lower)
		}
		if v.upper < v.lower {
			return fmt.Errorf("%w: %s has upper %g below lower %g", ErrInvalidBound, v.name, v.upper, v.lower)
		}
		if v.kind != Continuous && (math.Ceil(v.lower-intTol) > math.Floor(v.upper+intTol)) {
			return fmt.Errorf("%w: integer variable %d (%s) has no integral value in [%g, %g]",
				ErrInvalidBound, i, v.name, v.lower, v.upper)
		}
	}
	check := func(terms []Term, where string) error {
		for _, t := range terms {
			if int(t.Var) < 0 || int(t.Var) >= len(p.vars) {
				return fmt.Errorf("%w: %d in %s", ErrUnknownVar, t.Var, where)
			}
		}
		return nil
	}
	if err := check(p.objective, "objective"); err != nil {
		return err
	}
	for _, c := range p.cons {
		if err := check(c.terms, "constraint "+c.name); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate returns the objective value at x.
func (p *Problem) Evaluate(x []float64) float64 {
	total := p.offset
	for _, t := range p.objective {
		total += t.Coef * x[t.Var]
	}
	return total
}

// Feasible reports whether x satisfies every bound and constraint within tol.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	if len(x) != len(p.vars) {
		return false
	}
	for i, v := range p.vars {
		if x[i] < v.lower-tol || x[i] > v.upper+tol {
			return false
		}
		if v.kind != Continuous && math.Abs(x[i]-math.Round(x[i])) > tol {
			return false
		}
	}
	for _, c := range p.cons {
		lhs := 0.0
		for _, t := range c.terms {
			lhs += t.Coef * x[t.Var]
		}
		switch c.sense {
		case LessEq:
			if lhs > c.rhs+tol {
				return false
			}
		case GreaterEq:
			if lhs < c.rhs-tol {
				return false
			}
		case Equal:
			if math.Abs(lhs-c.rhs) > tol {
				return false
			}
		}
	}
	return true
}
