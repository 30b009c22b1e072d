package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SlitCut/internal/milp"
	"github.com/piwi3910/SlitCut/internal/model"
)

// Phase is the lifecycle state of a Run.
type Phase int

const (
	PhaseConfigured Phase = iota
	PhaseCatalogBuilt
	PhaseSolving
	PhaseOptimal
	PhaseNoSolution
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseConfigured:
		return "CONFIGURED"
	case PhaseCatalogBuilt:
		return "CATALOG_BUILT"
	case PhaseSolving:
		return "SOLVING"
	case PhaseOptimal:
		return "OPTIMAL"
	case PhaseNoSolution:
		return "NO_SOLUTION"
	case PhaseError:
		return "ERROR"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether the run has finished.
func (p Phase) Terminal() bool {
	return p >= PhaseOptimal
}

// ErrRunConsumed is returned when a finished or running Run is used again.
var ErrRunConsumed = errors.New("run already solved")

// Planner plans slitting for groups of products. The zero value is not
// usable; build one with NewPlanner.
type Planner struct {
	Solver milp.Solver
	Logger *slog.Logger
	Tracer trace.Tracer
}

// Option configures a Planner.
type Option func(*Planner)

func WithSolver(s milp.Solver) Option {
	return func(p *Planner) { p.Solver = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.Logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Planner) { p.Tracer = t }
}

func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		Logger: slog.Default(),
		Tracer: otel.Tracer("slitcut/engine"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Solver == nil {
		p.Solver = milp.NewBranchAndBound(p.Logger)
	}
	return p
}

// Run is one solve of one group. It moves
// CONFIGURED -> CATALOG_BUILT -> SOLVING -> {OPTIMAL | NO_SOLUTION | ERROR}
// and cannot be solved twice.
type Run struct {
	planner   *Planner
	group     model.Group
	widths    []float64
	prices    model.PriceTable
	settings  model.SlitSettings
	tolerance float64

	mu      sync.Mutex
	phase   Phase
	catalog *Catalog
}

// NewRun validates the inputs of a group solve. Configuration errors
// (uncovered widths, bad domains or settings, invalid products) fail here,
// before any pattern is generated.
func (p *Planner) NewRun(group model.Group, domain model.RawWidthDomain, prices model.PriceTable, settings model.SlitSettings) (*Run, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := prices.Covers(domain); err != nil {
		return nil, err
	}
	widths, err := domain.Widths()
	if err != nil {
		return nil, err
	}
	products, err := model.NormalizeProducts(group.Products)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", group.Key(), err)
	}
	group.Products = products
	return &Run{
		planner:   p,
		group:     group,
		widths:    widths,
		prices:    prices,
		settings:  settings,
		tolerance: settings.Tolerance(products),
		phase:     PhaseConfigured,
	}, nil
}

func (r *Run) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Group returns the group with its normalized products.
func (r *Run) Group() model.Group {
	return r.group
}

// Catalog returns the dominance-filtered catalog, or nil before BuildCatalog.
func (r *Run) Catalog() *Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog
}

// BuildCatalog generates and filters the patterns of the run.
func (r *Run) BuildCatalog(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseConfigured {
		if r.phase == PhaseCatalogBuilt {
			return nil
		}
		return ErrRunConsumed
	}
	return r.buildCatalogLocked(ctx)
}

func (r *Run) buildCatalogLocked(ctx context.Context) error {
	start := time.Now()
	generated, err := GeneratePatterns(ctx, r.widths, r.group.Products, r.prices, r.tolerance, r.settings.Workers)
	if err != nil {
		return fmt.Errorf("failed to generate patterns for %s: %w", r.group.Key(), err)
	}
	generatedCount := 0
	for _, wp := range generated {
		generatedCount += len(wp.Patterns)
	}
	r.catalog = BuildCatalog(generated)
	r.phase = PhaseCatalogBuilt
	r.planner.Logger.Debug("catalog built",
		"group", r.group.Key(),
		"widths", len(r.widths),
		"generated", generatedCount,
		"catalog", r.catalog.Len(),
		"tolerance", r.tolerance,
		"elapsed", time.Since(start))
	return nil
}

// Solve builds the catalog if needed and solves the model. Solver failures
// end the run in ERROR and are returned together with the result.
func (r *Run) Solve(ctx context.Context) (model.GroupResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase > PhaseCatalogBuilt {
		return model.GroupResult{}, ErrRunConsumed
	}

	start := time.Now()
	ctx, span := r.planner.Tracer.Start(ctx, "PlanGroup", trace.WithAttributes(
		attribute.String("group", r.group.Key()),
		attribute.Int("products", len(r.group.Products)),
		attribute.Int("max_patterns", r.settings.MaxPatterns),
	))
	defer span.End()

	if r.phase == PhaseConfigured {
		if err := r.buildCatalogLocked(ctx); err != nil {
			r.phase = PhaseError
			span.RecordError(err)
			span.SetStatus(codes.Error, "catalog failed")
			return model.GroupResult{Group: r.group, Status: model.StatusError, Reason: err.Error()}, err
		}
	}

	r.phase = PhaseSolving
	gr, err := SolveCatalog(ctx, r.planner.Solver, r.catalog.Patterns(), r.group.Products, r.settings)
	gr.Group = r.group
	gr.CatalogSize = r.catalog.Len()
	gr.Elapsed = time.Since(start)

	switch {
	case err != nil:
		r.phase = PhaseError
		gr.Status = model.StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve failed")
	case gr.Status == model.StatusOptimal:
		r.phase = PhaseOptimal
	default:
		r.phase = PhaseNoSolution
	}

	span.SetAttributes(
		attribute.String("status", string(gr.Status)),
		attribute.Int("catalog_size", gr.CatalogSize),
		attribute.Int("patterns_used", gr.ActivePatterns()),
		attribute.Int("nodes", gr.Nodes),
		attribute.Float64("objective", gr.Objective),
	)
	r.planner.Logger.Info("group solved",
		"group", r.group.Key(),
		"status", gr.Status,
		"reason", gr.Reason,
		"catalog", gr.CatalogSize,
		"patterns", gr.ActivePatterns(),
		"nodes", gr.Nodes,
		"elapsed", gr.Elapsed)
	return gr, err
}

// PlanGroup solves a single group.
func (p *Planner) PlanGroup(ctx context.Context, group model.Group, domain model.RawWidthDomain, prices model.PriceTable, settings model.SlitSettings) (model.GroupResult, error) {
	run, err := p.NewRun(group, domain, prices, settings)
	if err != nil {
		return model.GroupResult{Group: group, Status: model.StatusError, Reason: err.Error()}, err
	}
	return run.Solve(ctx)
}

// Plan solves the groups independently, up to settings.Workers at a time.
// Configuration errors abort the plan. Solver failures are kept in the
// failing group's result so the other groups still report.
func (p *Planner) Plan(ctx context.Context, groups []model.Group, domain model.RawWidthDomain, prices model.PriceTable, settings model.SlitSettings) ([]model.GroupResult, error) {
	ctx, span := p.Tracer.Start(ctx, "Plan", trace.WithAttributes(attribute.Int("groups", len(groups))))
	defer span.End()

	runs := make([]*Run, len(groups))
	for i, g := range groups {
		run, err := p.NewRun(g, domain, prices, settings)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid configuration")
			return nil, err
		}
		runs[i] = run
	}

	workers := settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]model.GroupResult, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, run := range runs {
		g.Go(func() error {
			gr, err := run.Solve(gctx)
			if err != nil && ctx.Err() != nil {
				return err
			}
			results[i] = gr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return results, nil
}

// PlanJob groups the job's orders and plans every group with the job's
// domain, price breaks and settings.
func (p *Planner) PlanJob(ctx context.Context, job model.Job) ([]model.GroupResult, error) {
	groups, prices, err := JobInputs(job)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("planning job", "job", job.Name, "groups", len(groups), "domain", job.Domain.String())
	return p.Plan(ctx, groups, job.Domain, prices, job.Settings)
}

// JobInputs builds the price table and order groups of a job.
func JobInputs(job model.Job) ([]model.Group, model.PriceTable, error) {
	prices, err := model.NewPriceTable(job.Prices)
	if err != nil {
		return nil, model.PriceTable{}, err
	}
	groups, err := model.GroupOrders(job.Orders)
	if err != nil {
		return nil, model.PriceTable{}, err
	}
	return groups, prices, nil
}
