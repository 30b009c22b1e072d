package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/piwi3910/SlitCut/internal/importer"
	"github.com/piwi3910/SlitCut/internal/model"
	"github.com/piwi3910/SlitCut/internal/project"
)

// inputFlags select where a job comes from: a job file, or order/price/width
// files plus domain flags.
type inputFlags struct {
	job        string
	orders     string
	prices     string
	widthsFile string
	widths     []float64
	min        float64
	max        float64
	step       float64
}

func (f *inputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.job, "job", "", "job file (JSON)")
	fs.StringVar(&f.orders, "orders", "", "orders file (CSV or XLSX)")
	fs.StringVar(&f.prices, "prices", "", "price breaks file (CSV: start width, unit cost)")
	fs.StringVar(&f.widthsFile, "widths-file", "", "raw widths file (CSV, one width per row)")
	fs.Float64SliceVar(&f.widths, "widths", nil, "explicit raw widths in mm, comma separated")
	fs.Float64Var(&f.min, "min", 0, "narrowest raw width in mm")
	fs.Float64Var(&f.max, "max", 0, "widest raw width in mm")
	fs.Float64Var(&f.step, "step", 1, "raw width step in mm")
}

// settingsFlags override job settings when set on the command line.
type settingsFlags struct {
	maxPatterns   int
	trimTolerance float64
	timeLimit     time.Duration
	nodeLimit     int
	workers       int
	density       float64
}

func (f *settingsFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.maxPatterns, "max-patterns", 0, "maximum distinct slitting patterns per group")
	fs.Float64Var(&f.trimTolerance, "trim-tolerance", 0, "edge trim window in mm (default: narrowest product)")
	fs.DurationVar(&f.timeLimit, "time-limit", 0, "solve time limit per group, 0 for none")
	fs.IntVar(&f.nodeLimit, "node-limit", 0, "branch-and-bound node limit per group")
	fs.IntVar(&f.workers, "workers", 0, "groups solved in parallel, 0 for all CPUs")
	fs.Float64Var(&f.density, "density", 0, "material density in kg/dm³ for weights")
}

func (f *settingsFlags) apply(fs *pflag.FlagSet, s *model.SlitSettings) {
	if fs.Changed("max-patterns") {
		s.MaxPatterns = f.maxPatterns
	}
	if fs.Changed("trim-tolerance") {
		tol := f.trimTolerance
		s.TrimTolerance = &tol
	}
	if fs.Changed("time-limit") {
		s.TimeLimit = f.timeLimit
	}
	if fs.Changed("node-limit") {
		s.NodeLimit = f.nodeLimit
	}
	if fs.Changed("workers") {
		s.Workers = f.workers
	}
	if fs.Changed("density") {
		s.Density = f.density
	}
}

// errNoInput is returned when neither a job file nor an orders file is given.
var errNoInput = errors.New("either --job or --orders is required")

// loadJob assembles the job from the input flags. Domain and price flags
// override what the job file or workbook provides.
func loadJob(in inputFlags) (model.Job, error) {
	var job model.Job
	switch {
	case in.job != "":
		loaded, err := project.LoadJob(in.job)
		if err != nil {
			return model.Job{}, err
		}
		job = loaded
	case in.orders != "":
		res := importOrders(in.orders)
		if err := importError(in.orders, res); err != nil {
			return model.Job{}, err
		}
		job = model.NewJob()
		job.Name = strings.TrimSuffix(filepath.Base(in.orders), filepath.Ext(in.orders))
		appConfig.ApplyToSettings(&job.Settings)
		job.Orders = res.Orders
		job.Prices = res.Prices
		if len(res.Widths) > 0 {
			job.Domain = model.DiscreteDomain(res.Widths...)
		}
	default:
		return model.Job{}, errNoInput
	}

	if in.prices != "" {
		res := importer.ImportPriceBreaks(in.prices)
		if err := importError(in.prices, res); err != nil {
			return model.Job{}, err
		}
		job.Prices = res.Prices
	}
	if in.widthsFile != "" {
		res := importer.ImportWidths(in.widthsFile)
		if err := importError(in.widthsFile, res); err != nil {
			return model.Job{}, err
		}
		job.Domain = model.DiscreteDomain(res.Widths...)
	}
	if len(in.widths) > 0 {
		job.Domain = model.DiscreteDomain(in.widths...)
	}
	if in.max > 0 {
		job.Domain = model.RawWidthDomain{Min: in.min, Max: in.max, Step: in.step}
	}

	if len(job.Domain.List) == 0 && job.Domain.Max == 0 {
		return model.Job{}, fmt.Errorf("%w: no raw widths given, use --widths, --min/--max or a Widths sheet", model.ErrInvalidDomain)
	}
	if len(job.Prices) == 0 {
		return model.Job{}, fmt.Errorf("%w: no price breaks given, use --prices or a Prices sheet", model.ErrInvalidPriceTable)
	}
	return job, nil
}

func importOrders(path string) importer.ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return importer.ImportExcel(path)
	default:
		return importer.ImportCSV(path)
	}
}

// importError logs import warnings and turns import errors into one error.
func importError(path string, res importer.ImportResult) error {
	for _, w := range res.Warnings {
		logger.Warn("import warning", "file", path, "warning", w)
	}
	if len(res.Errors) == 0 {
		return nil
	}
	shown := res.Errors
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return fmt.Errorf("%s: %d import error(s): %s", path, len(res.Errors), strings.Join(shown, "; "))
}
