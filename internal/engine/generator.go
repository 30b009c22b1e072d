package engine

import (
	"context"
	"fmt"
	"iter"
	"math"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/SlitCut/internal/model"
)

// exactTol is the slack allowed on a zero-trim fit.
const exactTol = 1e-9

// CountVectors yields every strip count vector c over products that fits a
// raw width with 0 <= rawWidth - Σ c_p·width_p < tolerance. A tolerance of
// zero asks for exact fits. The all-zero vector is never yielded; each
// yielded slice is a fresh copy the caller may keep.
//
// The search is a depth-first walk over the products: each level tries
// counts from the most that still fit down to zero, and the last product
// only tries the counts that land the trim inside the window.
func CountVectors(rawWidth float64, products []model.Product, tolerance float64) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		n := len(products)
		if n == 0 || rawWidth <= 0 {
			return
		}
		counts := make([]int, n)

		var walk func(i, placed int, remaining float64) bool
		walk = func(i, placed int, remaining float64) bool {
			w := products[i].Width
			most := int(math.Floor(remaining/w + exactTol))

			if i == n-1 {
				for c := most; c >= 0; c-- {
					trim := remaining - float64(c)*w
					if !trimAccepted(trim, tolerance) {
						if trim > 0 {
							break
						}
						continue
					}
					if placed+c == 0 {
						continue
					}
					counts[i] = c
					out := make([]int, n)
					copy(out, counts)
					if !yield(out) {
						return false
					}
				}
				counts[i] = 0
				return true
			}

			for c := most; c >= 0; c-- {
				counts[i] = c
				if !walk(i+1, placed+c, remaining-float64(c)*w) {
					return false
				}
			}
			counts[i] = 0
			return true
		}
		walk(0, 0, rawWidth)
	}
}

func trimAccepted(trim, tolerance float64) bool {
	if tolerance <= 0 {
		return math.Abs(trim) <= exactTol
	}
	return trim >= -exactTol && trim < tolerance
}

// WidthPatterns holds the feasible patterns of one raw width.
type WidthPatterns struct {
	RawWidth float64
	Patterns []model.Pattern
}

// GeneratePatterns enumerates patterns for every raw width. Every width gets
// the exact-fit pass; the narrowest width of each price bracket also accepts
// trim below tolerance. Widths are processed in parallel by up to workers
// goroutines (0 means GOMAXPROCS). Widths without any feasible pattern are
// left out of the result, which keeps the input order otherwise.
func GeneratePatterns(ctx context.Context, widths []float64, products []model.Product, prices model.PriceTable, tolerance float64, workers int) ([]WidthPatterns, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	boundary := make(map[float64]bool)
	for _, w := range prices.BoundaryWidths(widths) {
		boundary[w] = true
	}

	results := make([]WidthPatterns, len(widths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, raw := range widths {
		tol := 0.0
		if boundary[raw] {
			tol = tolerance
		}
		g.Go(func() error {
			patterns, err := patternsForWidth(ctx, raw, products, prices, tol)
			if err != nil {
				return err
			}
			results[i] = WidthPatterns{RawWidth: raw, Patterns: patterns}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, wp := range results {
		if len(wp.Patterns) > 0 {
			out = append(out, wp)
		}
	}
	return out, nil
}

func patternsForWidth(ctx context.Context, raw float64, products []model.Product, prices model.PriceTable, tolerance float64) ([]model.Pattern, error) {
	cost, err := prices.Lookup(raw)
	if err != nil {
		return nil, err
	}
	var patterns []model.Pattern
	for counts := range CountVectors(raw, products, tolerance) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		used := 0.0
		for p, c := range counts {
			used += float64(c) * products[p].Width
		}
		trim := raw - used
		if math.Abs(trim) <= exactTol {
			trim = 0
		}
		patterns = append(patterns, model.Pattern{
			ID:        fmt.Sprintf("%g/%s", raw, countsKey(counts)),
			RawWidth:  raw,
			Counts:    counts,
			TrimWidth: trim,
			UnitCost:  cost,
		})
	}
	return patterns, nil
}

// countsKey renders a count vector as "7,0,2".
func countsKey(counts []int) string {
	var b strings.Builder
	for i, c := range counts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}
