package engine

import (
	"math"
	"slices"
	"sort"

	"github.com/piwi3910/SlitCut/internal/model"
)

type catalogKey struct {
	counts string
	cost   float64
}

// Catalog keeps one pattern per (count vector, unit cost): the one with the
// least trim. Patterns with a different count vector or cost never replace
// each other.
type Catalog struct {
	entries map[catalogKey]model.Pattern
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[catalogKey]model.Pattern)}
}

// Add offers a pattern to the catalog and reports whether it is now the
// representative of its key. Equal trims keep the narrower raw width.
func (c *Catalog) Add(p model.Pattern) bool {
	key := catalogKey{counts: countsKey(p.Counts), cost: p.UnitCost}
	existing, ok := c.entries[key]
	if ok {
		switch {
		case p.TrimWidth < existing.TrimWidth-exactTol:
		case math.Abs(p.TrimWidth-existing.TrimWidth) <= exactTol && p.RawWidth < existing.RawWidth:
		default:
			return false
		}
	}
	c.entries[key] = p
	return true
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Patterns returns the surviving patterns ordered by raw width, then count vector.
func (c *Catalog) Patterns() []model.Pattern {
	out := make([]model.Pattern, 0, len(c.entries))
	for _, p := range c.entries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RawWidth != out[j].RawWidth {
			return out[i].RawWidth < out[j].RawWidth
		}
		return slices.Compare(out[i].Counts, out[j].Counts) > 0
	})
	return out
}

// BuildCatalog runs every generated pattern through the dominance filter.
func BuildCatalog(generated []WidthPatterns) *Catalog {
	c := NewCatalog()
	for _, wp := range generated {
		for _, p := range wp.Patterns {
			c.Add(p)
		}
	}
	return c
}
