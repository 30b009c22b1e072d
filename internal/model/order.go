package model

import (
	"fmt"
	"sort"
)

// Order is one customer order line: Count pieces of Length at Width, in a
// given material grade and thickness.
type Order struct {
	Label     string  `json:"label"`
	Grade     string  `json:"grade"`
	Thickness float64 `json:"thickness"` // mm
	Width     float64 `json:"width"`     // strip width, mm
	Length    float64 `json:"length"`    // single piece length, mm
	Count     int     `json:"count"`
}

// Demand returns the total strip length the order requires.
func (o Order) Demand() float64 {
	return o.Length * float64(o.Count)
}

// Group is the set of products that share a material grade and thickness and
// can therefore be slit from the same raw coils.
type Group struct {
	Grade     string    `json:"grade"`
	Thickness float64   `json:"thickness"` // mm
	Products  []Product `json:"products"`
}

// Key identifies the group in logs and reports.
func (g Group) Key() string {
	if g.Grade == "" && g.Thickness == 0 {
		return "default"
	}
	return fmt.Sprintf("%s/%g", g.Grade, g.Thickness)
}

// TotalDemand returns the summed length demand of the group.
func (g Group) TotalDemand() float64 {
	var total float64
	for _, p := range g.Products {
		total += p.Demand
	}
	return total
}

type groupKey struct {
	grade     string
	thickness float64
}

// GroupOrders buckets orders by (grade, thickness) and aggregates the demand
// of orders sharing a width. Groups are returned sorted by grade, then thickness.
func GroupOrders(orders []Order) ([]Group, error) {
	buckets := make(map[groupKey][]Product)
	for i, o := range orders {
		if o.Count < 0 {
			return nil, fmt.Errorf("%w: order %d (%s) has negative count %d", ErrInvalidProduct, i+1, o.Label, o.Count)
		}
		if o.Length < 0 {
			return nil, fmt.Errorf("%w: order %d (%s) has negative length %g", ErrInvalidProduct, i+1, o.Label, o.Length)
		}
		k := groupKey{grade: o.Grade, thickness: o.Thickness}
		buckets[k] = append(buckets[k], Product{Label: o.Label, Width: o.Width, Demand: o.Demand()})
	}

	keys := make([]groupKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].grade != keys[j].grade {
			return keys[i].grade < keys[j].grade
		}
		return keys[i].thickness < keys[j].thickness
	})

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		products, err := NormalizeProducts(buckets[k])
		if err != nil {
			return nil, fmt.Errorf("group %s/%g: %w", k.grade, k.thickness, err)
		}
		groups = append(groups, Group{Grade: k.grade, Thickness: k.thickness, Products: products})
	}
	return groups, nil
}
