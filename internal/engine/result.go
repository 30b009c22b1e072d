package engine

import (
	"sort"

	"github.com/piwi3910/SlitCut/internal/model"
)

// minRunLength drops patterns the solver left at numerical noise.
const minRunLength = 1e-6

// AssembleRecords turns solved run lengths into pattern records. lengths is
// aligned with patterns and each pattern's counts with products. Patterns
// run for less than minRunLength are dropped and zero counts are omitted.
// Records are ordered by raw width, then longest run first.
func AssembleRecords(patterns []model.Pattern, lengths []float64, products []model.Product) []model.PatternRecord {
	var records []model.PatternRecord
	for i, pat := range patterns {
		if i >= len(lengths) || lengths[i] <= minRunLength {
			continue
		}
		counts := make([]model.ProductCount, 0, len(pat.Counts))
		for p, c := range pat.Counts {
			if c == 0 {
				continue
			}
			counts = append(counts, model.ProductCount{
				ProductID: products[p].ID,
				Label:     products[p].Label,
				Width:     products[p].Width,
				Count:     c,
			})
		}
		records = append(records, model.PatternRecord{
			PatternID:  pat.ID,
			RawWidth:   pat.RawWidth,
			Counts:     counts,
			LengthUsed: lengths[i],
			TrimWidth:  pat.TrimWidth,
			UnitCost:   pat.UnitCost,
			Cost:       pat.CostPerLength() * lengths[i],
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RawWidth != records[j].RawWidth {
			return records[i].RawWidth < records[j].RawWidth
		}
		return records[i].LengthUsed > records[j].LengthUsed
	})
	return records
}

// RecordsCost sums the material cost of records.
func RecordsCost(records []model.PatternRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.Cost
	}
	return total
}
