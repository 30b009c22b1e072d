package engine

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SlitCut/internal/model"
)

func coilProducts() []model.Product {
	return []model.Product{
		{ID: "p166", Label: "C100", Width: 166, Demand: 3910000},
		{ID: "p285", Label: "C160", Width: 285, Demand: 2605400},
	}
}

func coilPrices(t *testing.T) model.PriceTable {
	t.Helper()
	prices, err := model.NewPriceTable([]model.PriceBreak{
		{StartWidth: 1000, UnitCost: 4240},
		{StartWidth: 1200, UnitCost: 4190},
	})
	require.NoError(t, err)
	return prices
}

// ─── CountVectors Tests ─────────────────────────────────

func TestCountVectors_EdgeTolerance(t *testing.T) {
	got := slices.Collect(CountVectors(1000, coilProducts(), 166))

	assert.Equal(t, [][]int{{6, 0}, {4, 1}, {2, 2}, {0, 3}}, got)
}

func TestCountVectors_ExactFit(t *testing.T) {
	assert.Equal(t, [][]int{{7, 0}}, slices.Collect(CountVectors(1162, coilProducts(), 0)))
	assert.Equal(t, [][]int{{4, 2}}, slices.Collect(CountVectors(1234, coilProducts(), 0)))
	assert.Empty(t, slices.Collect(CountVectors(1001, coilProducts(), 0)))
}

func TestCountVectors_TrimWindowAndWidthIdentity(t *testing.T) {
	products := coilProducts()
	tol := 166.0
	for raw := 1000.0; raw <= 1300; raw++ {
		for counts := range CountVectors(raw, products, tol) {
			used := 0.0
			nonZero := false
			for p, c := range counts {
				require.GreaterOrEqual(t, c, 0)
				used += float64(c) * products[p].Width
				nonZero = nonZero || c > 0
			}
			trim := raw - used
			assert.True(t, nonZero, "all-zero vector at %g", raw)
			assert.GreaterOrEqual(t, trim, 0.0, "raw %g counts %v", raw, counts)
			assert.Less(t, trim, tol, "raw %g counts %v", raw, counts)
		}
	}
}

func TestCountVectors_NeverYieldsAllZero(t *testing.T) {
	products := []model.Product{{Width: 166, Demand: 1}}
	assert.Empty(t, slices.Collect(CountVectors(100, products, 200)))
}

func TestCountVectors_NoProducts(t *testing.T) {
	assert.Empty(t, slices.Collect(CountVectors(1000, nil, 10)))
}

func TestCountVectors_Restartable(t *testing.T) {
	seq := CountVectors(1200, coilProducts(), 166)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestCountVectors_StopsEarly(t *testing.T) {
	n := 0
	for range CountVectors(1300, coilProducts(), 300) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCountVectors_YieldsCopies(t *testing.T) {
	var kept [][]int
	for counts := range CountVectors(1000, coilProducts(), 166) {
		kept = append(kept, counts)
	}
	require.Len(t, kept, 4)
	assert.Equal(t, []int{6, 0}, kept[0])
	assert.Equal(t, []int{0, 3}, kept[3])
}

// ─── GeneratePatterns Tests ─────────────────────────────

func generate(t *testing.T, tol float64) []WidthPatterns {
	t.Helper()
	widths, err := model.RangeDomain(1000, 1300).Widths()
	require.NoError(t, err)
	generated, err := GeneratePatterns(context.Background(), widths, coilProducts(), coilPrices(t), tol, 4)
	require.NoError(t, err)
	return generated
}

func TestGeneratePatterns_TrimOnlyAtBracketBoundaries(t *testing.T) {
	generated := generate(t, 166)

	var rawWidths []float64
	for _, wp := range generated {
		rawWidths = append(rawWidths, wp.RawWidth)
		for _, p := range wp.Patterns {
			assert.Equal(t, wp.RawWidth, p.RawWidth)
			if p.TrimWidth > 0 {
				assert.Contains(t, []float64{1000, 1200}, p.RawWidth, "trim %g at %g", p.TrimWidth, p.RawWidth)
			}
		}
	}
	assert.Equal(t, []float64{1000, 1021, 1068, 1115, 1140, 1162, 1187, 1200, 1234, 1281}, rawWidths)
}

func TestGeneratePatterns_PricesByBracket(t *testing.T) {
	for _, wp := range generate(t, 166) {
		for _, p := range wp.Patterns {
			want := 4240.0
			if p.RawWidth >= 1200 {
				want = 4190
			}
			assert.Equal(t, want, p.UnitCost, "raw %g", p.RawWidth)
			assert.InDelta(t, p.RawWidth, p.UsedWidth()+p.TrimWidth, 1e-9)
		}
	}
}

func TestGeneratePatterns_ExactOnlyWhenToleranceZero(t *testing.T) {
	total := 0
	for _, wp := range generate(t, 0) {
		for _, p := range wp.Patterns {
			assert.Equal(t, 0.0, p.TrimWidth)
			total++
		}
	}
	assert.Equal(t, 8, total)
}

func TestGeneratePatterns_Deterministic(t *testing.T) {
	assert.Equal(t, generate(t, 166), generate(t, 166))
}

func TestGeneratePatterns_UncoveredWidth(t *testing.T) {
	_, err := GeneratePatterns(context.Background(), []float64{900, 1000}, coilProducts(), coilPrices(t), 0, 2)
	assert.ErrorIs(t, err, model.ErrUncoveredWidth)
}

func TestGeneratePatterns_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	widths, err := model.RangeDomain(1000, 1300).Widths()
	require.NoError(t, err)
	_, err = GeneratePatterns(ctx, widths, coilProducts(), coilPrices(t), 166, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountsKey(t *testing.T) {
	assert.Equal(t, "7,0,12", countsKey([]int{7, 0, 12}))
	assert.Equal(t, "", countsKey(nil))
}
