package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePriceTable(t *testing.T) PriceTable {
	t.Helper()
	table, err := NewPriceTable([]PriceBreak{
		{StartWidth: 1200, UnitCost: 4190},
		{StartWidth: 1000, UnitCost: 4240},
	})
	require.NoError(t, err)
	return table
}

func TestPriceTable_LookupHalfOpenBrackets(t *testing.T) {
	table := samplePriceTable(t)

	cases := []struct {
		width float64
		cost  float64
	}{
		{1000, 4240},
		{1150, 4240},
		{1199.5, 4240},
		{1200, 4190},
		{5000, 4190},
	}
	for _, tc := range cases {
		got, err := table.Lookup(tc.width)
		require.NoError(t, err)
		assert.Equal(t, tc.cost, got, "width %g", tc.width)
	}
}

func TestPriceTable_LookupBelowFirstBreak(t *testing.T) {
	table := samplePriceTable(t)

	_, err := table.Lookup(999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUncoveredWidth))
	assert.Contains(t, err.Error(), "999")
}

func TestPriceTable_BreaksSorted(t *testing.T) {
	table := samplePriceTable(t)
	breaks := table.Breaks()
	require.Len(t, breaks, 2)
	assert.Equal(t, 1000.0, breaks[0].StartWidth)
	assert.Equal(t, 1000.0, table.MinWidth())
}

func TestNewPriceTable_Invalid(t *testing.T) {
	cases := map[string][]PriceBreak{
		"empty":     nil,
		"duplicate": {{StartWidth: 1000, UnitCost: 1}, {StartWidth: 1000, UnitCost: 2}},
		"negative":  {{StartWidth: 1000, UnitCost: -1}},
		"zero":      {{StartWidth: 0, UnitCost: 1}},
	}
	for name, breaks := range cases {
		_, err := NewPriceTable(breaks)
		assert.ErrorIs(t, err, ErrInvalidPriceTable, name)
	}
}

func TestPriceTable_Covers(t *testing.T) {
	table := samplePriceTable(t)

	assert.NoError(t, table.Covers(RangeDomain(1000, 1300)))

	err := table.Covers(RangeDomain(950, 1300))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUncoveredWidth)
	assert.Contains(t, err.Error(), "950")

	assert.ErrorIs(t, table.Covers(RangeDomain(1300, 1000)), ErrInvalidDomain)
}

func TestPriceTable_BoundaryWidths(t *testing.T) {
	table := samplePriceTable(t)

	widths, err := RangeDomain(1000, 1300).Widths()
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1200}, table.BoundaryWidths(widths))

	discrete, err := DiscreteDomain(1250, 1050, 1100, 1280).Widths()
	require.NoError(t, err)
	assert.Equal(t, []float64{1050, 1250}, table.BoundaryWidths(discrete))
}
