package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawWidthDomain_Range(t *testing.T) {
	widths, err := RangeDomain(1000, 1004).Widths()
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1001, 1002, 1003, 1004}, widths)
}

func TestRawWidthDomain_RangeWithStep(t *testing.T) {
	d := RawWidthDomain{Min: 1000, Max: 1100, Step: 25}
	widths, err := d.Widths()
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1025, 1050, 1075, 1100}, widths)
	assert.Equal(t, "1000..1100/25", d.String())
}

func TestRawWidthDomain_DiscreteSortedAndDeduplicated(t *testing.T) {
	widths, err := DiscreteDomain(1280, 1000, 1260, 1000).Widths()
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1260, 1280}, widths)
}

func TestRawWidthDomain_Invalid(t *testing.T) {
	cases := map[string]RawWidthDomain{
		"inverted":      {Min: 1300, Max: 1000},
		"zero min":      {Min: 0, Max: 1000},
		"negative step": {Min: 1000, Max: 1100, Step: -1},
		"bad discrete":  {List: []float64{1000, -1}},
		"huge":          {Min: 1, Max: 1e9},
	}
	for name, d := range cases {
		_, err := d.Widths()
		assert.ErrorIs(t, err, ErrInvalidDomain, name)
	}
}
