package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SlitCut/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(model.DefaultSettings())

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"Current Settings", "Max 4 Patterns", "Max 7 Patterns", "Exact Fit Only"}, names)
	require.NotNil(t, scenarios[3].Settings.TrimTolerance)
	assert.Equal(t, 0.0, *scenarios[3].Settings.TrimTolerance)
}

func TestBuildDefaultScenarios_SingleSetup(t *testing.T) {
	s := model.DefaultSettings()
	s.MaxPatterns = 1
	zero := 0.0
	s.TrimTolerance = &zero

	scenarios := BuildDefaultScenarios(s)
	require.Len(t, scenarios, 2)
	assert.Equal(t, 3, scenarios[1].Settings.MaxPatterns)
}

func TestCompareScenarios(t *testing.T) {
	base := model.DefaultSettings()
	single := base
	single.MaxPatterns = 1
	scenarios := []ComparisonScenario{
		{Name: "five", Settings: base},
		{Name: "one", Settings: single},
	}

	results, err := testPlanner().CompareScenarios(context.Background(), scenarios,
		[]model.Group{coilGroup()}, model.RangeDomain(1000, 1300), coilPrices(t))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "five", results[0].Scenario.Name)
	assert.Zero(t, results[0].Unsolved)
	assert.Equal(t, 1, results[1].PatternsUsed)
	assert.Less(t, results[0].TotalCost, results[1].TotalCost, "more setups can only help")
	assert.Greater(t, results[0].WastePercent, 0.0)
	assert.Less(t, results[0].WastePercent, 5.0)
}

func TestCompareScenarios_InvalidScenario(t *testing.T) {
	bad := model.DefaultSettings()
	bad.MaxPatterns = -1
	_, err := testPlanner().CompareScenarios(context.Background(), []ComparisonScenario{{Name: "bad", Settings: bad}},
		[]model.Group{coilGroup()}, model.RangeDomain(1000, 1300), coilPrices(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestSingleWidthBaseline(t *testing.T) {
	gr, err := SingleWidthBaseline(coilGroup(), 1300, coilPrices(t))
	require.NoError(t, err)
	require.Len(t, gr.Records, 2)

	// 7x166 with 138 mm trim, and 4x285 with 160 mm trim.
	assert.Equal(t, 7, gr.Records[0].Counts[0].Count)
	assert.Equal(t, 138.0, gr.Records[0].TrimWidth)
	assert.InDelta(t, 3910000.0/7, gr.Records[0].LengthUsed, 1e-6)
	assert.Equal(t, 4, gr.Records[1].Counts[0].Count)
	assert.Equal(t, 160.0, gr.Records[1].TrimWidth)

	want := 4190*(1300-69)*3910000.0/7 + 4190*(1300-80)*2605400.0/4
	assert.InEpsilon(t, want, gr.Objective, 1e-9)
	assertDemandMet(t, gr)
}

func TestSingleWidthBaseline_Errors(t *testing.T) {
	_, err := SingleWidthBaseline(coilGroup(), 200, coilPrices(t))
	assert.ErrorIs(t, err, model.ErrUncoveredWidth)

	prices, err := model.NewPriceTable([]model.PriceBreak{{StartWidth: 100, UnitCost: 1}})
	require.NoError(t, err)
	_, err = SingleWidthBaseline(coilGroup(), 200, prices)
	assert.ErrorIs(t, err, ErrProductTooWide)
}
