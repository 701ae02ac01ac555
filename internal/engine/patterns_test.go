package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVolumePatternsSumToOne checks every table entry is a valid distribution.
func TestVolumePatternsSumToOne(t *testing.T) {
	for _, code := range ListVolumePatterns() {
		t.Run(code, func(t *testing.T) {
			weights, err := ResolveWeeklyWeights(code, DefaultWeeks)
			require.NoError(t, err)
			require.Len(t, weights, DefaultWeeks)

			sum := 0.0
			for _, w := range weights {
				assert.Greater(t, w, 0.0)
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

// TestVolumePatternDocumentedValues pins a few entries so an accidental table
// edit shows up as a failing test.
func TestVolumePatternDocumentedValues(t *testing.T) {
	tests := map[string][]float64{
		"flat": {0.25, 0.25, 0.25, 0.25},
		"1":    {0.22, 0.24, 0.26, 0.28},
		"2":    {0.19, 0.23, 0.27, 0.31},
		"3":    {0.16, 0.22, 0.28, 0.34},
		"4":    {0.13, 0.21, 0.29, 0.37},
		"1a":   {0.24, 0.27, 0.30, 0.19},
		"2a":   {0.22, 0.28, 0.32, 0.18},
		"3a":   {0.20, 0.28, 0.35, 0.17},
		"4a":   {0.18, 0.28, 0.38, 0.16},
		"3b":   {0.34, 0.28, 0.22, 0.16},
		"4b":   {0.37, 0.29, 0.21, 0.13},
		"1-3a": {0.22, 0.30, 0.20, 0.28},
		"1-3b": {0.30, 0.22, 0.28, 0.20},
		"2-4a": {0.20, 0.32, 0.18, 0.30},
		"2-4b": {0.32, 0.20, 0.30, 0.18},
	}
	require.Len(t, tests, len(VolumePatterns), "every volume pattern needs pinned values")
	for code, want := range tests {
		got, err := ResolveWeeklyWeights(code, DefaultWeeks)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}
}

// TestAscendingPatternsIncrease verifies codes "1".."4" load more each week.
func TestAscendingPatternsIncrease(t *testing.T) {
	for _, code := range []string{"1", "2", "3", "4"} {
		w, err := ResolveWeeklyWeights(code, DefaultWeeks)
		require.NoError(t, err)
		for i := 1; i < len(w); i++ {
			assert.Greater(t, w[i], w[i-1], "pattern %s week %d", code, i+1)
		}
	}
}

// TestResolveWeeklyWeightsUnknownCode verifies unknown codes fail fast.
func TestResolveWeeklyWeightsUnknownCode(t *testing.T) {
	_, err := ResolveWeeklyWeights("nonexistent_code", 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "unknown volume pattern")
}

// TestResolveWeeklyWeightsWeekCount verifies only 4-week blocks resolve.
func TestResolveWeeklyWeightsWeekCount(t *testing.T) {
	_, err := ResolveWeeklyWeights("3a", 5)
	assert.ErrorIs(t, err, ErrConfiguration)
}

// TestResolveWeeklyWeightsReturnsCopy verifies callers cannot alter the table.
func TestResolveWeeklyWeightsReturnsCopy(t *testing.T) {
	w, err := ResolveWeeklyWeights("flat", DefaultWeeks)
	require.NoError(t, err)
	w[0] = 1

	again, err := ResolveWeeklyWeights("flat", DefaultWeeks)
	require.NoError(t, err)
	assert.Equal(t, 0.25, again[0])
}

// TestSpreadAcrossWeeks verifies the cumulative rounding on a known input.
func TestSpreadAcrossWeeks(t *testing.T) {
	wave, twoPhase, ascending := VolumePatterns["3a"], VolumePatterns["1-3b"], VolumePatterns["4"]
	assert.Equal(t, []int{28, 40, 50, 24}, SpreadAcrossWeeks(142, wave[:]))
	assert.Equal(t, []int{14, 10, 13, 9}, SpreadAcrossWeeks(46, twoPhase[:]))
	assert.Equal(t, []int{0, 0, 0, 0}, SpreadAcrossWeeks(0, ascending[:]))
}

// TestSpreadAcrossWeeksReconciles checks, for every pattern and a range of
// totals, that weeks are non-negative and sum exactly to the total.
func TestSpreadAcrossWeeksReconciles(t *testing.T) {
	for code, vec := range VolumePatterns {
		for total := 0; total <= 600; total++ {
			weeks := SpreadAcrossWeeks(total, vec[:])
			sum := 0
			for i, w := range weeks {
				require.GreaterOrEqual(t, w, 0, "pattern %s total %d week %d", code, total, i+1)
				sum += w
			}
			require.Equal(t, total, sum, "pattern %s total %d", code, total)

			// Each week stays within one rep of its exact share.
			for i, w := range weeks {
				exact := float64(total) * vec[i]
				require.LessOrEqual(t, math.Abs(float64(w)-exact), 1.0+1e-9, "pattern %s total %d week %d", code, total, i+1)
			}
		}
	}
}

// TestTablesIsCopy verifies callers cannot mutate the engine's tables.
func TestTablesIsCopy(t *testing.T) {
	tables := Tables()
	assert.Equal(t, ListVolumePatterns(), tables.VolumePatternCodes)
	assert.Equal(t, ListSessionPatterns(), tables.SessionPatternCodes)
	assert.Len(t, tables.VolumePatternCodes, len(VolumePatterns))
	require.Len(t, tables.VolumePatterns, len(VolumePatterns))
	require.Len(t, tables.SessionPatterns, len(SessionPatterns))
	assert.Equal(t, VolumePatternsVersion, tables.VolumePatternsVersion)
	assert.Equal(t, 92.5, tables.ZoneIntensities[Zone90])

	tables.SessionPatterns["d50_50"][0] = 99
	tables.VolumePatterns["flat"] = [DefaultWeeks]float64{1, 0, 0, 0}
	tables.Roundings[0] = 7

	assert.Equal(t, []int{50, 50}, SessionPatterns["d50_50"])
	assert.Equal(t, 0.25, VolumePatterns["flat"][0])
	assert.Equal(t, 1.0, AllowedRoundings[0])
}
