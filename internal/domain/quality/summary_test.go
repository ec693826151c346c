package quality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

func tableWith(rules []entity.RuleName, rows int, set map[entity.RuleName][]int) *entity.QAFlagTable {
	index := make([]int, rows)
	for i := range index {
		index[i] = i
	}
	flags := entity.NewQAFlagTable(rules, index)
	for rule, on := range set {
		for _, row := range on {
			flags.Set(rule, row, true)
		}
	}
	return flags
}

func TestSummarize(t *testing.T) {
	rules := []entity.RuleName{entity.RuleDuplicate, entity.RuleInvalidZone}
	flags := tableWith(rules, 3, map[entity.RuleName][]int{
		entity.RuleDuplicate:   {0},
		entity.RuleInvalidZone: {0, 2},
	})

	got := Summarize(flags)
	require.Len(t, got, 3)

	assert.Equal(t, entity.RuleDuplicate, got[0].Rule)
	assert.Equal(t, entity.BandHard, got[0].Band)
	assert.Equal(t, "1/33.33%", got[0].Text)

	assert.Equal(t, entity.BandSoft, got[1].Band)
	assert.Equal(t, "2/66.67%", got[1].Text)

	assert.Equal(t, entity.RuleAnyViolation, got[2].Rule)
	assert.Equal(t, 2, got[2].Count)
	assert.Equal(t, "2/66.667%", got[2].Text)
}

func TestSummarizeWholePercentages(t *testing.T) {
	flags := tableWith([]entity.RuleName{entity.RuleInvalidZone}, 4, map[entity.RuleName][]int{
		entity.RuleInvalidZone: {1, 3},
	})
	got := Summarize(flags)
	assert.Equal(t, "2/50.0%", got[0].Text)
	assert.Equal(t, "2/50.0%", got[1].Text)
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(tableWith(entity.AllRules, 0, nil))
	require.Len(t, got, 22)
	for _, s := range got {
		assert.Equal(t, "0/0.0%", s.Text)
	}
}

func TestRecommendThreshold(t *testing.T) {
	rules := []entity.RuleName{entity.RuleDuplicate, entity.RuleExcessiveSpeed, entity.RuleInvalidZone, entity.RuleInvalidTipAmount}
	// soft totals: 20 rows, 18 clean, one with 2 soft flags, one with 3 soft flags plus a duplicate
	flags := tableWith(rules, 20, map[entity.RuleName][]int{
		entity.RuleDuplicate:        {19},
		entity.RuleExcessiveSpeed:   {18, 19},
		entity.RuleInvalidZone:      {18, 19},
		entity.RuleInvalidTipAmount: {19},
	})

	totals, err := SoftTotals(flags, []entity.RuleName{entity.RuleDuplicate})
	require.NoError(t, err)
	assert.Equal(t, 2, totals[18])
	assert.Equal(t, 3, totals[19])

	// p95 of [0 x18, 2, 3] at position 18.05 = 2 + 0.05 = 2.05
	got, err := RecommendThreshold(flags, []entity.RuleName{entity.RuleDuplicate})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestRecommendThresholdEmptyAndSchema(t *testing.T) {
	got, err := RecommendThreshold(tableWith(entity.AllRules, 0, nil), entity.DefaultHardExclude)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultGarbageThreshold, got)

	_, err = RecommendThreshold(tableWith([]entity.RuleName{entity.RuleInvalidZone}, 1, nil), entity.DefaultHardExclude)
	assert.True(t, errors.Is(err, types.ErrSchema))
}
