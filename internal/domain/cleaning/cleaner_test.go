package cleaning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/entity"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/normalize"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/quality"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

var soft = []entity.RuleName{
	entity.RuleExcessiveSpeed,
	entity.RuleInvalidTipAmount,
	entity.RuleInvalidZone,
	entity.RuleInvalidPassengerCount,
}

func records(n int) []entity.TripRecord {
	out := make([]entity.TripRecord, n)
	for i := range out {
		out[i] = entity.TripRecord{Index: i, TripDistance: float64(i + 1)}
	}
	return out
}

func table(rules []entity.RuleName, n int, set map[entity.RuleName][]int) *entity.QAFlagTable {
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	flags := entity.NewQAFlagTable(rules, index)
	for rule, rows := range set {
		for _, row := range rows {
			flags.Set(rule, row, true)
		}
	}
	return flags
}

func policy(threshold int, hard ...entity.RuleName) entity.ExclusionPolicy {
	return entity.ExclusionPolicy{HardExclude: hard, Threshold: threshold}
}

func TestCleanThresholdBoundary(t *testing.T) {
	rules := append([]entity.RuleName{entity.RuleDuplicate}, soft...)
	// row 0: 2 soft flags (== threshold), row 1: 3 soft flags (> threshold), row 2: clean
	flags := table(rules, 3, map[entity.RuleName][]int{
		entity.RuleExcessiveSpeed:   {0, 1},
		entity.RuleInvalidTipAmount: {0, 1},
		entity.RuleInvalidZone:      {1},
	})

	res, err := Clean(records(3), flags, policy(2, entity.RuleDuplicate))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, res.Flags.Index())
	assert.Equal(t, []int{2, 3, 0}, res.Annotated.TotalViolations())
	assert.Equal(t, []bool{false, true, false}, res.Annotated.IsGarbageRow())
	assert.Equal(t, 1, res.Stats.GarbageRows)
	assert.Equal(t, 2, res.Stats.KeptRows)
	assert.Equal(t, 1, res.Stats.ExcludedRows)
}

func TestCleanHardRulesDoNotCountTowardThreshold(t *testing.T) {
	rules := append([]entity.RuleName{entity.RuleDuplicate, entity.RuleInvalidMonth}, soft...)
	flags := table(rules, 2, map[entity.RuleName][]int{
		entity.RuleDuplicate:    {0},
		entity.RuleInvalidMonth: {0},
	})

	res, err := Clean(records(2), flags, policy(0, entity.RuleDuplicate, entity.RuleInvalidMonth))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0}, res.Annotated.TotalViolations())
	assert.Equal(t, []bool{false, false}, res.Annotated.IsGarbageRow())
	assert.Equal(t, []int{1}, res.Flags.Index())
	assert.Equal(t, 1, res.Stats.HardFlagged[entity.RuleDuplicate])
	assert.Equal(t, 1, res.Stats.HardFlagged[entity.RuleInvalidMonth])
	assert.Equal(t, 0, res.Stats.GarbageRows)
}

func TestCleanPreservesOrderAndAlignment(t *testing.T) {
	rules := append([]entity.RuleName{entity.RuleDuplicate}, soft...)
	flags := table(rules, 6, map[entity.RuleName][]int{
		entity.RuleDuplicate:   {1, 4},
		entity.RuleInvalidZone: {3},
	})
	in := records(6)

	res, err := Clean(in, flags, policy(5, entity.RuleDuplicate))
	require.NoError(t, err)

	require.Equal(t, len(res.Records), res.Flags.Len())
	assert.Equal(t, []int{0, 2, 3, 5}, res.Flags.Index())
	for row, rec := range res.Records {
		assert.Equal(t, res.Flags.Index()[row], rec.Index)
	}
	zone, err := res.Flags.Column(entity.RuleInvalidZone)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, false}, zone)
	assert.Equal(t, []int{0, 0, 1, 0}, res.Flags.TotalViolations())

	// inputs untouched
	assert.Len(t, in, 6)
	assert.False(t, flags.HasDerived())
}

func TestCleanErrors(t *testing.T) {
	flags := table(soft, 1, nil)

	_, err := Clean(records(1), flags, policy(-1))
	assert.True(t, errors.Is(err, types.ErrConfig))

	_, err = Clean(records(1), flags, policy(5, "not_a_rule", "also_bad"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
	assert.Contains(t, err.Error(), "not_a_rule")
	assert.Contains(t, err.Error(), "also_bad")

	_, err = Clean(records(1), flags, policy(5, entity.RuleDuplicate))
	assert.True(t, errors.Is(err, types.ErrSchema))

	_, err = Clean(records(2), flags, policy(5))
	assert.True(t, errors.Is(err, types.ErrSchema))
}

// tenTripBatch: row 3 repeats row 1, rows 5 and 6 end before they start,
// row 8 has zero distance with a positive fare.
func tenTripBatch() []entity.RawTrip {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	raw := make([]entity.RawTrip, 10)
	for i := range raw {
		r := entity.NewRawTrip()
		r.PickupDatetime = base.Add(time.Duration(i) * time.Hour)
		r.DropoffDatetime = r.PickupDatetime.Add(15 * time.Minute)
		r.PassengerCount = 1
		r.TripDistance = 1 + float64(i)/10
		r.RatecodeID = 1
		r.PULocationID = 1
		r.DOLocationID = 2
		r.PaymentType = 2
		r.FareAmount = 12
		r.Extra = 0
		r.MTATax = 0.5
		r.TipAmount = 0
		r.TollsAmount = 0
		r.ImprovementSurcharge = 1
		r.CongestionSurcharge = 2.5
		r.AirportFee = 0
		r.TotalAmount = 16
		raw[i] = r
	}
	raw[2] = raw[0]
	for _, i := range []int{4, 5} {
		raw[i].DropoffDatetime = raw[i].PickupDatetime.Add(-10 * time.Minute)
	}
	raw[7].TripDistance = 0
	return raw
}

func runTenTripScenario(t *testing.T, hard []entity.RuleName) (*entity.QAFlagTable, *Result) {
	t.Helper()
	zones := entity.ZoneLookup{
		1: {LocationID: 1, Borough: "EWR", Zone: "Newark Airport"},
		2: {LocationID: 2, Borough: "Queens", Zone: "Jamaica Bay"},
	}
	recs := normalize.NewNormalizer(zones).Normalize(tenTripBatch())
	engine, err := quality.NewEngine(quality.DefaultThresholds())
	require.NoError(t, err)
	flags, err := engine.Run(recs, entity.Period{Year: 2024, Month: time.March})
	require.NoError(t, err)

	res, err := Clean(recs, flags, entity.ExclusionPolicy{HardExclude: hard, Threshold: entity.DefaultGarbageThreshold})
	require.NoError(t, err)
	return flags, res
}

func TestCleanTenTripScenario(t *testing.T) {
	temporal := []entity.RuleName{
		entity.RuleDuplicate,
		entity.RuleMissingDatetime,
		entity.RuleInvalidTimeOrder,
		entity.RuleInvalidMonth,
		entity.RuleInvalidDuration,
	}
	flags, res := runTenTripScenario(t, temporal)

	assert.False(t, flags.Flag(entity.RuleSuspiciousZeroFare, 7))
	assert.True(t, flags.Flag(entity.RuleDuplicate, 2))
	assert.False(t, flags.Flag(entity.RuleDuplicate, 0))
	assert.Equal(t, 7, len(res.Records))
	assert.Equal(t, []int{0, 1, 3, 6, 7, 8, 9}, res.Flags.Index())
}

func TestCleanTenTripScenarioDefaultPolicy(t *testing.T) {
	// the default structural rules also drop the zero-distance row
	_, res := runTenTripScenario(t, entity.DefaultHardExclude)
	assert.Equal(t, []int{0, 1, 3, 6, 8, 9}, res.Flags.Index())
	assert.Equal(t, 1, res.Stats.HardFlagged[entity.RuleInvalidDistance])
	assert.Equal(t, 2, res.Stats.HardFlagged[entity.RuleInvalidTimeOrder])
}
