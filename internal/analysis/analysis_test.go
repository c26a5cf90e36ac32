package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-env/internal/model"
	"battery-env/internal/strategy"
)

var potentialParams = PotentialParams{
	Battery:  model.BatteryParams{Capacity: 10, MaxChargeRate: 4, TimeScale: 0.5},
	Baseline: model.DefaultBaseline,
	Oracle:   strategy.OracleParams{ChargeSteps: 20, RateSteps: 4},
}

func signalsWithCO2(co2 ...float64) model.SignalSet {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var s model.SignalSet
	for i, c := range co2 {
		ts := start.Add(time.Duration(i) * 30 * time.Minute)
		s.Solar = append(s.Solar, model.SignalRow{Timestamp: ts, Value: 1})
		s.Consumption = append(s.Consumption, model.SignalRow{Timestamp: ts, Value: 2})
		s.CO2 = append(s.CO2, model.SignalRow{Timestamp: ts, Value: c})
	}
	return s
}

func TestPercentileSorted(t *testing.T) {
	vals := []float64{0, 10, 20, 30, 40}
	assert.Equal(t, 0.0, percentileSorted(vals, 0))
	assert.Equal(t, 40.0, percentileSorted(vals, 1))
	assert.Equal(t, 20.0, percentileSorted(vals, 0.5))
	assert.InDelta(t, 2.0, percentileSorted(vals, 0.05), 1e-9)
	assert.Equal(t, 0.0, percentileSorted(nil, 0.5))
}

func TestComputePotential_Stats(t *testing.T) {
	p, err := ComputePotential("a", signalsWithCO2(10, 20, 30, 40), potentialParams)
	require.NoError(t, err)

	assert.Equal(t, "a", p.Dataset)
	assert.Equal(t, 4, p.Count)
	assert.Equal(t, 10.0, p.MinCO2)
	assert.Equal(t, 40.0, p.MaxCO2)
	assert.Equal(t, 25.0, p.MeanCO2)
	assert.InDelta(t, 0.5, p.SolarCoverage, 1e-9)
	assert.GreaterOrEqual(t, p.OracleReward, p.IdleReward)
}

func TestComputePotential_FlatBaselineEarnsNothing(t *testing.T) {
	b := model.DefaultBaseline
	p, err := ComputePotential("flat", signalsWithCO2(b, b, b), potentialParams)
	require.NoError(t, err)
	assert.InDelta(t, 0, p.OracleReward, 1e-9)
	assert.InDelta(t, 0, p.SpreadP95P05, 1e-9)
}

func TestComputePotential_Malformed(t *testing.T) {
	_, err := ComputePotential("empty", model.SignalSet{}, potentialParams)
	assert.True(t, errors.Is(err, model.ErrMalformedSeries))
}

func TestRankByOracleReward(t *testing.T) {
	ranked, err := RankByOracleReward(map[string]model.SignalSet{
		"flat":  signalsWithCO2(35.9, 35.9, 35.9, 35.9),
		"swing": signalsWithCO2(5, 90, 5, 90),
	}, potentialParams)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "swing", ranked[0].Dataset)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Greater(t, ranked[0].OracleReward, ranked[1].OracleReward)
}
