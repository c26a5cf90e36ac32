package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battery-env/internal/model"
)

var (
	day0   = time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)
	params = model.BatteryParams{Capacity: 10, MaxChargeRate: 8, TimeScale: 0.5}
)

func ctxAt(hhmm string, solar, consumption float64) Context {
	ts, _ := time.Parse("15:04", hhmm)
	at := day0.Add(time.Duration(ts.Hour())*time.Hour + time.Duration(ts.Minute())*time.Minute)
	return Context{
		Input:  model.StepInput{Timestamp: at, Solar: solar, Consumption: consumption},
		Params: params,
	}
}

func TestSchedule_Windows(t *testing.T) {
	s, err := NewScheduleStrategy(ScheduleParams{
		ChargeStart:    "10:00",
		ChargeEnd:      "15:00",
		DischargeStart: "18:00",
		DischargeEnd:   "21:00",
		ChargeRate:     5,
		DischargeRate:  4,
	})
	require.NoError(t, err)

	assert.Equal(t, 5.0, s.Decide(ctxAt("10:00", 0, 0)))
	assert.Equal(t, 0.0, s.Decide(ctxAt("15:00", 0, 0)))
	assert.Equal(t, -4.0, s.Decide(ctxAt("20:45", 0, 0)))
	assert.Equal(t, 0.0, s.Decide(ctxAt("03:00", 0, 0)))
}

func TestSchedule_WrapsMidnight(t *testing.T) {
	s, err := NewScheduleStrategy(ScheduleParams{
		ChargeStart:    "22:00",
		ChargeEnd:      "02:00",
		DischargeStart: "17:00",
		ChargeRate:     -3, // sign is ignored
	})
	require.NoError(t, err)

	assert.Equal(t, 3.0, s.Decide(ctxAt("23:30", 0, 0)))
	assert.Equal(t, 3.0, s.Decide(ctxAt("01:00", 0, 0)))
	assert.Equal(t, 0.0, s.Decide(ctxAt("17:30", 0, 0)))
}

func TestSchedule_InvalidTime(t *testing.T) {
	_, err := NewScheduleStrategy(ScheduleParams{ChargeStart: "25:00", DischargeStart: "17:00"})
	assert.Error(t, err)

	_, err = NewScheduleStrategy(ScheduleParams{ChargeStart: "10", DischargeStart: "17:00"})
	assert.Error(t, err)
}

func TestSelfConsumption(t *testing.T) {
	s := SelfConsumption{}

	assert.InDelta(t, 4, s.Decide(ctxAt("12:00", 3, 1)), 1e-9)
	assert.InDelta(t, -2, s.Decide(ctxAt("19:00", 0, 1)), 1e-9)
	assert.InDelta(t, 8, s.Decide(ctxAt("12:00", 30, 0)), 1e-9)
	assert.InDelta(t, -8, s.Decide(ctxAt("19:00", 0, 30)), 1e-9)
}

func makeSignals(co2 []float64) model.SignalSet {
	var set model.SignalSet
	for i, v := range co2 {
		ts := day0.Add(time.Duration(i) * 30 * time.Minute)
		set.Solar = append(set.Solar, model.SignalRow{Timestamp: ts, Value: 0})
		set.Consumption = append(set.Consumption, model.SignalRow{Timestamp: ts, Value: 1})
		set.CO2 = append(set.CO2, model.SignalRow{Timestamp: ts, Value: v})
	}
	return set
}

func TestOracle_DischargesWhenDirty(t *testing.T) {
	signals := makeSignals([]float64{10, 10, 90, 90})
	cost := model.NewCostModel(params.TimeScale)

	o, err := NewOracleStrategy(signals, params, cost, 10, OracleParams{ChargeSteps: 10, RateSteps: 4})
	require.NoError(t, err)

	plan := o.Plan()
	require.Len(t, plan, 4)
	// Full battery: discharging while CO2 is below the baseline costs
	// reward, discharging while it is above earns it.
	assert.GreaterOrEqual(t, plan[0], 0.0)
	assert.GreaterOrEqual(t, plan[1], 0.0)
	assert.Less(t, plan[2], 0.0)
	assert.Less(t, plan[3], 0.0)

	assert.Equal(t, plan[2], o.Decide(Context{Index: 2}))
	assert.Equal(t, 0.0, o.Decide(Context{Index: 99}))
}

func TestOracle_BeatsIdle(t *testing.T) {
	signals := makeSignals([]float64{80, 20, 90, 10, 70, 60})
	cost := model.NewCostModel(params.TimeScale)

	o, err := NewOracleStrategy(signals, params, cost, 5, OracleParams{ChargeSteps: 20, RateSteps: 8})
	require.NoError(t, err)

	b, err := model.NewBattery(params, 5)
	require.NoError(t, err)
	total := 0.0
	for i, rate := range o.Plan() {
		in := signals.Row(i)
		a := model.Allocate(b, rate, in.Solar, in.Consumption, params.TimeScale)
		total += cost.Reward(in.CO2, a.BatteryDelta)
	}
	assert.Greater(t, total, 0.0)
}

func TestOracle_RejectsEmpty(t *testing.T) {
	_, err := NewOracleStrategy(model.SignalSet{}, params, model.NewCostModel(1), 0, OracleParams{})
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	setup := Setup{
		Signals: makeSignals([]float64{10, 90}),
		Battery: params,
		Cost:    model.NewCostModel(params.TimeScale),
	}

	for _, name := range Names {
		s, err := Build(name, map[string]any{"rate": 2.0}, setup)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}

	c, err := Build("constant", map[string]any{"rate": 3}, setup)
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.Decide(Context{}))

	_, err = Build("nope", nil, setup)
	assert.Error(t, err)

	_, err = Build("schedule", map[string]any{"charge_start": "xx"}, setup)
	assert.Error(t, err)
}
