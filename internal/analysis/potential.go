package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"battery-env/internal/backtest"
	"battery-env/internal/model"
	"battery-env/internal/simulator"
	"battery-env/internal/strategy"
)

// CarbonPotential is a dataset-level summary you can use for ranking.
// It includes raw carbon-intensity stats and the reward an oracle earns
// with the given battery over the whole dataset.
type CarbonPotential struct {
	Dataset string `json:"dataset"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Count int `json:"count"`

	MinCO2  float64 `json:"min_co2"`
	MaxCO2  float64 `json:"max_co2"`
	MeanCO2 float64 `json:"mean_co2"`
	P05CO2  float64 `json:"p05_co2"`
	P95CO2  float64 `json:"p95_co2"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// Share of the dataset's total consumption covered by solar in the same step.
	SolarCoverage float64 `json:"solar_coverage"`

	OracleReward float64 `json:"oracle_reward"`
	IdleReward   float64 `json:"idle_reward"`
}

// PotentialParams fixes the battery and cost model the oracle is run with.
type PotentialParams struct {
	Battery  model.BatteryParams
	Baseline float64
	Oracle   strategy.OracleParams
}

func ComputePotential(name string, signals model.SignalSet, p PotentialParams) (CarbonPotential, error) {
	out := CarbonPotential{Dataset: name}
	if err := signals.Validate(); err != nil {
		return out, err
	}
	out.Count = signals.Len()
	out.Start = signals.Start()
	out.End = signals.End()

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(signals.CO2))
	for _, r := range signals.CO2 {
		v := r.Value
		vals = append(vals, v)
		sum += v
		minv = math.Min(minv, v)
		maxv = math.Max(maxv, v)
	}
	sort.Float64s(vals)
	out.MinCO2 = minv
	out.MaxCO2 = maxv
	out.MeanCO2 = sum / float64(len(vals))
	out.P05CO2 = percentileSorted(vals, 0.05)
	out.P95CO2 = percentileSorted(vals, 0.95)
	out.SpreadP95P05 = out.P95CO2 - out.P05CO2
	out.SolarCoverage = solarCoverage(signals)

	cost := model.CostModel{Baseline: p.Baseline, TimeScale: p.Battery.TimeScale}
	sim, err := simulator.New(signals, p.Battery, simulator.WithBaseline(p.Baseline))
	if err != nil {
		return out, err
	}
	engine := backtest.New()

	idle, err := engine.Run(sim, strategy.Constant{})
	if err != nil {
		return out, fmt.Errorf("idle run: %w", err)
	}
	out.IdleReward = idle.TotalReward()

	oracle, err := strategy.NewOracleStrategy(signals, p.Battery, cost, 0, p.Oracle)
	if err != nil {
		return out, fmt.Errorf("oracle: %w", err)
	}
	res, err := engine.Run(sim, oracle)
	if err != nil {
		return out, fmt.Errorf("oracle run: %w", err)
	}
	out.OracleReward = res.TotalReward()
	return out, nil
}

func solarCoverage(s model.SignalSet) float64 {
	var covered, total float64
	for i := range s.Consumption {
		c := s.Consumption[i].Value
		if c <= 0 {
			continue
		}
		total += c
		covered += math.Min(math.Max(s.Solar[i].Value, 0), c)
	}
	if total == 0 {
		return 0
	}
	return covered / total
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
