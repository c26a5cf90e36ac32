package model

// DefaultBaseline is the neutral carbon intensity: storing energy while the
// grid is cleaner than this earns a positive reward.
const DefaultBaseline = 35.9

// CostModel prices a step's battery delta against the carbon intensity.
type CostModel struct {
	Baseline  float64
	TimeScale float64
}

func NewCostModel(timeScale float64) CostModel {
	return CostModel{Baseline: DefaultBaseline, TimeScale: timeScale}
}

// Cost is delta * timeScale * (co2 - baseline).
func (m CostModel) Cost(co2, batteryDelta float64) float64 {
	return batteryDelta * m.TimeScale * (co2 - m.Baseline)
}

// Reward is the negated cost.
func (m CostModel) Reward(co2, batteryDelta float64) float64 {
	return -m.Cost(co2, batteryDelta)
}
