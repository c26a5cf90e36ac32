package strategy

import (
	"fmt"
	"math"

	"battery-env/internal/model"
)

// OracleStrategy is a (near) reward-maximizing "perfect foresight" strategy.
// It computes an action plan up-front using dynamic programming on a
// discretized charge grid, stepping a scratch battery through the same
// allocator and cost model the simulator uses.
//
// Notes:
// - This is designed to be a practical "upper bound" and ranking tool.
// - Charge levels are snapped to the grid after every step, so the realized
//   reward of the plan can differ slightly from the planned one.
type OracleStrategy struct {
	plan []float64
}

type OracleParams struct {
	// ChargeSteps controls charge discretization between [0, Capacity].
	// Higher = more accurate, slower.
	ChargeSteps int

	// RateSteps controls action discretization between [-MaxRate, +MaxRate].
	// Higher = more accurate, slower.
	RateSteps int
}

func NewOracleStrategy(signals model.SignalSet, params model.BatteryParams, cost model.CostModel, initialCharge float64, cfg OracleParams) (*OracleStrategy, error) {
	if signals.Len() == 0 {
		return nil, fmt.Errorf("no rows")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if cfg.ChargeSteps <= 0 {
		cfg.ChargeSteps = 100
	}
	if cfg.RateSteps <= 0 {
		cfg.RateSteps = 10
	}
	plan, err := optimizeDP(signals, params, cost, initialCharge, cfg.ChargeSteps, cfg.RateSteps)
	if err != nil {
		return nil, err
	}
	return &OracleStrategy{plan: plan}, nil
}

func (s *OracleStrategy) Name() string { return "oracle" }

func (s *OracleStrategy) Decide(ctx Context) float64 {
	if ctx.Index < 0 || ctx.Index >= len(s.plan) {
		return 0
	}
	return s.plan[ctx.Index]
}

// Plan returns a copy of the precomputed actions.
func (s *OracleStrategy) Plan() []float64 {
	out := make([]float64, len(s.plan))
	copy(out, s.plan)
	return out
}

func optimizeDP(signals model.SignalSet, p model.BatteryParams, cost model.CostModel, initialCharge float64, chargeSteps, rateSteps int) ([]float64, error) {
	if chargeSteps < 2 {
		chargeSteps = 2
	}
	nStates := chargeSteps + 1
	n := signals.Len()

	toIdx := func(charge float64) int {
		if charge <= 0 {
			return 0
		}
		if charge >= p.Capacity {
			return chargeSteps
		}
		return int(math.Round(charge / p.Capacity * float64(chargeSteps)))
	}
	toCharge := func(idx int) float64 {
		return float64(idx) / float64(chargeSteps) * p.Capacity
	}

	rates := make([]float64, 0, 2*rateSteps+1)
	step := p.MaxChargeRate / float64(rateSteps)
	for k := -rateSteps; k <= rateSteps; k++ {
		rates = append(rates, float64(k)*step)
	}

	negInf := math.Inf(-1)

	// value[t][s] is the best reward collectable from step t in state s.
	// Solved backwards so the plan can be read forwards from the initial state.
	value := make([][]float64, n+1)
	best := make([][]float64, n)
	nextIdx := make([][]int, n)
	for t := range value {
		value[t] = make([]float64, nStates)
	}
	for t := n - 1; t >= 0; t-- {
		in := signals.Row(t)
		best[t] = make([]float64, nStates)
		nextIdx[t] = make([]int, nStates)
		for s := 0; s < nStates; s++ {
			bv := negInf
			for _, rate := range rates {
				nc, reward := simulateStep(toCharge(s), rate, in, p, cost)
				ns := toIdx(nc)
				v := reward + value[t+1][ns]
				// Prefer smaller |rate| on ties so idle wins over churn.
				if v > bv || (v == bv && math.Abs(rate) < math.Abs(best[t][s])) {
					bv = v
					best[t][s] = rate
					nextIdx[t][s] = ns
				}
			}
			value[t][s] = bv
		}
	}

	plan := make([]float64, n)
	cur := toIdx(initialCharge)
	for t := 0; t < n; t++ {
		plan[t] = best[t][cur]
		cur = nextIdx[t][cur]
	}
	return plan, nil
}

// simulateStep is a pure version of one simulator step: it runs the
// allocator on a scratch battery and prices the resulting delta.
func simulateStep(charge, rate float64, in model.StepInput, p model.BatteryParams, cost model.CostModel) (nextCharge float64, reward float64) {
	b := &model.Battery{Params: p, State: model.BatteryState{CurrentCharge: charge}}
	a := model.Allocate(b, rate, in.Solar, in.Consumption, p.TimeScale)
	return b.State.CurrentCharge, cost.Reward(in.CO2, a.BatteryDelta)
}
