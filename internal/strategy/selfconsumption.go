package strategy

import "math"

// SelfConsumption stores the solar surplus and covers the load gap from the
// battery. It never charges from the grid.
type SelfConsumption struct{}

func (SelfConsumption) Name() string { return "self_consumption" }

func (SelfConsumption) Decide(ctx Context) float64 {
	ts := ctx.Params.TimeScale
	if ts <= 0 {
		return 0
	}
	net := ctx.Input.Solar - ctx.Input.Consumption
	rate := net / ts
	return math.Max(-ctx.Params.MaxChargeRate, math.Min(ctx.Params.MaxChargeRate, rate))
}
