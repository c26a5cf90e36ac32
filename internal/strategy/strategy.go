package strategy

import "battery-env/internal/model"

// Context is what a strategy sees before each step: the row about to be
// consumed and the battery as it stands.
type Context struct {
	Index  int
	Input  model.StepInput
	Params model.BatteryParams
	Charge float64
}

// Strategy picks a charge rate (positive charges, negative discharges).
type Strategy interface {
	Name() string
	Decide(ctx Context) float64
}

// Constant always requests the same rate. Rate 0 is the idle baseline.
type Constant struct {
	Rate float64
}

func (c Constant) Name() string {
	if c.Rate == 0 {
		return "idle"
	}
	return "constant"
}

func (c Constant) Decide(Context) float64 { return c.Rate }
