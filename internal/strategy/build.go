package strategy

import (
	"fmt"
	"strings"

	"battery-env/internal/model"
)

// Setup is everything a strategy may precompute from.
type Setup struct {
	Signals       model.SignalSet
	Battery       model.BatteryParams
	Cost          model.CostModel
	InitialCharge float64
}

// Names lists the strategies Build understands.
var Names = []string{"idle", "constant", "schedule", "self_consumption", "oracle"}

// Build constructs a strategy by name from loosely typed params
// (YAML or JSON decoded).
func Build(name string, params map[string]any, setup Setup) (Strategy, error) {
	rate := setup.Battery.MaxChargeRate
	switch name {
	case "idle":
		return Constant{}, nil
	case "constant":
		return Constant{Rate: mustNum(params, "rate", 0)}, nil
	case "schedule":
		dischargeStart := mustStr(params, "discharge_start", "17:00")
		s, err := NewScheduleStrategy(ScheduleParams{
			ChargeStart:    mustStr(params, "charge_start", "10:00"),
			ChargeEnd:      mustStr(params, "charge_end", dischargeStart),
			DischargeStart: dischargeStart,
			DischargeEnd:   mustStr(params, "discharge_end", dischargeStart), // empty window by default
			ChargeRate:     mustNum(params, "charge_rate", rate),
			DischargeRate:  mustNum(params, "discharge_rate", rate),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "self_consumption":
		return SelfConsumption{}, nil
	case "oracle":
		o, err := NewOracleStrategy(setup.Signals, setup.Battery, setup.Cost, setup.InitialCharge, OracleParams{
			ChargeSteps: int(mustNum(params, "charge_steps", 100)),
			RateSteps:   int(mustNum(params, "rate_steps", 10)),
		})
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %q", name)
	}
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func mustStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}
