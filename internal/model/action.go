package model

// Action is a human-friendly operating mode for a step.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromDelta classifies a realized battery delta.
// Convention: positive = energy into the battery.
func ActionFromDelta(delta float64) Action {
	switch {
	case delta > 0:
		return ActionCharging
	case delta < 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
