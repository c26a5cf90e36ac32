package simulator

import (
	"log/slog"

	"battery-env/internal/model"
)

// StepEvent is emitted after every successful step.
type StepEvent struct {
	Record     StepRecord
	Allocation model.Allocation
}

// Observer receives simulation events. Implementations must not retain
// the event past the call.
type Observer interface {
	OnStep(ev StepEvent)
	OnEpisodeEnd(summary RunSummary)
}

// LogObserver traces every step at debug level.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o LogObserver) OnStep(ev StepEvent) {
	a := ev.Allocation
	o.logger().Debug("step",
		"index", ev.Record.Index,
		"time", ev.Record.Timestamp,
		"action", ev.Record.Action,
		"requested", a.Requested,
		"solar", ev.Record.Solar,
		"consumption", ev.Record.Consumption,
		"solar_residual", a.SolarResidual,
		"grid_charge", a.GridCharge,
		"grid_residual", a.GridResidual,
		"solar_surplus", a.SolarSurplus,
		"deficit", a.Deficit,
		"battery_delta", a.BatteryDelta,
		"adjusted_consumption", ev.Record.AdjustedConsumption,
		"charge", ev.Record.CurrentCharge,
		"reward", ev.Record.Reward,
	)
}

func (o LogObserver) OnEpisodeEnd(summary RunSummary) {
	o.logger().Info("episode done",
		"steps", summary.Steps,
		"total_reward", summary.TotalReward,
		"final_charge", summary.FinalCharge,
	)
}
