package store

import (
	"time"

	"battery-env/internal/model"
	"battery-env/internal/simulator"
)

// StoredRun is the header row of a finished run.
type StoredRun struct {
	ID            string `gorm:"primaryKey"`
	StartedAt     time.Time
	SavedAt       time.Time
	Capacity      float64
	MaxChargeRate float64
	TimeScale     float64
	Baseline      float64
	Steps         int
	TotalReward   float64
	FinalCharge   float64
}

// StoredStep is one StepRecord of a run.
type StoredStep struct {
	ID                  uint   `gorm:"primaryKey"`
	RunID               string `gorm:"index"`
	StepIndex           int
	Timestamp           time.Time
	Action              float64
	Mode                string
	Solar               float64
	Consumption         float64
	CO2                 float64
	AdjustedConsumption float64
	BatteryDelta        float64
	CurrentCharge       float64
	Reward              float64
	CumReward           float64
}

func newStoredRun(run simulator.Run, savedAt time.Time) StoredRun {
	summary := simulator.Summarize(run.Records)
	return StoredRun{
		ID:            run.ID.String(),
		StartedAt:     run.StartedAt,
		SavedAt:       savedAt,
		Capacity:      run.Battery.Capacity,
		MaxChargeRate: run.Battery.MaxChargeRate,
		TimeScale:     run.Battery.TimeScale,
		Baseline:      run.Baseline,
		Steps:         summary.Steps,
		TotalReward:   summary.TotalReward,
		FinalCharge:   summary.FinalCharge,
	}
}

func newStoredStep(runID string, r simulator.StepRecord) StoredStep {
	return StoredStep{
		RunID:               runID,
		StepIndex:           r.Index,
		Timestamp:           r.Timestamp,
		Action:              r.Action,
		Mode:                string(r.Mode),
		Solar:               r.Solar,
		Consumption:         r.Consumption,
		CO2:                 r.CO2,
		AdjustedConsumption: r.AdjustedConsumption,
		BatteryDelta:        r.BatteryDelta,
		CurrentCharge:       r.CurrentCharge,
		Reward:              r.Reward,
		CumReward:           r.CumReward,
	}
}

// Record converts a stored step back into the simulator's shape.
func (s StoredStep) Record() simulator.StepRecord {
	return simulator.StepRecord{
		Index:               s.StepIndex,
		Timestamp:           s.Timestamp,
		Action:              s.Action,
		Mode:                model.Action(s.Mode),
		Solar:               s.Solar,
		Consumption:         s.Consumption,
		CO2:                 s.CO2,
		AdjustedConsumption: s.AdjustedConsumption,
		BatteryDelta:        s.BatteryDelta,
		CurrentCharge:       s.CurrentCharge,
		Reward:              s.Reward,
		CumReward:           s.CumReward,
	}
}
