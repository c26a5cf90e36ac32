package simulator

import (
	"time"

	"github.com/google/uuid"

	"battery-env/internal/model"
)

// StepRecord is one row of the run log.
// This is the primary artifact for "what happened" in an episode.
type StepRecord struct {
	Index     int
	Timestamp time.Time

	// Action is the requested charge rate as received by Step.
	Action float64
	Mode   model.Action

	Solar       float64
	Consumption float64
	CO2         float64

	AdjustedConsumption float64
	BatteryDelta        float64
	CurrentCharge       float64

	Reward    float64
	CumReward float64
}

// Run is a finished (or interrupted) episode handed to persistence.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Battery   model.BatteryParams
	Baseline  float64
	Records   []StepRecord
}

func (r Run) TotalReward() float64 {
	if len(r.Records) == 0 {
		return 0
	}
	return r.Records[len(r.Records)-1].CumReward
}

// RunSummary aggregates a run log.
type RunSummary struct {
	Steps            int       `json:"steps"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	TotalReward      float64   `json:"total_reward"`
	FinalCharge      float64   `json:"final_charge"`
	EnergyCharged    float64   `json:"energy_charged"`
	EnergyDischarged float64   `json:"energy_discharged"`
	GridDraw         float64   `json:"grid_draw"`
	RawConsumption   float64   `json:"raw_consumption"`
	ChargingSteps    int       `json:"charging_steps"`
	DischargingSteps int       `json:"discharging_steps"`
}

// Summarize folds a run log into totals.
func Summarize(records []StepRecord) RunSummary {
	s := RunSummary{Steps: len(records)}
	if len(records) == 0 {
		return s
	}
	s.Start = records[0].Timestamp
	s.End = records[len(records)-1].Timestamp
	for _, r := range records {
		s.TotalReward += r.Reward
		s.GridDraw += r.AdjustedConsumption
		s.RawConsumption += r.Consumption
		switch {
		case r.BatteryDelta > 0:
			s.EnergyCharged += r.BatteryDelta
		case r.BatteryDelta < 0:
			s.EnergyDischarged += -r.BatteryDelta
		}
		switch r.Mode {
		case model.ActionCharging:
			s.ChargingSteps++
		case model.ActionDischarging:
			s.DischargingSteps++
		}
	}
	s.FinalCharge = records[len(records)-1].CurrentCharge
	return s
}
