package models

import (
	"time"

	"battery-env/internal/simulator"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID       string               `json:"id,omitempty"`
	Status   string               `json:"status"`
	Strategy string               `json:"strategy"`
	Summary  simulator.RunSummary `json:"summary"`
	Battery  BatterySpecs         `json:"battery"`
	Baseline float64              `json:"baseline"`
	Ledger   []LedgerRow          `json:"ledger,omitempty"`
}

// LedgerRow represents one step of a run log
type LedgerRow struct {
	Index               int       `json:"index"`
	Timestamp           time.Time `json:"datetime"`
	Action              float64   `json:"charge_discharge"`
	Mode                string    `json:"action"` // "CHARGING", "DISCHARGING", "IDLE"
	Solar               float64   `json:"current_solar"`
	Consumption         float64   `json:"current_consumption"`
	CO2                 float64   `json:"current_CO2"`
	AdjustedConsumption float64   `json:"adjusted_consumption"`
	BatteryDelta        float64   `json:"battery_delta"`
	CurrentCharge       float64   `json:"current_charge"`
	Reward              float64   `json:"reward"`
	CumReward           float64   `json:"cum_reward"`
}

func NewLedger(records []simulator.StepRecord) []LedgerRow {
	out := make([]LedgerRow, len(records))
	for i, r := range records {
		out[i] = LedgerRow{
			Index:               r.Index,
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
	return out
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name     string               `json:"name"`
	Strategy string               `json:"strategy"`
	Summary  simulator.RunSummary `json:"summary"`
}

// EpisodeResponse describes an interactive episode
type EpisodeResponse struct {
	ID               string                `json:"id"`
	RunID            string                `json:"run_id"`
	Dataset          string                `json:"dataset"`
	Steps            int                   `json:"steps"`
	StepIndex        int                   `json:"step_index"`
	Status           string                `json:"status"`
	Observation      simulator.Observation `json:"observation"`
	ActionSpace      simulator.Box         `json:"action_space"`
	ObservationSpace simulator.Box         `json:"observation_space"`
	Battery          BatterySpecs          `json:"battery"`
	Baseline         float64               `json:"baseline"`
}

// EpisodeLogResponse is the current run log of an episode
type EpisodeLogResponse struct {
	ID      string               `json:"id"`
	RunID   string               `json:"run_id"`
	Rewards []float64            `json:"rewards"`
	Summary simulator.RunSummary `json:"summary"`
	Ledger  []LedgerRow          `json:"ledger"`
}

// RankResponse represents the response from ranking datasets
type RankResponse struct {
	Rankings []Ranking         `json:"rankings"`
	Skipped  map[string]string `json:"skipped,omitempty"`
}

// Ranking represents one ranked dataset
type Ranking struct {
	Rank         int     `json:"rank"`
	Dataset      string  `json:"dataset"`
	Count        int     `json:"count"`
	SpreadP95P05 float64 `json:"spread_p95_p05"`
	MinCO2       float64 `json:"min_co2"`
	MaxCO2       float64 `json:"max_co2"`
	MeanCO2      float64 `json:"mean_co2"`
	OracleReward float64 `json:"oracle_reward"`
	IdleReward   float64 `json:"idle_reward"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	BatterySize   float64 `json:"battery_size"`
	MaxChargeRate float64 `json:"max_charge_rate"`
	TimeScale     float64 `json:"time_scale"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// RunInfo is one persisted run
type RunInfo struct {
	ID          string       `json:"id"`
	StartedAt   time.Time    `json:"started_at"`
	SavedAt     time.Time    `json:"saved_at"`
	Battery     BatterySpecs `json:"battery"`
	Baseline    float64      `json:"baseline"`
	Steps       int          `json:"steps"`
	TotalReward float64      `json:"total_reward"`
	FinalCharge float64      `json:"final_charge"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
