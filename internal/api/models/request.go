package models

import "battery-env/internal/config"

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	Dataset string          `json:"dataset" binding:"required"` // dataset id under DATA_DIR
	Config  BacktestConfig  `json:"config" binding:"required"`
	Options BacktestOptions `json:"options,omitempty"`
}

// BacktestConfig contains battery, cost and strategy configuration
type BacktestConfig struct {
	BatteryFile string               `json:"battery_file,omitempty"` // preset id under BATTERY_DIR
	Battery     config.BatteryConfig `json:"battery,omitempty"`
	Baseline    *float64             `json:"baseline,omitempty"`
	Strategy    StrategyConfig       `json:"strategy" binding:"required"`
}

// StrategyConfig defines strategy and its parameters
type StrategyConfig struct {
	Name   string                 `json:"name" binding:"required"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	LimitSteps    int  `json:"limit_steps,omitempty"`    // 0 = all
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
	Persist       bool `json:"persist,omitempty"`        // hand the run to the configured sinks
}

// CompareBacktestRequest runs several variations over one dataset
type CompareBacktestRequest struct {
	Dataset    string              `json:"dataset" binding:"required"`
	BaseConfig BacktestConfig      `json:"base_config" binding:"required"`
	Variations []BacktestVariation `json:"variations" binding:"required"`
	Options    BacktestOptions     `json:"options,omitempty"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config BacktestConfig `json:"config"`
}

// RankRequest ranks datasets by oracle reward for one battery
type RankRequest struct {
	Datasets      string   `form:"datasets,omitempty"` // comma-separated; empty = all
	BatteryFile   string   `form:"battery_file,omitempty"`
	BatterySize   float64  `form:"battery_size,omitempty"`
	MaxChargeRate float64  `form:"max_charge_rate,omitempty"`
	TimeScale     float64  `form:"time_scale,omitempty"`
	Baseline      *float64 `form:"baseline,omitempty"`
	LimitSteps    int      `form:"limit_steps,omitempty"`
	Limit         int      `form:"limit,omitempty"` // default: 10
}

// CreateEpisodeRequest opens an interactive episode
type CreateEpisodeRequest struct {
	Dataset     string               `json:"dataset" binding:"required"`
	BatteryFile string               `json:"battery_file,omitempty"`
	Battery     config.BatteryConfig `json:"battery,omitempty"`
	Baseline    *float64             `json:"baseline,omitempty"`
	LimitSteps  int                  `json:"limit_steps,omitempty"`
}

// StepRequest carries one action. A pointer so a missing action is
// distinguishable from 0.
type StepRequest struct {
	Action *float64 `json:"action" binding:"required"`
}
