package backtest

import (
	"battery-env/internal/simulator"
)

// Result is the outcome of one strategy over one episode.
type Result struct {
	Strategy string
	Ledger   []simulator.StepRecord
	Summary  simulator.RunSummary
}

func (r *Result) TotalReward() float64 { return r.Summary.TotalReward }

func (r *Result) FinalCharge() float64 { return r.Summary.FinalCharge }
