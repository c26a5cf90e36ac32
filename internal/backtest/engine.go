package backtest

import (
	"fmt"

	"battery-env/internal/simulator"
	"battery-env/internal/strategy"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run plays one full episode, asking strat for an action before every step.
// The simulator is reset first, so a Simulator can be reused across runs.
func (e *Engine) Run(sim *simulator.Simulator, strat strategy.Strategy) (*Result, error) {
	if sim == nil {
		return nil, fmt.Errorf("simulator is nil")
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is nil")
	}

	sim.Reset()
	params := sim.Params()

	for !sim.Done() {
		in, ok := sim.Peek()
		if !ok {
			break
		}
		action := strat.Decide(strategy.Context{
			Index:  in.Index,
			Input:  in,
			Params: params,
			Charge: sim.Charge(),
		})
		if _, err := sim.Step(action); err != nil {
			return nil, fmt.Errorf("step %d: %w", in.Index, err)
		}
	}

	ledger := sim.Log()
	return &Result{
		Strategy: strat.Name(),
		Ledger:   ledger,
		Summary:  simulator.Summarize(ledger),
	}, nil
}
