package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ObservationBound is the magnitude advertised for every observation
// component.
const ObservationBound = 300000

// Box is a closed interval per component.
type Box struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Shape []int   `json:"shape"`
}

func (b Box) Clip(x float64) float64 {
	if x < b.Low {
		return b.Low
	}
	if x > b.High {
		return b.High
	}
	return x
}

// RunSink persists a run log when an episode is reset.
type RunSink interface {
	SaveRun(ctx context.Context, run Run) error
}

// Env wraps a Simulator with the reset/step contract an external trainer
// expects: bounded actions, a start observation, and persistence of each
// finished run.
type Env struct {
	sim   *Simulator
	sinks []RunSink
	clock func() time.Time

	runID     uuid.UUID
	startedAt time.Time
	rewards   []float64
}

func NewEnv(sim *Simulator, sinks ...RunSink) *Env {
	e := &Env{
		sim:   sim,
		sinks: sinks,
		clock: time.Now,
	}
	e.runID = uuid.New()
	e.startedAt = e.clock()
	return e
}

func (e *Env) ActionSpace() Box {
	r := e.sim.Params().MaxChargeRate
	return Box{Low: -r, High: r, Shape: []int{1}}
}

func (e *Env) ObservationSpace() Box {
	return Box{Low: -ObservationBound, High: ObservationBound, Shape: []int{ObservationSize}}
}

// Step clips the action into the action space and advances the episode.
func (e *Env) Step(action float64) (StepResult, error) {
	res, err := e.sim.Step(e.ActionSpace().Clip(action))
	if err != nil {
		return StepResult{}, err
	}
	e.rewards = append(e.rewards, res.Reward)
	return res, nil
}

// Reset hands the current run to every sink (when it has any steps), then
// starts a new run. Sink failures are joined and returned after the reset
// completes, so the environment is always usable afterwards.
func (e *Env) Reset(ctx context.Context) (Observation, error) {
	var errs []error
	if run := e.Run(); len(run.Records) > 0 {
		for _, sink := range e.sinks {
			if err := sink.SaveRun(ctx, run); err != nil {
				errs = append(errs, fmt.Errorf("save run %s: %w", run.ID, err))
			}
		}
	}
	obs := e.sim.Reset()
	e.rewards = e.rewards[:0]
	e.runID = uuid.New()
	e.startedAt = e.clock()
	return obs, errors.Join(errs...)
}

// Run snapshots the current run.
func (e *Env) Run() Run {
	return Run{
		ID:        e.runID,
		StartedAt: e.startedAt,
		Battery:   e.sim.Params(),
		Baseline:  e.sim.Baseline(),
		Records:   e.sim.Log(),
	}
}

func (e *Env) RunID() uuid.UUID { return e.runID }

// Rewards returns the rewards of the current run in step order.
func (e *Env) Rewards() []float64 {
	out := make([]float64, len(e.rewards))
	copy(out, e.rewards)
	return out
}

func (e *Env) Simulator() *Simulator { return e.sim }
