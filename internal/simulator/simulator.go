package simulator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"battery-env/internal/model"
)

// ErrOutOfRangeStep is returned when Step is called on a finished episode.
var ErrOutOfRangeStep = errors.New("step out of range")

// ObservationSize is the length of an observation vector.
const ObservationSize = 5

// Observation layout: [capacity, current_charge, solar, adjusted_consumption, co2].
type Observation [ObservationSize]float64

const (
	ObsCapacity = iota
	ObsCharge
	ObsSolar
	ObsConsumption
	ObsCO2
)

type Status int

const (
	StatusRunning Status = iota
	StatusDone
)

func (s Status) String() string {
	if s == StatusDone {
		return "done"
	}
	return "running"
}

// EpisodeState is the cursor of the state machine.
type EpisodeState struct {
	StepIndex        int
	CurrentTimestamp time.Time
	EndTimestamp     time.Time
	Status           Status
}

// StepResult is what Step hands back to the decision maker.
type StepResult struct {
	Observation Observation    `json:"observation"`
	Reward      float64        `json:"reward"`
	Done        bool           `json:"done"`
	Info        map[string]any `json:"info"`
}

type Option func(*Simulator)

// WithBaseline overrides the cost model's neutral carbon intensity.
func WithBaseline(baseline float64) Option {
	return func(s *Simulator) { s.cost.Baseline = baseline }
}

// WithInitialCharge sets the charge the battery starts (and resets) at.
func WithInitialCharge(charge float64) Option {
	return func(s *Simulator) { s.initialCharge = charge }
}

// WithObserver attaches an observer. No output is produced without one.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// Simulator steps one battery through an aligned signal set.
// A Simulator is not safe for concurrent use; give every episode its own.
type Simulator struct {
	battery       *model.Battery
	cost          model.CostModel
	signals       model.SignalSet
	initialCharge float64
	observer      Observer

	state EpisodeState
	log   []StepRecord
	cum   float64
}

func New(signals model.SignalSet, params model.BatteryParams, opts ...Option) (*Simulator, error) {
	if err := signals.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cost:    model.NewCostModel(params.TimeScale),
		signals: signals,
	}
	for _, opt := range opts {
		opt(s)
	}
	if math.IsNaN(s.cost.Baseline) || math.IsInf(s.cost.Baseline, 0) {
		return nil, errors.New("baseline must be finite")
	}
	b, err := model.NewBattery(params, s.initialCharge)
	if err != nil {
		return nil, fmt.Errorf("battery invalid: %w", err)
	}
	s.battery = b
	s.log = make([]StepRecord, 0, signals.Len())
	s.Reset()
	return s, nil
}

// Reset rewinds to the first row, restores the initial charge and clears
// the run log. It returns the start observation.
func (s *Simulator) Reset() Observation {
	s.battery.Reset(s.initialCharge)
	s.log = s.log[:0]
	s.cum = 0
	s.state = EpisodeState{
		StepIndex:        0,
		CurrentTimestamp: s.signals.Start(),
		EndTimestamp:     s.signals.End(),
		Status:           StatusRunning,
	}
	return s.StartObservation()
}

// StartObservation reports the battery with no readings yet.
func (s *Simulator) StartObservation() Observation {
	return Observation{s.battery.Params.Capacity, s.battery.State.CurrentCharge, 0, 0, 0}
}

// Step applies one requested charge rate to the next row.
func (s *Simulator) Step(action float64) (StepResult, error) {
	if s.state.Status == StatusDone || s.state.StepIndex >= s.signals.Len() {
		return StepResult{}, fmt.Errorf("%w: step %d of %d", ErrOutOfRangeStep, s.state.StepIndex, s.signals.Len())
	}
	if math.IsNaN(action) || math.IsInf(action, 0) {
		return StepResult{}, fmt.Errorf("action must be finite, got %v", action)
	}

	in := s.signals.Row(s.state.StepIndex)
	s.state.CurrentTimestamp = in.Timestamp

	p := s.battery.Params
	alloc := model.Allocate(s.battery, action, in.Solar, in.Consumption, p.TimeScale)
	consumption := alloc.GridDraw()
	reward := s.cost.Reward(in.CO2, alloc.BatteryDelta)
	s.cum += reward

	done := !s.state.CurrentTimestamp.Before(s.state.EndTimestamp)
	if done {
		s.state.Status = StatusDone
	}

	rec := StepRecord{
		Index:               s.state.StepIndex,
		Timestamp:           in.Timestamp,
		Action:              action,
		Mode:                alloc.Mode(),
		Solar:               in.Solar,
		Consumption:         in.Consumption,
		CO2:                 in.CO2,
		AdjustedConsumption: consumption,
		BatteryDelta:        alloc.BatteryDelta,
		CurrentCharge:       s.battery.State.CurrentCharge,
		Reward:              reward,
		CumReward:           s.cum,
	}
	s.log = append(s.log, rec)
	s.state.StepIndex++

	if s.observer != nil {
		s.observer.OnStep(StepEvent{Record: rec, Allocation: alloc})
		if done {
			s.observer.OnEpisodeEnd(Summarize(s.log))
		}
	}

	return StepResult{
		Observation: Observation{p.Capacity, s.battery.State.CurrentCharge, in.Solar, consumption, in.CO2},
		Reward:      reward,
		Done:        done,
		Info:        map[string]any{},
	}, nil
}

// Peek returns the row the next Step will consume.
func (s *Simulator) Peek() (model.StepInput, bool) {
	if s.state.Status == StatusDone || s.state.StepIndex >= s.signals.Len() {
		return model.StepInput{}, false
	}
	return s.signals.Row(s.state.StepIndex), true
}

func (s *Simulator) State() EpisodeState { return s.state }

func (s *Simulator) Done() bool { return s.state.Status == StatusDone }

func (s *Simulator) Params() model.BatteryParams { return s.battery.Params }

func (s *Simulator) Charge() float64 { return s.battery.State.CurrentCharge }

func (s *Simulator) Baseline() float64 { return s.cost.Baseline }

func (s *Simulator) Len() int { return s.signals.Len() }

// Log returns a copy of the run log.
func (s *Simulator) Log() []StepRecord {
	out := make([]StepRecord, len(s.log))
	copy(out, s.log)
	return out
}
