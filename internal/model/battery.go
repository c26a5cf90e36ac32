package model

import (
	"errors"
	"math"
)

// BatteryParams defines the physical parameters of the battery.
// Units:
// - Capacity: energy units (the same unit as the consumption/solar readings)
// - MaxChargeRate: energy units per hour; bounds the magnitude of an action
// - TimeScale: hours represented by one simulation step
type BatteryParams struct {
	Capacity      float64
	MaxChargeRate float64
	TimeScale     float64
}

// BatteryState captures mutable state.
type BatteryState struct {
	// CurrentCharge is the stored energy, always within [0, Capacity].
	CurrentCharge float64
}

// Battery is a convenience wrapper bundling params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

func NewBattery(params BatteryParams, initialCharge float64) (*Battery, error) {
	b := &Battery{
		Params: params,
		State:  BatteryState{CurrentCharge: initialCharge},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (p BatteryParams) Validate() error {
	if !(p.Capacity > 0) || math.IsInf(p.Capacity, 0) {
		return errors.New("battery_size must be > 0")
	}
	if !(p.MaxChargeRate > 0) || math.IsInf(p.MaxChargeRate, 0) {
		return errors.New("max_charge_rate must be > 0")
	}
	if !(p.TimeScale > 0) || math.IsInf(p.TimeScale, 0) {
		return errors.New("time_scale must be > 0")
	}
	return nil
}

func (b *Battery) Validate() error {
	if err := b.Params.Validate(); err != nil {
		return err
	}
	c := b.State.CurrentCharge
	if math.IsNaN(c) || c < 0 || c > b.Params.Capacity {
		return errors.New("initial charge must be within [0, battery_size]")
	}
	return nil
}

// Charge stores amount and returns the excess that did not fit.
// Negative amounts are treated as zero.
func (b *Battery) Charge(amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	if b.State.CurrentCharge+amount <= b.Params.Capacity {
		b.State.CurrentCharge += amount
		return 0
	}
	residual := amount - (b.Params.Capacity - b.State.CurrentCharge)
	b.State.CurrentCharge = b.Params.Capacity
	return residual
}

// Discharge depletes amount and returns the unmet portion as a negative
// number (an energy deficit). Negative amounts are treated as zero.
func (b *Battery) Discharge(amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	if b.State.CurrentCharge >= amount {
		b.State.CurrentCharge -= amount
		return 0
	}
	residual := -(amount - b.State.CurrentCharge)
	b.State.CurrentCharge = 0
	return residual
}

// Apply moves a signed amount of energy: positive charges, negative
// discharges. The returned residual carries the sign of the request.
func (b *Battery) Apply(energy float64) float64 {
	switch {
	case energy > 0:
		return b.Charge(energy)
	case energy < 0:
		return b.Discharge(-energy)
	default:
		return 0
	}
}

// Reset puts the battery back to the given charge, clamped to capacity.
func (b *Battery) Reset(charge float64) {
	b.State.CurrentCharge = clamp(charge, 0, b.Params.Capacity)
}

// FreeCapacity is the energy that can still be stored.
func (b *Battery) FreeCapacity() float64 {
	return b.Params.Capacity - b.State.CurrentCharge
}

// ClipAction bounds a requested rate to [-MaxChargeRate, MaxChargeRate].
func (b *Battery) ClipAction(rate float64) float64 {
	return clamp(rate, -b.Params.MaxChargeRate, b.Params.MaxChargeRate)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
