package model

// Allocation captures how energy moved between solar, battery and grid in
// one step. All quantities are energies for the step's duration.
type Allocation struct {
	// Requested is action * timeScale.
	Requested float64

	// BatteryDelta is the energy credited to the battery for costing:
	// what was actually stored from solar when charging, or the (negative)
	// energy actually released when discharging.
	BatteryDelta float64

	// AdjustedConsumption is the grid draw before flooring at zero.
	AdjustedConsumption float64

	SolarResidual float64 // offered from solar but not stored
	GridCharge    float64 // shortfall offered to the battery from the grid
	GridResidual  float64 // grid charge the battery could not absorb
	SolarSurplus  float64 // solar left over after charging
	Deficit       float64 // discharge the battery could not supply (<= 0)

	// Stored is the net change of the battery charge.
	Stored float64
}

// GridDraw is the adjusted consumption floored at zero. Solar left
// unconsumed is lost, never exported or banked.
func (a Allocation) GridDraw() float64 {
	if a.AdjustedConsumption < 0 {
		return 0
	}
	return a.AdjustedConsumption
}

// Mode classifies the step by what happened to the stored energy.
func (a Allocation) Mode() Action {
	return ActionFromDelta(a.Stored)
}

// Allocate routes a requested charge rate through the battery.
//
// Charging prefers solar: the battery is offered solar first and only the
// remaining shortfall is drawn from the grid. Every energy movement goes
// through Battery.Apply so the capacity limits clip it.
func Allocate(b *Battery, action, solar, consumption, timeScale float64) Allocation {
	before := b.State.CurrentCharge
	a := Allocation{Requested: action * timeScale}

	if a.Requested >= 0 {
		if a.Requested < solar {
			a.SolarResidual = b.Apply(a.Requested)
			a.BatteryDelta = a.Requested - a.SolarResidual
			a.SolarSurplus = solar - a.Requested
		} else {
			a.SolarResidual = b.Apply(solar)
			a.GridCharge = a.Requested - solar
			a.BatteryDelta = solar - a.SolarResidual
		}
		a.GridResidual = b.Apply(a.GridCharge)
		a.AdjustedConsumption = consumption + a.GridCharge - a.GridResidual - a.SolarResidual - a.SolarSurplus
	} else {
		a.Deficit = b.Apply(a.Requested)
		a.AdjustedConsumption = consumption + a.Requested - a.Deficit - solar
		a.BatteryDelta = a.Requested - a.Deficit
	}

	a.Stored = b.State.CurrentCharge - before
	return a
}
