package model

// Battery is a linear energy store. The level always stays within [0, CapacityKWh].
type Battery struct {
	CapacityKWh float64 // total capacity
	LevelKWh    float64 // stored energy
}

// NewBattery returns a fully charged battery.
func NewBattery(capacityKWh float64) Battery {
	return Battery{CapacityKWh: capacityKWh, LevelKWh: capacityKWh}
}

// Draw removes up to kwh from the battery and returns the energy actually taken.
func (b *Battery) Draw(kwh float64) float64 {
	if kwh <= 0 {
		return 0
	}
	if kwh > b.LevelKWh {
		kwh = b.LevelKWh
	}
	b.LevelKWh -= kwh
	if b.LevelKWh < 0 {
		b.LevelKWh = 0
	}
	return kwh
}

// Charge adds kwh only when the result stays strictly below capacity. Increments
// that would reach or overshoot capacity are dropped. It reports whether energy
// was stored.
func (b *Battery) Charge(kwh float64) bool {
	if kwh <= 0 || b.LevelKWh+kwh >= b.CapacityKWh {
		return false
	}
	b.LevelKWh += kwh
	return true
}

// Covers reports whether the remaining energy is strictly more than kwh.
func (b Battery) Covers(kwh float64) bool { return b.LevelKWh > kwh }

