package failure

import "math"

// Overvoltage damage starts above this applied/rated ratio; ratios at
// or below it are a no-op.
const overvoltageThreshold = 1.2

// Ratios above this synthesize a critical event immediately.
const overvoltageCritical = 2.0

// Thermal runaway trips above this temperature (degC).
const thermalRunawayTemp = 150.0

// SimulateOvervoltage applies deterministic one-shot overvoltage
// damage for the given duration in seconds. Returns the health lost.
func (s *Simulator) SimulateOvervoltage(id string, voltage, duration float64) float64 {
	h, ok := s.components[id]
	if !ok {
		return 0
	}
	ratio := voltage / h.RatedVoltage
	s.SetStressFactor(id, FactorVoltageRatio, ratio)
	if ratio <= overvoltageThreshold {
		return 0
	}

	damage := 0.02 * (ratio - 1) * (ratio - 1) * duration
	damage = math.Min(damage, h.Score)
	h.Score -= damage

	if ratio > overvoltageCritical {
		s.emit(h, Mode{
			ID:              "overvoltage_breakdown",
			Category:        Electrical,
			Severity:        Critical,
			BaseProbability: 1,
		}, "overvoltage beyond breakdown ratio")
	}
	return damage
}

// SimulateOvercurrent applies deterministic overcurrent damage.
func (s *Simulator) SimulateOvercurrent(id string, current, duration float64) float64 {
	h, ok := s.components[id]
	if !ok {
		return 0
	}
	ratio := current / h.RatedCurrent
	if ratio <= 1 {
		return 0
	}
	// Joule heating scales with I^2.
	damage := 0.015 * (ratio*ratio - 1) * duration
	damage = math.Min(damage, h.Score)
	h.Score -= damage

	if ratio > 3 {
		s.emit(h, Mode{
			ID:              "overcurrent_fusing",
			Category:        Electrical,
			Severity:        Critical,
			BaseProbability: 1,
		}, "sustained overcurrent")
	}
	return damage
}

// SimulateThermalRunaway applies damage for a component held at the
// given temperature; above thermalRunawayTemp it emits a critical
// event.
func (s *Simulator) SimulateThermalRunaway(id string, temperature float64) float64 {
	h, ok := s.components[id]
	if !ok {
		return 0
	}
	s.SetStressFactor(id, FactorTemperature, temperature)
	if temperature <= thermalRunawayTemp {
		return 0
	}

	damage := math.Min(0.1+(temperature-thermalRunawayTemp)/500, h.Score)
	h.Score -= damage
	s.emit(h, Mode{
		ID:              "thermal_runaway",
		Category:        Thermal,
		Severity:        Critical,
		BaseProbability: 1,
	}, "temperature beyond runaway threshold")
	return damage
}

// SimulateWearDegradation applies accumulated wear for the given
// operating hours.
func (s *Simulator) SimulateWearDegradation(id string, hours float64) float64 {
	h, ok := s.components[id]
	if !ok {
		return 0
	}
	damage := math.Min(0.001*hours, h.Score)
	h.Score -= damage
	return damage
}
