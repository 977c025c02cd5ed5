package engine

import (
	"math"

	"github.com/san-kum/partsim/internal/failure"
	"github.com/san-kum/partsim/internal/mechanical"
)

// Coupling translates one domain's output into another domain's
// input. Each function here is pure: it takes outputs and returns the
// deltas to apply, so every coupling is testable without an Engine.

// HeatDelta carries one component's dissipated power into the thermal
// domain as a heat source update.
type HeatDelta struct {
	ComponentID string
	Power       float64
}

// StressDelta carries one named stress factor update into the failure
// domain.
type StressDelta struct {
	ComponentID string
	Factor      string
	Value       float64
}

// CoupleElectricalThermal maps per-component dissipated power to heat
// source deltas. The returned strength is the total transferred power
// in watts.
func CoupleElectricalThermal(power map[string]float64, order []string) ([]HeatDelta, float64) {
	deltas := make([]HeatDelta, 0, len(order))
	total := 0.0
	for _, id := range order {
		p, ok := power[id]
		if !ok {
			continue
		}
		deltas = append(deltas, HeatDelta{ComponentID: id, Power: p})
		total += p
	}
	return deltas, total
}

// CoupleThermalMechanical reduces per-node thermal stress to the
// stress floor fed into the mechanical solve. Strength is the floor
// normalized by steel yield, a dimensionless severity figure.
func CoupleThermalMechanical(stress map[string]float64) (floor, strength float64) {
	for _, s := range stress {
		if s > floor {
			floor = s
		}
	}
	yield := mechanical.MaterialByName("steel").YieldStrength
	return floor, floor / yield
}

// CoupleThermalFailure maps node temperatures onto per-component
// temperature stress factors. Node and component ids coincide for
// registered parts; unknown ids are dropped by the failure simulator.
func CoupleThermalFailure(temps map[string]float64, order []string) []StressDelta {
	deltas := make([]StressDelta, 0, len(order))
	for _, id := range order {
		t, ok := temps[id]
		if !ok {
			continue
		}
		deltas = append(deltas, StressDelta{ComponentID: id, Factor: failure.FactorTemperature, Value: t})
	}
	return deltas
}

// CoupleMechanicalFailure maps the mechanical solve plus the physics
// vibration level onto failure stress factors for every component.
// Strength is the worst stress-to-yield ratio.
func CoupleMechanicalFailure(res *mechanical.Result, vibration float64, ids []string) ([]StressDelta, float64) {
	ratio := 0.0
	if res != nil {
		yield := mechanical.MaterialByName("steel").YieldStrength
		ratio = res.MaxStress / yield
		if sf := res.SafetyFactor; sf > 0 && !math.IsInf(sf, 1) {
			if inv := 1 / sf; inv > ratio {
				ratio = inv
			}
		}
	}

	deltas := make([]StressDelta, 0, 2*len(ids))
	for _, id := range ids {
		if res != nil {
			deltas = append(deltas, StressDelta{ComponentID: id, Factor: failure.FactorStressRatio, Value: ratio})
		}
		deltas = append(deltas, StressDelta{ComponentID: id, Factor: failure.FactorVibration, Value: vibration})
	}
	return deltas, ratio
}
