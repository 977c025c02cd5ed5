package engine

import (
	"math"

	"github.com/san-kum/partsim/internal/failure"
)

// ScenarioParams parameterizes a named test scenario. Zero values fall
// back to per-scenario defaults.
type ScenarioParams struct {
	ComponentID string  `json:"component_id"`
	Voltage     float64 `json:"voltage"`
	Current     float64 `json:"current"`
	Duration    float64 `json:"duration"`
	Amplitude   float64 `json:"amplitude"`
	Period      float64 `json:"period"`
	Factor      float64 `json:"factor"`
}

// activeScenario is a timed perturbation applied at the top of every
// coupled step until it expires.
type activeScenario struct {
	name      string
	remaining float64
	apply     func(elapsed, dt float64)
	expire    func()
}

// ScenarioNames lists the scenarios RunScenario accepts.
func ScenarioNames() []string {
	return []string{"overvoltage_test", "thermal_cycling", "vibration_test", "accelerated_aging"}
}

// RunScenario installs a named perturbation. Immediate damage (such as
// overvoltage stress) is applied at once; ongoing effects run for the
// scenario duration as the engine steps.
func (e *Engine) RunScenario(name string, p ScenarioParams) error {
	switch name {
	case "overvoltage_test":
		e.runOvervoltage(p)
	case "thermal_cycling":
		e.runThermalCycling(p)
	case "vibration_test":
		e.runVibration(p)
	case "accelerated_aging":
		e.runAcceleratedAging(p)
	default:
		return ErrUnknownScenario
	}
	return nil
}

func (e *Engine) runOvervoltage(p ScenarioParams) {
	voltage := defOr(p.Voltage, 18)
	duration := defOr(p.Duration, 5)
	targets := e.scenarioTargets(p.ComponentID)

	for _, id := range targets {
		e.fail.SimulateOvervoltage(id, voltage, duration)
	}
	ids := targets
	e.scenarios = append(e.scenarios, &activeScenario{
		name:      "overvoltage_test",
		remaining: duration,
		expire: func() {
			for _, id := range ids {
				e.fail.SetStressFactor(id, failure.FactorVoltageRatio, 0)
			}
		},
	})
}

func (e *Engine) runThermalCycling(p ScenarioParams) {
	amplitude := defOr(p.Amplitude, 50)
	period := defOr(p.Period, 10)
	duration := defOr(p.Duration, 60)
	targets := e.scenarioTargets(p.ComponentID)

	e.scenarios = append(e.scenarios, &activeScenario{
		name:      "thermal_cycling",
		remaining: duration,
		apply: func(elapsed, dt float64) {
			// Sinusoidal heat load between 0 and amplitude watts.
			power := amplitude * (0.5 + 0.5*math.Sin(2*math.Pi*elapsed/period))
			for _, id := range targets {
				e.ther.SetSourcePower("cycling:"+id, power, e.positions[id])
			}
		},
		expire: func() {
			for _, id := range targets {
				e.ther.SetSourcePower("cycling:"+id, 0, e.positions[id])
			}
		},
	})
}

func (e *Engine) runVibration(p ScenarioParams) {
	amplitude := defOr(p.Amplitude, 2)
	duration := defOr(p.Duration, 30)
	targets := e.scenarioTargets(p.ComponentID)

	e.scenarios = append(e.scenarios, &activeScenario{
		name:      "vibration_test",
		remaining: duration,
		apply: func(elapsed, dt float64) {
			for _, id := range targets {
				e.fail.SetStressFactor(id, failure.FactorVibration, amplitude)
			}
		},
		expire: func() {
			for _, id := range targets {
				e.fail.SetStressFactor(id, failure.FactorVibration, 0)
			}
		},
	})
}

func (e *Engine) runAcceleratedAging(p ScenarioParams) {
	factor := defOr(p.Factor, 100)
	duration := defOr(p.Duration, 60)
	targets := e.scenarioTargets(p.ComponentID)

	e.scenarios = append(e.scenarios, &activeScenario{
		name:      "accelerated_aging",
		remaining: duration,
		apply: func(elapsed, dt float64) {
			// Factor is a time-acceleration ratio: each simulated
			// second accrues factor seconds of service wear.
			hours := factor * dt / 3600
			for _, id := range targets {
				e.fail.SimulateWearDegradation(id, hours)
			}
		},
	})
}

// scenarioTargets resolves a component id to itself, or to every
// registered component when empty.
func (e *Engine) scenarioTargets(id string) []string {
	if id != "" {
		return []string{id}
	}
	out := make([]string, len(e.components))
	copy(out, e.components)
	return out
}

// applyScenarios runs active perturbations and drops expired ones.
func (e *Engine) applyScenarios(dt float64) {
	live := e.scenarios[:0]
	for _, sc := range e.scenarios {
		if sc.apply != nil {
			sc.apply(e.simTime, dt)
		}
		sc.remaining -= dt
		if sc.remaining > 0 {
			live = append(live, sc)
			continue
		}
		if sc.expire != nil {
			sc.expire()
		}
	}
	e.scenarios = live
}

// ActiveScenarios names the perturbations still running.
func (e *Engine) ActiveScenarios() []string {
	names := make([]string, len(e.scenarios))
	for i, sc := range e.scenarios {
		names[i] = sc.name
	}
	return names
}

func defOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
