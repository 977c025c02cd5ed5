// Package engine owns the five domain simulators and runs the coupled
// stepping loop: physics, electrical, thermal, mechanical (periodic)
// and failure, with inter-domain coupling applied between them and a
// bounded history of per-step results.
//
// The engine is single-threaded by design: stepping is driven by an
// external per-frame callback, every simulator step is a synchronous
// bounded computation, and all entity maps are owned exclusively by
// their simulator.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/electrical"
	"github.com/san-kum/partsim/internal/failure"
	"github.com/san-kum/partsim/internal/mechanical"
	"github.com/san-kum/partsim/internal/numeric"
	"github.com/san-kum/partsim/internal/physics"
	"github.com/san-kum/partsim/internal/thermal"
)

// mechanicalInterval is the simulated-time spacing between mechanical
// solves, bounding their O(n^3) cost to once per simulated second.
const mechanicalInterval = 1.0

type Engine struct {
	cfg   *config.Config
	state RunState

	elec *electrical.Simulator
	ther *thermal.Simulator
	mech *mechanical.Simulator
	fail *failure.Simulator
	phys *physics.Simulator

	simTime   float64
	stepCount int
	timings   map[string]time.Duration

	components []string
	positions  map[string]numeric.Vec3

	results *history

	// lastMechanical is the watermark of the last whole-second
	// boundary at which the mechanical solve ran.
	lastMechanical float64
	lastMechResult *mechanical.Result

	scenarios []*activeScenario
}

func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Engine{cfg: cfg, state: Stopped}
	e.construct()
	return e
}

// construct builds fresh domain simulators from the configuration.
func (e *Engine) construct() {
	e.elec = electrical.NewSimulator()
	e.ther = thermal.NewSimulator(thermal.Config{
		AmbientTemperature: e.cfg.Thermal.AmbientTemperature,
		ConvectionEnabled:  e.cfg.Thermal.ConvectionEnabled,
		RadiationEnabled:   e.cfg.Thermal.RadiationEnabled,
	})
	e.mech = mechanical.NewSimulator(mechanical.Config{
		AnalysisType: e.cfg.Mechanical.AnalysisType,
		MeshDensity:  e.cfg.Mechanical.MeshDensity,
		Thickness:    0.01,
	})
	e.fail = failure.NewSimulator(failure.Config{
		AccelerationFactor: e.cfg.Failure.AccelerationFactor,
		MaintenanceEnabled: e.cfg.Failure.MaintenanceEnabled,
		Seed:               e.cfg.Seed,
	})
	e.phys = physics.NewSimulator(physics.Config{
		Gravity: numeric.Vec3{
			X: e.cfg.Physics.Gravity[0],
			Y: e.cfg.Physics.Gravity[1],
			Z: e.cfg.Physics.Gravity[2],
		},
		TimeStep: e.cfg.Physics.TimeStep,
		Substeps: e.cfg.Physics.Substeps,
	})
	e.components = nil
	e.positions = make(map[string]numeric.Vec3)
	e.results = newHistory(HistoryCapacity)
	e.timings = make(map[string]time.Duration)
	e.simTime = 0
	e.stepCount = 0
	e.lastMechanical = 0
	e.lastMechResult = nil
	e.scenarios = nil
}

// Domain accessors for direct mesh/network construction; registration
// of parts should go through the Add*Component fan-out.
func (e *Engine) Electrical() *electrical.Simulator { return e.elec }
func (e *Engine) Thermal() *thermal.Simulator       { return e.ther }
func (e *Engine) Mechanical() *mechanical.Simulator { return e.mech }
func (e *Engine) Failure() *failure.Simulator       { return e.fail }
func (e *Engine) Physics() *physics.Simulator       { return e.phys }

func (e *Engine) Config() *config.Config { return e.cfg }

// defaultModes gives each electrical component kind a plausible
// failure mode set.
func defaultModes(kind electrical.ComponentKind) []failure.Mode {
	switch kind {
	case electrical.Resistor:
		return []failure.Mode{{
			ID: "resistor_overheat", Category: failure.Thermal,
			Severity: failure.Major, BaseProbability: 0.05, TimeToFailure: 20000,
		}}
	case electrical.Capacitor:
		return []failure.Mode{{
			ID: "dielectric_breakdown", Category: failure.Electrical,
			Severity: failure.Critical, BaseProbability: 0.02, TimeToFailure: 8000,
		}}
	case electrical.Inductor:
		return []failure.Mode{{
			ID: "winding_short", Category: failure.Electrical,
			Severity: failure.Major, BaseProbability: 0.01, TimeToFailure: 30000,
		}}
	case electrical.Semiconductor:
		return []failure.Mode{{
			ID: "junction_degradation", Category: failure.Electrical,
			Severity: failure.Critical, BaseProbability: 0.04, TimeToFailure: 15000,
		}}
	default:
		return []failure.Mode{{
			ID: "contact_corrosion", Category: failure.Chemical,
			Severity: failure.Minor, BaseProbability: 0.01, TimeToFailure: 50000,
		}}
	}
}

// AddElectricalComponent registers a part with the electrical, thermal
// and failure domains.
func (e *Engine) AddElectricalComponent(id string, kind electrical.ComponentKind, value float64, nodeA, nodeB string, pos numeric.Vec3, props map[string]float64) {
	if props == nil {
		props = make(map[string]float64)
	}
	if e.cfg.Electrical.Enabled {
		e.elec.AddComponent(id, kind, value, nodeA, nodeB, pos, props)
	}
	if e.cfg.Thermal.Enabled {
		mass := propOr(props, "mass", 0.05)
		heatCap := propOr(props, "heat_capacity", 500)
		e.ther.AddNode(id, pos, mass, heatCap)
	}
	if e.cfg.Failure.Enabled {
		e.fail.Register(id, props, defaultModes(kind))
	}
	e.track(id, pos)
}

// AddPhysicsComponent registers a rigid part with the physics, thermal
// and failure domains.
func (e *Engine) AddPhysicsComponent(id string, pos, rot numeric.Vec3, props, geometry map[string]float64) {
	if props == nil {
		props = make(map[string]float64)
	}
	for k, v := range geometry {
		props["geom_"+k] = v
	}
	if e.cfg.Physics.Enabled {
		e.phys.AddBody(id, pos, rot, propOr(props, "mass", 1), props)
	}
	if e.cfg.Thermal.Enabled {
		e.ther.AddNode(id, pos, propOr(props, "mass", 1), propOr(props, "heat_capacity", 450))
	}
	if e.cfg.Failure.Enabled {
		e.fail.Register(id, props, []failure.Mode{{
			ID: "mechanical_wear", Category: failure.Wear,
			Severity: failure.Major, BaseProbability: 0.03, TimeToFailure: 40000,
		}})
	}
	e.track(id, pos)
}

func (e *Engine) track(id string, pos numeric.Vec3) {
	if _, seen := e.positions[id]; !seen {
		e.components = append(e.components, id)
	}
	e.positions[id] = pos
}

func propOr(props map[string]float64, key string, def float64) float64 {
	if v, ok := props[key]; ok && v > 0 {
		return v
	}
	return def
}

// Start resets simulated time, clears history and enters Running.
func (e *Engine) Start() {
	e.simTime = 0
	e.stepCount = 0
	e.lastMechanical = 0
	e.results.Clear()
	e.timings = make(map[string]time.Duration)
	e.state = Running
}

// Pause suspends stepping without touching history or time.
func (e *Engine) Pause() {
	if e.state == Running {
		e.state = Paused
	}
}

func (e *Engine) Resume() {
	if e.state == Paused {
		e.state = Running
	}
}

func (e *Engine) Stop() {
	e.state = Stopped
}

// Reset stops the engine and reconstructs every domain simulator from
// scratch. All entity registrations are lost; callers must re-register
// components before the next run.
func (e *Engine) Reset() {
	e.state = Stopped
	e.construct()
}

// Step advances the simulation by one fixed logical time step. It is
// the per-frame callback entry point: dt is the configured physics
// time step, not wall-clock elapsed time. Stepping while not Running
// returns ErrNotRunning; stepping with no registered components is a
// no-op.
func (e *Engine) Step() error {
	if e.state != Running {
		return ErrNotRunning
	}
	if len(e.components) == 0 {
		return nil
	}
	e.performCoupledStep(e.cfg.Physics.TimeStep)
	return nil
}

// Run drives Step until the given simulated duration elapses or the
// context is canceled.
func (e *Engine) Run(ctx context.Context, duration float64) error {
	until := e.simTime + duration
	for e.simTime < until && e.state == Running {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.Step(); err != nil {
			return err
		}
		if len(e.components) == 0 {
			return nil
		}
	}
	return nil
}

func (e *Engine) timed(name string, fn func()) {
	start := time.Now()
	fn()
	e.timings[name] += time.Since(start)
}

// performCoupledStep runs the strict domain order: physics,
// electrical, couple into thermal, thermal, couple into mechanical,
// mechanical on whole-second boundaries, couple into failure, failure,
// then snapshots a CoupledResults record.
func (e *Engine) performCoupledStep(dt float64) {
	e.applyScenarios(dt)

	snap := &CoupledResults{Timestamp: e.simTime}

	if e.cfg.Physics.Enabled {
		e.timed("physics", func() { e.phys.Step(dt) })
		snap.Physics = e.physicsSnapshot()
	}

	if e.cfg.Electrical.Enabled {
		e.timed("electrical", func() {
			if res, err := e.elec.Solve(); err == nil && res != nil {
				snap.Electrical = &ElectricalSnapshot{
					NodeVoltages: res.NodeVoltages,
					Currents:     res.Currents,
					Power:        res.Power,
					TotalPower:   res.TotalPower,
					SourcePower:  res.SourcePower,
					Efficiency:   res.Efficiency,
				}
			}
			// A singular solve leaves the electrical snapshot empty
			// for this step; the loop continues.
		})
	}

	if e.cfg.Thermal.Enabled {
		if snap.Electrical != nil {
			deltas, strength := CoupleElectricalThermal(snap.Electrical.Power, e.dissipativeComponents())
			for _, d := range deltas {
				e.ther.SetSourcePower(d.ComponentID, d.Power, e.positions[d.ComponentID])
			}
			snap.ElectroThermal = strength
		}
		e.timed("thermal", func() { e.ther.Step(dt) })
		snap.Thermal = &ThermalSnapshot{
			Temperatures:   e.ther.Temperatures(),
			MaxTemperature: e.ther.MaxTemperature(),
			StoredEnergy:   e.ther.StoredEnergy(),
		}
	}

	if e.cfg.Mechanical.Enabled && snap.Thermal != nil {
		floor, strength := CoupleThermalMechanical(e.ther.Stress())
		e.mech.SetThermalStress(floor)
		snap.ThermoMechanical = strength
	}

	// The tolerance absorbs accumulated rounding in simTime so a solve
	// scheduled for t=1.0 is not pushed a frame late.
	if e.cfg.Mechanical.Enabled && e.simTime-e.lastMechanical >= mechanicalInterval-1e-9 {
		e.lastMechanical = math.Floor(e.simTime + 1e-9)
		e.timed("mechanical", func() {
			if res, err := e.mech.Solve(); err == nil {
				e.lastMechResult = res
			}
		})
	}
	if e.lastMechResult != nil {
		snap.Mechanical = &MechanicalSnapshot{
			MaxStress:       e.lastMechResult.MaxStress,
			MaxDisplacement: e.lastMechResult.MaxDisplacement,
			SafetyFactor:    e.lastMechResult.SafetyFactor,
			FatigueLife:     e.lastMechResult.FatigueLife,
		}
	}

	if e.cfg.Failure.Enabled {
		if snap.Thermal != nil {
			for _, d := range CoupleThermalFailure(snap.Thermal.Temperatures, e.components) {
				e.fail.SetStressFactor(d.ComponentID, d.Factor, d.Value)
			}
		}
		vibration := 0.0
		if e.cfg.Physics.Enabled {
			vibration = e.phys.VibrationLevel()
		}
		deltas, strength := CoupleMechanicalFailure(e.lastMechResult, vibration, e.components)
		for _, d := range deltas {
			e.fail.SetStressFactor(d.ComponentID, d.Factor, d.Value)
		}
		snap.MechanicalFailure = strength

		e.timed("failure", func() { e.fail.Step(dt) })
		snap.Failure = e.failureSnapshot()
	}

	e.simTime += dt
	e.stepCount++
	snap.Timestamp = e.simTime
	e.results.Push(snap)
}

// dissipativeComponents lists electrical parts that turn power into
// heat; sources are excluded from the thermal coupling.
func (e *Engine) dissipativeComponents() []string {
	ids := e.elec.ComponentIDs()
	out := ids[:0]
	for _, id := range ids {
		c, ok := e.elec.Component(id)
		if !ok || c.Kind == electrical.VoltageSource || c.Kind == electrical.CurrentSource {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (e *Engine) physicsSnapshot() *PhysicsSnapshot {
	broken := 0
	for _, j := range e.phys.Joints() {
		if j.Broken {
			broken++
		}
	}
	return &PhysicsSnapshot{
		KineticEnergy: e.phys.KineticEnergy(),
		Vibration:     e.phys.VibrationLevel(),
		BrokenJoints:  broken,
		Particles:     e.phys.ParticleCount(),
	}
}

func (e *Engine) failureSnapshot() *FailureSnapshot {
	scores := make(map[string]float64)
	for _, id := range e.fail.ComponentIDs() {
		if h, ok := e.fail.Component(id); ok {
			scores[id] = h.Score
		}
	}
	return &FailureSnapshot{
		HealthScores: scores,
		Reliability:  e.fail.SystemReliability(),
		EventCount:   len(e.fail.Events()),
	}
}

// State reports the lifecycle state, simulated time and per-domain
// timing breakdown.
func (e *Engine) State() EngineState {
	timings := make(map[string]time.Duration, len(e.timings))
	for k, v := range e.timings {
		timings[k] = v
	}
	return EngineState{
		State:         e.state,
		SimulatedTime: e.simTime,
		StepCount:     e.stepCount,
		Timings:       timings,
	}
}

// LatestResults returns the newest snapshot, or nil before the first
// step.
func (e *Engine) LatestResults() *CoupledResults { return e.results.Latest() }

// Results returns the bounded history, oldest first.
func (e *Engine) Results() []*CoupledResults { return e.results.All() }
