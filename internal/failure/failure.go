// Package failure tracks per-component health, degrades it from
// coupled stress factors, triggers probabilistic failure modes with
// cascade effects, and records failure events. Failures are data, not
// control flow: nothing here halts the simulation loop.
package failure

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

type Category string

const (
	Electrical Category = "electrical"
	Thermal    Category = "thermal"
	Mechanical Category = "mechanical"
	Chemical   Category = "chemical"
	Wear       Category = "wear"
)

type Severity string

const (
	Minor    Severity = "minor"
	Major    Severity = "major"
	Critical Severity = "critical"
)

// DefaultTriggerScale converts the per-step adjusted failure
// probability into a trigger chance. It controls real-world failure
// frequency; the value is inherited calibration, exposed as a named
// knob rather than rederived.
const DefaultTriggerScale = 0.001

// failurePenalty is the health reduction applied when a mode fires.
const failurePenalty = 0.2

// cascadeStressIncrement is added to the "cascade" stress factor of
// every component listed in a fired mode's cascade list.
const cascadeStressIncrement = 0.25

// Stress factor names shared with the coupling layer.
const (
	FactorTemperature  = "temperature"   // degC
	FactorVoltageRatio = "voltage_ratio" // applied / rated
	FactorStressRatio  = "stress_ratio"  // stress / yield
	FactorVibration    = "vibration"
	FactorHumidity     = "humidity"
	FactorCascade      = "cascade"
)

// Mode describes one way a component can fail.
type Mode struct {
	ID              string
	Category        Category
	Severity        Severity
	BaseProbability float64
	TimeToFailure   float64 // nominal hours at rated conditions
	CascadeTargets  []string
}

// MaintenanceRecord logs one maintenance action.
type MaintenanceRecord struct {
	Time         float64
	Action       string
	HealthBefore float64
	HealthAfter  float64
}

// Health is the degradation state of one component. Score is in [0,1]
// and non-increasing outside maintenance.
type Health struct {
	ID              string
	Score           float64
	DegradationRate float64 // fraction of health per second
	StressFactors   map[string]float64
	Modes           []Mode
	Maintenance     []MaintenanceRecord
	RatedVoltage    float64
	RatedCurrent    float64
}

// Event is an immutable failure record.
type Event struct {
	ID          string
	ComponentID string
	ModeID      string
	Timestamp   float64
	Severity    Severity
	Cause       string
	Effects     []string
	RepairHours float64
	RepairCost  float64
}

type Config struct {
	AccelerationFactor float64
	MaintenanceEnabled bool
	Seed               int64
}

func DefaultConfig() Config {
	return Config{AccelerationFactor: 1, MaintenanceEnabled: true, Seed: 1}
}

// Simulator owns all component health state and the event log.
type Simulator struct {
	cfg          Config
	components   map[string]*Health
	order        []string
	events       []Event
	rng          *rand.Rand
	triggerScale float64
	baseRate     float64
	time         float64
}

func NewSimulator(cfg Config) *Simulator {
	if cfg.AccelerationFactor <= 0 {
		cfg.AccelerationFactor = 1
	}
	return &Simulator{
		cfg:          cfg,
		components:   make(map[string]*Health),
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		triggerScale: DefaultTriggerScale,
		baseRate:     1e-6,
	}
}

// SetTriggerScale overrides the probability-to-trigger constant.
func (s *Simulator) SetTriggerScale(scale float64) { s.triggerScale = scale }

// Register creates health state for a component. Rated values default
// to 12 V / 1 A when the property map does not provide them.
func (s *Simulator) Register(id string, props map[string]float64, modes []Mode) *Health {
	h := &Health{
		ID:            id,
		Score:         1,
		StressFactors: make(map[string]float64),
		Modes:         modes,
		RatedVoltage:  12,
		RatedCurrent:  1,
	}
	if v, ok := props["rated_voltage"]; ok && v > 0 {
		h.RatedVoltage = v
	}
	if v, ok := props["rated_current"]; ok && v > 0 {
		h.RatedCurrent = v
	}
	if _, exists := s.components[id]; !exists {
		s.order = append(s.order, id)
	}
	s.components[id] = h
	s.recomputeRate(h)
	return h
}

func (s *Simulator) Component(id string) (*Health, bool) {
	h, ok := s.components[id]
	return h, ok
}

func (s *Simulator) ComponentIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// SetStressFactor updates one named stress factor and recomputes the
// degradation rate. Unknown component ids are silently skipped.
func (s *Simulator) SetStressFactor(id, name string, value float64) {
	h, ok := s.components[id]
	if !ok {
		return
	}
	h.StressFactors[name] = value
	s.recomputeRate(h)
}

// recomputeRate multiplies the acceleration terms together:
// Arrhenius-style temperature doubling per 10 degC over 25 degC,
// electrical overstress squared, mechanical overstress cubed, and
// linear vibration/humidity/cascade multipliers.
func (s *Simulator) recomputeRate(h *Health) {
	rate := s.baseRate * s.cfg.AccelerationFactor

	if t, ok := h.StressFactors[FactorTemperature]; ok {
		rate *= math.Pow(2, (t-25)/10)
	}
	if vr, ok := h.StressFactors[FactorVoltageRatio]; ok && vr > 1 {
		rate *= vr * vr
	}
	if sr, ok := h.StressFactors[FactorStressRatio]; ok && sr > 1 {
		rate *= sr * sr * sr
	}
	if vib, ok := h.StressFactors[FactorVibration]; ok {
		rate *= 1 + vib
	}
	if hum, ok := h.StressFactors[FactorHumidity]; ok {
		rate *= 1 + 0.5*hum
	}
	if c, ok := h.StressFactors[FactorCascade]; ok {
		rate *= 1 + c
	}
	h.DegradationRate = rate
}

// aggregateStress sums stress factors above their neutral point, used
// to scale mode probabilities.
func aggregateStress(h *Health) float64 {
	agg := 1.0
	for name, v := range h.StressFactors {
		switch name {
		case FactorTemperature:
			if v > 25 {
				agg += (v - 25) / 100
			}
		case FactorVoltageRatio, FactorStressRatio:
			if v > 1 {
				agg += v - 1
			}
		default:
			agg += v
		}
	}
	return agg
}

// Step decays health by rate*dt and rolls every registered failure
// mode against the scaled adjusted probability.
func (s *Simulator) Step(dt float64) []Event {
	s.time += dt
	var fired []Event

	for _, id := range s.order {
		h := s.components[id]
		if h.Score <= 0 {
			continue
		}
		h.Score = math.Max(0, h.Score-h.DegradationRate*dt)

		for _, mode := range h.Modes {
			adjusted := mode.BaseProbability * (1 - h.Score) * aggregateStress(h)
			if s.rng.Float64() < adjusted*s.triggerScale {
				ev := s.emit(h, mode, "degradation under load")
				fired = append(fired, ev)
			}
		}
	}
	return fired
}

func (s *Simulator) emit(h *Health, mode Mode, cause string) Event {
	h.Score = math.Max(0, h.Score-failurePenalty)

	effects := make([]string, 0, len(mode.CascadeTargets))
	for _, target := range mode.CascadeTargets {
		if th, ok := s.components[target]; ok {
			th.StressFactors[FactorCascade] += cascadeStressIncrement
			s.recomputeRate(th)
			effects = append(effects, "raised stress on "+target)
		}
	}

	hours := 1.0
	cost := 50.0
	switch mode.Severity {
	case Major:
		hours, cost = 4, 250
	case Critical:
		hours, cost = 12, 1200
	}

	ev := Event{
		ID:          uuid.NewString(),
		ComponentID: h.ID,
		ModeID:      mode.ID,
		Timestamp:   s.time,
		Severity:    mode.Severity,
		Cause:       cause,
		Effects:     effects,
		RepairHours: hours,
		RepairCost:  cost,
	}
	s.events = append(s.events, ev)
	return ev
}

// Events returns the accumulated failure event log.
func (s *Simulator) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// SystemReliability is the product of all component health scores.
// Components are treated as independent; this is not a reliability
// block diagram.
func (s *Simulator) SystemReliability() float64 {
	r := 1.0
	for _, id := range s.order {
		r *= s.components[id].Score
	}
	return r
}

// PerformMaintenance restores part of a component's health and logs
// the action. It is the only path by which health may increase.
func (s *Simulator) PerformMaintenance(id, action string) bool {
	if !s.cfg.MaintenanceEnabled {
		return false
	}
	h, ok := s.components[id]
	if !ok {
		return false
	}
	before := h.Score
	h.Score = math.Min(1, h.Score+0.3)
	delete(h.StressFactors, FactorCascade)
	s.recomputeRate(h)
	h.Maintenance = append(h.Maintenance, MaintenanceRecord{
		Time:         s.time,
		Action:       action,
		HealthBefore: before,
		HealthAfter:  h.Score,
	})
	return true
}

func (s *Simulator) Time() float64 { return s.time }

// Reset drops all health state and the event log.
func (s *Simulator) Reset() {
	s.components = make(map[string]*Health)
	s.order = nil
	s.events = nil
	s.time = 0
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))
}
