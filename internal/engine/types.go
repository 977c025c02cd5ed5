package engine

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

// RunState is the engine lifecycle state.
type RunState string

const (
	Stopped RunState = "stopped"
	Running RunState = "running"
	Paused  RunState = "paused"
)

// Domain errors for engine operations.
var (
	// ErrNotRunning indicates a step was requested outside Running.
	ErrNotRunning = errors.New("engine: not running")

	// ErrUnknownScenario indicates an unrecognized scenario name.
	ErrUnknownScenario = errors.New("engine: unknown scenario")
)

// ElectricalSnapshot is the electrical domain state in one result.
type ElectricalSnapshot struct {
	NodeVoltages map[string]float64 `json:"node_voltages"`
	Currents     map[string]float64 `json:"currents"`
	Power        map[string]float64 `json:"power"`
	TotalPower   float64            `json:"total_power"`
	SourcePower  float64            `json:"source_power"`
	Efficiency   float64            `json:"efficiency"`
}

type ThermalSnapshot struct {
	Temperatures   map[string]float64 `json:"temperatures"`
	MaxTemperature float64            `json:"max_temperature"`
	StoredEnergy   float64            `json:"stored_energy"`
}

// MechanicalSnapshot is the mechanical domain state in one result.
// SafetyFactor and FatigueLife are +Inf for an unloaded or
// below-fatigue-limit structure; JSON cannot carry infinities, so
// unbounded values encode as null and decode back to +Inf.
type MechanicalSnapshot struct {
	MaxStress       float64 `json:"max_stress"`
	MaxDisplacement float64 `json:"max_displacement"`
	SafetyFactor    float64 `json:"safety_factor"`
	FatigueLife     float64 `json:"fatigue_life"`
}

type mechanicalSnapshotJSON struct {
	MaxStress       float64  `json:"max_stress"`
	MaxDisplacement float64  `json:"max_displacement"`
	SafetyFactor    *float64 `json:"safety_factor"`
	FatigueLife     *float64 `json:"fatigue_life"`
}

func boundedOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func (m *MechanicalSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(mechanicalSnapshotJSON{
		MaxStress:       m.MaxStress,
		MaxDisplacement: m.MaxDisplacement,
		SafetyFactor:    boundedOrNil(m.SafetyFactor),
		FatigueLife:     boundedOrNil(m.FatigueLife),
	})
}

func (m *MechanicalSnapshot) UnmarshalJSON(data []byte) error {
	var in mechanicalSnapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.MaxStress = in.MaxStress
	m.MaxDisplacement = in.MaxDisplacement
	m.SafetyFactor = math.Inf(1)
	if in.SafetyFactor != nil {
		m.SafetyFactor = *in.SafetyFactor
	}
	m.FatigueLife = math.Inf(1)
	if in.FatigueLife != nil {
		m.FatigueLife = *in.FatigueLife
	}
	return nil
}

type PhysicsSnapshot struct {
	KineticEnergy float64 `json:"kinetic_energy"`
	Vibration     float64 `json:"vibration"`
	BrokenJoints  int     `json:"broken_joints"`
	Particles     int     `json:"particles"`
}

type FailureSnapshot struct {
	HealthScores map[string]float64 `json:"health_scores"`
	Reliability  float64            `json:"reliability"`
	EventCount   int                `json:"event_count"`
}

// CoupledResults is one per-step snapshot across all enabled domains,
// plus the three diagnostic interaction-strength figures.
type CoupledResults struct {
	Timestamp  float64             `json:"timestamp"`
	Electrical *ElectricalSnapshot `json:"electrical,omitempty"`
	Thermal    *ThermalSnapshot    `json:"thermal,omitempty"`
	Mechanical *MechanicalSnapshot `json:"mechanical,omitempty"`
	Physics    *PhysicsSnapshot    `json:"physics,omitempty"`
	Failure    *FailureSnapshot    `json:"failure,omitempty"`

	ElectroThermal    float64 `json:"electro_thermal"`
	ThermoMechanical  float64 `json:"thermo_mechanical"`
	MechanicalFailure float64 `json:"mechanical_failure"`
}

// MaxStress returns the mechanical max stress, 0 when the domain is
// disabled or has not solved yet.
func (r *CoupledResults) MaxStress() float64 {
	if r.Mechanical == nil {
		return 0
	}
	return r.Mechanical.MaxStress
}

func (r *CoupledResults) MaxTemperature() float64 {
	if r.Thermal == nil {
		return 0
	}
	return r.Thermal.MaxTemperature
}

func (r *CoupledResults) TotalPower() float64 {
	if r.Electrical == nil {
		return 0
	}
	return r.Electrical.TotalPower
}

func (r *CoupledResults) Reliability() float64 {
	if r.Failure == nil {
		return 1
	}
	return r.Failure.Reliability
}

// EngineState is the query-API view of the engine.
type EngineState struct {
	State         RunState
	SimulatedTime float64
	StepCount     int
	Timings       map[string]time.Duration
}
