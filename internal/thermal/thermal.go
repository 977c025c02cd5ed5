// Package thermal models a lumped thermal network: point masses joined
// by conductances, heated by sources, integrated with explicit Euler.
package thermal

import (
	"math"

	"github.com/san-kum/partsim/internal/numeric"
)

type TransferMode string

const (
	Conduction TransferMode = "conduction"
	Convection TransferMode = "convection"
	Radiation  TransferMode = "radiation"
)

type SourceKind string

const (
	PointSource   SourceKind = "point"
	SurfaceSource SourceKind = "surface"
	VolumeSource  SourceKind = "volume"
)

// Thermal stress uses steel's elastic modulus and expansion coefficient
// for every node. A per-material lookup would be more faithful; the
// lumped model keeps the single-material simplification.
const (
	steelModulus   = 200e9   // Pa
	steelExpansion = 12e-6   // 1/K
	kelvinOffset   = 273.15
)

// Node is a lumped thermal mass. Temperature is rewritten every
// integration step.
type Node struct {
	ID           string
	Position     numeric.Vec3
	Temperature  float64 // Celsius
	Mass         float64 // kg
	HeatCapacity float64 // J/(kg K)
	Connections  []string
}

// ThermalMass returns mass times heat capacity (J/K).
func (n *Node) ThermalMass() float64 {
	return n.Mass * n.HeatCapacity
}

// Connection joins two nodes with a conductance (W/K) derived from
// material and geometry. The mode selects the flux formula.
type Connection struct {
	ID          string
	NodeA       string
	NodeB       string
	Conductance float64
	Mode        TransferMode
}

// HeatSource injects power with exponential-decay spatial falloff, not
// exact conduction geometry.
type HeatSource struct {
	ID       string
	Position numeric.Vec3
	Power    float64 // W
	Kind     SourceKind
}

type Config struct {
	AmbientTemperature float64
	ConvectionEnabled  bool
	RadiationEnabled   bool
}

func DefaultConfig() Config {
	return Config{
		AmbientTemperature: 20,
		ConvectionEnabled:  true,
		RadiationEnabled:   false,
	}
}

// Simulator owns the thermal network.
type Simulator struct {
	cfg         Config
	nodes       map[string]*Node
	nodeOrder   []string
	connections map[string]*Connection
	connOrder   []string
	sources     map[string]*HeatSource
	srcOrder    []string

	// ambientLoss is the linear convective loss coefficient to ambient
	// applied to every node each step (W/K).
	ambientLoss float64

	// falloffScale sets the exponential decay distance for source
	// coupling (meters).
	falloffScale float64

	stress map[string]float64
}

func NewSimulator(cfg Config) *Simulator {
	return &Simulator{
		cfg:          cfg,
		nodes:        make(map[string]*Node),
		connections:  make(map[string]*Connection),
		sources:      make(map[string]*HeatSource),
		ambientLoss:  0.5,
		falloffScale: 0.1,
		stress:       make(map[string]float64),
	}
}

func (s *Simulator) AddNode(id string, pos numeric.Vec3, mass, heatCapacity float64) *Node {
	n := &Node{
		ID:           id,
		Position:     pos,
		Temperature:  s.cfg.AmbientTemperature,
		Mass:         mass,
		HeatCapacity: heatCapacity,
	}
	if _, exists := s.nodes[id]; !exists {
		s.nodeOrder = append(s.nodeOrder, id)
	}
	s.nodes[id] = n
	return n
}

// AddConnection joins two registered nodes. Unknown node ids are
// skipped silently at flux time, matching the engine's missing-entity
// posture.
func (s *Simulator) AddConnection(id, nodeA, nodeB string, conductance float64, mode TransferMode) *Connection {
	c := &Connection{ID: id, NodeA: nodeA, NodeB: nodeB, Conductance: conductance, Mode: mode}
	if _, exists := s.connections[id]; !exists {
		s.connOrder = append(s.connOrder, id)
	}
	s.connections[id] = c
	if a, ok := s.nodes[nodeA]; ok {
		a.Connections = append(a.Connections, id)
	}
	if b, ok := s.nodes[nodeB]; ok {
		b.Connections = append(b.Connections, id)
	}
	return c
}

func (s *Simulator) AddHeatSource(id string, pos numeric.Vec3, power float64, kind SourceKind) *HeatSource {
	src := &HeatSource{ID: id, Position: pos, Power: power, Kind: kind}
	if _, exists := s.sources[id]; !exists {
		s.srcOrder = append(s.srcOrder, id)
	}
	s.sources[id] = src
	return src
}

// SetSourcePower updates an existing source, or creates a point source
// at the origin when the id is new. Coupling from the electrical
// domain funnels through here every step.
func (s *Simulator) SetSourcePower(id string, power float64, pos numeric.Vec3) {
	if src, ok := s.sources[id]; ok {
		src.Power = power
		return
	}
	s.AddHeatSource(id, pos, power, PointSource)
}

func (s *Simulator) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Simulator) NodeIDs() []string {
	ids := make([]string, len(s.nodeOrder))
	copy(ids, s.nodeOrder)
	return ids
}

func (s *Simulator) Temperatures() map[string]float64 {
	out := make(map[string]float64, len(s.nodes))
	for id, n := range s.nodes {
		out[id] = n.Temperature
	}
	return out
}

// Stress returns the latest per-node thermal stress (Pa).
func (s *Simulator) Stress() map[string]float64 {
	out := make(map[string]float64, len(s.stress))
	for id, v := range s.stress {
		out[id] = v
	}
	return out
}

// SetAmbientLoss overrides the linear loss coefficient to ambient.
// Zero disables ambient losses (used by closed-system tests).
func (s *Simulator) SetAmbientLoss(coeff float64) { s.ambientLoss = coeff }

// connectionFlux returns heat flow A -> B in watts. Convection flows
// from A to ambient, so NodeB may be left empty.
func (s *Simulator) connectionFlux(c *Connection) float64 {
	a, okA := s.nodes[c.NodeA]
	if !okA {
		return 0
	}
	if c.Mode == Convection {
		if !s.cfg.ConvectionEnabled {
			return 0
		}
		return c.Conductance * (a.Temperature - s.cfg.AmbientTemperature)
	}
	b, okB := s.nodes[c.NodeB]
	if !okB {
		return 0
	}
	switch c.Mode {
	case Radiation:
		if !s.cfg.RadiationEnabled {
			return 0
		}
		ta := a.Temperature + kelvinOffset
		tb := b.Temperature + kelvinOffset
		return c.Conductance * (math.Pow(ta, 4) - math.Pow(tb, 4))
	default:
		return c.Conductance * (a.Temperature - b.Temperature)
	}
}

// sourceFlux returns the power a node absorbs from all sources, with
// exponential falloff by distance.
func (s *Simulator) sourceFlux(n *Node) float64 {
	total := 0.0
	for _, id := range s.srcOrder {
		src := s.sources[id]
		d := n.Position.Distance(src.Position)
		total += src.Power * math.Exp(-d/s.falloffScale)
	}
	return total
}

// Step advances every node temperature by one explicit-Euler step and
// recomputes per-node thermal stress against the ambient baseline.
// Stability depends on dt being small relative to thermalMass/G; no
// adaptive control is applied.
func (s *Simulator) Step(dt float64) {
	if len(s.nodes) == 0 {
		return
	}

	net := make(map[string]float64, len(s.nodes))
	for _, id := range s.nodeOrder {
		net[id] = s.sourceFlux(s.nodes[id])
	}

	for _, cid := range s.connOrder {
		c := s.connections[cid]
		flux := s.connectionFlux(c)
		if _, ok := s.nodes[c.NodeA]; ok {
			net[c.NodeA] -= flux
		}
		if c.Mode != Convection {
			if _, ok := s.nodes[c.NodeB]; ok {
				net[c.NodeB] += flux
			}
		}
	}

	for _, id := range s.nodeOrder {
		n := s.nodes[id]
		if s.cfg.ConvectionEnabled && s.ambientLoss > 0 {
			net[id] -= s.ambientLoss * (n.Temperature - s.cfg.AmbientTemperature)
		}
		tm := n.ThermalMass()
		if tm < 1e-9 {
			continue
		}
		n.Temperature += net[id] * dt / tm

		dT := n.Temperature - s.cfg.AmbientTemperature
		s.stress[id] = steelModulus * steelExpansion * dT
	}
}

// StoredEnergy is the total thermal energy relative to 0 degC,
// sum of mass * heatCapacity * temperature over all nodes.
func (s *Simulator) StoredEnergy() float64 {
	total := 0.0
	for _, n := range s.nodes {
		total += n.ThermalMass() * n.Temperature
	}
	return total
}

func (s *Simulator) MaxTemperature() float64 {
	max := math.Inf(-1)
	if len(s.nodes) == 0 {
		return 0
	}
	for _, n := range s.nodes {
		if n.Temperature > max {
			max = n.Temperature
		}
	}
	return max
}

func (s *Simulator) Config() Config { return s.cfg }

// Reset drops the whole network.
func (s *Simulator) Reset() {
	s.nodes = make(map[string]*Node)
	s.nodeOrder = nil
	s.connections = make(map[string]*Connection)
	s.connOrder = nil
	s.sources = make(map[string]*HeatSource)
	s.srcOrder = nil
	s.stress = make(map[string]float64)
}
