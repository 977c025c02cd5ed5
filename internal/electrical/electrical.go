// Package electrical solves DC resistive networks with independent
// sources using Modified Nodal Analysis.
package electrical

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/numeric"
)

type ComponentKind string

const (
	Resistor      ComponentKind = "resistor"
	Capacitor     ComponentKind = "capacitor"
	Inductor      ComponentKind = "inductor"
	VoltageSource ComponentKind = "voltage_source"
	CurrentSource ComponentKind = "current_source"
	Semiconductor ComponentKind = "semiconductor"
)

// Component is a two-terminal circuit element. Immutable after
// creation except for Properties.
type Component struct {
	ID         string
	Kind       ComponentKind
	Value      float64
	Tolerance  float64
	NodeA      string
	NodeB      string
	Position   numeric.Vec3
	Properties map[string]float64
}

// Node is a circuit node. Voltage is rewritten by every solve. The
// ground node ("0" or "ground") is implicit with voltage fixed at 0.
type Node struct {
	ID         string
	Voltage    float64
	Position   numeric.Vec3
	Components []string
}

// Result holds the outcome of one DC solve.
type Result struct {
	NodeVoltages map[string]float64
	Currents     map[string]float64
	Power        map[string]float64
	TotalPower   float64
	SourcePower  float64
	Efficiency   float64
}

// Simulator owns the circuit topology and its latest solution.
type Simulator struct {
	components map[string]*Component
	order      []string
	nodes      map[string]*Node
	nodeOrder  []string
	latest     *Result
}

func NewSimulator() *Simulator {
	return &Simulator{
		components: make(map[string]*Component),
		nodes:      make(map[string]*Node),
	}
}

func isGround(id string) bool {
	return id == "0" || id == "ground" || id == "gnd"
}

// AddNode registers a node position ahead of component wiring. Nodes
// referenced by AddComponent are created on demand, so this is only
// needed when the 3D position matters.
func (s *Simulator) AddNode(id string, pos numeric.Vec3) *Node {
	n := s.ensureNode(id)
	if n != nil {
		n.Position = pos
	}
	return n
}

func (s *Simulator) ensureNode(id string) *Node {
	if isGround(id) {
		return nil
	}
	if n, ok := s.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id}
	s.nodes[id] = n
	s.nodeOrder = append(s.nodeOrder, id)
	return n
}

// AddComponent wires a two-terminal component between nodeA and nodeB,
// creating the nodes if needed. A duplicate id replaces the previous
// component's definition but keeps its wiring slot.
func (s *Simulator) AddComponent(id string, kind ComponentKind, value float64, nodeA, nodeB string, pos numeric.Vec3, props map[string]float64) *Component {
	if props == nil {
		props = make(map[string]float64)
	}
	c := &Component{
		ID:         id,
		Kind:       kind,
		Value:      value,
		NodeA:      nodeA,
		NodeB:      nodeB,
		Position:   pos,
		Properties: props,
	}
	if tol, ok := props["tolerance"]; ok {
		c.Tolerance = tol
	}
	if _, exists := s.components[id]; !exists {
		s.order = append(s.order, id)
	}
	s.components[id] = c

	for _, nid := range []string{nodeA, nodeB} {
		if n := s.ensureNode(nid); n != nil {
			n.Components = append(n.Components, id)
		}
	}
	return c
}

func (s *Simulator) Component(id string) (*Component, bool) {
	c, ok := s.components[id]
	return c, ok
}

func (s *Simulator) ComponentIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

func (s *Simulator) NodeVoltage(id string) float64 {
	if isGround(id) {
		return 0
	}
	if n, ok := s.nodes[id]; ok {
		return n.Voltage
	}
	return 0
}

// Latest returns the most recent solve result, or nil before the first
// successful solve.
func (s *Simulator) Latest() *Result { return s.latest }

// branchElements returns the components needing auxiliary MNA branch
// rows: voltage sources, and inductors solved as 0 V shorts at DC.
func (s *Simulator) branchElements() []*Component {
	var out []*Component
	for _, id := range s.order {
		c := s.components[id]
		if c.Kind == VoltageSource || c.Kind == Inductor {
			out = append(out, c)
		}
	}
	return out
}

func conductance(c *Component) (float64, bool) {
	switch c.Kind {
	case Resistor, Semiconductor:
		if c.Value <= 0 {
			return 0, false
		}
		return 1 / c.Value, true
	case Capacitor:
		// Open circuit at DC.
		return 0, false
	default:
		return 0, false
	}
}

// Solve assembles and solves the (n+m)x(n+m) MNA system: n non-ground
// nodes, m branch elements. Conductances stamp the admittance block;
// each branch element adds a row enforcing V(a) - V(b) = value.
func (s *Simulator) Solve() (*Result, error) {
	n := len(s.nodeOrder)
	branches := s.branchElements()
	m := len(branches)
	if n == 0 {
		// Empty circuit steps as a no-op.
		res := &Result{
			NodeVoltages: map[string]float64{},
			Currents:     map[string]float64{},
			Power:        map[string]float64{},
		}
		s.latest = res
		return res, nil
	}

	index := make(map[string]int, n)
	for i, id := range s.nodeOrder {
		index[id] = i
	}
	nodeIdx := func(id string) int {
		if isGround(id) {
			return -1
		}
		return index[id]
	}

	a := numeric.NewDense(n + m)
	rhs := make([]float64, n+m)

	for _, id := range s.order {
		c := s.components[id]
		na, nb := nodeIdx(c.NodeA), nodeIdx(c.NodeB)

		if g, ok := conductance(c); ok && g > 0 {
			a.Add(na, na, g)
			a.Add(nb, nb, g)
			a.Add(na, nb, -g)
			a.Add(nb, na, -g)
		}
		if c.Kind == CurrentSource {
			// Convention: positive value drives current from A to B
			// through the source, so it leaves node B into the circuit.
			if na >= 0 {
				rhs[na] -= c.Value
			}
			if nb >= 0 {
				rhs[nb] += c.Value
			}
		}
	}

	for bi, c := range branches {
		row := n + bi
		na, nb := nodeIdx(c.NodeA), nodeIdx(c.NodeB)
		a.Add(row, na, 1)
		a.Add(row, nb, -1)
		a.Add(na, row, 1)
		a.Add(nb, row, -1)
		if c.Kind == VoltageSource {
			rhs[row] = c.Value
		}
		// Inductors enforce V(a) - V(b) = 0.
	}

	x, err := numeric.Solve(a, rhs)
	if err != nil {
		return nil, fmt.Errorf("electrical: %w", err)
	}

	res := &Result{
		NodeVoltages: make(map[string]float64, n),
		Currents:     make(map[string]float64, len(s.order)),
		Power:        make(map[string]float64, len(s.order)),
	}
	for i, id := range s.nodeOrder {
		s.nodes[id].Voltage = x[i]
		res.NodeVoltages[id] = x[i]
	}

	branchCurrent := make(map[string]float64, m)
	for bi, c := range branches {
		branchCurrent[c.ID] = x[n+bi]
	}

	for _, id := range s.order {
		c := s.components[id]
		va := s.NodeVoltage(c.NodeA)
		vb := s.NodeVoltage(c.NodeB)

		var i float64
		switch c.Kind {
		case Resistor, Semiconductor:
			if c.Value > 0 {
				i = (va - vb) / c.Value
			}
		case Capacitor:
			// No DC current through a capacitor.
			i = 0
		case VoltageSource, Inductor:
			i = branchCurrent[id]
		case CurrentSource:
			i = c.Value
		}
		p := math.Abs((va - vb) * i)
		res.Currents[id] = i
		res.Power[id] = p

		switch c.Kind {
		case VoltageSource, CurrentSource:
			res.SourcePower += p
		default:
			res.TotalPower += p
		}
	}
	if res.SourcePower > 1e-12 {
		res.Efficiency = res.TotalPower / res.SourcePower
	}

	s.latest = res
	return res, nil
}

// Reset drops all topology and results.
func (s *Simulator) Reset() {
	s.components = make(map[string]*Component)
	s.order = nil
	s.nodes = make(map[string]*Node)
	s.nodeOrder = nil
	s.latest = nil
}
