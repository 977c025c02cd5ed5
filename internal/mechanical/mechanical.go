// Package mechanical performs static linear-elastic stress analysis
// over a node/element mesh with a simplified triangular plane-stress
// formulation. It is not an industrial finite-element package: loads
// attach to nearest nodes, stress recovery is a coarse nodal estimate,
// and modal analysis returns placeholder frequencies.
package mechanical

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/numeric"
)

type LoadKind string

const (
	ForceLoad        LoadKind = "force"
	PressureLoad     LoadKind = "pressure"
	DisplacementLoad LoadKind = "displacement"
	AccelerationLoad LoadKind = "acceleration"
)

type ConstraintKind string

const (
	FixedConstraint  ConstraintKind = "fixed"
	PinnedConstraint ConstraintKind = "pinned"
	RollerConstraint ConstraintKind = "roller"
	SpringConstraint ConstraintKind = "spring"
)

const dofPerNode = 3

// zRegularization keeps the out-of-plane degree of freedom of
// plane-stress triangles from leaving the global matrix singular.
const zRegularization = 1e3

// Node is a mesh node. Displacement, stress and strain are rewritten
// by every solve.
type Node struct {
	ID           string
	Position     numeric.Vec3
	Displacement numeric.Vec3
	Stress       numeric.Vec3
	Strain       numeric.Vec3
}

// Element references two (bar) or three (triangle) nodes, a material
// key and its precomputed cross-section area (bars) or face area
// (triangles).
type Element struct {
	ID       string
	Nodes    []string
	Material string
	Area     float64
}

type LoadCase struct {
	ID        string
	Kind      LoadKind
	Magnitude float64
	Direction numeric.Vec3 // unit vector
	Point     numeric.Vec3
}

type Constraint struct {
	ID        string
	Kind      ConstraintKind
	Point     numeric.Vec3
	Stiffness float64 // spring constraints only
}

type Config struct {
	AnalysisType string
	MeshDensity  float64
	Thickness    float64 // plane-stress thickness, m
}

func DefaultConfig() Config {
	return Config{AnalysisType: "static", MeshDensity: 1, Thickness: 0.01}
}

// Result is the outcome of one static solve.
type Result struct {
	MaxStress       float64
	MaxDisplacement float64
	SafetyFactor    float64
	FatigueLife     float64 // cycles; +Inf when below the fatigue limit
	NodeStress      map[string]float64
}

// Simulator owns the mesh, loads and constraints.
type Simulator struct {
	cfg         Config
	nodes       map[string]*Node
	nodeOrder   []string
	elements    map[string]*Element
	elemOrder   []string
	loads       []LoadCase
	constraints []Constraint

	// thermalStress is an extra stress floor coupled in from the
	// thermal domain, added to recovered stress before the safety
	// factor is computed.
	thermalStress float64

	latest *Result
}

func NewSimulator(cfg Config) *Simulator {
	return &Simulator{
		cfg:      cfg,
		nodes:    make(map[string]*Node),
		elements: make(map[string]*Element),
	}
}

func (s *Simulator) AddNode(id string, pos numeric.Vec3) *Node {
	n := &Node{ID: id, Position: pos}
	if _, exists := s.nodes[id]; !exists {
		s.nodeOrder = append(s.nodeOrder, id)
	}
	s.nodes[id] = n
	return n
}

// AddElement registers a 2-node bar or 3-node triangle. Elements
// referencing unknown nodes are kept but skipped at assembly.
func (s *Simulator) AddElement(id string, nodeIDs []string, material string, area float64) *Element {
	e := &Element{ID: id, Nodes: nodeIDs, Material: material, Area: area}
	if _, exists := s.elements[id]; !exists {
		s.elemOrder = append(s.elemOrder, id)
	}
	s.elements[id] = e
	return e
}

func (s *Simulator) AddLoadCase(lc LoadCase) {
	lc.Direction = lc.Direction.Unit()
	s.loads = append(s.loads, lc)
}

func (s *Simulator) AddConstraint(c Constraint) {
	s.constraints = append(s.constraints, c)
}

func (s *Simulator) SetThermalStress(pa float64) { s.thermalStress = pa }

func (s *Simulator) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Simulator) NodeCount() int { return len(s.nodeOrder) }

func (s *Simulator) Latest() *Result { return s.latest }

func (s *Simulator) nearestNode(p numeric.Vec3) *Node {
	var best *Node
	bestD := math.Inf(1)
	for _, id := range s.nodeOrder {
		n := s.nodes[id]
		if d := n.Position.Distance(p); d < bestD {
			bestD = d
			best = n
		}
	}
	return best
}

func (s *Simulator) dofIndex() map[string]int {
	idx := make(map[string]int, len(s.nodeOrder))
	for i, id := range s.nodeOrder {
		idx[id] = i * dofPerNode
	}
	return idx
}

// barShearFraction gives bar elements a small transverse stiffness so
// a cantilevered bar does not leave its free end unsupported. Bars are
// stiff springs, not beam elements.
const barShearFraction = 0.05

// stampBar adds simplified bar stiffness: EA/L axially plus a
// barShearFraction of it transversely, k = c*(d d^T) + c*s*(I - d d^T).
func stampBar(k *numeric.Dense, base [2]int, dir numeric.Vec3, ea, length float64) {
	if length < 1e-12 {
		return
	}
	coef := ea / length
	d := [3]float64{dir.X, dir.Y, dir.Z}
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			sign := 1.0
			if a != b {
				sign = -1
			}
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					axial := d[i] * d[j]
					ident := 0.0
					if i == j {
						ident = 1
					}
					v := coef * (axial + barShearFraction*(ident-axial))
					k.Add(base[a]+i, base[b]+j, sign*v)
				}
			}
		}
	}
}

// triangleStiffness builds the 6x6 plane-stress stiffness t*A*B^T D B
// for one triangle, using the classic constant-strain B matrix and the
// Lame-form D matrix.
func triangleStiffness(p [3]numeric.Vec3, mat Material, thickness float64) ([6][6]float64, float64, bool) {
	var k [6][6]float64

	area2 := (p[1].X-p[0].X)*(p[2].Y-p[0].Y) - (p[2].X-p[0].X)*(p[1].Y-p[0].Y)
	area := math.Abs(area2) / 2
	if area < 1e-12 {
		return k, 0, false
	}

	b := [3]float64{p[1].Y - p[2].Y, p[2].Y - p[0].Y, p[0].Y - p[1].Y}
	c := [3]float64{p[2].X - p[1].X, p[0].X - p[2].X, p[1].X - p[0].X}

	var bm [3][6]float64
	for i := 0; i < 3; i++ {
		bm[0][2*i] = b[i]
		bm[1][2*i+1] = c[i]
		bm[2][2*i] = c[i]
		bm[2][2*i+1] = b[i]
	}
	inv := 1 / (2 * area)
	for i := range bm {
		for j := range bm[i] {
			bm[i][j] *= inv
		}
	}

	e, v := mat.ElasticModulus, mat.PoissonRatio
	f := e / (1 - v*v)
	d := [3][3]float64{
		{f, f * v, 0},
		{f * v, f, 0},
		{0, 0, f * (1 - v) / 2},
	}

	// k = t*A * B^T D B
	var db [3][6]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 6; j++ {
			for l := 0; l < 3; l++ {
				db[i][j] += d[i][l] * bm[l][j]
			}
		}
	}
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			for l := 0; l < 3; l++ {
				k[i][j] += bm[l][i] * db[l][j]
			}
			k[i][j] *= thickness * area
		}
	}
	return k, area, true
}

// Solve assembles the global stiffness matrix, applies loads and
// constraints, solves for nodal displacement and recovers a coarse
// stress estimate, safety factor and fatigue life.
func (s *Simulator) Solve() (*Result, error) {
	n := len(s.nodeOrder)
	if n == 0 || len(s.elemOrder) == 0 {
		res := &Result{SafetyFactor: math.Inf(1), FatigueLife: math.Inf(1), NodeStress: map[string]float64{}}
		s.latest = res
		return res, nil
	}

	idx := s.dofIndex()
	size := n * dofPerNode
	k := numeric.NewDense(size)
	f := make([]float64, size)
	nodalMass := make(map[string]float64, n)

	for _, eid := range s.elemOrder {
		el := s.elements[eid]
		mat := MaterialByName(el.Material)

		switch len(el.Nodes) {
		case 2:
			a, okA := s.nodes[el.Nodes[0]]
			b, okB := s.nodes[el.Nodes[1]]
			if !okA || !okB {
				continue
			}
			length := a.Position.Distance(b.Position)
			dir := b.Position.Sub(a.Position).Unit()
			stampBar(k, [2]int{idx[a.ID], idx[b.ID]}, dir, mat.ElasticModulus*el.Area, length)
			half := mat.Density * el.Area * length / 2
			nodalMass[a.ID] += half
			nodalMass[b.ID] += half

		case 3:
			var pts [3]numeric.Vec3
			var ids [3]string
			ok := true
			for i, nid := range el.Nodes {
				nd, exists := s.nodes[nid]
				if !exists {
					ok = false
					break
				}
				pts[i] = nd.Position
				ids[i] = nid
			}
			if !ok {
				continue
			}
			ke, area, valid := triangleStiffness(pts, mat, s.cfg.Thickness)
			if !valid {
				continue
			}
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					for i := 0; i < 2; i++ {
						for j := 0; j < 2; j++ {
							k.Add(idx[ids[a]]+i, idx[ids[b]]+j, ke[2*a+i][2*b+j])
						}
					}
				}
				// Out-of-plane regularization, see zRegularization.
				k.Add(idx[ids[a]]+2, idx[ids[a]]+2, zRegularization)
			}
			share := mat.Density * area * s.cfg.Thickness / 3
			for _, nid := range ids {
				nodalMass[nid] += share
			}
		}
	}

	// Loads attach to the nearest node; distributed loading is out of
	// scope for this formulation.
	prescribed := make(map[int]float64)
	for _, lc := range s.loads {
		switch lc.Kind {
		case ForceLoad, PressureLoad:
			nd := s.nearestNode(lc.Point)
			if nd == nil {
				continue
			}
			base := idx[nd.ID]
			f[base] += lc.Magnitude * lc.Direction.X
			f[base+1] += lc.Magnitude * lc.Direction.Y
			f[base+2] += lc.Magnitude * lc.Direction.Z
		case AccelerationLoad:
			for _, nid := range s.nodeOrder {
				m := nodalMass[nid]
				base := idx[nid]
				f[base] += m * lc.Magnitude * lc.Direction.X
				f[base+1] += m * lc.Magnitude * lc.Direction.Y
				f[base+2] += m * lc.Magnitude * lc.Direction.Z
			}
		case DisplacementLoad:
			nd := s.nearestNode(lc.Point)
			if nd == nil {
				continue
			}
			base := idx[nd.ID]
			prescribed[base] = lc.Magnitude * lc.Direction.X
			prescribed[base+1] = lc.Magnitude * lc.Direction.Y
			prescribed[base+2] = lc.Magnitude * lc.Direction.Z
		}
	}

	for _, c := range s.constraints {
		nd := s.nearestNode(c.Point)
		if nd == nil {
			continue
		}
		base := idx[nd.ID]
		switch c.Kind {
		case FixedConstraint, PinnedConstraint:
			prescribed[base] = 0
			prescribed[base+1] = 0
			prescribed[base+2] = 0
		case RollerConstraint:
			prescribed[base+1] = 0
		case SpringConstraint:
			for i := 0; i < dofPerNode; i++ {
				k.Add(base+i, base+i, c.Stiffness)
			}
		}
	}

	// Identity-row elimination for constrained/prescribed DOFs. A
	// nonzero prescribed value couples into the free DOFs, so the
	// column K_free,presc * u_presc moves to the right-hand side before
	// the row and column are cleared.
	for dof, val := range prescribed {
		if val != 0 {
			for j := 0; j < size; j++ {
				if _, isPrescribed := prescribed[j]; isPrescribed {
					continue
				}
				f[j] -= k.At(j, dof) * val
			}
		}
	}
	for dof, val := range prescribed {
		k.ZeroRowCol(dof)
		f[dof] = val
	}

	u, err := numeric.Solve(k, f)
	if err != nil {
		return nil, fmt.Errorf("mechanical: %w", err)
	}

	res := &Result{
		SafetyFactor: math.Inf(1),
		FatigueLife:  math.Inf(1),
		NodeStress:   make(map[string]float64, n),
	}

	for _, nid := range s.nodeOrder {
		base := idx[nid]
		nd := s.nodes[nid]
		nd.Displacement = numeric.Vec3{X: u[base], Y: u[base+1], Z: u[base+2]}
		if d := nd.Displacement.Norm(); d > res.MaxDisplacement {
			res.MaxDisplacement = d
		}
	}

	s.recoverStress(res)
	s.latest = res
	return res, nil
}

// recoverStress estimates per-node strain from displacement against a
// characteristic neighbor distance and applies Hooke's law. This is a
// coarse diagnostic, not per-element stress recovery.
func (s *Simulator) recoverStress(res *Result) {
	charLen := make(map[string]float64, len(s.nodeOrder))
	nodeMat := make(map[string]Material, len(s.nodeOrder))
	for _, eid := range s.elemOrder {
		el := s.elements[eid]
		mat := MaterialByName(el.Material)
		for i, aID := range el.Nodes {
			if _, ok := nodeMat[aID]; !ok {
				nodeMat[aID] = mat
			}
			for j, bID := range el.Nodes {
				if i == j {
					continue
				}
				a, okA := s.nodes[aID]
				b, okB := s.nodes[bID]
				if !okA || !okB {
					continue
				}
				d := a.Position.Distance(b.Position)
				if cur, ok := charLen[aID]; !ok || d < cur {
					charLen[aID] = d
				}
			}
		}
	}

	minSafety := math.Inf(1)
	worstFatigue := math.Inf(1)
	for _, nid := range s.nodeOrder {
		nd := s.nodes[nid]
		l := charLen[nid]
		if l < 1e-9 {
			res.NodeStress[nid] = 0
			continue
		}
		mat, ok := nodeMat[nid]
		if !ok {
			mat = MaterialByName("steel")
		}

		strainMag := nd.Displacement.Norm() / l
		dir := nd.Displacement.Unit()
		nd.Strain = dir.Scale(strainMag)
		stress := mat.ElasticModulus*strainMag + s.thermalStress
		nd.Stress = dir.Scale(stress)
		res.NodeStress[nid] = stress

		if stress > res.MaxStress {
			res.MaxStress = stress
		}
		if stress > 1e-9 && mat.YieldStrength > 0 {
			if sf := mat.YieldStrength / stress; sf < minSafety {
				minSafety = sf
			}
		}
		if stress > mat.FatigueLimit {
			// Basquin-style S-N approximation anchored at 1e6 cycles.
			cycles := 1e6 * math.Pow(mat.FatigueLimit/stress, 3)
			if cycles < worstFatigue {
				worstFatigue = cycles
			}
		}
	}
	res.SafetyFactor = minSafety
	res.FatigueLife = worstFatigue
}

// ModalAnalysis returns a fixed placeholder set of natural frequencies
// scaled by the stiffness-to-mass ratio of the first element material.
// It does not solve an eigenproblem and is not physically accurate.
func (s *Simulator) ModalAnalysis() []float64 {
	base := []float64{50, 120, 280, 450}
	scale := 1.0
	if len(s.elemOrder) > 0 {
		mat := MaterialByName(s.elements[s.elemOrder[0]].Material)
		steel := MaterialByName("steel")
		scale = math.Sqrt((mat.ElasticModulus / mat.Density) / (steel.ElasticModulus / steel.Density))
	}
	out := make([]float64, len(base))
	for i, f := range base {
		out[i] = f * scale
	}
	return out
}

func (s *Simulator) Config() Config { return s.cfg }

// Reset drops the mesh, loads and constraints.
func (s *Simulator) Reset() {
	s.nodes = make(map[string]*Node)
	s.nodeOrder = nil
	s.elements = make(map[string]*Element)
	s.elemOrder = nil
	s.loads = nil
	s.constraints = nil
	s.thermalStress = 0
	s.latest = nil
}
