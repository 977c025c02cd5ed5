// Package physics steps rigid bodies and composable mechanisms: gear
// trains, motors, spring-dampers, breakable joints, particle bursts
// and soft bodies. It is an orchestration layer over simple
// symplectic-Euler body integration, not a general contact solver.
package physics

import (
	"math"

	"github.com/san-kum/partsim/internal/numeric"
)

type Config struct {
	Gravity  numeric.Vec3
	TimeStep float64
	Substeps int
}

func DefaultConfig() Config {
	return Config{
		Gravity:  numeric.Vec3{Y: -9.81},
		TimeStep: 1.0 / 60,
		Substeps: 1,
	}
}

// Body is a rigid body integrated by the world step.
type Body struct {
	ID              string
	Position        numeric.Vec3
	Rotation        numeric.Vec3 // euler angles, rad
	Velocity        numeric.Vec3
	AngularVelocity numeric.Vec3
	Mass            float64
	Static          bool
	Properties      map[string]float64

	force  numeric.Vec3
	torque numeric.Vec3
}

// ApplyForce accumulates a force for the next world step.
func (b *Body) ApplyForce(f numeric.Vec3) { b.force = b.force.Add(f) }

func (b *Body) ApplyTorque(t numeric.Vec3) { b.torque = b.torque.Add(t) }

// GearStage is one meshing pair in a train.
type GearStage struct {
	DrivingTeeth int
	DrivenTeeth  int
}

// GearTrain couples a motor to an output shaft through stages. The
// overall ratio is the product of driven/driving tooth counts.
type GearTrain struct {
	ID          string
	MotorID     string
	Stages      []GearStage
	OutputSpeed float64 // rad/s
	OutputTorque float64
	Efficiency  float64
}

func (g *GearTrain) Ratio() float64 {
	ratio := 1.0
	for _, st := range g.Stages {
		if st.DrivingTeeth <= 0 {
			continue
		}
		ratio *= float64(st.DrivenTeeth) / float64(st.DrivingTeeth)
	}
	return ratio
}

// CurvePoint is one sample of a motor's speed-torque curve.
type CurvePoint struct {
	Speed  float64 // rad/s
	Torque float64 // N m
}

// Motor drives a shaft toward TargetSpeed with torque interpolated
// from its curve and a proportional speed controller.
type Motor struct {
	ID          string
	Curve       []CurvePoint // ascending by speed
	TargetSpeed float64
	Gain        float64
	Speed       float64
	Torque      float64
	Inertia     float64
}

// torqueAt interpolates the speed-torque curve, clamping outside the
// sampled range.
func (m *Motor) torqueAt(speed float64) float64 {
	if len(m.Curve) == 0 {
		return 0
	}
	if speed <= m.Curve[0].Speed {
		return m.Curve[0].Torque
	}
	last := m.Curve[len(m.Curve)-1]
	if speed >= last.Speed {
		return last.Torque
	}
	for i := 1; i < len(m.Curve); i++ {
		a, b := m.Curve[i-1], m.Curve[i]
		if speed <= b.Speed {
			t := (speed - a.Speed) / (b.Speed - a.Speed)
			return a.Torque + t*(b.Torque-a.Torque)
		}
	}
	return last.Torque
}

// SpringDamper applies Hookean plus viscous force along the
// instantaneous separation vector between two bodies.
type SpringDamper struct {
	ID         string
	BodyA      string
	BodyB      string
	Stiffness  float64
	Damping    float64
	RestLength float64
}

// BreakableJoint accumulates a simplified stress history between two
// bodies and snaps when peak or fatigue thresholds are exceeded.
type BreakableJoint struct {
	ID            string
	BodyA         string
	BodyB         string
	PeakThreshold float64 // N
	FatigueCycles float64
	RestLength    float64
	Stiffness     float64

	PeakStress    float64
	CycleCount    float64
	Broken        bool
}

// Particle is a short-lived visual/diagnostic effect particle.
type Particle struct {
	Position numeric.Vec3
	Velocity numeric.Vec3
	Life     float64
}

// SoftBodyNode is one lumped mass in a soft body chain.
type SoftBodyNode struct {
	Position numeric.Vec3
	Velocity numeric.Vec3
	Pinned   bool
}

// SoftBody is a chain of masses joined by identical springs.
type SoftBody struct {
	ID        string
	Nodes     []SoftBodyNode
	Stiffness float64
	Damping   float64
	RestLen   float64
	NodeMass  float64
}

// Simulator owns all bodies and mechanisms.
type Simulator struct {
	cfg       Config
	bodies    map[string]*Body
	bodyOrder []string
	motors    map[string]*Motor
	motorOrder []string
	gears     map[string]*GearTrain
	gearOrder []string
	springs   []*SpringDamper
	joints    []*BreakableJoint
	particles []Particle
	softs     []*SoftBody

	// vibration is an exponential moving average of body acceleration
	// magnitude, coupled into the failure domain.
	vibration float64
}

func NewSimulator(cfg Config) *Simulator {
	if cfg.Substeps < 1 {
		cfg.Substeps = 1
	}
	return &Simulator{
		cfg:    cfg,
		bodies: make(map[string]*Body),
		motors: make(map[string]*Motor),
		gears:  make(map[string]*GearTrain),
	}
}

func (s *Simulator) AddBody(id string, pos, rot numeric.Vec3, mass float64, props map[string]float64) *Body {
	if props == nil {
		props = make(map[string]float64)
	}
	b := &Body{ID: id, Position: pos, Rotation: rot, Mass: mass, Properties: props}
	if mass <= 0 {
		b.Static = true
	}
	if _, exists := s.bodies[id]; !exists {
		s.bodyOrder = append(s.bodyOrder, id)
	}
	s.bodies[id] = b
	return b
}

func (s *Simulator) Body(id string) (*Body, bool) {
	b, ok := s.bodies[id]
	return b, ok
}

func (s *Simulator) AddMotor(m *Motor) *Motor {
	if m.Gain == 0 {
		m.Gain = 0.5
	}
	if m.Inertia == 0 {
		m.Inertia = 0.01
	}
	if _, exists := s.motors[m.ID]; !exists {
		s.motorOrder = append(s.motorOrder, m.ID)
	}
	s.motors[m.ID] = m
	return m
}

func (s *Simulator) Motor(id string) (*Motor, bool) {
	m, ok := s.motors[id]
	return m, ok
}

func (s *Simulator) AddGearTrain(g *GearTrain) *GearTrain {
	if g.Efficiency == 0 {
		g.Efficiency = 0.95
	}
	if _, exists := s.gears[g.ID]; !exists {
		s.gearOrder = append(s.gearOrder, g.ID)
	}
	s.gears[g.ID] = g
	return g
}

func (s *Simulator) GearTrain(id string) (*GearTrain, bool) {
	g, ok := s.gears[id]
	return g, ok
}

func (s *Simulator) AddSpringDamper(sd *SpringDamper) { s.springs = append(s.springs, sd) }

func (s *Simulator) AddBreakableJoint(j *BreakableJoint) { s.joints = append(s.joints, j) }

func (s *Simulator) AddSoftBody(sb *SoftBody) { s.softs = append(s.softs, sb) }

func (s *Simulator) Joints() []*BreakableJoint { return s.joints }

func (s *Simulator) ParticleCount() int { return len(s.particles) }

// VibrationLevel is the smoothed mean body acceleration magnitude.
func (s *Simulator) VibrationLevel() float64 { return s.vibration }

func (s *Simulator) KineticEnergy() float64 {
	e := 0.0
	for _, id := range s.bodyOrder {
		b := s.bodies[id]
		v := b.Velocity.Norm()
		e += 0.5 * b.Mass * v * v
	}
	return e
}

func (s *Simulator) stepMotors(dt float64) {
	for _, id := range s.motorOrder {
		m := s.motors[id]
		available := m.torqueAt(m.Speed)
		// Proportional speed controller throttles available torque.
		demand := m.Gain * (m.TargetSpeed - m.Speed)
		torque := math.Max(-available, math.Min(available, demand))
		m.Torque = torque
		m.Speed += torque / m.Inertia * dt
	}
}

func (s *Simulator) stepGears() {
	for _, id := range s.gearOrder {
		g := s.gears[id]
		m, ok := s.motors[g.MotorID]
		if !ok {
			continue
		}
		ratio := g.Ratio()
		if ratio <= 0 {
			continue
		}
		g.OutputSpeed = m.Speed / ratio
		g.OutputTorque = m.Torque * ratio * g.Efficiency
	}
}

func (s *Simulator) stepSprings() {
	for _, sd := range s.springs {
		a, okA := s.bodies[sd.BodyA]
		b, okB := s.bodies[sd.BodyB]
		if !okA || !okB {
			continue
		}
		sep := b.Position.Sub(a.Position)
		dist := sep.Norm()
		if dist < 1e-9 {
			continue
		}
		dir := sep.Scale(1 / dist)
		stretch := dist - sd.RestLength
		relVel := b.Velocity.Sub(a.Velocity).Dot(dir)
		mag := sd.Stiffness*stretch + sd.Damping*relVel
		f := dir.Scale(mag)
		a.ApplyForce(f)
		b.ApplyForce(f.Scale(-1))
	}
}

func (s *Simulator) stepJoints(dt float64) {
	for _, j := range s.joints {
		if j.Broken {
			continue
		}
		a, okA := s.bodies[j.BodyA]
		b, okB := s.bodies[j.BodyB]
		if !okA || !okB {
			continue
		}
		sep := b.Position.Sub(a.Position)
		dist := sep.Norm()
		stretch := dist - j.RestLength
		load := math.Abs(j.Stiffness * stretch)

		if load > j.PeakStress {
			j.PeakStress = load
		}
		// Count fatigue exposure above half the peak threshold.
		if load > j.PeakThreshold/2 {
			j.CycleCount += dt
		}

		if load > j.PeakThreshold || (j.FatigueCycles > 0 && j.CycleCount > j.FatigueCycles) {
			j.Broken = true
			s.burstParticles(a.Position, 8)
			continue
		}

		// Hold the joint together while intact.
		if dist > 1e-9 {
			dir := sep.Scale(1 / dist)
			f := dir.Scale(j.Stiffness * stretch)
			a.ApplyForce(f)
			b.ApplyForce(f.Scale(-1))
		}
	}
}

func (s *Simulator) burstParticles(at numeric.Vec3, n int) {
	for i := 0; i < n; i++ {
		angle := float64(i) / float64(n) * 2 * math.Pi
		s.particles = append(s.particles, Particle{
			Position: at,
			Velocity: numeric.Vec3{X: math.Cos(angle), Y: 1, Z: math.Sin(angle)},
			Life:     0.5,
		})
	}
}

func (s *Simulator) stepParticles(dt float64) {
	alive := s.particles[:0]
	for _, p := range s.particles {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.Velocity = p.Velocity.Add(s.cfg.Gravity.Scale(dt))
		p.Position = p.Position.Add(p.Velocity.Scale(dt))
		alive = append(alive, p)
	}
	s.particles = alive
}

func (s *Simulator) stepSoftBodies(dt float64) {
	for _, sb := range s.softs {
		for i := range sb.Nodes {
			if sb.Nodes[i].Pinned {
				continue
			}
			f := s.cfg.Gravity.Scale(sb.NodeMass)
			for _, j := range []int{i - 1, i + 1} {
				if j < 0 || j >= len(sb.Nodes) {
					continue
				}
				sep := sb.Nodes[j].Position.Sub(sb.Nodes[i].Position)
				dist := sep.Norm()
				if dist < 1e-9 {
					continue
				}
				dir := sep.Scale(1 / dist)
				stretch := dist - sb.RestLen
				rel := sb.Nodes[j].Velocity.Sub(sb.Nodes[i].Velocity).Dot(dir)
				f = f.Add(dir.Scale(sb.Stiffness*stretch + sb.Damping*rel))
			}
			sb.Nodes[i].Velocity = sb.Nodes[i].Velocity.Add(f.Scale(dt / sb.NodeMass))
		}
		for i := range sb.Nodes {
			if !sb.Nodes[i].Pinned {
				sb.Nodes[i].Position = sb.Nodes[i].Position.Add(sb.Nodes[i].Velocity.Scale(dt))
			}
		}
	}
}

func (s *Simulator) stepBodies(dt float64) {
	accelSum := 0.0
	n := 0
	for _, id := range s.bodyOrder {
		b := s.bodies[id]
		if b.Static || b.Mass <= 0 {
			b.force = numeric.Vec3{}
			b.torque = numeric.Vec3{}
			continue
		}
		accel := b.force.Scale(1 / b.Mass).Add(s.cfg.Gravity)
		b.Velocity = b.Velocity.Add(accel.Scale(dt))
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		b.AngularVelocity = b.AngularVelocity.Add(b.torque.Scale(dt / b.Mass))
		b.Rotation = b.Rotation.Add(b.AngularVelocity.Scale(dt))
		b.force = numeric.Vec3{}
		b.torque = numeric.Vec3{}

		accelSum += accel.Norm()
		n++
	}
	if n > 0 {
		sample := accelSum / float64(n)
		s.vibration = 0.9*s.vibration + 0.1*sample
	}
}

// Step advances the world by dt in the fixed mechanism order: motors,
// gear trains, spring-dampers, breakable joints, particles, soft
// bodies, then body integration, split into configured substeps.
func (s *Simulator) Step(dt float64) {
	sub := dt / float64(s.cfg.Substeps)
	for i := 0; i < s.cfg.Substeps; i++ {
		s.stepMotors(sub)
		s.stepGears()
		s.stepSprings()
		s.stepJoints(sub)
		s.stepParticles(sub)
		s.stepSoftBodies(sub)
		s.stepBodies(sub)
	}
}

func (s *Simulator) Config() Config { return s.cfg }

// Reset drops all bodies and mechanisms.
func (s *Simulator) Reset() {
	s.bodies = make(map[string]*Body)
	s.bodyOrder = nil
	s.motors = make(map[string]*Motor)
	s.motorOrder = nil
	s.gears = make(map[string]*GearTrain)
	s.gearOrder = nil
	s.springs = nil
	s.joints = nil
	s.particles = nil
	s.softs = nil
	s.vibration = 0
}
