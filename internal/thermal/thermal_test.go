package thermal

import (
	"math"
	"testing"

	"github.com/san-kum/partsim/internal/numeric"
)

func closedSystem() *Simulator {
	cfg := DefaultConfig()
	cfg.ConvectionEnabled = false
	s := NewSimulator(cfg)
	s.SetAmbientLoss(0)
	return s
}

func TestConductionEquilibrates(t *testing.T) {
	s := closedSystem()
	hot := s.AddNode("hot", numeric.Vec3{}, 1, 500)
	cold := s.AddNode("cold", numeric.Vec3{X: 1}, 1, 500)
	hot.Temperature = 100
	cold.Temperature = 0
	s.AddConnection("c1", "hot", "cold", 10, Conduction)

	for i := 0; i < 10000; i++ {
		s.Step(0.1)
	}

	if math.Abs(hot.Temperature-50) > 0.5 {
		t.Errorf("hot = %v, want ~50", hot.Temperature)
	}
	if math.Abs(cold.Temperature-50) > 0.5 {
		t.Errorf("cold = %v, want ~50", cold.Temperature)
	}
	if hot.Temperature < cold.Temperature {
		t.Error("heat flowed the wrong way")
	}
}

// A closed system with no sources and no ambient losses must conserve
// stored energy across steps.
func TestEnergyConservation(t *testing.T) {
	s := closedSystem()
	a := s.AddNode("a", numeric.Vec3{}, 2, 400)
	b := s.AddNode("b", numeric.Vec3{X: 1}, 1, 900)
	c := s.AddNode("c", numeric.Vec3{X: 2}, 0.5, 500)
	a.Temperature = 120
	b.Temperature = 30
	c.Temperature = -10
	s.AddConnection("ab", "a", "b", 5, Conduction)
	s.AddConnection("bc", "b", "c", 3, Conduction)

	before := s.StoredEnergy()
	for i := 0; i < 500; i++ {
		s.Step(0.05)
	}
	after := s.StoredEnergy()

	if math.Abs(after-before) > 1e-6*math.Abs(before) {
		t.Errorf("energy drifted: before %v, after %v", before, after)
	}
}

func TestHeatSourceWarmsNearestNode(t *testing.T) {
	s := closedSystem()
	near := s.AddNode("near", numeric.Vec3{}, 1, 500)
	far := s.AddNode("far", numeric.Vec3{X: 5}, 1, 500)
	s.AddHeatSource("h1", numeric.Vec3{}, 50, PointSource)

	start := near.Temperature
	for i := 0; i < 100; i++ {
		s.Step(0.1)
	}

	if near.Temperature <= start {
		t.Error("near node did not warm up")
	}
	if far.Temperature-start > (near.Temperature-start)/10 {
		t.Errorf("falloff too weak: near +%v, far +%v", near.Temperature-start, far.Temperature-start)
	}
}

func TestConvectionPullsTowardAmbient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbientTemperature = 20
	s := NewSimulator(cfg)
	n := s.AddNode("n", numeric.Vec3{}, 1, 500)
	n.Temperature = 100

	for i := 0; i < 50000; i++ {
		s.Step(0.1)
	}
	if math.Abs(n.Temperature-20) > 1 {
		t.Errorf("temperature = %v, want ~ambient 20", n.Temperature)
	}
}

func TestThermalStressSign(t *testing.T) {
	s := closedSystem()
	n := s.AddNode("n", numeric.Vec3{}, 1, 500)
	n.Temperature = 120
	s.Step(0.01)

	stress := s.Stress()["n"]
	if stress <= 0 {
		t.Errorf("stress = %v, want positive for heated node", stress)
	}
	// E*alpha*dT with steel constants.
	want := 200e9 * 12e-6 * (n.Temperature - 20)
	if math.Abs(stress-want) > 1e-3*want {
		t.Errorf("stress = %v, want %v", stress, want)
	}
}

func TestRadiationDisabledByDefault(t *testing.T) {
	s := closedSystem()
	a := s.AddNode("a", numeric.Vec3{}, 1, 500)
	b := s.AddNode("b", numeric.Vec3{X: 1}, 1, 500)
	a.Temperature = 500
	b.Temperature = 0
	s.AddConnection("r", "a", "b", 1e-10, Radiation)

	before := a.Temperature
	s.Step(0.1)
	if a.Temperature != before {
		t.Error("radiation flux applied while disabled")
	}
}

func TestConvectionConnectionToAmbient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbientTemperature = 20
	s := NewSimulator(cfg)
	s.SetAmbientLoss(0)
	n := s.AddNode("n", numeric.Vec3{}, 1, 500)
	n.Temperature = 100
	// Convection needs no destination node.
	s.AddConnection("air", "n", "", 2, Convection)

	for i := 0; i < 20000; i++ {
		s.Step(0.1)
	}
	if math.Abs(n.Temperature-20) > 1 {
		t.Errorf("temperature = %v, want ~ambient 20", n.Temperature)
	}
}

func TestMissingNodeConnectionSkipped(t *testing.T) {
	s := closedSystem()
	a := s.AddNode("a", numeric.Vec3{}, 1, 500)
	a.Temperature = 80
	s.AddConnection("ghost", "a", "nope", 10, Conduction)

	s.Step(0.1)
	if a.Temperature != 80 {
		t.Errorf("connection to unknown node changed temperature: %v", a.Temperature)
	}
}

func TestZeroMassNodeSkipped(t *testing.T) {
	s := closedSystem()
	n := s.AddNode("n", numeric.Vec3{}, 0, 0)
	s.AddHeatSource("h", numeric.Vec3{}, 100, PointSource)
	s.Step(0.1)
	if n.Temperature != s.Config().AmbientTemperature {
		t.Errorf("zero-mass node integrated: %v", n.Temperature)
	}
}
