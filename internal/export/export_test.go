package export

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/electrical"
	"github.com/san-kum/partsim/internal/engine"
	"github.com/san-kum/partsim/internal/mechanical"
	"github.com/san-kum/partsim/internal/numeric"
)

func sampleData() *ExportData {
	results := []*engine.CoupledResults{
		{
			Timestamp:  0.5,
			Mechanical: &engine.MechanicalSnapshot{MaxStress: 2e6, SafetyFactor: 125},
			Thermal:    &engine.ThermalSnapshot{MaxTemperature: 31.2, StoredEnergy: 800},
			Electrical: &engine.ElectricalSnapshot{TotalPower: 0.48, Efficiency: 1},
			Failure:    &engine.FailureSnapshot{Reliability: 0.97, HealthScores: map[string]float64{"R1": 0.97}},
		},
		{
			Timestamp:  1.0,
			Mechanical: &engine.MechanicalSnapshot{MaxStress: 2.4e6, SafetyFactor: 104},
			Thermal:    &engine.ThermalSnapshot{MaxTemperature: 33.9, StoredEnergy: 815},
			Electrical: &engine.ElectricalSnapshot{TotalPower: 0.48, Efficiency: 1},
			Failure:    &engine.FailureSnapshot{Reliability: 0.95, HealthScores: map[string]float64{"R1": 0.95}},
		},
	}
	return NewExportData("bench_test", 1.0/60, 1.0, results, map[string]float64{"peak_stress": 2.4e6})
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	data := sampleData()

	if err := ExportJSON(path, data); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	loaded, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if loaded.Preset != "bench_test" || loaded.Steps != 2 {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Results[1].MaxStress() != 2.4e6 {
		t.Errorf("max stress = %v", loaded.Results[1].MaxStress())
	}
	if loaded.Results[0].Failure.HealthScores["R1"] != 0.97 {
		t.Error("health scores not preserved")
	}
	if loaded.Metrics["peak_stress"] != 2.4e6 {
		t.Errorf("metrics = %v", loaded.Metrics)
	}
}

// A lightly loaded rig keeps the bar below its fatigue limit, so the
// engine's mechanical snapshots carry unbounded fatigue life and
// safety factor. Those must survive a JSON round trip.
func TestJSONRoundTripEngineResults(t *testing.T) {
	e := engine.New(config.DefaultConfig())
	e.AddElectricalComponent("V1", electrical.VoltageSource, 12, "n1", "0", numeric.Vec3{}, nil)
	e.AddElectricalComponent("R1", electrical.Resistor, 100, "n1", "0", numeric.Vec3{X: 0.1}, nil)
	m := e.Mechanical()
	m.AddNode("a", numeric.Vec3{})
	m.AddNode("b", numeric.Vec3{X: 1})
	m.AddElement("bar", []string{"a", "b"}, "steel", 1e-4)
	m.AddConstraint(mechanical.Constraint{Kind: mechanical.FixedConstraint, Point: numeric.Vec3{}})
	m.AddLoadCase(mechanical.LoadCase{
		Kind: mechanical.ForceLoad, Magnitude: 100,
		Direction: numeric.Vec3{X: 1}, Point: numeric.Vec3{X: 1},
	})

	e.Start()
	for i := 0; i < 70; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
	latest := e.LatestResults()
	if latest == nil || latest.Mechanical == nil {
		t.Fatal("expected a mechanical snapshot past the first second")
	}
	if !math.IsInf(latest.Mechanical.FatigueLife, 1) {
		t.Fatalf("fatigue life = %v, want unbounded for a mild load", latest.Mechanical.FatigueLife)
	}

	var buf bytes.Buffer
	data := NewExportData("bench_test", 1.0/60, 70.0/60, e.Results(), nil)
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var loaded ExportData
	if err := json.Unmarshal(buf.Bytes(), &loaded); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := loaded.Results[len(loaded.Results)-1].Mechanical
	if got == nil {
		t.Fatal("mechanical snapshot lost in round trip")
	}
	if !math.IsInf(got.FatigueLife, 1) {
		t.Errorf("fatigue life = %v after round trip, want +Inf", got.FatigueLife)
	}
	if !math.IsInf(got.SafetyFactor, 1) && got.SafetyFactor < 1 {
		t.Errorf("safety factor = %v after round trip", got.SafetyFactor)
	}
	if got.MaxStress != latest.Mechanical.MaxStress {
		t.Errorf("max stress = %v, want %v", got.MaxStress, latest.Mechanical.MaxStress)
	}
}

func TestCSVColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleData().Results); err != nil {
		t.Fatalf("csv failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,max_stress,max_temperature,total_power,reliability" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0.500000,") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestMATLABScript(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMATLAB(&buf, sampleData()); err != nil {
		t.Fatalf("matlab failed: %v", err)
	}
	script := buf.String()

	for _, want := range []string{"t = [", "max_stress = [", "reliability = [", "plot(t, reliability);"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	if !strings.Contains(script, "0.5; 1") {
		t.Errorf("time vector not emitted:\n%s", script)
	}
}

func TestSeriesToSVG(t *testing.T) {
	svg := StressToSVG(sampleData().Results, 400, 200)
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "<path") {
		t.Error("expected an svg path element")
	}
	if SeriesToSVG([]float64{1}, []float64{2}, 100, 100, "#fff") != "" {
		t.Error("single point cannot form a polyline")
	}
}
