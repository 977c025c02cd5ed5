package metrics

import (
	"testing"

	"github.com/san-kum/partsim/internal/engine"
)

func snap(stress, temp, power, reliability, energy float64) *engine.CoupledResults {
	return &engine.CoupledResults{
		Mechanical: &engine.MechanicalSnapshot{MaxStress: stress},
		Thermal:    &engine.ThermalSnapshot{MaxTemperature: temp, StoredEnergy: energy},
		Electrical: &engine.ElectricalSnapshot{TotalPower: power},
		Failure:    &engine.FailureSnapshot{Reliability: reliability},
	}
}

func TestPeakStress(t *testing.T) {
	m := NewPeakStress()
	m.Observe(snap(1e6, 25, 0, 1, 0))
	m.Observe(snap(3e6, 25, 0, 1, 0))
	m.Observe(snap(2e6, 25, 0, 1, 0))
	if m.Value() != 3e6 {
		t.Errorf("peak = %v, want 3e6", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should zero the peak")
	}
}

func TestPeakTemperatureTracksFirstSample(t *testing.T) {
	m := NewPeakTemperature()
	m.Observe(snap(0, -10, 0, 1, 0))
	if m.Value() != -10 {
		t.Errorf("first sample should set the peak, got %v", m.Value())
	}
	m.Observe(snap(0, -20, 0, 1, 0))
	if m.Value() != -10 {
		t.Error("colder sample must not lower the peak")
	}
}

func TestMeanPower(t *testing.T) {
	m := NewMeanPower()
	if m.Value() != 0 {
		t.Error("no samples means zero")
	}
	m.Observe(snap(0, 25, 1, 1, 0))
	m.Observe(snap(0, 25, 3, 1, 0))
	if m.Value() != 2 {
		t.Errorf("mean = %v, want 2", m.Value())
	}
}

func TestThermalDrift(t *testing.T) {
	m := NewThermalDrift()
	m.Observe(snap(0, 25, 0, 1, 1000))
	m.Observe(snap(0, 25, 0, 1, 1100))
	m.Observe(snap(0, 25, 0, 1, 1050))
	if got := m.Value(); got < 0.0999 || got > 0.1001 {
		t.Errorf("drift = %v, want 0.1", got)
	}
}

func TestCollectorDefaults(t *testing.T) {
	c := NewCollector()
	c.Observe(snap(2e6, 80, 5, 0.9, 500))
	vals := c.Values()

	for _, name := range []string{"peak_stress", "peak_temperature", "mean_power", "reliability", "thermal_drift"} {
		if _, ok := vals[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if vals["peak_stress"] != 2e6 || vals["reliability"] != 0.9 {
		t.Errorf("unexpected values: %v", vals)
	}

	c.Reset()
	if c.Values()["reliability"] != 1 {
		t.Error("reliability resets to 1")
	}
}
