package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/partsim/internal/engine"
)

func sampleResults() []*engine.CoupledResults {
	return []*engine.CoupledResults{
		{
			Timestamp:  0.0167,
			Mechanical: &engine.MechanicalSnapshot{MaxStress: 1e6},
			Thermal:    &engine.ThermalSnapshot{MaxTemperature: 25.5},
			Electrical: &engine.ElectricalSnapshot{TotalPower: 0.48},
			Failure:    &engine.FailureSnapshot{Reliability: 0.99},
		},
		{
			Timestamp:  0.0333,
			Mechanical: &engine.MechanicalSnapshot{MaxStress: 1.2e6},
			Thermal:    &engine.ThermalSnapshot{MaxTemperature: 26.1},
			Electrical: &engine.ElectricalSnapshot{TotalPower: 0.48},
			Failure:    &engine.FailureSnapshot{Reliability: 0.98},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	metrics := map[string]float64{"peak_stress": 1.2e6}
	runID, err := st.Save("bench_test", 1.0/60, 1.0, 42, metrics, sampleResults())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "bench_test" {
		t.Errorf("preset = %q", meta.Preset)
	}
	if meta.Seed != 42 {
		t.Errorf("seed = %d", meta.Seed)
	}
	if meta.Steps != 2 {
		t.Errorf("steps = %d", meta.Steps)
	}
	if meta.Metrics["peak_stress"] != 1.2e6 {
		t.Errorf("metrics = %v", meta.Metrics)
	}

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(times) != 2 || len(series) != 2 {
		t.Fatalf("expected 2 rows, got %d/%d", len(times), len(series))
	}
	// Columns: max_stress, max_temperature, total_power, reliability.
	if len(series[0]) != 4 {
		t.Errorf("expected 4 columns, got %d", len(series[0]))
	}
	if series[1][0] != 1.2e6 {
		t.Errorf("max stress = %v", series[1][0])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save("bench_test", 1.0/60, 1.0, 42, nil, sampleResults()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("bench_test", 1.0/60, 1.0, 42, nil, sampleResults())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "results.csv")); os.IsNotExist(err) {
		t.Error("results.csv not created")
	}
}
