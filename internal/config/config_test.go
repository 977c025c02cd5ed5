package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Physics.TimeStep <= 0 {
		t.Error("default time step must be positive")
	}
	if !cfg.Electrical.Enabled || !cfg.Thermal.Enabled || !cfg.Mechanical.Enabled || !cfg.Failure.Enabled {
		t.Error("all domains enabled by default")
	}
	if cfg.Thermal.AmbientTemperature != DefaultAmbient {
		t.Errorf("ambient = %v", cfg.Thermal.AmbientTemperature)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partsim.yaml")

	cfg := DefaultConfig()
	cfg.Thermal.AmbientTemperature = 35
	cfg.Failure.AccelerationFactor = 50
	cfg.Physics.Gravity = [3]float64{0, -1.62, 0}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Thermal.AmbientTemperature != 35 {
		t.Errorf("ambient = %v, want 35", loaded.Thermal.AmbientTemperature)
	}
	if loaded.Failure.AccelerationFactor != 50 {
		t.Errorf("acceleration = %v, want 50", loaded.Failure.AccelerationFactor)
	}
	if loaded.Physics.Gravity[1] != -1.62 {
		t.Errorf("gravity = %v", loaded.Physics.Gravity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/partsim.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPresets(t *testing.T) {
	for _, name := range []string{"bench_test", "overvoltage_test", "thermal_cycling", "accelerated_aging"} {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("missing preset %s", name)
		}
		if cfg.Physics.TimeStep <= 0 {
			t.Errorf("preset %s has invalid time step", name)
		}
	}
	if GetPreset("nope") != nil {
		t.Error("unknown preset should be nil")
	}
	if len(ListPresets()) != len(Presets) {
		t.Error("ListPresets incomplete")
	}
}

func TestPresetCopyIsIndependent(t *testing.T) {
	first := GetPreset("bench_test")
	first.Seed = 12345
	first.Thermal.AmbientTemperature = 99

	second := GetPreset("bench_test")
	if second.Seed == 12345 {
		t.Error("seed edit leaked into the preset table")
	}
	if second.Thermal.AmbientTemperature == 99 {
		t.Error("ambient edit leaked into the preset table")
	}
}

func TestAcceleratedAgingPreset(t *testing.T) {
	cfg := GetPreset("accelerated_aging")
	if cfg.Failure.AccelerationFactor <= 1 {
		t.Error("accelerated aging should raise the acceleration factor")
	}
	if cfg.Failure.MaintenanceEnabled {
		t.Error("accelerated aging runs without maintenance")
	}
}
