package config

// Presets are named starting configurations for common test setups.
var Presets = map[string]*Config{
	"bench_test": DefaultConfig(),
	"overvoltage_test": {
		Physics:    PhysicsConfig{Enabled: true, Gravity: [3]float64{0, -9.81, 0}, TimeStep: DefaultTimeStep, Substeps: 1},
		Electrical: ElectricalConfig{Enabled: true, SolverTolerance: DefaultSolverTolerance, MaxIterations: DefaultMaxIterations},
		Thermal:    ThermalConfig{Enabled: true, AmbientTemperature: DefaultAmbient, ConvectionEnabled: true},
		Mechanical: MechanicalConfig{Enabled: false, AnalysisType: "static", MeshDensity: 1},
		Failure:    FailureConfig{Enabled: true, AccelerationFactor: 10, MaintenanceEnabled: false},
		Seed:       1,
	},
	"thermal_cycling": {
		Physics:    PhysicsConfig{Enabled: false, TimeStep: DefaultTimeStep, Substeps: 1},
		Electrical: ElectricalConfig{Enabled: true, SolverTolerance: DefaultSolverTolerance, MaxIterations: DefaultMaxIterations},
		Thermal:    ThermalConfig{Enabled: true, AmbientTemperature: DefaultAmbient, ConvectionEnabled: true, RadiationEnabled: true},
		Mechanical: MechanicalConfig{Enabled: true, AnalysisType: "static", MeshDensity: 1},
		Failure:    FailureConfig{Enabled: true, AccelerationFactor: 5, MaintenanceEnabled: true},
		Seed:       1,
	},
	"accelerated_aging": {
		Physics:    PhysicsConfig{Enabled: true, Gravity: [3]float64{0, -9.81, 0}, TimeStep: DefaultTimeStep, Substeps: 1},
		Electrical: ElectricalConfig{Enabled: true, SolverTolerance: DefaultSolverTolerance, MaxIterations: DefaultMaxIterations},
		Thermal:    ThermalConfig{Enabled: true, AmbientTemperature: 45, ConvectionEnabled: true},
		Mechanical: MechanicalConfig{Enabled: true, AnalysisType: "static", MeshDensity: 1},
		Failure:    FailureConfig{Enabled: true, AccelerationFactor: 100, MaintenanceEnabled: false},
		Seed:       1,
	},
}

// GetPreset returns a copy of the named preset, so callers can adjust
// it (seed, durations) without mutating the shared table. Nil for an
// unknown name.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
