package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeStep        = 1.0 / 60
	DefaultSubsteps        = 1
	DefaultAmbient         = 20.0
	DefaultSolverTolerance = 1e-9
	DefaultMaxIterations   = 100
	DefaultMeshDensity     = 1.0
	DefaultAcceleration    = 1.0
)

// Config is the full engine configuration: one enabled flag plus
// domain parameters per simulator.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Electrical ElectricalConfig `yaml:"electrical"`
	Thermal    ThermalConfig    `yaml:"thermal"`
	Mechanical MechanicalConfig `yaml:"mechanical"`
	Failure    FailureConfig    `yaml:"failure"`
	Seed       int64            `yaml:"seed"`
}

type PhysicsConfig struct {
	Enabled  bool       `yaml:"enabled"`
	Gravity  [3]float64 `yaml:"gravity"`
	TimeStep float64    `yaml:"time_step"`
	Substeps int        `yaml:"substeps"`
}

type ElectricalConfig struct {
	Enabled bool `yaml:"enabled"`
	// Frequency, tolerance and max iterations describe an iterative AC
	// solver surface; the shipped solver is direct DC, so only the
	// tolerance participates today.
	Frequency       float64 `yaml:"frequency"`
	SolverTolerance float64 `yaml:"solver_tolerance"`
	MaxIterations   int     `yaml:"max_iterations"`
}

type ThermalConfig struct {
	Enabled            bool    `yaml:"enabled"`
	AmbientTemperature float64 `yaml:"ambient_temperature"`
	ConvectionEnabled  bool    `yaml:"convection_enabled"`
	RadiationEnabled   bool    `yaml:"radiation_enabled"`
}

type MechanicalConfig struct {
	Enabled      bool    `yaml:"enabled"`
	AnalysisType string  `yaml:"analysis_type"`
	MeshDensity  float64 `yaml:"mesh_density"`
}

type FailureConfig struct {
	Enabled            bool    `yaml:"enabled"`
	AccelerationFactor float64 `yaml:"acceleration_factor"`
	MaintenanceEnabled bool    `yaml:"maintenance_enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Physics: PhysicsConfig{
			Enabled:  true,
			Gravity:  [3]float64{0, -9.81, 0},
			TimeStep: DefaultTimeStep,
			Substeps: DefaultSubsteps,
		},
		Electrical: ElectricalConfig{
			Enabled:         true,
			SolverTolerance: DefaultSolverTolerance,
			MaxIterations:   DefaultMaxIterations,
		},
		Thermal: ThermalConfig{
			Enabled:            true,
			AmbientTemperature: DefaultAmbient,
			ConvectionEnabled:  true,
			RadiationEnabled:   false,
		},
		Mechanical: MechanicalConfig{
			Enabled:      true,
			AnalysisType: "static",
			MeshDensity:  DefaultMeshDensity,
		},
		Failure: FailureConfig{
			Enabled:            true,
			AccelerationFactor: DefaultAcceleration,
			MaintenanceEnabled: true,
		},
		Seed: 1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
