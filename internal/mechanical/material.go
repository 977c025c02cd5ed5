package mechanical

// Material carries the linear-elastic and fatigue properties used by
// the stress solver. Values are representative handbook numbers.
type Material struct {
	Name             string
	Density          float64 // kg/m^3
	ElasticModulus   float64 // Pa
	PoissonRatio     float64
	YieldStrength    float64 // Pa
	UltimateStrength float64 // Pa
	FatigueLimit     float64 // Pa
}

var materials = map[string]Material{
	"steel": {
		Name:             "steel",
		Density:          7850,
		ElasticModulus:   200e9,
		PoissonRatio:     0.30,
		YieldStrength:    250e6,
		UltimateStrength: 400e6,
		FatigueLimit:     180e6,
	},
	"aluminum": {
		Name:             "aluminum",
		Density:          2700,
		ElasticModulus:   69e9,
		PoissonRatio:     0.33,
		YieldStrength:    95e6,
		UltimateStrength: 110e6,
		FatigueLimit:     35e6,
	},
	"copper": {
		Name:             "copper",
		Density:          8960,
		ElasticModulus:   117e9,
		PoissonRatio:     0.34,
		YieldStrength:    70e6,
		UltimateStrength: 220e6,
		FatigueLimit:     60e6,
	},
	"plastic": {
		Name:             "plastic",
		Density:          1200,
		ElasticModulus:   2.5e9,
		PoissonRatio:     0.40,
		YieldStrength:    50e6,
		UltimateStrength: 60e6,
		FatigueLimit:     20e6,
	},
}

// MaterialByName returns the named material, falling back to steel for
// unknown keys so a bad key degrades instead of failing the solve.
func MaterialByName(name string) Material {
	if m, ok := materials[name]; ok {
		return m
	}
	return materials["steel"]
}

func MaterialNames() []string {
	return []string{"steel", "aluminum", "copper", "plastic"}
}
