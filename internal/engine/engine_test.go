package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/electrical"
	"github.com/san-kum/partsim/internal/failure"
	"github.com/san-kum/partsim/internal/mechanical"
	"github.com/san-kum/partsim/internal/numeric"
)

// benchRig wires a 12 V divider plus a rigid chassis, enough to drive
// every domain through the coupled loop.
func benchRig(t *testing.T) *Engine {
	t.Helper()
	e := New(config.DefaultConfig())
	e.AddElectricalComponent("V1", electrical.VoltageSource, 12, "n1", "0", numeric.Vec3{}, nil)
	e.AddElectricalComponent("R1", electrical.Resistor, 100, "n1", "n2", numeric.Vec3{X: 0.1},
		map[string]float64{"rated_voltage": 12})
	e.AddElectricalComponent("R2", electrical.Resistor, 200, "n2", "0", numeric.Vec3{X: 0.2}, nil)
	e.AddPhysicsComponent("chassis", numeric.Vec3{Y: 1}, numeric.Vec3{},
		map[string]float64{"mass": 2}, nil)
	return e
}

func TestStepRequiresRunning(t *testing.T) {
	e := benchRig(t)
	assert.ErrorIs(t, e.Step(), ErrNotRunning)

	e.Start()
	require.NoError(t, e.Step())

	e.Pause()
	assert.ErrorIs(t, e.Step(), ErrNotRunning)
	e.Resume()
	require.NoError(t, e.Step())

	e.Stop()
	assert.ErrorIs(t, e.Step(), ErrNotRunning)
}

func TestEmptyEngineStepIsNoop(t *testing.T) {
	e := New(config.DefaultConfig())
	e.Start()
	require.NoError(t, e.Step())
	assert.Nil(t, e.LatestResults())
	assert.Equal(t, 0, e.State().StepCount)
}

func TestCoupledPipelineProducesSnapshots(t *testing.T) {
	e := benchRig(t)
	e.Start()
	for i := 0; i < 120; i++ {
		require.NoError(t, e.Step())
	}

	res := e.LatestResults()
	require.NotNil(t, res)
	require.NotNil(t, res.Electrical)
	require.NotNil(t, res.Thermal)
	require.NotNil(t, res.Physics)
	require.NotNil(t, res.Failure)

	// Divider: 12 V across 300 ohm dissipates 0.48 W.
	assert.InDelta(t, 0.48, res.Electrical.TotalPower, 1e-9)
	assert.InDelta(t, 0.48, res.ElectroThermal, 1e-9)

	// Dissipated power must heat the resistors above ambient.
	assert.Greater(t, res.Thermal.MaxTemperature, e.Config().Thermal.AmbientTemperature)

	st := e.State()
	assert.Equal(t, 120, st.StepCount)
	assert.InDelta(t, 2.0, st.SimulatedTime, 1e-9)
	assert.Contains(t, st.Timings, "electrical")
	assert.Contains(t, st.Timings, "thermal")
}

func TestMechanicalRunsOnSecondBoundaries(t *testing.T) {
	e := benchRig(t)
	m := e.Mechanical()
	m.AddNode("a", numeric.Vec3{})
	m.AddNode("b", numeric.Vec3{X: 1})
	m.AddElement("bar", []string{"a", "b"}, "steel", 1e-4)
	m.AddConstraint(mechanical.Constraint{ID: "fix", Kind: mechanical.FixedConstraint, Point: numeric.Vec3{}})
	m.AddLoadCase(mechanical.LoadCase{
		ID: "pull", Kind: mechanical.ForceLoad,
		Magnitude: 1000, Direction: numeric.Vec3{X: 1}, Point: numeric.Vec3{X: 1},
	})

	e.Start()
	// The watermark check runs before the step advances time, so the
	// first solve lands on the step that starts at t = 1 s.
	for i := 0; i < 60; i++ {
		require.NoError(t, e.Step())
	}
	assert.Nil(t, e.LatestResults().Mechanical, "no solve before the first whole second")

	require.NoError(t, e.Step())
	require.NotNil(t, e.LatestResults().Mechanical)
	assert.Greater(t, e.LatestResults().Mechanical.MaxStress, 0.0)
}

func TestHistoryEvictsOldest(t *testing.T) {
	e := benchRig(t)
	e.Start()
	for i := 0; i < HistoryCapacity+50; i++ {
		require.NoError(t, e.Step())
	}
	all := e.Results()
	require.Len(t, all, HistoryCapacity)
	// The surviving window is the newest HistoryCapacity snapshots.
	dt := e.Config().Physics.TimeStep
	assert.InDelta(t, 51*dt, all[0].Timestamp, 1e-9)
	assert.InDelta(t, float64(HistoryCapacity+50)*dt, all[len(all)-1].Timestamp, 1e-9)
}

func TestReliabilityNeverExceedsWorstComponent(t *testing.T) {
	e := benchRig(t)
	e.Failure().SetStressFactor("R1", failure.FactorTemperature, 120)
	e.Start()
	for i := 0; i < 600; i++ {
		require.NoError(t, e.Step())
	}
	res := e.LatestResults()
	require.NotNil(t, res.Failure)
	worst := 1.0
	for _, h := range res.Failure.HealthScores {
		if h < worst {
			worst = h
		}
	}
	assert.LessOrEqual(t, res.Failure.Reliability, worst+1e-12)
}

func TestOvervoltageScenarioDamagesTarget(t *testing.T) {
	e := benchRig(t)
	e.Start()

	before, ok := e.Failure().Component("R1")
	require.True(t, ok)
	h0 := before.Score

	require.NoError(t, e.RunScenario("overvoltage_test", ScenarioParams{
		ComponentID: "R1", Voltage: 18, Duration: 5,
	}))
	// 18 V on a 12 V rated part exceeds the 1.2x damage threshold.
	after, _ := e.Failure().Component("R1")
	assert.Less(t, after.Score, h0)

	// Untouched sibling keeps full health until the loop degrades it.
	r2, _ := e.Failure().Component("R2")
	assert.Equal(t, 1.0, r2.Score)
}

func TestScenarioExpires(t *testing.T) {
	e := benchRig(t)
	e.Start()
	require.NoError(t, e.RunScenario("vibration_test", ScenarioParams{
		ComponentID: "chassis", Amplitude: 3, Duration: 0.05,
	}))
	assert.Len(t, e.ActiveScenarios(), 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, e.Step())
	}
	assert.Empty(t, e.ActiveScenarios())
}

func TestAcceleratedAgingCalibration(t *testing.T) {
	e := benchRig(t)
	e.Start()

	// Factor 36000 over one simulated second accrues 10 service hours,
	// which costs 0.001 health per hour of wear.
	require.NoError(t, e.RunScenario("accelerated_aging", ScenarioParams{
		ComponentID: "R1", Factor: 36000, Duration: 2,
	}))
	for i := 0; i < 60; i++ {
		require.NoError(t, e.Step())
	}

	h, ok := e.Failure().Component("R1")
	require.True(t, ok)
	assert.InDelta(t, 0.99, h.Score, 1e-3)
}

func TestUnknownScenario(t *testing.T) {
	e := benchRig(t)
	assert.ErrorIs(t, e.RunScenario("meteor_strike", ScenarioParams{}), ErrUnknownScenario)
}

func TestResetDropsRegistrations(t *testing.T) {
	e := benchRig(t)
	e.Start()
	for i := 0; i < 10; i++ {
		require.NoError(t, e.Step())
	}
	require.NotNil(t, e.LatestResults())

	e.Reset()
	assert.Equal(t, Stopped, e.State().State)
	assert.Nil(t, e.LatestResults())
	_, ok := e.Failure().Component("R1")
	assert.False(t, ok, "reset reconstructs simulators, dropping parts")

	// Components must be re-registered before the next run.
	e.Start()
	require.NoError(t, e.Step())
	assert.Nil(t, e.LatestResults())
}

func TestRunHonorsContext(t *testing.T) {
	e := benchRig(t)
	e.Start()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Run(ctx, 10), context.Canceled)
}

func TestRunAdvancesSimulatedTime(t *testing.T) {
	e := benchRig(t)
	e.Start()
	require.NoError(t, e.Run(context.Background(), 0.5))
	assert.GreaterOrEqual(t, e.State().SimulatedTime, 0.5)
}
