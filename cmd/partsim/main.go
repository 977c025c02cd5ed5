package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/partsim/internal/analysis"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/electrical"
	"github.com/san-kum/partsim/internal/engine"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/mechanical"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/numeric"
	"github.com/san-kum/partsim/internal/physics"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/thermal"
	"github.com/san-kum/partsim/internal/tui"
)

var (
	dataDir    string
	duration   float64
	configFile string
	preset     string
	seed       int64
	frameRate  int
	// scenario parameters
	componentID string
	voltage     float64
	amplitude   float64
	period      float64
	scenarioDur float64
	// plot/export options
	series  string
	format  string
	outPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "partsim",
		Short: "coupled multi-physics simulation for salvaged parts",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := setupEngine(cmd)
			if err != nil {
				return err
			}
			return tui.Run(eng, duration)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")
	rootCmd.PersistentFlags().Float64Var(&duration, "time", 10.0, "simulated duration in seconds")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the bench simulation headless and store results",
		RunE:  runSimulation,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [name]",
		Short: "run a test scenario against the bench",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&componentID, "component", "", "target component id (default: all)")
	scenarioCmd.Flags().Float64Var(&voltage, "voltage", 18, "applied voltage (overvoltage_test)")
	scenarioCmd.Flags().Float64Var(&amplitude, "amplitude", 0, "scenario amplitude")
	scenarioCmd.Flags().Float64Var(&period, "period", 10, "cycle period (thermal_cycling)")
	scenarioCmd.Flags().Float64Var(&scenarioDur, "scenario-time", 5, "scenario duration in seconds")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the plain ANSI live view",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run series in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "reliability", "series: max_stress|max_temperature|total_power|reliability")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "format: json|csv|matlab|svg")
	exportCmd.Flags().StringVar(&outPath, "out", "", "output path (default: <run_id>.<ext>)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&series, "series", "max_temperature", "series: max_stress|max_temperature|total_power|reliability")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, scenarioCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	return cfg, nil
}

func setupEngine(cmd *cobra.Command) (*engine.Engine, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(cfg)
	buildBenchRig(eng)
	return eng, cfg, nil
}

// buildBenchRig assembles the demo workbench: a 12 V supply driving a
// small board, a motor with a gear reduction, and a bracket holding it
// all together.
func buildBenchRig(eng *engine.Engine) {
	// Board: supply -> current limiter -> load, with a smoothing cap
	// and a filter choke.
	eng.AddElectricalComponent("V1", electrical.VoltageSource, 12, "n1", "0",
		numeric.Vec3{}, map[string]float64{"mass": 0.2})
	eng.AddElectricalComponent("R1", electrical.Resistor, 100, "n1", "n2",
		numeric.Vec3{X: 0.05}, map[string]float64{"rated_voltage": 12, "mass": 0.01})
	eng.AddElectricalComponent("L1", electrical.Inductor, 1e-3, "n2", "n3",
		numeric.Vec3{X: 0.10}, map[string]float64{"mass": 0.03})
	eng.AddElectricalComponent("R2", electrical.Resistor, 200, "n3", "0",
		numeric.Vec3{X: 0.15}, map[string]float64{"rated_voltage": 12, "mass": 0.01})
	eng.AddElectricalComponent("C1", electrical.Capacitor, 100e-6, "n3", "0",
		numeric.Vec3{X: 0.15, Y: 0.02}, map[string]float64{"rated_voltage": 16, "mass": 0.005})
	eng.AddElectricalComponent("D1", electrical.Semiconductor, 50, "n2", "0",
		numeric.Vec3{X: 0.10, Y: 0.02}, map[string]float64{"rated_voltage": 5, "mass": 0.002})

	// Heat flows from the hot parts into the bracket, which convects
	// to ambient.
	th := eng.Thermal()
	th.AddConnection("r1-bracket", "R1", "bracket", 0.5, thermal.Conduction)
	th.AddConnection("r2-bracket", "R2", "bracket", 0.5, thermal.Conduction)
	th.AddConnection("bracket-air", "bracket", "", 1.2, thermal.Convection)

	// Salvaged drive: motor through a 3:1 reduction.
	eng.AddPhysicsComponent("motor", numeric.Vec3{X: 0.3}, numeric.Vec3{},
		map[string]float64{"mass": 0.8}, map[string]float64{"radius": 0.02})
	eng.AddPhysicsComponent("bracket", numeric.Vec3{X: 0.2, Y: -0.05}, numeric.Vec3{},
		map[string]float64{"mass": 1.5}, nil)

	ph := eng.Physics()
	ph.AddMotor(&physics.Motor{
		ID: "m1", TargetSpeed: 50,
		Curve: []physics.CurvePoint{{Speed: 0, Torque: 0.5}, {Speed: 100, Torque: 0.1}},
	})
	ph.AddGearTrain(&physics.GearTrain{
		ID: "g1", MotorID: "m1",
		Stages: []physics.GearStage{{DrivingTeeth: 12, DrivenTeeth: 36}},
	})
	ph.AddSpringDamper(&physics.SpringDamper{
		ID: "sd1", BodyA: "motor", BodyB: "bracket",
		RestLength: 0.12, Stiffness: 400, Damping: 8,
	})

	// Bracket bar model: fixed at the wall, loaded by the motor weight.
	m := eng.Mechanical()
	m.AddNode("wall", numeric.Vec3{})
	m.AddNode("mid", numeric.Vec3{X: 0.15})
	m.AddNode("tip", numeric.Vec3{X: 0.3})
	m.AddElement("arm1", []string{"wall", "mid"}, "steel", 5e-5)
	m.AddElement("arm2", []string{"mid", "tip"}, "steel", 5e-5)
	m.AddConstraint(mechanical.Constraint{ID: "anchor", Kind: mechanical.FixedConstraint, Point: numeric.Vec3{}})
	m.AddLoadCase(mechanical.LoadCase{
		ID: "motor-weight", Kind: mechanical.ForceLoad,
		Magnitude: 0.8 * 9.81, Direction: numeric.Vec3{Y: -1}, Point: numeric.Vec3{X: 0.3},
	})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	eng, cfg, err := setupEngine(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	collector := metrics.NewCollector()

	fmt.Printf("running bench simulation for %.1fs...\n", duration)
	start := time.Now()

	eng.Start()
	steps := int(duration / cfg.Physics.TimeStep)
	for i := 0; i < steps; i++ {
		if err := eng.Step(); err != nil {
			return err
		}
		if r := eng.LatestResults(); r != nil {
			collector.Observe(r)
		}
	}
	eng.Stop()
	elapsed := time.Since(start)

	values := collector.Values()
	runID, err := st.Save(presetName(), cfg.Physics.TimeStep, duration, cfg.Seed, values, eng.Results())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", eng.State().StepCount)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, values[name])
	}
	return nil
}

func presetName() string {
	if preset != "" {
		return preset
	}
	return "bench"
}

func runScenario(cmd *cobra.Command, args []string) error {
	eng, _, err := setupEngine(cmd)
	if err != nil {
		return err
	}

	eng.Start()
	params := engine.ScenarioParams{
		ComponentID: componentID,
		Voltage:     voltage,
		Amplitude:   amplitude,
		Period:      period,
		Duration:    scenarioDur,
	}
	if err := eng.RunScenario(args[0], params); err != nil {
		return fmt.Errorf("%w (available: %v)", err, engine.ScenarioNames())
	}

	fmt.Printf("running scenario %s for %.1fs...\n", args[0], duration)
	if err := eng.Run(context.Background(), duration); err != nil {
		return err
	}
	eng.Stop()

	r := eng.LatestResults()
	if r == nil {
		return fmt.Errorf("no results produced")
	}
	fmt.Printf("final reliability: %.4f\n", r.Reliability())
	if r.Failure != nil {
		ids := make([]string, 0, len(r.Failure.HealthScores))
		for id := range r.Failure.HealthScores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("  %-10s health %.3f\n", id, r.Failure.HealthScores[id])
		}
		fmt.Printf("failure events: %d\n", r.Failure.EventCount)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	eng, cfg, err := setupEngine(cmd)
	if err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(frameRate)
	renderer.Start()
	defer renderer.Stop()

	eng.Start()
	steps := int(duration / cfg.Physics.TimeStep)
	frame := time.Second / time.Duration(60)
	for i := 0; i < steps; i++ {
		if err := eng.Step(); err != nil {
			return err
		}
		renderer.OnStep(eng.LatestResults(), eng.State().SimulatedTime)
		time.Sleep(frame)
	}
	eng.Stop()
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

var seriesColumn = map[string]int{
	"max_stress":      0,
	"max_temperature": 1,
	"total_power":     2,
	"reliability":     3,
}

func plotRun(cmd *cobra.Command, args []string) error {
	col, ok := seriesColumn[series]
	if !ok {
		return fmt.Errorf("unknown series: %s", series)
	}

	st := storage.New(dataDir)
	_, rows, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("run %s has no data to plot", args[0])
	}

	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if col < len(row) {
			values = append(values, row[col])
		}
	}

	fmt.Println(asciigraph.Plot(values,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s (%s)", series, args[0])),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	col, ok := seriesColumn[series]
	if !ok {
		return fmt.Errorf("unknown series: %s", series)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, rows, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if col < len(row) {
			values = append(values, row[col])
		}
	}
	if len(values) < 2 {
		return fmt.Errorf("run %s has too little data to analyze", args[0])
	}

	freq, mag := analysis.DominantFrequency(values, meta.Dt)
	fmt.Printf("series: %s (%d samples at dt=%.4fs)\n", series, len(values), meta.Dt)
	if mag <= 1e-12 {
		fmt.Println("no periodic content found")
		return nil
	}
	fmt.Printf("dominant frequency: %.3f Hz (period %.2fs)\n", freq, 1/freq)

	_, power := analysis.Spectrum(values, meta.Dt)
	fmt.Println(asciigraph.Plot(power,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, rows, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	// Rebuild snapshot summaries from the stored series.
	results := make([]*engine.CoupledResults, len(times))
	for i := range times {
		r := &engine.CoupledResults{Timestamp: times[i]}
		if len(rows[i]) >= 4 {
			r.Mechanical = &engine.MechanicalSnapshot{MaxStress: rows[i][0]}
			r.Thermal = &engine.ThermalSnapshot{MaxTemperature: rows[i][1]}
			r.Electrical = &engine.ElectricalSnapshot{TotalPower: rows[i][2]}
			r.Failure = &engine.FailureSnapshot{Reliability: rows[i][3]}
		}
		results[i] = r
	}
	data := export.NewExportData(meta.Preset, meta.Dt, meta.Duration, results, meta.Metrics)

	path := outPath
	switch format {
	case "json":
		if path == "" {
			path = runID + ".json"
		}
		err = export.ExportJSON(path, data)
	case "csv":
		if path == "" {
			path = runID + ".csv"
		}
		err = export.ExportCSV(path, results)
	case "matlab":
		if path == "" {
			path = runID + ".m"
		}
		err = export.ExportMATLAB(path, data)
	case "svg":
		if path == "" {
			path = runID + ".svg"
		}
		err = os.WriteFile(path, []byte(export.StressToSVG(results, 800, 400)), 0644)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}
