package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/partsim/internal/analysis"
	"github.com/san-kum/partsim/internal/automation"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/optim"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	dt         float64
	duration   float64
	speed      float64
	seed       int64
	configFile string
	preset     string
	overrides  []string
	jsonOut    string
	save       bool
	recordDir  string
	numRuns    int
	parallel   int
	grid       []string
	svgOut     string
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	metric     string

	logger   *slog.Logger
	registry = experiment.NewRegistry()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "partsim",
		Short: "particle simulation engine: cloth and colliding spheres",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := tea.NewProgram(viz.NewApp(registry, logger), tea.WithAltScreen()).Run()
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a simulation headless",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "write frames as JSON to file (- for stdout)")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write the final scene as SVG to file")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&recordDir, "record", "", "write energy series to this directory")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scene]",
		Short: "run several seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addSceneFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")
	ensembleCmd.Flags().IntVar(&parallel, "parallel", 0, "maximum concurrent runs (0 = GOMAXPROCS)")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search scene parameters against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addSceneFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values to try, name=v1,v2,...")
	tuneCmd.Flags().StringVar(&metric, "metric", "energy_drift", "metric to minimise")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep one scene parameter over a linear range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter name")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	_ = sweepCmd.MarkFlagRequired("param")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations from yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&save, "save", true, "store steps marked save under the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and population of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the energy series as SVG to file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run's energy",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print stored run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets per scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tPRESET\tDT\tDURATION")
			for _, scene := range registry.ListScenes() {
				for _, name := range config.ListPresets(scene) {
					p := config.GetPreset(scene, name)
					fmt.Fprintf(w, "%s\t%s\t%g\t%g\n", scene, name, p.Dt, p.Duration)
				}
			}
			return w.Flush()
		},
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list available scenes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range registry.ListScenes() {
				fmt.Println(s)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, tuneCmd, sweepCmd, scenarioCmd, listCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd, scenesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "simulation speed multiplier")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "set a scene parameter, name=value")
}

// resolveConfig layers defaults, config file, preset and flags in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Scene = args[0]
	}
	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for scene %q (have %s)",
				preset, cfg.Scene, strings.Join(config.ListPresets(cfg.Scene), ", "))
		}
		cfg = p
	} else if configFile == "" && cfg.Scene == "cloth" {
		cfg.Dt = config.DefaultClothDt
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, cfg.Validate()
}

// applyOverrides sets every --set name=value on the scene.
func applyOverrides(scene dynamo.Scene) error {
	if len(overrides) == 0 {
		return nil
	}
	c, ok := scene.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("scene %s has no tunable parameters", scene.Name())
	}
	for _, kv := range overrides {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("--set %s: %w", name, err)
		}
		if err := c.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, registry, logger)
	if err := exp.Setup(); err != nil {
		return err
	}
	if err := applyOverrides(exp.Scene()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	printResult(result)

	if jsonOut != "" {
		if err := writeFile(jsonOut, func(w io.Writer) error {
			return storage.ExportJSON(w, cfg.Dt, cfg.Duration, result)
		}); err != nil {
			return err
		}
	}

	if svgOut != "" {
		if err := writeFile(svgOut, func(w io.Writer) error {
			return export.SceneSVG(w, exp.Scene(), 4)
		}); err != nil {
			return err
		}
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", id)
	}
	return nil
}

func printResult(r *sim.Result) {
	final := r.Final()
	fmt.Printf("scene: %s\n", r.Scene)
	fmt.Printf("steps: %d\n", r.StepsTaken)
	fmt.Printf("time: %.3fs\n", final.Time)
	fmt.Printf("particles: %d\n", len(final.Positions))
	if r.Halted() {
		fmt.Printf("halted at: %.3fs\n", r.HaltedAt)
	}
	fmt.Printf("energy drift: %.4g\n", r.EnergyDrift)

	names := make([]string, 0, len(r.Metrics))
	for k := range r.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("%s: %.6g\n", k, r.Metrics[k])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	scene, err := registry.Build(cfg, logger)
	if err != nil {
		return err
	}
	if err := applyOverrides(scene); err != nil {
		return err
	}

	var observers []dynamo.Observer
	if recordDir != "" {
		rec, err := storage.NewRecorder(recordDir, cfg.RecordEvery)
		if err != nil {
			return err
		}
		defer rec.Close()
		observers = append(observers, rec)
	}

	m := viz.NewModel(scene, cfg.Dt, logger, observers...)
	m.SetSpeed(cfg.Speed)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := experiment.New(cfg, registry, logger).Ensemble(ctx, numRuns, parallel)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tPARTICLES\tHALTED\tDRIFT")
	for _, r := range results {
		halted := "-"
		if r.Halted() {
			halted = fmt.Sprintf("%.3fs", r.HaltedAt)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%.4g\n", r.Seed, r.StepsTaken, len(r.Final().Positions), halted, r.EnergyDrift)
	}
	return w.Flush()
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("at least one --grid is required")
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("--grid %q: want name=v1,v2,...", spec)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	objective := optim.ExperimentObjective(cfg, registry, logger, metric)
	best, val, trials, err := optim.NewGridSearch(names, ranges).Search(ctx, objective)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.Join(names, "\t"), strings.ToUpper(metric))
	for _, t := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(t.Params[n], 'g', -1, 64)
		}
		result := fmt.Sprintf("%.6g", t.Value)
		if t.Err != nil {
			result = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest %s = %.6g at %v\n", metric, val, best)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.ParameterSweep{
		Config:    cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(ctx, sweep, registry, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMIN E\tMAX E\tPARTICLES\tHALTED\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		halted := "-"
		if r.HaltedAt >= 0 {
			halted = fmt.Sprintf("%.3fs", r.HaltedAt)
		}
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%d\t%s\n", r.ParamValue, r.MinEnergy, r.MaxEnergy, r.Particles, halted)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	var store *storage.Store
	if save {
		store = storage.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, registry, store, logger)
	for i, r := range results {
		fmt.Printf("step %d: %s, %d steps, %d particles, drift %.4g\n",
			i+1, r.Scene, r.StepsTaken, len(r.Final().Positions), r.EnergyDrift)
	}
	return err
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
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tSTEPS\tHALTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%v\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Halted,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(series))

	energy := make([]float64, len(series))
	count := make([]float64, len(series))
	for i, s := range series {
		energy[i] = s.Energy
		count[i] = float64(s.Count)
	}
	fmt.Println(asciigraph.Plot(energy, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("energy")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(count, asciigraph.Height(6), asciigraph.Width(80), asciigraph.Caption("particles")))

	if svgOut != "" {
		times := make([]float64, len(series))
		for i, s := range series {
			times[i] = s.Time
		}
		return writeFile(svgOut, func(w io.Writer) error {
			return export.SeriesSVG(w, times, energy, 800, 300, string(viz.CurrentTheme.Accent))
		})
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series) < 2 {
		return fmt.Errorf("no data")
	}

	energy := make([]float64, len(series))
	for i, s := range series {
		energy[i] = s.Energy
	}
	sampleDt := series[1].Time - series[0].Time

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	ps := analysis.PowerSpectrum(energy)
	fmt.Println(asciigraph.Plot(ps[:max(2, len(ps)/4)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (energy)"),
	))
	fmt.Println()

	freq, _, err := analysis.DominantFrequency(energy, sampleDt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

// writeFile creates path and hands it to write, or stdout for "-".
func writeFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
