package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/acetylkin/internal/automation"
	"github.com/san-kum/acetylkin/internal/config"
	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/experiment"
	"github.com/san-kum/acetylkin/internal/export"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/sim"
	"github.com/san-kum/acetylkin/internal/storage"
	"github.com/san-kum/acetylkin/internal/tui"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	labelsFile string
	areasFile  string
	matrixFile string
	carrier    string
	cells      string
	method     string
	uncorr     bool
	points     int
	integrator string
	rtol       float64
	atol       float64
	duration   float64
	paramFlags map[string]string
	fixFlags   []string

	showReport bool
	showTable  bool
	tableOut   string
	chartOut   string
	save       bool

	live      bool
	frameRate int

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	refit      bool

	trials int
	noise  float64
	seed   int64

	benchRuns int
	outPath   string
)

// main registers the acetylkin commands. With no subcommand it opens the
// interactive model explorer.
func main() {
	rootCmd := &cobra.Command{
		Use:           "acetylkin",
		Short:         "acetylation kinetics fitting lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			logrus.SetOutput(os.Stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".acetylkin", "run storage directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warning", "log level (debug, info, warning, error)")

	fitCmd := &cobra.Command{
		Use:   "fit [model]",
		Short: "fit a kinetic model to measured data",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFit,
	}
	addModelFlags(fitCmd)
	addDataFlags(fitCmd)
	fitCmd.Flags().BoolVar(&showReport, "report", true, "print the fit report")
	fitCmd.Flags().BoolVar(&showTable, "table", false, "print the fitted trajectory as CSV")
	fitCmd.Flags().StringVar(&tableOut, "out", "", "write the fitted trajectory CSV to a file")
	fitCmd.Flags().StringVar(&chartOut, "chart", "", "render measured vs fitted to a .png or .svg file")
	fitCmd.Flags().BoolVar(&save, "save", false, "store the run")

	simCmd := &cobra.Command{
		Use:     "simulate [model]",
		Aliases: []string{"run"},
		Short:   "simulate a model with fixed rate constants",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSimulate,
	}
	addModelFlags(simCmd)
	simCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	simCmd.Flags().BoolVar(&live, "live", false, "replay the trajectory in the terminal")
	simCmd.Flags().IntVar(&frameRate, "fps", 30, "live replay frame rate")
	simCmd.Flags().BoolVar(&save, "save", false, "store the run")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list kinetic models",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list parameter presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
				set := config.GetPreset(args[0], p)
				for _, name := range set.Names() {
					par := set[name]
					fixed := ""
					if par.Fixed {
						fixed = " (fixed)"
					}
					fmt.Printf("    %-6s %g%s\n", name, par.Value, fixed)
				}
			}
			return nil
		},
	}

	conditionsCmd := &cobra.Command{
		Use:   "conditions",
		Short: "list carrier/cells conditions found in the tables",
		RunE:  listConditions,
	}
	addDataFlags(conditionsCmd)

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "print the aligned measurement matrix for one condition",
		RunE:  selectData,
	}
	addDataFlags(selectCmd)
	selectCmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "fit every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "profile the fit cost over one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	addDataFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "sweep", "", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "sweep end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	sweepCmd.Flags().BoolVar(&refit, "refit", false, "re-optimise the other parameters at each value")
	sweepCmd.MarkFlagRequired("sweep")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "refit noisy copies of the data to estimate parameter spread",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addModelFlags(mcCmd)
	addDataFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of refits")
	mcCmd.Flags().Float64Var(&noise, "noise", 0.01, "gaussian noise standard deviation")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addModelFlags(compareCmd)
	compareCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark model simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 100, "number of simulations")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive model explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.AddCommand(fitCmd, simCmd, modelsCmd, presetsCmd, conditionsCmd, selectCmd,
		scenarioCmd, sweepCmd, mcCmd, compareCmd, benchCmd, tuiCmd)
	rootCmd.AddCommand(runCommands()...)
	rootCmd.AddCommand(analysisCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a parameter preset")
	cmd.Flags().StringVar(&method, "method", "", "optimizer method")
	cmd.Flags().BoolVar(&uncorr, "uncorr", false, "fit only the peptide columns")
	cmd.Flags().IntVar(&points, "points", 0, "re-simulation grid size")
	cmd.Flags().StringVar(&integrator, "integrator", "", "ODE method (RK45, RK4, Euler)")
	cmd.Flags().Float64Var(&rtol, "rtol", 0, "solver relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", 0, "solver absolute tolerance")
	cmd.Flags().StringToStringVar(&paramFlags, "param", nil, "parameter values, e.g. k0=1.5,k_de=0.1")
	cmd.Flags().StringSliceVar(&fixFlags, "fix", nil, "parameters to hold fixed")
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&labelsFile, "labels", "", "Acetyl-CoA label table (csv)")
	cmd.Flags().StringVar(&areasFile, "areas", "", "peptide area table (csv)")
	cmd.Flags().StringVar(&matrixFile, "matrix", "", "pre-aligned matrix (csv)")
	cmd.Flags().StringVar(&carrier, "carrier", "", "carrier condition")
	cmd.Flags().StringVar(&cells, "cells", "", "cell condition")
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildConfig layers config file, preset and flags. Flags only override
// when given explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 && args[0] != cfg.Model {
		cfg.Model = args[0]
		cfg.Params = nil
	}
	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg.Params = p
	}

	if changed(cmd, "labels") {
		cfg.Data.Labels = labelsFile
	}
	if changed(cmd, "areas") {
		cfg.Data.Areas = areasFile
	}
	if changed(cmd, "matrix") {
		cfg.Data.Matrix = matrixFile
	}
	if changed(cmd, "carrier") {
		cfg.Carrier = carrier
	}
	if changed(cmd, "cells") {
		cfg.Cells = cells
	}
	if changed(cmd, "method") {
		cfg.Method = method
	}
	if changed(cmd, "uncorr") {
		cfg.Uncorr = uncorr
	}
	if changed(cmd, "points") {
		cfg.Points = points
	}
	if changed(cmd, "integrator") {
		cfg.Solver.Method = integrator
	}
	if changed(cmd, "rtol") {
		cfg.Solver.RTol = rtol
	}
	if changed(cmd, "atol") {
		cfg.Solver.ATol = atol
	}
	if changed(cmd, "time") {
		cfg.Sim.Duration = duration
	}

	if len(paramFlags) > 0 || len(fixFlags) > 0 {
		p, err := cfg.ResolveParams()
		if err != nil {
			return nil, err
		}
		if err := applyParamFlags(p, paramFlags, fixFlags); err != nil {
			return nil, err
		}
		cfg.Params = p
	}
	return cfg, nil
}

func applyParamFlags(p params.Set, values map[string]string, fix []string) error {
	for name, raw := range values {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		par, ok := p.Get(name)
		if !ok {
			p.Add(params.New(name, v))
			continue
		}
		par.Value, par.Init = par.Clip(v), par.Clip(v)
		p[name] = par
	}
	for _, name := range fix {
		par, ok := p.Get(name)
		if !ok {
			return fmt.Errorf("cannot fix unknown parameter %s", name)
		}
		par.Fixed = true
		p[name] = par
	}
	return nil
}

func newExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, experiment.NewRegistry())
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runFit(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(os.Stderr, "fitting %s (%s/%s) with %s...\n", cfg.Model, cfg.Carrier, cfg.Cells, cfg.Method)
	start := time.Now()
	out, err := exp.Fit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "completed in %v (%d evaluations)\n", time.Since(start).Round(time.Millisecond), out.Stats.NFev)

	if showReport {
		fmt.Println(out.Report())
	}
	if showTable {
		if err := measure.WriteCSV(os.Stdout, out.Table()); err != nil {
			return err
		}
	}
	if tableOut != "" {
		if err := writeTable(tableOut, out.Table()); err != nil {
			return err
		}
	}
	if chartOut != "" {
		graph, err := export.FitChart(fmt.Sprintf("%s %s", out.Model, out.Condition), out.Measured, out.Table())
		if err != nil {
			return err
		}
		if err := export.WriteChart(chartOut, graph); err != nil {
			return err
		}
	}
	if out.Trajectory.Status != dynamo.StatusSuccess {
		logrus.WithField("model", out.Model).Warnf("re-simulation stopped early: %s", out.Trajectory.Message)
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.SaveFit(out, cfg.Solver)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run id: %s\n", runID)
	}
	return nil
}

func writeTable(path string, m *measure.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := measure.WriteCSV(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s simulation...\n", cfg.Model)
	start := time.Now()

	var result *sim.Result
	if live {
		renderer := tui.NewLiveRenderer(os.Stdout, cfg.Model, exp.Model().StateNames(), frameRate)
		renderer.Start()
		result, err = exp.Simulate(ctx, renderer)
		renderer.Stop()
	} else {
		result, err = exp.Simulate(ctx)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	traj := result.Trajectory
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("samples: %d  steps: %d  rejected: %d  nfev: %d\n", traj.Len(), traj.Steps, traj.Rejected, traj.NFev)

	final := traj.States[traj.Len()-1]
	fmt.Println("\nfinal state:")
	for i, name := range result.StateNames {
		fmt.Printf("  %-14s %.6g\n", name, final[i])
	}
	printMetrics(result.Metrics)

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		p, err := cfg.ResolveParams()
		if err != nil {
			return err
		}
		runID, err := st.SaveSimulation(result, p, cfg.SimConfig())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tSTATES\tPARAMS")
	for _, name := range kinetics.Presets() {
		m, err := registry.GetModel(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(m.StateNames(), ","), strings.Join(m.ParamNames(), ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nintegrators: %s\n", strings.Join(integrators.Methods(), ", "))
	fmt.Printf("methods: %s\n", strings.Join(registry.ListMethods(), ", "))
	return nil
}

func loadTables() ([]measure.LabelRow, []measure.AreaRow, error) {
	var labels []measure.LabelRow
	var areas []measure.AreaRow
	var err error
	if labelsFile != "" {
		if labels, err = measure.LoadLabelCSV(labelsFile); err != nil {
			return nil, nil, err
		}
	}
	if areasFile != "" {
		if areas, err = measure.LoadAreaCSV(areasFile); err != nil {
			return nil, nil, err
		}
	}
	if labels == nil && areas == nil {
		return nil, nil, fmt.Errorf("need --labels and/or --areas")
	}
	return labels, areas, nil
}

func listConditions(cmd *cobra.Command, args []string) error {
	labels, areas, err := loadTables()
	if err != nil {
		return err
	}
	for _, c := range measure.Conditions(labels, areas) {
		fmt.Println(c)
	}
	return nil
}

func selectData(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, nil)
	m, err := exp.Measured()
	if err != nil {
		return err
	}
	if outPath != "" {
		return writeTable(outPath, m)
	}
	return measure.WriteCSV(os.Stdout, m)
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tCONDITION\tREDCHI\tAIC\tRUN")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%d\t-\t-\terror: %v\t\t\n", r.Step, r.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4g\t%.4g\t%s\n",
			r.Step, r.Outcome.Model, r.Outcome.Condition, r.Outcome.Stats.RedChi, r.Outcome.Stats.AIC, r.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

func fitInputs(cmd *cobra.Command, args []string) (*experiment.Experiment, *measure.Matrix, error) {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	measured, err := exp.Measured()
	if err != nil {
		return nil, nil, err
	}
	return exp, measured, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	exp, measured, err := fitInputs(cmd, args)
	if err != nil {
		return err
	}
	req, err := exp.Request()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, req, measured, automation.ParameterSweep{
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Refit:     refit,
	})
	if err != nil {
		return err
	}

	best := automation.BestSweep(results)
	costs := make([]float64, 0, len(results))
	fmt.Printf("%-12s  %-14s\n", sweepParam, "chi-square")
	for i, r := range results {
		mark := ""
		if i == best {
			mark = "  <- best"
		}
		if r.Err != nil {
			fmt.Printf("%-12.6g  error: %v\n", r.ParamValue, r.Err)
			continue
		}
		costs = append(costs, r.ChiSqr)
		fmt.Printf("%-12.6g  %-14.6g%s\n", r.ParamValue, r.ChiSqr, mark)
	}

	if len(costs) > 1 {
		profile := &measure.Matrix{Columns: []string{"chisqr"}}
		profile.Times, profile.Data = sweepSeries(results)
		plot, err := export.ASCII(profile, "chi-square vs "+sweepParam, 10, 60)
		if err == nil {
			fmt.Println()
			fmt.Println(plot)
		}
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	exp, measured, err := fitInputs(cmd, args)
	if err != nil {
		return err
	}
	req, err := exp.Request()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, req, measured, automation.MonteCarloConfig{
		NumTrials: trials,
		Noise:     noise,
		Seed:      seed,
	})
	if err != nil {
		return err
	}

	summary, err := automation.MonteCarloStats(results, req.Params.FreeNames())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tMEAN\tSTDDEV\tN")
	for _, s := range summary {
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%d\n", s.Name, s.Mean, s.StdDev, s.N)
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, err := buildConfig(cmd, args[:1])
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (duration=%.1f)\n\n", model, cfg.Sim.Duration)
	fmt.Printf("%-10s  %-14s  %-12s  %-8s  %-10s\n", "integrator", "pool_drift", "nfev", "steps", "time_ms")

	for _, name := range args[1:] {
		run := *cfg
		run.Solver.Method = name
		exp := experiment.New(&run, nil)
		if err := exp.Setup(); err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Simulate(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}
		fmt.Printf("%-10s  %14.3e  %-12d  %-8d  %10.2f\n",
			name, result.Metrics["pool_drift"], result.Trajectory.NFev, result.Trajectory.Steps,
			float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func benchModel(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Model = args[0]
	exp := experiment.New(cfg, nil)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("benchmarking %s\n\n", cfg.Model)
	var total time.Duration
	nfev := 0
	for i := 0; i < benchRuns; i++ {
		start := time.Now()
		result, err := exp.Simulate(context.Background())
		total += time.Since(start)
		if err != nil {
			return err
		}
		nfev += result.Trajectory.NFev
	}

	per := total / time.Duration(benchRuns)
	fmt.Printf("runs: %d\n", benchRuns)
	fmt.Printf("total: %v\n", total)
	fmt.Printf("per run: %v\n", per)
	fmt.Printf("evaluations per run: %d\n", nfev/benchRuns)
	return nil
}
