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

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/balancer/internal/analysis"
	"github.com/san-kum/balancer/internal/automation"
	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/control"
	"github.com/san-kum/balancer/internal/experiment"
	"github.com/san-kum/balancer/internal/host"
	"github.com/san-kum/balancer/internal/optim"
	"github.com/san-kum/balancer/internal/plotting"
	"github.com/san-kum/balancer/internal/storage"
	"github.com/san-kum/balancer/internal/viz"
)

var (
	dataDir string
	verbose bool
	logger  *zap.Logger

	// Config file and preset
	configFile string
	preset     string

	dt          float64
	duration    float64
	theta       float64
	omega       float64
	pos         float64
	vel         float64
	seed        int64
	integrator  string
	policy      string
	gain        float64
	bound       float64
	targetAngle float64
	targetPos   float64
	deadband    float64
	unit        string
	convention  string
	offset      float64
	dropEvery   int
	sets        []string

	discrete  bool
	channel   string
	chartOut  string
	jsonOut   string
	frameRate int

	gridParams []string
	metric     string
	maximize   bool
	workers    int
	top        int

	trials       int
	angleSpread  float64
	omegaSpread  float64
	minStability float64
	noSave       bool
)

// defaultPresets is used for a plant named without --preset or --config.
var defaultPresets = map[string]string{
	"platform": "bangbang",
	"cartpole": "balance",
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "balancer",
		Short:        "inverted pendulum control loop",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".balancer", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run a balancing experiment and store it",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
	addConfigFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&channel, "channel", "", "plot one channel (pos, vel, angle, omega, command)")
	plotCmd.Flags().StringVar(&chartOut, "out", "", "write a chart to this file instead (.png, .svg, .pdf)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [plant]",
		Short: "list available presets for a plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for plant: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				cfg := config.GetPreset(args[0], p)
				fmt.Printf("  %-10s %s, %s %s\n", p, cfg.Policy.Kind, cfg.Calibration.Convention, cfg.Calibration.Unit)
			}
			return nil
		},
	}

	evalCmd := &cobra.Command{
		Use:   "eval [--] pos vel angle omega",
		Short: "evaluate the controller on one observation",
		Long: "Evaluates the configured controller once. Angles are engine radians.\n" +
			"Put -- before the observation when it holds negative numbers.",
		Args: cobra.MinimumNArgs(1),
		RunE: evalObservation,
	}
	addConfigFlags(evalCmd)
	evalCmd.Flags().BoolVar(&discrete, "discrete", false, "print the discrete action (1 = push right)")

	pipeCmd := &cobra.Command{
		Use:   "pipe",
		Short: "serve the controller over stdin/stdout, one observation per line",
		RunE:  pipeObservations,
	}
	addConfigFlags(pipeCmd)
	pipeCmd.Flags().BoolVar(&discrete, "discrete", false, "answer with discrete actions (1 = push right)")

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run an experiment with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	tuneCmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "grid search controller or plant parameters",
		Example: "  balancer tune platform --grid gain=10,50,100 --grid bound=100:1000:300 --metric stability\n" +
			"  balancer tune cartpole --grid bound=5:50:5 --metric control_effort",
		Args: cobra.ExactArgs(1),
		RunE: tuneParams,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridParams, "grid", nil, "name=range, range is start:stop:step or a,b,c (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "stability", "metric to optimize")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize the metric (default: stability is maximized, others minimized)")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel experiments (default GOMAXPROCS)")
	tuneCmd.Flags().IntVar(&top, "top", 10, "rows to print")

	compareCmd := &cobra.Command{
		Use:   "compare [plant] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same experiment",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	addConfigFlags(compareCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and settling analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&channel, "channel", "angle", "channel to analyze")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "pendulum phase portrait (angle vs angular velocity)",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a YAML scenario and store the runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the step runs")

	robustCmd := &cobra.Command{
		Use:   "robust [plant]",
		Short: "Monte Carlo robustness over perturbed starting angles",
		Args:  cobra.ExactArgs(1),
		RunE:  runRobust,
	}
	addConfigFlags(robustCmd)
	robustCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	robustCmd.Flags().Float64Var(&angleSpread, "angle-spread", 0.1, "starting angle perturbation (rad)")
	robustCmd.Flags().Float64Var(&omegaSpread, "omega-spread", 0.1, "starting angular velocity perturbation (rad/s)")
	robustCmd.Flags().Float64Var(&minStability, "min-stability", 0.95, "stability a trial needs to count as held")
	robustCmd.Flags().IntVar(&workers, "workers", 0, "parallel trials (default GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, evalCmd, pipeCmd, liveCmd, tuneCmd, compareCmd, analyzeCmd, phaseCmd, batchCmd, robustCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.Float64Var(&theta, "theta", config.DefaultTheta, "initial pendulum angle (rad, 0 = upright)")
	f.Float64Var(&omega, "omega", 0.0, "initial angular velocity")
	f.Float64Var(&pos, "pos", 0.0, "initial actuator position")
	f.Float64Var(&vel, "vel", 0.0, "initial actuator velocity")
	f.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	f.StringVar(&integrator, "integrator", "rk4", "integrator")
	f.StringVar(&policy, "policy", "bangbang", "policy: "+strings.Join(control.Kinds(), ", "))
	f.Float64Var(&gain, "gain", config.DefaultGain, "policy gain")
	f.Float64Var(&bound, "bound", config.DefaultBound, "actuator bound")
	f.Float64Var(&targetAngle, "target-angle", config.DefaultBand, "target angle or bang-bang band")
	f.Float64Var(&targetPos, "target-pos", 0.0, "target actuator position")
	f.Float64Var(&deadband, "deadband", control.DefaultDeadband, "zoned policy deadband")
	f.StringVar(&unit, "unit", "deg", "angle unit the policy sees (rad, deg)")
	f.StringVar(&convention, "convention", "upright", "angle convention (upright, hanging)")
	f.Float64Var(&offset, "offset", 0.0, "calibration offset (overrides the convention)")
	f.IntVar(&dropEvery, "drop-every", 0, "drop a reading channel every N ticks")
	f.StringArrayVar(&sets, "set", nil, "name=value, any tunable or plant parameter (repeatable)")
}

// buildConfig resolves preset, then config file, then explicitly set flags.
func buildConfig(cmd *cobra.Command, plant string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if plant != "" {
		cfg.Plant = plant
	}

	switch {
	case preset != "":
		p := config.GetPreset(cfg.Plant, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Plant))
		}
		cfg = p
	case plant != "" && configFile == "":
		if name, ok := defaultPresets[plant]; ok {
			cfg = config.GetPreset(plant, name)
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if plant != "" {
			cfg.Plant = plant
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("theta") {
		cfg.InitState.Theta = theta
	}
	if flags.Changed("omega") {
		cfg.InitState.Omega = omega
	}
	if flags.Changed("pos") {
		cfg.InitState.Pos = pos
	}
	if flags.Changed("vel") {
		cfg.InitState.Vel = vel
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("policy") {
		cfg.Policy.Kind = policy
	}
	if flags.Changed("gain") {
		cfg.Policy.Gain = gain
	}
	if flags.Changed("bound") {
		cfg.Policy.Bound = bound
	}
	if flags.Changed("target-angle") {
		cfg.Policy.TargetAngle = targetAngle
	}
	if flags.Changed("target-pos") {
		cfg.Policy.TargetPosition = targetPos
	}
	if flags.Changed("deadband") {
		cfg.Policy.Deadband = deadband
	}
	if flags.Changed("unit") {
		cfg.Calibration.Unit = unit
	}
	if flags.Changed("convention") {
		cfg.Calibration.Convention = convention
		cfg.Calibration.Offset = nil
		cfg.Calibration.Wrap = nil
	}
	if flags.Changed("offset") {
		v := offset
		cfg.Calibration.Offset = &v
	}
	if flags.Changed("drop-every") {
		cfg.Engine.DropEvery = dropEvery
	}
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", s)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s with %s policy...\n", cfg.Plant, cfg.Policy.Kind)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.NewMetadata(cfg), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (skipped %d, saturated %d)\n", result.Ticks, result.Skipped, result.Saturated)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	if runErr != nil {
		return fmt.Errorf("run stopped early: %w", runErr)
	}
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
	fmt.Fprintln(w, "ID\tPLANT\tPOLICY\tTIME\tDURATION\tDT\tTICKS\tSKIPPED\tSTABILITY")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%.3f\n",
			run.ID,
			run.Plant,
			run.Policy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Ticks,
			run.Skipped,
			run.Metrics["stability"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	ticks, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}
	if len(ticks) == 0 {
		return fmt.Errorf("no data to plot")
	}

	channels := plotting.Channels
	if channel != "" {
		c, ok := plotting.ChannelByName(channel)
		if !ok {
			return fmt.Errorf("unknown channel: %s", channel)
		}
		channels = []plotting.Channel{c}
	}

	if chartOut != "" {
		if err := plotting.SaveRun(chartOut, meta, ticks, channels...); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", chartOut)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s, policy: %s\n", meta.Plant, meta.Policy)
	fmt.Printf("samples: %d\n\n", len(ticks))

	for _, c := range channels {
		graph, err := plotting.ASCII(ticks, c, 80, 10)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if jsonOut != "" {
		return st.ExportJSONFile(jsonOut, args[0])
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	ticks, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}

	c, ok := plotting.ChannelByName(channel)
	if !ok {
		return fmt.Errorf("unknown channel: %s", channel)
	}
	_, data := plotting.Series(ticks, c)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("plant: %s, policy: %s\n\n", meta.Plant, meta.Policy)

	freqs, power, err := analysis.Spectrum(data, meta.Dt)
	if err != nil {
		return err
	}
	shown := power[:max(2, len(power)/4)]
	graph := asciigraph.Plot(shown,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s), 0 to %.1f hz", c.Name, freqs[len(shown)-1])),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	if peak, err := analysis.PeakFrequency(data, meta.Dt); err == nil {
		fmt.Printf("welch peak: %.3f hz\n", peak)
	}

	sum, err := analysis.Oscillation(data, 0.5)
	if err != nil {
		return err
	}
	fmt.Printf("settled amplitude: %.4f (mean %.4f, std %.4f, %d zero crossings)\n",
		sum.Amplitude, sum.Mean, sum.StdDev, sum.ZeroCrossings)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	ticks, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}

	portrait := analysis.NewPhasePortrait(ticks)
	if len(portrait.Points) == 0 {
		return fmt.Errorf("no data to plot")
	}
	minX, maxX, minY, maxY := portrait.Bounds()

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x: angle [%.3f, %.3f], y: omega [%.3f, %.3f] (%s)\n\n", minX, maxX, minY, maxY, meta.Unit)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	fmt.Printf("\nLegend: . = early, o = middle, • = late\n")
	return nil
}

func evalObservation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}
	ctrl, err := cfg.Controller()
	if err != nil {
		return err
	}

	out, err := evalArgs(ctrl, args, discrete)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// evalArgs runs one observation given as separate arguments. The shape is
// left to the controller so a wrong count reports ErrInvalidObservationShape.
func evalArgs(c host.Commander, args []string, discrete bool) (string, error) {
	raw, err := host.ParseObservation(strings.Join(args, ","))
	if err != nil {
		return "", err
	}
	out, err := c.Command(raw)
	if err != nil {
		return "", err
	}
	return host.Format(out, discrete), nil
}

func pipeObservations(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}
	ctrl, err := cfg.Controller()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := host.Serve(ctx, os.Stdin, os.Stdout, ctrl, discrete, logger)
	logger.Info("pipe closed", zap.Int("lines", stats.Lines), zap.Int("errors", stats.Errors))
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	return viz.Run(cfg, experiment.NewRegistry(), frameRate, logger)
}

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return fmt.Errorf("no --grid parameters given")
	}

	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	for _, g := range gridParams {
		name, rng, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("--grid %q: want name=range", g)
		}
		r, err := optim.ParseRange(rng)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, r)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	gs.WithWorkers(workers)

	ctx, cancel := signalContext()
	defer cancel()

	quiet := logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	obj := optim.NewObjective(metric)
	if cmd.Flags().Changed("maximize") {
		obj.Maximize = maximize
	}

	fmt.Printf("tuning %s (%d points, %s %s)...\n", cfg.Plant, len(gs.Points()), direction(obj.Maximize), metric)
	start := time.Now()
	best, evals, err := gs.Search(ctx, optim.ConfigBuilder(cfg, experiment.NewRegistry(), quiet), obj)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	ok := make([]optim.Point, 0, len(evals))
	failed := 0
	for _, p := range evals {
		if p.Err != nil {
			failed++
			logger.Debug("grid point failed", zap.Any("params", p.Params), zap.Error(p.Err))
			continue
		}
		ok = append(ok, p)
	}
	sort.SliceStable(ok, func(i, j int) bool {
		if obj.Maximize {
			return ok[i].Score > ok[j].Score
		}
		return ok[i].Score < ok[j].Score
	})
	if len(ok) > top {
		ok = ok[:top]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metric))
	for _, p := range ok {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", p.Params[n])
		}
		fmt.Fprintf(w, "%.6f\n", p.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest: ")
	for _, n := range names {
		fmt.Printf("%s=%g ", n, best.Params[n])
	}
	fmt.Printf("(%s %.6f)\n", metric, best.Score)
	if failed > 0 {
		fmt.Printf("%d points failed\n", failed)
	}
	return nil
}

func direction(maximize bool) string {
	if maximize {
		return "maximizing"
	}
	return "minimizing"
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", base.Plant, base.Dt, base.Duration)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s\n", "integrator", "final_angle", "stability", "time_ms")
	fmt.Println(strings.Repeat("-", 54))

	reg := experiment.NewRegistry()
	for _, name := range args[1:] {
		cfg := base.Clone()
		cfg.Integrator = name

		exp := experiment.New(cfg, logger)
		exp.SetRecording(false)
		if err := exp.Setup(reg); err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-12s  %-12.6f  %-12.4f  %-12.2f\n",
			name, exp.World().State()[2], result.Metrics["stability"], float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tTICKS\tSATURATED\tSTABILITY")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\n", r.Name, id, r.Result.Ticks, r.Result.Saturated, r.Result.Metrics["stability"])
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runRobust(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:         cfg,
		Trials:       trials,
		AngleSpread:  angleSpread,
		OmegaSpread:  omegaSpread,
		MinStability: minStability,
		Workers:      workers,
	}

	ctx, cancel := signalContext()
	defer cancel()

	quiet := logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	fmt.Printf("robustness of %s/%s over %d trials...\n", cfg.Plant, cfg.Policy.Kind, trials)
	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry(), quiet)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	worst := results[0]
	for _, r := range results {
		if r.Err != nil {
			logger.Debug("trial failed", zap.Int("trial", r.TrialID), zap.Error(r.Err))
		}
		if r.Stability < worst.Stability {
			worst = r
		}
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("held: %d/%d (%.1f%%)\n", stable, len(results), 100*float64(stable)/float64(len(results)))
	fmt.Printf("fell: %d\n", unstable)
	fmt.Printf("worst: trial %d, theta=%.4f omega=%.4f, stability %.4f\n", worst.TrialID, worst.Theta, worst.Omega, worst.Stability)
	return nil
}
