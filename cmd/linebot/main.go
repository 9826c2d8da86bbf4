package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/experiment"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/optim"
	"github.com/san-kum/linebot/internal/storage"
	"github.com/san-kum/linebot/internal/track"
	"github.com/san-kum/linebot/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	kp         float64
	ki         float64
	kd         float64
	verbose    bool
	serialPort string
	seed       int64
	noise      float64
	maxCycles  int
	dt         float64
	noDelay    bool
	speed      int
	kpValues   []float64
	kiValues   []float64
	kdValues   []float64
	workers    int
	metric     string
	top        int
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("linebot: ")

	rootCmd := &cobra.Command{
		Use:           "linebot",
		Short:         "line-following robot controller and simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".linebot", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [course]",
		Short: "drive the simulated robot until it reaches the junction",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCourse,
	}
	addRobotFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [course]",
		Short: "run with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRobotFlags(liveCmd)
	liveCmd.Flags().IntVar(&speed, "speed", 1, "cycles per frame")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addRobotFlags(configCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [course]",
		Short: "grid search pid gains on the simulator",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addRobotFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpValues, "kp-values", []float64{0.5, 1, 2}, "kp grid")
	tuneCmd.Flags().Float64SliceVar(&kiValues, "ki-values", []float64{0}, "ki grid")
	tuneCmd.Flags().Float64SliceVar(&kdValues, "kd-values", []float64{1, 3, 6}, "kd grid")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = all cpus)")
	tuneCmd.Flags().StringVar(&metric, "metric", optim.DefaultMetric, "metric to minimise")
	tuneCmd.Flags().IntVar(&top, "top", 10, "rows to show")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot line position, control and motor power",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run cycles as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	coursesCmd := &cobra.Command{
		Use:   "courses",
		Short: "list simulated courses",
		RunE:  listCourses,
	}

	rootCmd.AddCommand(runCmd, liveCmd, tuneCmd, configCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd, coursesCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func addRobotFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset configuration")
	f.Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	f.Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	f.Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	f.BoolVarP(&verbose, "verbose", "v", false, "emit diagnostics records")
	f.StringVar(&serialPort, "serial", "", "serial device for diagnostics")
	f.Int64Var(&seed, "seed", track.DefaultOptions().Seed, "sensor noise seed")
	f.Float64Var(&noise, "noise", track.DefaultOptions().Noise, "sensor noise amplitude (raw counts, uniform)")
	f.IntVar(&maxCycles, "max-cycles", config.DefaultMaxCycles, "stop after this many cycles (0 = unbounded)")
	f.Float64Var(&dt, "dt", track.DefaultOptions().Dt, "cycle period in seconds")
	f.BoolVar(&noDelay, "no-delay", false, "skip the startup delay")
}

// resolveConfig layers preset, config file and changed flags, in that
// order, and validates the result.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("serial") {
		cfg.Diagnostics.Port = serialPort
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("noise") {
		cfg.Sim.Noise = noise
	}
	if flags.Changed("max-cycles") {
		cfg.Sim.MaxCycles = maxCycles
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if len(args) > 0 {
		cfg.Sim.Course = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func experimentOptions(cfg *config.Config, diagnostics bool) []experiment.Option {
	var opts []experiment.Option
	if noDelay {
		opts = append(opts, experiment.WithoutStartupDelay())
	}
	if diagnostics && cfg.Verbose && cfg.Diagnostics.Port == "" {
		opts = append(opts, experiment.WithDiagnosticsWriter(os.Stderr))
	}
	return opts
}

func runCourse(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	opts := append(experimentOptions(cfg, true), experiment.WithTrace())
	exp, err := experiment.New(cfg, experiment.NewRegistry(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running on %s...\n", cfg.Sim.Course)
	result, runErr := exp.Run(ctx)
	closeErr := exp.Close()
	reportDrops(exp)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if closeErr != nil {
		log.Printf("shutdown: %v", closeErr)
	}
	if runErr != nil {
		log.Printf("interrupted after %d cycles", result.Cycles)
	}

	meta := storage.RunMetadata{
		Course:  cfg.Sim.Course,
		Preset:  preset,
		Seed:    cfg.Sim.Seed,
		Dt:      cfg.Sim.Dt,
		Gains:   cfg.Gains,
		Limits:  cfg.Limits(),
		Cycles:  result.Cycles,
		Reason:  result.Reason.String(),
		Metrics: result.Metrics,
	}
	runID, err := st.Save(meta, result.Trace)
	if err != nil {
		return err
	}

	pose := exp.Sim().Pose()
	fmt.Printf("completed in %v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("cycles: %d (%.2fs simulated)\n", result.Cycles, exp.Sim().Time())
	fmt.Printf("stopped: %s at (%.3f, %.3f)\n", result.Reason, pose.X, pose.Y)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	if result.Reason != loop.Junction && runErr == nil {
		return fmt.Errorf("run ended without reaching the junction: %s", result.Reason)
	}
	return nil
}

func reportDrops(exp *experiment.Experiment) {
	st := exp.DiagnosticsStats()
	if st.Dropped > 0 || st.Failed > 0 {
		log.Printf("diagnostics: %d written, %d dropped, %d failed", st.Written, st.Dropped, st.Failed)
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), experimentOptions(cfg, false)...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := tui.Run(ctx, exp.Driver(), cfg.Sim.Course, cfg.Sim.Dt, speed)
	return multierr.Append(runErr, exp.Close())
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := optim.NewGridSearch(kpValues, kiValues, kdValues)
	g.Workers = workers
	g.Metric = metric

	fmt.Printf("tuning on %s: %d candidates\n", cfg.Sim.Course, len(g.Grid()))
	results, err := g.Search(ctx, cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KP\tKI\tKD\tSTOP\tCYCLES\t%s\n", metric)
	for i, c := range results {
		if top > 0 && i >= top {
			break
		}
		status := c.Reason.String()
		if c.Err != nil {
			status = "error: " + c.Err.Error()
		}
		fmt.Fprintf(w, "%g\t%g\t%g\t%s\t%d\t%.6f\n",
			c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, status, c.Cycles, c.Score)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
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
	fmt.Fprintln(w, "ID\tCOURSE\tTIME\tCYCLES\tSTOP\tKP\tKI\tKD\tERROR")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%g\t%g\t%g\t%.4f\n",
			run.ID,
			run.Course,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cycles,
			run.Reason,
			run.Gains.Kp,
			run.Gains.Ki,
			run.Gains.Kd,
			run.Metrics["tracking_error"],
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

	cycles, err := st.LoadCycles(runID)
	if err != nil {
		return err
	}

	if len(cycles) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("course: %s\n", meta.Course)
	fmt.Printf("cycles: %d\n\n", len(cycles))

	series := []struct {
		caption string
		value   func(c loop.Cycle) float64
	}{
		{"line position", func(c loop.Cycle) float64 { return c.Position }},
		{"control variable", func(c loop.Cycle) float64 { return c.Terms.Output }},
		{"left motor", func(c loop.Cycle) float64 { return c.Command.Left }},
		{"right motor", func(c loop.Cycle) float64 { return c.Command.Right }},
	}

	for _, s := range series {
		data := make([]float64, len(cycles))
		for i, c := range cycles {
			data[i] = s.value(c)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cycles, err := st.LoadCycles(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, *meta, cycles)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	cycles, err := st.LoadCycles(runID)
	if err != nil {
		return err
	}

	if len(cycles) == 0 {
		return fmt.Errorf("no data to export")
	}

	return writeCyclesCSV(os.Stdout, cycles)
}

func writeCyclesCSV(out io.Writer, cycles []loop.Cycle) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"cycle", "position", "detected", "p", "i", "d", "control", "left", "right"}); err != nil {
		return err
	}

	for _, c := range cycles {
		row := []string{
			strconv.Itoa(c.Index),
			strconv.FormatFloat(c.Position, 'f', 6, 64),
			strconv.FormatBool(c.Detected),
			strconv.FormatFloat(c.Terms.Proportional, 'f', 6, 64),
			strconv.FormatFloat(c.Terms.Integral, 'f', 6, 64),
			strconv.FormatFloat(c.Terms.Derivative, 'f', 6, 64),
			strconv.FormatFloat(c.Terms.Output, 'f', 6, 64),
			strconv.FormatFloat(c.Command.Left, 'f', 6, 64),
			strconv.FormatFloat(c.Command.Right, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tKP\tKI\tKD\tMIN\tMAX\tBASE")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%g\t%g\n",
			name, cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd,
			cfg.Motor.Min, cfg.Motor.Max, cfg.Motor.BaseSpeed)
	}
	return w.Flush()
}

func listCourses(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tLENGTH\tPOINTS")
	for _, name := range reg.ListCourses() {
		c, err := reg.GetCourse(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.2fm\t%d\n", name, c.Length(), len(c.Points))
	}
	return w.Flush()
}
