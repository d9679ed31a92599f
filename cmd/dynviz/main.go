package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynviz/internal/analysis"
	"github.com/san-kum/dynviz/internal/app"
	"github.com/san-kum/dynviz/internal/config"
	"github.com/san-kum/dynviz/internal/control"
	"github.com/san-kum/dynviz/internal/integrators"
	"github.com/san-kum/dynviz/internal/model"
	"github.com/san-kum/dynviz/internal/storage"
	"github.com/san-kum/dynviz/internal/telemetry"
	"github.com/san-kum/dynviz/internal/viz"
)

const runsDB = "runs.db"

var (
	configFile  string
	dataDir     string
	logLevel    string
	xmlPath     string
	headless    bool
	record      bool
	metricsAddr string
	controller  string
	integrator  string
	preset      string
	fps         float64
	theme       string
	outPath     string
	xAxis       int
	yAxis       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynviz [model]",
		Short: "interactive physics viewer",
		Long: "dynviz steps a model on its own goroutine and draws it in the terminal.\n" +
			"The model is a description file (XML or YAML) or a built-in name.\n\n" +
			"space pauses and resumes, u toggles frame-rate limiting, esc quits.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runViewer,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.Flags().StringVarP(&xmlPath, "xml", "x", "", "model description file or built-in model")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "step without rendering until interrupted")
	rootCmd.Flags().BoolVar(&record, "record", false, "record snapshots for later playback")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	rootCmd.Flags().StringVar(&controller, "controller", "", "control law: "+strings.Join(control.Names(), ", "))
	rootCmd.Flags().StringVar(&integrator, "integrator", "", "override the model's integrator: "+strings.Join(integrators.Names(), ", "))
	rootCmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	rootCmd.Flags().Float64Var(&fps, "fps", 0, "redraw rate")
	rootCmd.Flags().StringVar(&theme, "theme", "", "overlay theme: "+strings.Join(viz.ThemeNames(), ", "))

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models, presets, integrators and controllers",
		RunE:  listModels,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a recorded run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a recorded run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarise a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two state components",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the horizontal axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the vertical axis")

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}

	rootCmd.AddCommand(modelsCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, exportCSVCmd, exportJSONCmd, initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("data") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	return cfg, cfg.Validate()
}

func runViewer(cmd *cobra.Command, args []string) error {
	ref := xmlPath
	if ref == "" && len(args) > 0 {
		ref = args[0]
	}
	if ref == "" {
		return fmt.Errorf("no model given: pass --xml or a model name (see dynviz models)")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fps") {
		cfg.Viewer.FPS = fps
	}
	if cmd.Flags().Changed("theme") {
		cfg.Viewer.Theme = theme
	}
	if cmd.Flags().Changed("controller") {
		cfg.Control.Controller = controller
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Telemetry.Addr = metricsAddr
	}
	if cmd.Flags().Changed("record") {
		cfg.Record.Enabled = record
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg, headless)
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}

	desc, err := model.Load(ref)
	if err != nil {
		return err
	}
	if integrator != "" {
		desc.Integrator = integrator
	}

	b := app.FromDescription(desc).
		WithRateLimited(cfg.Viewer.RateLimited).
		WithPausePoll(cfg.Scheduler.PausePoll).
		WithLogger(logger)

	ctrl := cfg.Control.Controller
	if preset != "" {
		p, ok := config.GetPreset(desc.Kind, preset)
		if !ok {
			return fmt.Errorf("unknown preset %q for %s (available: %v)", preset, desc.Kind, config.ListPresets(desc.Kind))
		}
		b.WithInitialState(p.Initial)
		if p.Controller != "" && !cmd.Flags().Changed("controller") {
			ctrl = p.Controller
		}
	}
	if ctrl != "" {
		b.WithController(ctrl, cfg.Control.Gains)
	}

	metrics := telemetry.New()
	b.WithMetrics(metrics, cfg.Telemetry.Addr)

	var rec *storage.Recorder
	if !headless {
		b.WithDefaultRendering(app.RenderOptions{
			FPS:         cfg.Viewer.FPS,
			TraceLength: cfg.Viewer.TraceLength,
			Theme:       cfg.Viewer.Theme,
			AltScreen:   true,
		})
		if cfg.Record.Enabled {
			rec = storage.NewRecorder(desc.Name, desc.Kind, ctrl, desc.Timestep)
			b.WithRecorder(cfg.Record.Every, rec.Add)
		}
	} else if cfg.Record.Enabled {
		logger.Warn("recording needs the viewer, ignoring --record")
	}

	a, err := b.Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		return err
	}

	if rec != nil && rec.Len() > 0 {
		id, err := saveRecording(cfg, rec)
		if err != nil {
			return err
		}
		logger.Info("recording saved", "id", id, "samples", rec.Len())
		fmt.Printf("saved run %s (%d samples)\n", id, rec.Len())
	}
	return nil
}

// setupLogger logs to stderr when headless and to the log file otherwise,
// since the viewer owns the terminal.
func setupLogger(cfg *config.Config, headless bool) (*log.Logger, func(), error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if !headless {
		path, err := cfg.LogPath()
		if err != nil {
			return nil, nil, err
		}
		f, err := app.OpenLogFile(path)
		if err != nil {
			return nil, nil, err
		}
		w, closeFn = f, func() { f.Close() }
	}
	logger, err := app.NewLogger(w, cfg.Log.Level)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	path, err := cfg.DataPath(runsDB)
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

func saveRecording(cfg *config.Config, rec *storage.Recorder) (string, error) {
	st, err := openStore(cfg)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.Save(rec)
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESETS")
	for _, name := range model.Builtins() {
		desc, err := model.Load(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(config.ListPresets(desc.Kind), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nkinds:        %s\n", strings.Join(model.Kinds(), ", "))
	fmt.Printf("integrators:  %s\n", strings.Join(integrators.Names(), ", "))
	fmt.Printf("controllers:  %s\n", strings.Join(control.Names(), ", "))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tKIND\tTIME\tSAMPLES\tDT\tCTRL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%s\n",
			run.ID,
			run.Model,
			run.Kind,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Samples,
			run.Timestep,
			run.Controller,
		)
	}
	return w.Flush()
}

func loadRun(cmd *cobra.Command, id string) (*storage.Run, []storage.Sample, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	run, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(id)
	if err != nil {
		return nil, nil, err
	}
	return run, samples, nil
}

var captions = map[string][]string{
	"pendulum":        {"theta (angle)", "omega (angular velocity)"},
	"double_pendulum": {"theta1", "theta2", "omega1", "omega2"},
	"cartpole":        {"cart position", "cart velocity", "pole angle", "pole angular velocity"},
	"van_der_pol":     {"x", "v"},
	"duffing":         {"x", "v", "drive phase"},
	"lorenz":          {"x", "y", "z"},
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", run.ID)
	fmt.Printf("model: %s (%s)\n", run.Model, run.Kind)
	fmt.Printf("samples: %d\n\n", len(samples))

	numVars := min(len(samples[0].State), 6)
	for i := 0; i < numVars; i++ {
		caption := fmt.Sprintf("x%d vs time", i)
		if names := captions[run.Kind]; i < len(names) {
			caption = names[i]
		}
		graph := asciigraph.Plot(storage.Series(samples, i),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("need at least two samples, run has %d", len(samples))
	}

	interval := (samples[len(samples)-1].Time - samples[0].Time) / float64(len(samples)-1)
	energies := make([]float64, len(samples))
	states := make([][]float64, len(samples))
	controls := make([][]float64, len(samples))
	for i, smp := range samples {
		energies[i] = smp.Energy
		states[i] = smp.State
		controls[i] = smp.Control
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", run.ID)
	fmt.Fprintf(w, "model\t%s (%s)\n", run.Model, run.Kind)
	fmt.Fprintf(w, "samples\t%d every %.4fs\n", len(samples), interval)
	fmt.Fprintf(w, "energy drift\t%.3e\n", analysis.Drift(energies))
	fmt.Fprintf(w, "control effort\t%.4f\n", analysis.Effort(controls))
	fmt.Fprintf(w, "beyond 10 units\t%.1f%%\n", 100*analysis.Violations(states, 10))
	for i := range samples[0].State {
		name := fmt.Sprintf("x%d", i)
		if names := captions[run.Kind]; i < len(names) {
			name = names[i]
		}
		fmt.Fprintf(w, "%s\t%.3f Hz\n", name, analysis.DominantFrequency(storage.Series(samples, i), interval))
	}
	return w.Flush()
}

func phaseRun(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}
	dim := len(samples[0].State)
	if xAxis < 0 || xAxis >= dim || yAxis < 0 || yAxis >= dim {
		return fmt.Errorf("axes must be in [0, %d)", dim)
	}

	p := analysis.NewPortrait(storage.Series(samples, xAxis), storage.Series(samples, yAxis))
	fmt.Printf("%s: x%d against x%d\n\n", run.Model, yAxis, xAxis)
	fmt.Print(p.ASCII(80, 24))
	return nil
}

func output() (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, samples); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	run, samples, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(w, run, samples); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".dynviz", "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
