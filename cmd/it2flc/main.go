package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uavlab/it2flc/internal/canbus"
	"github.com/uavlab/it2flc/internal/config"
	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/fuzzy"
	"github.com/uavlab/it2flc/internal/integrators"
	"github.com/uavlab/it2flc/internal/loop"
	"github.com/uavlab/it2flc/internal/metrics"
	"github.com/uavlab/it2flc/internal/sim"
	"github.com/uavlab/it2flc/internal/storage"
	"github.com/uavlab/it2flc/internal/telemetry"
	"github.com/uavlab/it2flc/internal/viz"
)

var (
	dataDir     string
	configFile  string
	preset      string
	iface       string
	metricsAddr string
	rateHz      int
	duration    float64
	trajectory  string
	fullSurface bool
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "it2flc",
		Short: "interval type-2 fuzzy position controller",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".it2flc", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run [k_p k_d k_a k_b alpha1 alpha2]",
		Short: "run the controller against the vehicle bus",
		Args:  cobra.MaximumNArgs(6),
		RunE:  runDaemon,
	}
	runCmd.Flags().StringVar(&iface, "iface", "", "SocketCAN interface (overrides config)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics", "", "metrics listen address (overrides config)")
	runCmd.Flags().IntVar(&rateHz, "rate", 0, "tick rate in Hz (overrides config)")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")

	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "run a closed-loop simulation",
		RunE:  runSim,
	}
	simCmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds (overrides config)")
	simCmd.Flags().StringVar(&trajectory, "trajectory", "", "hover|step|circle (overrides config)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "closed-loop simulation with live terminal view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&trajectory, "trajectory", "", "hover|step|circle (overrides config)")

	surfaceCmd := &cobra.Command{
		Use:   "surface",
		Short: "plot the fuzzy control surface",
		RunE:  plotSurface,
	}
	surfaceCmd.Flags().BoolVar(&fullSurface, "full", false, "plot the full three-region reduction instead of phi")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trace to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	rootCmd.AddCommand(runCmd, simCmd, liveCmd, surfaceCmd, presetsCmd, listCmd, exportCSVCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, nil
}

func buildLogger() (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return c.Build()
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if iface != "" {
		cfg.Interface = iface
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if rateHz > 0 {
		cfg.RateHz = rateHz
	}

	gains := cfg.GainSet()
	if len(args) > 0 {
		gains = controller.ParseArgs(args)
	}

	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tx, err := canbus.DialTransmitter(ctx, cfg.Interface)
	if err != nil {
		return err
	}
	defer tx.Close()

	rx, err := canbus.DialReceiver(ctx, cfg.Interface, log)
	if err != nil {
		return err
	}
	defer rx.Close()

	ctrl := controller.New(gains, cfg.Dt())
	src := loop.NewSource()

	go func() {
		if err := rx.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("receiver stopped", zap.Error(err))
			stop()
		}
	}()

	if cfg.MetricsAddr != "" {
		go telemetry.StartMonitor(cfg.MetricsAddr, log)
	}

	log.Info("position controller running",
		zap.String("iface", cfg.Interface),
		zap.Int("rate_hz", cfg.RateHz),
		zap.Float64("k_p", gains.KP), zap.Float64("k_d", gains.KD),
		zap.Float64("k_a", gains.KA), zap.Float64("k_b", gains.KB),
		zap.Float64("alpha1", gains.Alpha1), zap.Float64("alpha2", gains.Alpha2))

	err = loop.New(ctrl, src, tx, cfg.RateHz, log).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func buildScenario(cfg *config.Config) (sim.Trajectory, string, error) {
	name := cfg.Sim.Trajectory
	if trajectory != "" {
		name = trajectory
	}
	switch name {
	case "hover", "":
		return sim.Hover{Point: controller.Vec4{0, 0, cfg.Sim.Height, 0}}, "hover", nil
	case "step":
		return sim.StepInput{
			From: controller.Vec4{0, 0, 1, 0},
			To:   controller.Vec4{0, 0, cfg.Sim.Height, 0},
			At:   5.0,
		}, "step", nil
	case "circle":
		return sim.Circle{Radius: cfg.Sim.Radius, Omega: 0.5, Height: cfg.Sim.Height}, "circle", nil
	default:
		return nil, "", fmt.Errorf("unknown trajectory: %s", name)
	}
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if duration > 0 {
		cfg.Sim.Duration = duration
	}

	traj, scenario, err := buildScenario(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	gains := cfg.GainSet()
	ctrl := controller.New(gains, cfg.Dt())
	runner := sim.NewRunner(sim.NewVehicle(cfg.Sim.Lag), integrators.ByName(cfg.Sim.Integrator), ctrl, traj)
	runner.AddMetric(metrics.NewTrackingError())
	runner.AddMetric(metrics.NewControlEffort())
	runner.AddMetric(metrics.NewMaxError())
	runner.AddMetric(metrics.NewSettlingTime(0.05))

	fmt.Printf("running %s scenario...\n", scenario)
	start := time.Now()

	result, err := runner.Run(context.Background(), make(sim.State, sim.StateDim), sim.Config{
		Dt:       cfg.Dt(),
		Duration: cfg.Sim.Duration,
	})
	if err != nil {
		return err
	}

	runID, err := st.Save(scenario, cfg.Sim.Integrator, cfg.Dt(), cfg.Sim.Duration, gains, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(result.Commands))
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	traj, scenario, err := buildScenario(cfg)
	if err != nil {
		return err
	}

	ctrl := controller.New(cfg.GainSet(), cfg.Dt())
	m := viz.NewModel(
		sim.NewVehicle(cfg.Sim.Lag),
		integrators.ByName(cfg.Sim.Integrator),
		ctrl,
		traj,
		make(sim.State, sim.StateDim),
		cfg.Dt(),
		scenario,
	)

	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func plotSurface(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g := cfg.GainSet()
	fc := fuzzy.Compositor{Alpha1: g.Alpha1, Alpha2: g.Alpha2}

	slices := []float64{-1, -0.5, 0, 0.5, 1}

	if !fullSurface {
		for _, s2 := range slices {
			data := make([]float64, 0, 81)
			for s1 := -1.0; s1 <= 1.0001; s1 += 0.025 {
				data = append(data, fc.Phi(s1, s2))
			}
			fmt.Println(asciigraph.Plot(data,
				asciigraph.Height(8),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("phi(sigma1, %.1f)", s2)),
			))
			fmt.Println()
		}
		return nil
	}

	regions := []struct {
		name string
		fn   func(float64, float64) (float64, error)
	}{
		{"phi1", fc.Phi1},
		{"phi2", fc.Phi2},
		{"phi3", fc.Phi3},
	}
	for _, region := range regions {
		for _, s2 := range []float64{-0.5, 0.5} {
			data := make([]float64, 0, 81)
			skipped := 0
			for s1 := -1.0; s1 <= 1.0001; s1 += 0.025 {
				v, err := region.fn(s1, s2)
				if err != nil {
					skipped++
					continue
				}
				data = append(data, v)
			}
			if len(data) < 2 {
				fmt.Printf("%s(sigma1, %.1f): singular across the whole slice\n\n", region.name, s2)
				continue
			}
			caption := fmt.Sprintf("%s(sigma1, %.1f)", region.name, s2)
			if skipped > 0 {
				caption = fmt.Sprintf("%s  [%d singular points skipped]", caption, skipped)
			}
			fmt.Println(asciigraph.Plot(data,
				asciigraph.Height(8),
				asciigraph.Width(80),
				asciigraph.Caption(caption),
			))
			fmt.Println()
		}
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tTRACKING_RMS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%.4f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Metrics["tracking_rms"],
		)
	}
	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	times, states, cmds, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time", "x", "y", "z", "yaw", "vx", "vy", "vz", "yaw_rate", "u_x", "u_y", "u_z", "u_w"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range times {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, v := range states[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		for _, v := range cmds[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
