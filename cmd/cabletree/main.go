package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/mvelten/cabletree/internal/config"
	"github.com/mvelten/cabletree/internal/scenario"
	"github.com/mvelten/cabletree/internal/sim"
	"github.com/mvelten/cabletree/internal/storage"
	"github.com/mvelten/cabletree/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	dt         float64
	steps      int
	recordEach int
	vRest      float64
	ncomp      int
	stimComp   int
	stimAmp    float64
	stimStart  float64
	stimDur    float64
	swcFile    string
	configFile string
	preset     string
	plotComp   int
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cabletree",
		Short: "branched-neuron cable equation simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cabletree", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (ms)")
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().IntVar(&recordEach, "record-every", 1, "record every k-th step")
	runCmd.Flags().Float64Var(&vRest, "v-rest", config.DefaultVRest, "resting potential (mV)")
	runCmd.Flags().IntVar(&ncomp, "ncomp", config.DefaultNComp, "compartments per branch")
	runCmd.Flags().IntVar(&stimComp, "stim-comp", 0, "stimulated compartment")
	runCmd.Flags().Float64Var(&stimAmp, "stim-amp", config.DefaultStimAmp, "stimulus amplitude (nA)")
	runCmd.Flags().Float64Var(&stimStart, "stim-start", 1.0, "stimulus onset (ms)")
	runCmd.Flags().Float64Var(&stimDur, "stim-dur", 2.0, "stimulus duration (ms)")
	runCmd.Flags().StringVar(&swcFile, "swc", "", "SWC morphology file (swc scenario)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded voltage trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotComp, "comp", 0, "compartment to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "play back a recorded trace in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  liveRun,
	}
	liveCmd.Flags().IntVar(&plotComp, "comp", 0, "compartment to play back")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := scenario.NewRegistry()
			for _, name := range registry.List() {
				fmt.Printf("  %-14s %s\n", name, registry.Describe(name))
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, liveCmd, scenariosCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildConfig(cmd *cobra.Command, name string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scenario = name

	if preset != "" {
		p := config.GetPreset(name, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(name))
		}
		*cfg = *p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Scenario = name
	}

	// CLI flags override preset and config file values.
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("record-every") {
		cfg.RecordEvery = recordEach
	}
	if cmd.Flags().Changed("v-rest") {
		cfg.VRest = vRest
	}
	if cmd.Flags().Changed("ncomp") {
		cfg.NComp = ncomp
	}
	if cmd.Flags().Changed("stim-comp") {
		cfg.Stim.Comp = stimComp
	}
	if cmd.Flags().Changed("stim-amp") {
		cfg.Stim.Amplitude = stimAmp
	}
	if cmd.Flags().Changed("stim-start") {
		cfg.Stim.Start = stimStart
	}
	if cmd.Flags().Changed("stim-dur") {
		cfg.Stim.Duration = stimDur
	}
	if cmd.Flags().Changed("swc") {
		cfg.SWCFile = swcFile
	}
	if cfg.AxialR == 0 {
		cfg.AxialR = config.DefaultAxialR
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := scenario.NewRegistry()
	sc, err := registry.Get(cfg.Scenario, cfg)
	if err != nil {
		return err
	}

	runCfg := sim.Config{Dt: cfg.Dt, Steps: cfg.Steps, RecordEvery: cfg.RecordEvery}

	fmt.Printf("running %s (%d compartments, %d steps of %.4f ms)...\n",
		sc.Name, sc.Net.NumComps(), runCfg.Steps, runCfg.Dt)
	start := time.Now()

	result, err := sim.Run(context.Background(), sc.Net, sc.X0, runCfg, sc.Stim)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(sc.Name, runCfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, recorded: %d\n", result.StepsTaken, len(result.States))
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSTEPS\tDT\tCOMPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Comps,
		)
	}
	return w.Flush()
}

func loadTrace(runID string, comp int) (*storage.RunMetadata, []float64, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	voltages, times, err := st.LoadVoltages(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(voltages) == 0 {
		return nil, nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	if comp < 0 || comp >= len(voltages[0]) {
		return nil, nil, nil, fmt.Errorf("compartment %d out of range [0, %d)", comp, len(voltages[0]))
	}

	trace := make([]float64, len(voltages))
	for i := range voltages {
		trace[i] = voltages[i][comp]
	}
	return meta, times, trace, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, _, trace, err := loadTrace(args[0], plotComp)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(trace))

	graph := asciigraph.Plot(trace,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("voltage of compartment %d (mV)", plotComp)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func liveRun(cmd *cobra.Command, args []string) error {
	meta, times, trace, err := loadTrace(args[0], plotComp)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s · compartment %d", meta.Scenario, plotComp)
	return tui.Show(title, times, trace, frameRate)
}
