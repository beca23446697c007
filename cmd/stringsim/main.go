package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/stringsim/internal/config"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string

	nodes      int
	springK    float64
	mass       float64
	shape      string
	sampleRate float64
	duration   float64
	position   float64
	strength   float64
	every      float64
	level      float64

	backend    string
	bufferSize int
	channels   int

	wavOut    string
	svgOut    string
	threshold float64
	benchTime float64
	workers   int
)

// main registers the commands and runs the live view when no subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "stringsim",
		Short: "plucked string lattice synthesizer",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE:         runLive,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".stringsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	addStringFlags(rootCmd)
	addOutputFlags(rootCmd)

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render offline and store the run",
		RunE:  renderRun,
	}
	addStringFlags(renderCmd)
	renderCmd.Flags().StringVar(&wavOut, "wav", "", "also write the rendered audio to this path")
	renderCmd.Flags().Float64Var(&threshold, "threshold", 10.0, "stability threshold on output samples")

	batchCmd := &cobra.Command{
		Use:   "batch [preset...]",
		Short: "render presets in parallel and store each run",
		RunE:  batchRun,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 4, "concurrent renders (0 for unbounded)")
	batchCmd.Flags().Float64Var(&threshold, "threshold", 10.0, "stability threshold on output samples")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "play through an audio backend",
		RunE:  playRun,
	}
	addStringFlags(playCmd)
	addOutputFlags(playCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive string with live audio",
		RunE:  runLive,
	}
	addStringFlags(liveCmd)
	addOutputFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored waveform",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run signal to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and signal to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run waveform to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark lattice stepping",
		RunE:  benchLattice,
	}
	benchCmd.Flags().Float64Var(&benchTime, "time", 1.0, "simulated seconds per size")
	benchCmd.Flags().Float64Var(&sampleRate, "sample-rate", config.DefaultSampleRate, "sample rate")

	rootCmd.AddCommand(renderCmd, batchCmd, playCmd, liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() error {
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "stringsim",
		Level:           lvl,
	})
	log.SetDefault(logger)
	return nil
}

func addStringFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&nodes, "nodes", d.String.Nodes, "number of masses")
	f.Float64Var(&springK, "k", d.String.SpringConstant, "spring constant")
	f.Float64Var(&mass, "mass", d.String.Mass, "mass per node")
	f.StringVar(&shape, "shape", d.String.Shape, "pluck shape (triangle, verbatim)")
	f.Float64Var(&sampleRate, "sample-rate", d.SampleRate, "sample rate")
	f.Float64Var(&duration, "time", d.Duration, "duration in seconds")
	f.Float64Var(&position, "pos", d.Pluck.Position, "pluck position in [0,1]")
	f.Float64Var(&strength, "strength", d.Pluck.Strength, "pluck strength")
	f.Float64Var(&every, "every", d.Pluck.Every, "re-pluck interval in seconds (0 plucks once)")
	f.Float64Var(&level, "level", d.Level, "output level")
}

func addOutputFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&backend, "backend", d.Output.Backend, "audio backend (portaudio, oto, headless)")
	f.IntVar(&bufferSize, "buffer", d.Output.BufferSize, "frames per audio buffer")
	f.IntVar(&channels, "channels", d.Output.Channels, "output channels")
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("nodes", func() { cfg.String.Nodes = nodes })
	set("k", func() { cfg.String.SpringConstant = springK })
	set("mass", func() { cfg.String.Mass = mass })
	set("shape", func() { cfg.String.Shape = shape })
	set("sample-rate", func() { cfg.SampleRate = sampleRate })
	set("time", func() { cfg.Duration = duration })
	set("pos", func() { cfg.Pluck.Position = position })
	set("strength", func() { cfg.Pluck.Strength = strength })
	set("every", func() { cfg.Pluck.Every = every })
	set("level", func() { cfg.Level = level })
	set("backend", func() { cfg.Output.Backend = backend })
	set("buffer", func() { cfg.Output.BufferSize = bufferSize })
	set("channels", func() { cfg.Output.Channels = channels })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug("resolved config", "preset", cfg.Name, "nodes", cfg.String.Nodes,
		"k", cfg.String.SpringConstant, "mass", cfg.String.Mass, "f1", cfg.Fundamental())
	return cfg, nil
}
