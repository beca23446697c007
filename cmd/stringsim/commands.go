package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/stringsim/internal/analysis"
	"github.com/san-kum/stringsim/internal/audio"
	"github.com/san-kum/stringsim/internal/config"
	"github.com/san-kum/stringsim/internal/export"
	"github.com/san-kum/stringsim/internal/lattice"
	"github.com/san-kum/stringsim/internal/metrics"
	"github.com/san-kum/stringsim/internal/render"
	"github.com/san-kum/stringsim/internal/storage"
	"github.com/san-kum/stringsim/internal/tui"
	"github.com/san-kum/stringsim/internal/voice"
)

func renderRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("rendering", "nodes", cfg.String.Nodes, "duration", cfg.Duration, "f1", fmt.Sprintf("%.2fHz", cfg.Fundamental()))
	result, err := render.Run(ctx, cfg, metrics.Defaults(threshold))
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	if wavOut != "" {
		if err := render.WriteWAVFile(wavOut, result.Samples, int(result.SampleRate), cfg.Output.Channels); err != nil {
			return fmt.Errorf("write %s: %w", wavOut, err)
		}
		log.Info("wrote wav", "path", wavOut)
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Samples))
	fmt.Printf("plucks: %d\n", result.Plucks)
	fmt.Printf("realtime factor: %.1fx\n", result.Duration()/result.Elapsed.Seconds())
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Defaults(threshold) {
		fmt.Printf("  %s: %.6g\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func batchRun(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}
	cfgs := make([]*config.Config, 0, len(names))
	for _, name := range names {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		cfgs = append(cfgs, cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("rendering batch", "presets", len(cfgs), "workers", workers)
	start := time.Now()
	results, err := render.Batch(ctx, cfgs, workers, func() []metrics.Metric {
		return metrics.Defaults(threshold)
	})
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tRUN\tSAMPLES\tTIME\tPEAK\tDRIFT")
	for i, cfg := range cfgs {
		r := results[i]
		runID, err := st.Save(cfg, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%.4g\t%.3g\n",
			cfg.Name, runID, len(r.Samples), r.Elapsed.Round(time.Millisecond),
			r.Metrics["peak_displacement"], r.Metrics["energy_drift"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ncompleted in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func newVoice(cfg *config.Config) (*voice.Voice, error) {
	s, err := cfg.NewString()
	if err != nil {
		return nil, err
	}
	v, err := voice.New(s, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	v.SetLevel(cfg.Level)
	return v, nil
}

func startBackend(cfg *config.Config, v *voice.Voice) (audio.Backend, error) {
	opts := audio.Options{
		SampleRate: cfg.SampleRate,
		BufferSize: cfg.Output.BufferSize,
		Channels:   cfg.Output.Channels,
		Logger:     log.Default(),
	}
	b, err := audio.New(cfg.Output.Backend, v, opts)
	if err != nil {
		return nil, err
	}
	if err := b.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Output.Backend, err)
	}
	return b, nil
}

func playRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	v, err := newVoice(cfg)
	if err != nil {
		return err
	}
	b, err := startBackend(cfg, v)
	if err != nil {
		return err
	}
	defer b.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration*float64(time.Second)))
		defer cancel()
	}

	if err := v.Pluck(cfg.Pluck.Position, cfg.Pluck.Strength); err != nil {
		return err
	}

	var repluck <-chan time.Time
	if cfg.Pluck.Every > 0 {
		ticker := time.NewTicker(time.Duration(cfg.Pluck.Every * float64(time.Second)))
		defer ticker.Stop()
		repluck = ticker.C
	}

	fmt.Printf("playing %s (f1 %.2f Hz), ctrl+c to stop\n", nameOf(cfg), cfg.Fundamental())
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("samples: %d  plucks: %d  dropped: %d\n", v.Samples(), v.Plucks(), v.Dropped())
			return nil
		case <-repluck:
			if err := v.Pluck(cfg.Pluck.Position, cfg.Pluck.Strength); err != nil {
				return err
			}
			log.Debug("pluck", "peak", v.Peak())
		}
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	v, err := newVoice(cfg)
	if err != nil {
		return err
	}

	b, err := startBackend(cfg, v)
	if err != nil {
		log.Warn("audio unavailable, running silent", "err", err)
		cfg.Output.Backend = "headless"
		if b, err = startBackend(cfg, v); err != nil {
			return err
		}
	}
	defer b.Stop()

	// the TUI owns the terminal from here on
	log.SetLevel(log.ErrorLevel)
	return tui.Run(v, nameOf(cfg), cfg.Pluck.Position, cfg.Pluck.Strength)
}

func nameOf(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return fmt.Sprintf("string n=%d", cfg.String.Nodes)
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
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tNODES\tK\tMASS\tPOS\tPLUCKS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%d\t%g\t%g\t%.2f\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Nodes,
			run.SpringConstant,
			run.Mass,
			run.Position,
			run.Plucks,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []float64, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	samples, times, err := st.LoadSignal(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, samples, times, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, _, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	graph := asciigraph.Plot(export.Decimate(samples, 80),
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("pickup output, %.2fs", meta.Duration)),
	)
	fmt.Println(graph)

	// the first few periods of the fundamental
	f1 := fundamental(meta)
	if f1 > 0 {
		n := int(4 * meta.SampleRate / f1)
		if n > 1 && n < len(samples) {
			fmt.Println()
			fmt.Println(asciigraph.Plot(export.Decimate(samples[:n], 80),
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("first 4 periods"),
			))
		}
	}
	return nil
}

func fundamental(meta *storage.RunMetadata) float64 {
	cfg := config.DefaultConfig()
	cfg.String.Nodes = meta.Nodes
	cfg.String.SpringConstant = meta.SpringConstant
	cfg.String.Mass = meta.Mass
	return cfg.Fundamental()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, samples, _, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)

	spec := analysis.PowerSpectrum(samples, meta.SampleRate)
	f1 := fundamental(meta)

	// show up to the tenth partial, or a quarter of the band
	limit := len(spec.Magnitude) / 4
	if f1 > 0 && spec.BinHz > 0 {
		if n := int(10 * f1 / spec.BinHz); n > 8 && n < limit {
			limit = n
		}
	}
	if limit > 1 {
		fmt.Println(asciigraph.Plot(export.Decimate(spec.Magnitude[:limit], 80),
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("magnitude spectrum 0-%.0f Hz", float64(limit)*spec.BinHz)),
		))
		fmt.Println()
	}

	dominant := analysis.DominantFrequency(samples, meta.SampleRate)
	fmt.Printf("expected fundamental: %.3f hz\n", f1)
	fmt.Printf("dominant frequency: %.3f hz\n", dominant)
	if dominant > 0 {
		fmt.Printf("period: %.5f s\n", 1.0/dominant)
	}
	if f1 > 0 && dominant > 0 {
		fmt.Printf("ratio: %.3f\n", dominant/f1)
	}

	fmt.Println("\npartials:")
	for i, p := range analysis.Harmonics(samples, meta.SampleRate, 6) {
		fmt.Printf("  %d  %10.3f hz  %.4g\n", i+1, p.Frequency, p.Magnitude)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, times, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "sample"}); err != nil {
		return err
	}
	for i := range samples {
		row := []string{
			strconv.FormatFloat(times[i], 'f', 6, 64),
			strconv.FormatFloat(samples[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, samples, _, err := loadRun(args[0])
	if err != nil {
		return err
	}

	svg := export.WaveformSVG(export.Decimate(samples, 1000), 800, 300, "#1f77b4")

	if svgOut != "" {
		return os.WriteFile(svgOut, []byte(svg), 0644)
	}
	_, err = io.WriteString(os.Stdout, svg)
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNODES\tK\tMASS\tSHAPE\tPOS\tSTRENGTH\tF1")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%s\t%.2f\t%g\t%.2f Hz\n",
			name,
			p.String.Nodes,
			p.String.SpringConstant,
			p.String.Mass,
			p.String.Shape,
			p.Pluck.Position,
			p.Pluck.Strength,
			p.Fundamental(),
		)
	}
	return w.Flush()
}

func benchLattice(cmd *cobra.Command, args []string) error {
	sizes := []int{100, 400, 1600, 6400}
	dt := 1 / sampleRate
	steps := int(math.Round(benchTime * sampleRate))
	if steps < 1 {
		return errors.New("bench time too short")
	}

	fmt.Printf("benchmarking %d steps at %.0f Hz\n\n", steps, sampleRate)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODES\tSTEPS\tTIME\tSTEPS/SEC\tREALTIME")

	for _, n := range sizes {
		s, err := lattice.NewDefault(n)
		if err != nil {
			return err
		}
		if dt >= lattice.StableTimestep(s.SpringConstant(), s.Mass()) {
			log.Warn("timestep above stability bound", "nodes", n, "dt", dt)
		}
		s.Pluck(config.DefaultPosition, config.DefaultStrength)

		start := time.Now()
		sum := 0.0
		for i := 0; i < steps; i++ {
			s.Step(dt)
			sum += s.Sample()
		}
		elapsed := time.Since(start)
		log.Debug("bench", "nodes", n, "checksum", sum)

		stepsPerSec := float64(steps) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.1fx\n",
			n, steps, elapsed, stepsPerSec, stepsPerSec/sampleRate)
	}

	return w.Flush()
}
