package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/export"
	"github.com/san-kum/mlviz/internal/metrics"
	"github.com/san-kum/mlviz/internal/render"
	"github.com/san-kum/mlviz/internal/store"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// prepare resolves the configuration and builds an experiment drawing onto
// surface.
func prepare(cmd *cobra.Command, args []string, surface render.Surface, sched anim.Scheduler, observers ...anim.Observer) (*experiment.Experiment, *config.Config, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	desc, err := experiment.NewRegistry().Get(cfg.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	exp := experiment.New(experiment.FromConfig(cfg))
	if err := exp.Setup(desc, surface, sched, observers...); err != nil {
		return nil, nil, err
	}
	return exp, cfg, nil
}

func runAlgorithm(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	limit := cfg.MaxIterations
	if limit <= 0 {
		limit = experiment.DefaultMaxIterations
	}
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetDescription(cfg.Algorithm),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	progress := anim.ObserverFunc(func(st anim.Status) { _ = bar.Set(st.Iteration) })

	exp, _, err := prepare(cmd, args, nil, nil, progress)
	if err != nil {
		return err
	}

	if !jsonOut {
		fmt.Printf("running %s...\n", cfg.Algorithm)
	}
	res, runErr := exp.Run(context.Background())
	_ = bar.Finish()
	if res == nil {
		return runErr
	}

	if saveRun {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(res)
		if err != nil {
			return err
		}
		if !jsonOut {
			fmt.Printf("run id: %s\n", runID)
		}
	}

	if jsonOut {
		return store.WriteJSON(os.Stdout, res)
	}

	fmt.Printf("completed in %v\n", res.Elapsed)
	fmt.Printf("iterations: %d (%s)\n", res.Iterations, res.State)
	if res.Phase != "" {
		fmt.Printf("phase: %s\n", res.Phase)
	}
	if runErr != nil {
		fmt.Printf("stopped: %v\n", runErr)
	}
	printMetrics(res.Metrics)
	if showPlot {
		plotTrace(res.Trace, "loss per iteration")
	}
	return nil
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func plotTrace(points []metrics.Point, caption string) {
	data := make([]float64, 0, len(points))
	for _, p := range points {
		data = append(data, p.Loss)
	}
	if len(data) < 2 {
		return
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	))
}

func recordAlgorithm(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	out := outPath
	if out == "" {
		out = cfg.Algorithm + "." + format
	}

	var res *experiment.Result
	switch format {
	case "gif":
		raster := render.NewRaster(cfg.Width, cfg.Height)
		interval := time.Duration(float64(baseInterval(cfg.Algorithm)) / cfg.Speed)
		rec := export.NewRecorder(raster, interval, maxFrames, gifScale)
		exp, _, err := prepare(cmd, args, raster, nil, rec)
		if err != nil {
			return err
		}
		if res, err = exp.Run(context.Background()); res == nil {
			return err
		}
		if err := rec.Save(out); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d frames)\n", out, rec.Frames())
	case "png":
		raster := render.NewRaster(cfg.Width, cfg.Height)
		exp, _, err := prepare(cmd, args, raster, nil)
		if err != nil {
			return err
		}
		if res, err = exp.Run(context.Background()); res == nil {
			return err
		}
		if err := export.SavePNG(out, raster); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
	case "svg":
		frame := render.NewFrame(cfg.Width, cfg.Height)
		exp, _, err := prepare(cmd, args, frame, nil)
		if err != nil {
			return err
		}
		if res, err = exp.Run(context.Background()); res == nil {
			return err
		}
		if err := os.WriteFile(out, []byte(export.FrameToSVG(frame)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d shapes)\n", out, len(frame.Ops))
	default:
		return fmt.Errorf("unknown format: %s (available: gif, png, svg)", format)
	}
	fmt.Printf("iterations: %d (%s)\n", res.Iterations, res.State)
	if res.Err != nil {
		fmt.Printf("stopped: %v\n", res.Err)
	}
	return nil
}

func baseInterval(algorithm string) time.Duration {
	desc, err := experiment.NewRegistry().Get(algorithm)
	if err != nil {
		return time.Second
	}
	return desc.Interval
}

func watchAlgorithm(cmd *cobra.Command, args []string) error {
	printer := anim.ObserverFunc(func(st anim.Status) {
		line := fmt.Sprintf("[%4d] %-8s", st.Iteration, st.State)
		if st.HasLoss {
			line += fmt.Sprintf(" loss=%-12.6f", st.Loss)
		}
		if st.Phase != "" {
			line += " " + st.Phase
		}
		if st.Err != nil {
			line += " error: " + st.Err.Error()
		}
		fmt.Println(line)
	})
	exp, cfg, err := prepare(cmd, args, nil, anim.NewTickerScheduler(), printer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Printf("watching %s at %gx (ctrl+c to stop)\n", cfg.Algorithm, cfg.Speed)
	res, err := exp.Watch(ctx)
	if res != nil {
		fmt.Printf("\n%d iterations in %v\n", res.Iterations, res.Elapsed.Round(time.Millisecond))
		printMetrics(res.Metrics)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if res != nil && res.Err != nil {
		return nil
	}
	return err
}

func listAlgorithms(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Title", "Interval", "Parameters")
	for _, d := range experiment.NewRegistry().Descriptors() {
		sim := d.New()
		if err := sim.Init(engine.Env{Seed: config.DefaultSeed}); err != nil {
			return err
		}
		var specs []string
		for _, s := range sim.Specs() {
			specs = append(specs, fmt.Sprintf("%s=%g [%g..%g]", s.Name, s.Default, s.Min, s.Max))
		}
		if err := table.Append([]string{d.Name, d.Title, d.Interval.String(), strings.Join(specs, " ")}); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatParams(p map[string]float64) string {
	if len(p) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Algorithm", "Time", "Seed", "Iterations", "State", "Params")
	for _, run := range runs {
		if err := table.Append([]string{
			run.ID,
			run.Algorithm,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprint(run.Seed),
			fmt.Sprint(run.Iterations),
			run.State,
			formatParams(run.Params),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("algorithm: %s\n", meta.Algorithm)
	fmt.Printf("samples: %d\n", len(trace))
	plotTrace(trace, meta.Algorithm+" loss")

	if svgOut != "" {
		svg := export.TraceToSVG(trace, 640, 320, render.DefaultTheme)
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(store.ExportData{RunMetadata: *meta, Steps: len(trace), Trace: trace})
}
