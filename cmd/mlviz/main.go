package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/log"
	"github.com/san-kum/mlviz/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	speed      float64
	width      int
	height     int
	theme      string
	maxIter    int
	params     []string
	// run
	saveRun  bool
	jsonOut  bool
	showPlot bool
	// record
	format    string
	outPath   string
	maxFrames int
	gifScale  float64
	// sweep
	sweepAxes     []string
	sweepMetric   string
	sweepMaximize bool
	sweepWorkers  int
	// plot
	svgOut string
	// content
	baseURL string
	htmlOut string
	answers []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mlviz",
		Short: "animated machine learning algorithm lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLogger(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, nil)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mlviz", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	log.AddFlags(rootCmd.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run [algorithm]",
		Short: "run an algorithm headless to completion",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAlgorithm,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save metadata and loss trace under the data directory")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	runCmd.Flags().BoolVar(&showPlot, "plot", true, "plot the loss trace")

	recordCmd := &cobra.Command{
		Use:   "record [algorithm]",
		Short: "render an algorithm to a GIF, PNG or SVG file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  recordAlgorithm,
	}
	addSimFlags(recordCmd)
	recordCmd.Flags().StringVar(&format, "format", "gif", "output format: gif, png or svg")
	recordCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <algorithm>.<format>)")
	recordCmd.Flags().IntVar(&maxFrames, "frames", 300, "maximum GIF frames")
	recordCmd.Flags().Float64Var(&gifScale, "scale", 1, "GIF scale factor")

	watchCmd := &cobra.Command{
		Use:   "watch [algorithm]",
		Short: "play an algorithm in real time and print each step",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchAlgorithm,
	}
	addSimFlags(watchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [algorithm]",
		Short: "run an algorithm over a parameter grid and rank the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepAlgorithm,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "axis", nil, "swept parameter as name=a,b,c or name=min:max:count")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "final_loss", "metric to rank by")
	sweepCmd.Flags().BoolVar(&sweepMaximize, "maximize", false, "rank higher metric values first")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "concurrent runs (default GOMAXPROCS)")
	_ = sweepCmd.MarkFlagRequired("axis")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario of headless experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list algorithms",
		RunE:  listAlgorithms,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [algorithm]",
		Short: "list available presets for an algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for algorithm: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %-10s %s\n", p, formatParams(config.GetPreset(args[0], p).Params))
			}
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the loss trace of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the chart as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	coursesCmd := &cobra.Command{
		Use:   "courses",
		Short: "list the course catalog",
		RunE:  listCourses,
	}

	lessonCmd := &cobra.Command{
		Use:   "lesson [id]",
		Short: "fetch a lesson and list its interactive widgets",
		Args:  cobra.ExactArgs(1),
		RunE:  showLesson,
	}
	lessonCmd.Flags().StringVar(&baseURL, "base-url", "", "content server base url")
	lessonCmd.Flags().StringVar(&htmlOut, "html", "", "write the lesson as HTML")

	quizCmd := &cobra.Command{
		Use:   "quiz [lesson_id] [number]",
		Short: "show or answer a quiz from a lesson",
		Args:  cobra.ExactArgs(2),
		RunE:  answerQuiz,
	}
	quizCmd.Flags().StringVar(&baseURL, "base-url", "", "content server base url")
	quizCmd.Flags().StringSliceVar(&answers, "answer", nil, "option ids to submit")

	tuiCmd := &cobra.Command{
		Use:   "tui [algorithm]",
		Short: "interactive terminal UI",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTUI,
	}
	addSimFlags(tuiCmd)

	rootCmd.AddCommand(runCmd, recordCmd, watchCmd, sweepCmd, batchCmd, listCmd, presetsCmd, runsCmd, plotCmd, exportCmd, coursesCmd, lessonCmd, quizCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "playback speed (0.5-2)")
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "surface width in pixels")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "surface height in pixels")
	cmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "color theme")
	cmd.Flags().IntVar(&maxIter, "max-iter", experiment.DefaultMaxIterations, "iteration cap for headless runs")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "algorithm parameter as name=value")
}

// resolveConfig layers defaults, the config file, a preset and finally the
// flags that were set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		if args[0] != cfg.Algorithm {
			cfg.Params = nil
		}
		cfg.Algorithm = args[0]
	}
	if preset != "" {
		p := config.GetPreset(cfg.Algorithm, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Algorithm))
		}
		cfg.Merge(p)
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	if len(params) > 0 {
		merged := make(map[string]float64, len(cfg.Params)+len(params))
		for k, v := range cfg.Params {
			merged[k] = v
		}
		for _, kv := range params {
			name, raw, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("parameter %q: expected name=value", kv)
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", kv, err)
			}
			merged[strings.TrimSpace(name)] = v
		}
		cfg.Params = merged
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	// stderr belongs to the terminal UI; keep only the file sink, if any
	opts := log.OptionsFromFlags(cmd.Flags())
	opts.Quiet = true
	defer log.Replace(log.New(opts))()

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	ecfg := experiment.FromConfig(cfg)
	if len(args) == 0 && !cmd.Flags().Changed("preset") {
		ecfg.Algorithm = ""
	}
	return tui.Run(tui.Options{
		Registry: experiment.NewRegistry(),
		Config:   ecfg,
		OutDir:   dataDir,
	})
}
