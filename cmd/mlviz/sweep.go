package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/optim"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func sweepAlgorithm(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	desc, err := experiment.NewRegistry().Get(cfg.Algorithm)
	if err != nil {
		return err
	}
	axes := make([]optim.Axis, 0, len(sweepAxes))
	for _, raw := range sweepAxes {
		a, err := optim.ParseAxis(raw)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}

	g := optim.NewGridSearch(axes, sweepMetric)
	g.Maximize = sweepMaximize
	g.Workers = sweepWorkers
	points := len(g.Points())
	bar := progressbar.NewOptions(points,
		progressbar.OptionSetDescription("sweep "+cfg.Algorithm),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	base := experiment.FromConfig(cfg)
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := base
		c.Params = make(map[string]float64, len(base.Params)+len(params))
		for k, v := range base.Params {
			c.Params[k] = v
		}
		for k, v := range params {
			c.Params[k] = v
		}
		exp := experiment.New(c)
		defer func() { _ = bar.Add(1) }()
		return exp, exp.Setup(desc, nil, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	trials, err := g.Search(ctx, build)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d runs ranked by %s\n", cfg.Algorithm, len(trials), sweepMetric)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Params", sweepMetric, "Iterations", "State")
	for i, t := range trials {
		score, iters, state := "-", "-", "-"
		if !math.IsNaN(t.Score) {
			score = fmt.Sprintf("%.6f", t.Score)
		}
		if t.Result != nil {
			iters = fmt.Sprint(t.Result.Iterations)
			state = t.Result.State.String()
		}
		if t.Err != nil {
			state = "error: " + t.Err.Error()
		}
		if err := table.Append([]string{fmt.Sprint(i + 1), formatParams(t.Params), score, iters, state}); err != nil {
			return err
		}
	}
	return table.Render()
}
