package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	"github.com/san-kum/mlviz/internal/automation"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/store"
	"github.com/spf13/cobra"
)

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base := config.DefaultConfig()
	if configFile != "" {
		if base, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	var (
		st      *store.Store
		saveErr error
	)
	onResult := func(run automation.Run, res *experiment.Result) {
		line := fmt.Sprintf("  %-18s seed=%-6d %4d iterations (%s)", res.Algorithm, res.Seed, res.Iterations, res.State)
		if res.Err != nil {
			line += " error: " + res.Err.Error()
		}
		if run.Save && saveErr == nil {
			if st == nil {
				st = store.New(dataDir)
				saveErr = st.Init()
			}
			if saveErr == nil {
				var id string
				if id, saveErr = st.Save(res); saveErr == nil {
					line += " saved " + id
				}
			}
		}
		fmt.Println(line)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if sc.Name != "" {
		fmt.Printf("scenario %s", sc.Name)
		if sc.Description != "" {
			fmt.Printf(": %s", sc.Description)
		}
		fmt.Println()
	}
	outcomes, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), *base, onResult)
	if saveErr != nil {
		return saveErr
	}

	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Algorithm", "Preset", "Runs", "Terminal", "Failed", "Mean loss", "Std")
	for i, o := range outcomes {
		s := o.Summary
		if appendErr := table.Append([]string{
			fmt.Sprint(i + 1),
			o.Run.Algorithm,
			o.Run.Preset,
			fmt.Sprint(s.Runs),
			fmt.Sprint(s.Terminal),
			fmt.Sprint(s.Failed),
			formatLoss(s.MeanLoss),
			formatLoss(s.StdLoss),
		}); appendErr != nil {
			return appendErr
		}
	}
	if renderErr := table.Render(); renderErr != nil {
		return renderErr
	}
	return err
}

func formatLoss(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}
