package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: warmup
description: regression then a kmeans ensemble
runs:
  - algorithm: linear-regression
    preset: fast
  - algorithm: kmeans
    seed: 7
    seeds: 3
    params:
      k: 4
  - algorithm: gradient-descent
    preset: diverge
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "warmup", sc.Name)
	require.Len(t, sc.Runs, 3)
	assert.Equal(t, 3, sc.Runs[1].Seeds)
	assert.Equal(t, 4.0, sc.Runs[1].Params["k"])

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseScenarioInvalid(t *testing.T) {
	for name, raw := range map[string]string{
		"no runs":      "name: empty\n",
		"no algorithm": "runs:\n  - seed: 3\n",
		"bad seeds":    "runs:\n  - algorithm: knn\n    seeds: -1\n",
		"not yaml":     "runs: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestRunConfig(t *testing.T) {
	base := *config.DefaultConfig()
	base.Params = map[string]float64{"lr": 0.02}

	cfg, err := Run{Algorithm: "linear-regression", Seed: 9}.Config(base)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 0.02, cfg.Params["lr"])

	cfg, err = Run{Algorithm: "knn", Preset: "vote", Params: map[string]float64{"k": 3}}.Config(base)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"k": 3}, cfg.Params, "params from another algorithm are dropped")
	assert.Equal(t, int64(config.DefaultSeed), cfg.Seed)

	_, err = Run{Algorithm: "knn", Preset: "nope"}.Config(base)
	assert.Error(t, err)
	assert.Equal(t, 0.02, base.Params["lr"], "base is not modified")
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	var seen []int64
	outcomes, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), *config.DefaultConfig(),
		func(run Run, res *experiment.Result) { seen = append(seen, res.Seed) })
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, []int64{config.DefaultSeed, 7, 8, 9, config.DefaultSeed}, seen)

	reg := outcomes[0]
	require.Len(t, reg.Results, 1)
	assert.Equal(t, 0.05, reg.Results[0].Params["lr"])
	assert.Equal(t, 1, reg.Summary.Terminal)
	assert.Zero(t, reg.Summary.StdLoss)

	km := outcomes[1].Summary
	assert.Equal(t, 3, km.Runs)
	assert.Equal(t, 3, km.Terminal)
	assert.False(t, math.IsNaN(km.MeanLoss))

	gd := outcomes[2]
	assert.Equal(t, 1, gd.Summary.Failed)
	assert.True(t, errors.Is(gd.Results[0].Err, engine.ErrDiverged))
	assert.True(t, math.IsNaN(gd.Summary.MeanLoss))
}

func TestRunScenarioStopsOnBadEntry(t *testing.T) {
	sc := &Scenario{Runs: []Run{
		{Algorithm: "linear-regression"},
		{Algorithm: "perceptron"},
		{Algorithm: "knn"},
	}}
	outcomes, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), *config.DefaultConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 2")
	assert.Len(t, outcomes, 1)
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Runs: []Run{{Algorithm: "knn"}}}
	_, err := RunScenario(ctx, sc, experiment.NewRegistry(), *config.DefaultConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
