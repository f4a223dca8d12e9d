// Package automation runs scripted batches of headless experiments from a
// YAML scenario file.
package automation

import (
	"context"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/log"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Runs        []Run  `yaml:"runs" validate:"min=1,dive"`
}

// Run is one scenario entry. Seeds > 1 repeats it as an ensemble over
// consecutive seeds starting at Seed.
type Run struct {
	Algorithm     string             `yaml:"algorithm" validate:"required"`
	Preset        string             `yaml:"preset"`
	Seed          int64              `yaml:"seed"`
	Seeds         int                `yaml:"seeds" validate:"gte=0,lte=1000"`
	MaxIterations int                `yaml:"max_iterations" validate:"gte=0"`
	Params        map[string]float64 `yaml:"params"`
	Save          bool               `yaml:"save"`
}

var validate = validator.New()

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := validate.Struct(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Config layers the run over base: algorithm, preset, seed, iteration cap
// and params, in that order.
func (r Run) Config(base config.Config) (*config.Config, error) {
	cfg := base
	if r.Algorithm != cfg.Algorithm {
		cfg.Params = nil
	}
	cfg.Algorithm = r.Algorithm
	if r.Preset != "" {
		p := config.GetPreset(r.Algorithm, r.Preset)
		if p == nil {
			return nil, errors.Errorf("unknown preset %s for %s", r.Preset, r.Algorithm)
		}
		cfg.Merge(p)
	}
	if r.Seed != 0 {
		cfg.Seed = r.Seed
	}
	if r.MaxIterations > 0 {
		cfg.MaxIterations = r.MaxIterations
	}
	if len(r.Params) > 0 {
		cfg.Merge(&config.Config{Params: r.Params})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Summary aggregates the final losses of an ensemble.
type Summary struct {
	Runs     int
	Terminal int
	Failed   int
	MeanLoss float64
	StdLoss  float64
}

func Summarize(results []*experiment.Result) Summary {
	s := Summary{Runs: len(results), MeanLoss: math.NaN(), StdLoss: math.NaN()}
	var losses []float64
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Terminal():
			s.Terminal++
		}
		if v, ok := r.Metrics["final_loss"]; ok && r.Err == nil {
			losses = append(losses, v)
		}
	}
	switch len(losses) {
	case 0:
	case 1:
		s.MeanLoss, s.StdLoss = losses[0], 0
	default:
		s.MeanLoss, s.StdLoss = stat.MeanStdDev(losses, nil)
	}
	return s
}

// Outcome is what one scenario entry produced.
type Outcome struct {
	Run     Run
	Results []*experiment.Result
	Summary Summary
}

// ResultFunc is called after every finished run.
type ResultFunc func(run Run, res *experiment.Result)

// RunScenario executes every entry in order. A step failure is kept in its
// result; configuration errors and cancellation stop the scenario and
// return the outcomes so far.
func RunScenario(ctx context.Context, sc *Scenario, registry *experiment.Registry, base config.Config, onResult ResultFunc) ([]Outcome, error) {
	logger := log.Logger().Named("automation")
	outcomes := make([]Outcome, 0, len(sc.Runs))

	for i, run := range sc.Runs {
		cfg, err := run.Config(base)
		if err != nil {
			return outcomes, errors.Wrapf(err, "run %d", i+1)
		}
		desc, err := registry.Get(cfg.Algorithm)
		if err != nil {
			return outcomes, errors.Wrapf(err, "run %d", i+1)
		}
		seeds := max(run.Seeds, 1)
		logger.Info("scenario run",
			zap.Int("index", i+1),
			zap.String("algorithm", cfg.Algorithm),
			zap.Int64("seed", cfg.Seed),
			zap.Int("seeds", seeds))

		out := Outcome{Run: run}
		for k := 0; k < seeds; k++ {
			ecfg := experiment.FromConfig(cfg)
			ecfg.Seed = cfg.Seed + int64(k)
			exp := experiment.New(ecfg)
			if err := exp.Setup(desc, nil, nil); err != nil {
				return outcomes, errors.Wrapf(err, "run %d", i+1)
			}
			res, err := exp.Run(ctx)
			if res == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if err == nil {
					err = errors.New("no result")
				}
				return outcomes, errors.Wrapf(err, "run %d", i+1)
			}
			out.Results = append(out.Results, res)
			if onResult != nil {
				onResult(run, res)
			}
		}
		out.Summary = Summarize(out.Results)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
