// Package optim sweeps algorithm parameters over a grid and ranks the runs.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/san-kum/mlviz/internal/experiment"
	"golang.org/x/sync/errgroup"
)

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=a,b,c" or "name=min:max:count".
func ParseAxis(s string) (Axis, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || raw == "" {
		return Axis{}, errors.Errorf("axis %q: expected name=a,b,c or name=min:max:count", s)
	}
	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		from, err1 := strconv.ParseFloat(parts[0], 64)
		to, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, errors.Errorf("axis %q: bad range", s)
		}
		return Axis{Name: name, Values: Linspace(from, to, n)}, nil
	}
	var values []float64
	for _, p := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Axis{}, errors.Wrapf(err, "axis %q", s)
		}
		values = append(values, v)
	}
	return Axis{Name: name, Values: values}, nil
}

// Linspace returns n evenly spaced values from a to b inclusive.
func Linspace(a, b float64, n int) []float64 {
	if n == 1 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + step*float64(i)
	}
	return out
}

// Trial is one grid point and how its run scored.
type Trial struct {
	Params map[string]float64
	Result *experiment.Result
	Score  float64
	Err    error
}

// Builder sets up a fresh experiment for one grid point.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	axes   []Axis
	metric string
	// Maximize ranks higher scores first. The default ranks lower first,
	// which suits final_loss.
	Maximize bool
	// Workers bounds concurrent runs; zero means GOMAXPROCS.
	Workers int
}

func NewGridSearch(axes []Axis, metric string) *GridSearch {
	return &GridSearch{axes: axes, metric: metric}
}

// Points enumerates the grid, last axis varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for _, axis := range g.axes {
		next := make([]map[string]float64, 0, len(points)*len(axis.Values))
		for _, p := range points {
			for _, v := range axis.Values {
				q := lo.Assign(p, map[string]float64{axis.Name: v})
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search runs every grid point and returns the trials ranked best first.
// Trials that fail to set up or run keep their error and sort last; only
// cancellation aborts the search.
func (g *GridSearch) Search(ctx context.Context, build Builder) ([]Trial, error) {
	if len(g.axes) == 0 {
		return nil, errors.New("grid search needs at least one axis")
	}
	for _, axis := range g.axes {
		if len(axis.Values) == 0 {
			return nil, errors.Errorf("axis %s has no values", axis.Name)
		}
	}
	points := g.Points()
	trials := make([]Trial, len(points))

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, p := range points {
		eg.Go(func() error {
			trials[i] = g.run(ctx, p, build)
			if errors.Is(trials[i].Err, context.Canceled) || errors.Is(trials[i].Err, context.DeadlineExceeded) {
				return trials[i].Err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if g.Maximize {
			return a.Score > b.Score
		}
		return a.Score < b.Score
	})
	return trials, nil
}

func (g *GridSearch) run(ctx context.Context, params map[string]float64, build Builder) Trial {
	t := Trial{Params: params, Score: math.NaN()}
	if err := ctx.Err(); err != nil {
		t.Err = err
		return t
	}
	exp, err := build(params)
	if err != nil {
		t.Err = err
		return t
	}
	res, err := exp.Run(ctx)
	t.Result = res
	if err != nil {
		t.Err = err
		return t
	}
	score, ok := res.Metrics[g.metric]
	if !ok {
		t.Err = fmt.Errorf("run produced no %s", g.metric)
		return t
	}
	t.Score = score
	return t
}
