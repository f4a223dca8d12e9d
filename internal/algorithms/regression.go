package algorithms

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

const (
	RegressionMaxIterations = 100
	regressionPoints        = 50
)

var regressionSpecs = []engine.ParamSpec{
	{Name: "lr", Label: "Learning rate", Min: 0.001, Max: 0.1, Step: 0.001, Default: 0.01},
}

// LinearRegression fits y = m*x + b to noisy points by batch gradient
// descent on the mean squared error, one update per step.
type LinearRegression struct {
	base
	slope     float64
	intercept float64
	iter      int
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (r *LinearRegression) Name() string { return "linear-regression" }

func (r *LinearRegression) Init(env engine.Env) error {
	rng, err := r.setup(regressionSpecs, env, render.Rect{MinX: -6, MinY: -12, MaxX: 6, MaxY: 18})
	if err != nil {
		return err
	}
	r.samples = NoisyLine(rng, regressionPoints, -5, 5, 2, 3, 2)
	r.slope, r.intercept, r.iter = 0, 0, 0
	return nil
}

func (r *LinearRegression) Step() error {
	if !r.ready {
		return notReady(r.Name())
	}
	if r.Terminal() {
		return nil
	}
	r.slope, r.intercept = RegressionStep(r.samples, r.slope, r.intercept, r.params["lr"])
	r.iter++
	return nil
}

func (r *LinearRegression) Terminal() bool { return r.iter >= RegressionMaxIterations }

func (r *LinearRegression) Tune(name string, v float64) error { return r.tune(name, v) }

func (r *LinearRegression) State() engine.Vector {
	return engine.Vector{r.slope, r.intercept}
}

// Line returns the current slope and intercept.
func (r *LinearRegression) Line() (float64, float64) { return r.slope, r.intercept }

func (r *LinearRegression) Loss() float64 { return MSE(r.samples, r.slope, r.intercept) }

func (r *LinearRegression) Phase() string {
	return fmt.Sprintf("iteration %d/%d", r.iter, RegressionMaxIterations)
}

// RegressionStep performs one gradient descent update of (m, b) on the
// mean squared error.
func RegressionStep(samples []engine.Sample, m, b, lr float64) (float64, float64) {
	if len(samples) == 0 {
		return m, b
	}
	n := float64(len(samples))
	dm := 2 / n * lo.SumBy(samples, func(s engine.Sample) float64 {
		return (m*s.X + b - s.Value) * s.X
	})
	db := 2 / n * lo.SumBy(samples, func(s engine.Sample) float64 {
		return m*s.X + b - s.Value
	})
	return m - lr*dm, b - lr*db
}

func MSE(samples []engine.Sample, m, b float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := lo.SumBy(samples, func(s engine.Sample) float64 {
		e := m*s.X + b - s.Value
		return e * e
	})
	return sum / float64(len(samples))
}

func (r *LinearRegression) Draw(s render.Surface, ov render.Overlay) {
	if !r.ready {
		return
	}
	p := r.plot(s)
	r.drawFrame(s, ov, 12)
	p.Line(r.domain.MinX, 0, r.domain.MaxX, 0, render.Solid(ov.Theme.Axis, 1))
	p.Line(0, r.domain.MinY, 0, r.domain.MaxY, render.Solid(ov.Theme.Axis, 1))

	if ov.Labels {
		residual := render.Dashed(render.Alpha(ov.Theme.Muted, 0x80), 1)
		for _, sm := range r.samples {
			p.Line(sm.X, sm.Y, sm.X, r.slope*sm.X+r.intercept, residual)
		}
	}
	r.drawSamples(s, ov, func(int, engine.Sample) int { return 0 })

	x0, x1 := r.domain.MinX, r.domain.MaxX
	p.Line(x0, r.slope*x0+r.intercept, x1, r.slope*x1+r.intercept, render.Solid(ov.Theme.Accent, 2))

	caption(s, ov,
		fmt.Sprintf("y = %.2fx + %.2f", r.slope, r.intercept),
		"MSE: "+fmtf(r.Loss()),
		r.Phase(),
	)
}

func (r *LinearRegression) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "samples", Swatch: 0},
		{Label: "fitted line", Swatch: render.SwatchAccent},
	}
}
