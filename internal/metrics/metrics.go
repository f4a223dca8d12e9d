// Package metrics summarizes a run from the controller's status stream.
// Every metric is an anim.Observer.
package metrics

import (
	"math"

	"github.com/san-kum/mlviz/internal/anim"
)

type Metric interface {
	anim.Observer
	Name() string
	Value() float64
	Reset()
}

// Point is one sample of the loss curve.
type Point struct {
	Iteration int     `json:"iteration"`
	Loss      float64 `json:"loss"`
	Phase     string  `json:"phase,omitempty"`
}

// Trace records the loss after every iteration. Repeated notifications for
// the same iteration overwrite the previous sample.
type Trace struct {
	points []Point
}

func NewTrace() *Trace { return &Trace{} }

func (t *Trace) Name() string { return "final_loss" }

func (t *Trace) OnTick(st anim.Status) {
	if !st.HasLoss {
		return
	}
	if st.Iteration == 0 && len(t.points) > 0 && st.State == anim.Idle {
		t.points = t.points[:0]
	}
	p := Point{Iteration: st.Iteration, Loss: st.Loss, Phase: st.Phase}
	if n := len(t.points); n > 0 && t.points[n-1].Iteration == st.Iteration {
		t.points[n-1] = p
		return
	}
	t.points = append(t.points, p)
}

func (t *Trace) Points() []Point { return t.points }

// Losses returns the loss column, e.g. for plotting.
func (t *Trace) Losses() []float64 {
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		out[i] = p.Loss
	}
	return out
}

func (t *Trace) Value() float64 {
	if len(t.points) == 0 {
		return math.NaN()
	}
	return t.points[len(t.points)-1].Loss
}

func (t *Trace) Reset() { t.points = nil }

// Reduction is the fraction of the initial loss removed so far.
type Reduction struct {
	first, last float64
	samples     int
}

func NewReduction() *Reduction { return &Reduction{} }

func (r *Reduction) Name() string { return "loss_reduction" }

func (r *Reduction) OnTick(st anim.Status) {
	if !st.HasLoss {
		return
	}
	if r.samples == 0 || (st.Iteration == 0 && st.State == anim.Idle) {
		r.first, r.samples = st.Loss, 0
	}
	r.last = st.Loss
	r.samples++
}

func (r *Reduction) Value() float64 {
	if r.samples == 0 || r.first == 0 {
		return 0
	}
	return 1 - r.last/r.first
}

func (r *Reduction) Reset() {
	r.first, r.last, r.samples = 0, 0, 0
}

// Convergence is the iteration at which the run reached its terminal state,
// or -1 while it has not.
type Convergence struct {
	at int
}

func NewConvergence() *Convergence { return &Convergence{at: -1} }

func (c *Convergence) Name() string { return "converged_at" }

func (c *Convergence) OnTick(st anim.Status) {
	switch {
	case st.State == anim.Terminal && c.at < 0:
		c.at = st.Iteration
	case st.State == anim.Idle:
		c.at = -1
	}
}

func (c *Convergence) Value() float64 { return float64(c.at) }

func (c *Convergence) Reset() { c.at = -1 }

// Failures counts ticks that ended with an error.
type Failures struct {
	count int
	last  error
}

func NewFailures() *Failures { return &Failures{} }

func (f *Failures) Name() string { return "failures" }

func (f *Failures) OnTick(st anim.Status) {
	if st.Err != nil && st.Err != f.last {
		f.count++
	}
	f.last = st.Err
}

func (f *Failures) Value() float64 { return float64(f.count) }

func (f *Failures) Reset() {
	f.count = 0
	f.last = nil
}

// Standard returns the metrics recorded for every headless run.
func Standard() []Metric {
	return []Metric{NewTrace(), NewReduction(), NewConvergence(), NewFailures()}
}

// Collect reads every metric into a name -> value map, skipping NaN.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		if v := m.Value(); !math.IsNaN(v) {
			out[m.Name()] = v
		}
	}
	return out
}
