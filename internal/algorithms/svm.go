package algorithms

import (
	"fmt"
	"math"

	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

const (
	SVMStageInit = iota
	SVMStageSearch
	SVMStageBoundary
	SVMStageMargin
	SVMStageSupport
)

var svmStageNames = []string{
	"initialize data",
	"search for a separating hyperplane",
	"determine the decision boundary",
	"compute the maximum margin",
	"identify support vectors",
}

var svmSpecs = []engine.ParamSpec{
	{Name: "margin", Label: "Margin width", Min: 0.5, Max: 2, Step: 0.1, Default: 1},
}

// SVM walks a scripted sequence of stages toward a separating hyperplane
// w·x + b = 0. Labels 0 and 1 stand for the classes -1 and +1; Value holds
// the signed target.
type SVM struct {
	base
	w       [2]float64
	b       float64
	stage   int
	support []int
}

func NewSVM() *SVM {
	return &SVM{}
}

func (m *SVM) Name() string { return "svm" }

func (m *SVM) Init(env engine.Env) error {
	rng, err := m.setup(svmSpecs, env, render.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100})
	if err != nil {
		return err
	}
	neg := UniformBox(rng, 15, 10, 40, 20, 80, 0)
	pos := UniformBox(rng, 15, 60, 90, 20, 80, 1)
	for i := range neg {
		neg[i].Value = -1
	}
	for i := range pos {
		pos[i].Value = 1
	}
	m.samples = append(neg, pos...)
	m.w = [2]float64{1, 0}
	m.b = -45
	m.stage = SVMStageInit
	m.support = nil
	return nil
}

func (m *SVM) Step() error {
	if !m.ready {
		return notReady(m.Name())
	}
	if m.Terminal() {
		return nil
	}
	m.stage++
	switch m.stage {
	case SVMStageBoundary:
		m.w = [2]float64{1, 0.1}
	case SVMStageMargin:
		m.w, m.b = Canonical(m.samples, m.w)
	case SVMStageSupport:
		m.support = SupportVectors(m.samples, m.w, m.b, m.params["margin"])
	}
	return nil
}

func (m *SVM) Terminal() bool { return m.stage >= SVMStageSupport }

func (m *SVM) Tune(name string, v float64) error {
	if err := m.tune(name, v); err != nil {
		return err
	}
	if m.stage >= SVMStageSupport {
		m.support = SupportVectors(m.samples, m.w, m.b, m.params["margin"])
	}
	return nil
}

// Canonical places the hyperplane with normal w midway between the classes
// and rescales (w, b) so the closest samples satisfy |w·x + b| = 1.
func Canonical(samples []engine.Sample, w [2]float64) ([2]float64, float64) {
	maxNeg, minPos := math.Inf(-1), math.Inf(1)
	for _, s := range samples {
		p := w[0]*s.X + w[1]*s.Y
		if s.Value < 0 {
			maxNeg = math.Max(maxNeg, p)
		} else {
			minPos = math.Min(minPos, p)
		}
	}
	b := -(maxNeg + minPos) / 2
	half := (minPos - maxNeg) / 2
	if half <= 0 || math.IsInf(half, 0) {
		return w, b
	}
	return [2]float64{w[0] / half, w[1] / half}, b / half
}

// supportSlack absorbs the rounding left by Canonical, which can put the
// closest samples a few ulps above |w·x + b| = 1.
const supportSlack = 1e-9

// SupportVectors returns the samples whose functional margin |w·x + b| is
// within margin + 0.5. This is the margin of the canonical form from
// Canonical, not the geometric distance to the line: in canonical form the
// closest samples sit at exactly 1, so even the smallest margin flags them.
func SupportVectors(samples []engine.Sample, w [2]float64, b, margin float64) []int {
	var out []int
	limit := margin + 0.5 + supportSlack
	for i, s := range samples {
		if math.Abs(w[0]*s.X+w[1]*s.Y+b) <= limit {
			out = append(out, i)
		}
	}
	return out
}

func (m *SVM) Weights() ([2]float64, float64) { return m.w, m.b }

func (m *SVM) Support() []int { return m.support }

func (m *SVM) Stage() int { return m.stage }

func (m *SVM) State() engine.Vector { return engine.Vector{m.w[0], m.w[1], m.b} }

func (m *SVM) Phase() string { return svmStageNames[m.stage] }

// hyperplane draws the line w·x + b = offset clipped to the domain.
func (m *SVM) hyperplane(p render.Plot, offset float64, st render.Stroke) {
	d := m.domain
	if math.Abs(m.w[1]) < 1e-9 {
		if m.w[0] == 0 {
			return
		}
		x := (offset - m.b) / m.w[0]
		p.Line(x, d.MinY, x, d.MaxY, st)
		return
	}
	y := func(x float64) float64 { return (offset - m.b - m.w[0]*x) / m.w[1] }
	if math.Abs(m.w[0]) < 1e-9 {
		p.Line(d.MinX, y(d.MinX), d.MaxX, y(d.MaxX), st)
		return
	}
	// steep lines: parametrize by y to stay inside the frame
	x := func(yy float64) float64 { return (offset - m.b - m.w[1]*yy) / m.w[0] }
	p.Line(x(d.MinY), d.MinY, x(d.MaxY), d.MaxY, st)
}

func (m *SVM) Draw(s render.Surface, ov render.Overlay) {
	if !m.ready {
		return
	}
	p := m.plot(s)
	m.drawFrame(s, ov, 10)
	if m.stage >= SVMStageSearch {
		m.hyperplane(p, 0, render.Solid(ov.Theme.Axis, 2))
	}
	if m.stage >= SVMStageMargin {
		margin := m.params["margin"]
		st := render.Dashed(ov.Theme.Muted, 1)
		m.hyperplane(p, margin, st)
		m.hyperplane(p, -margin, st)
	}
	m.drawSamples(s, ov, nil)
	for _, i := range m.support {
		sm := m.samples[i]
		p.Dot(sm.X, sm.Y, 8, render.Alpha(ov.Theme.Highlight, 0), render.Solid(ov.Theme.Highlight, 2))
	}
	lines := []string{
		fmt.Sprintf("stage %d/%d: %s", m.stage+1, len(svmStageNames), m.Phase()),
		fmt.Sprintf("w = (%.3f, %.3f)  b = %.3f", m.w[0], m.w[1], m.b),
	}
	if m.stage >= SVMStageSupport {
		lines = append(lines, fmt.Sprintf("support vectors: %d", len(m.support)))
	}
	caption(s, ov, lines...)
}

func (m *SVM) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "class -1", Swatch: 0},
		{Label: "class +1", Swatch: 1},
		{Label: "support vector", Swatch: render.SwatchHighlight},
	}
}
