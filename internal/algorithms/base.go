package algorithms

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

const (
	DefaultWidth  = 600
	DefaultHeight = 400
	padding       = 40
)

// base holds what every simulation needs after Init: resolved parameters,
// the sample set and the domain-to-pixel transform.
type base struct {
	specs   []engine.ParamSpec
	params  engine.Params
	samples []engine.Sample
	domain  render.Rect
	view    render.Transform
	ready   bool
}

func (b *base) setup(specs []engine.ParamSpec, env engine.Env, domain render.Rect) (*rand.Rand, error) {
	p, err := engine.Resolve(specs, env.Params)
	if err != nil {
		return nil, err
	}
	w, h := env.Width, env.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	b.specs = specs
	b.params = p
	b.domain = domain
	b.view = render.Fit(domain, w, h, padding)
	b.ready = true
	return env.Rand(), nil
}

func (b *base) Samples() []engine.Sample { return b.samples }

func (b *base) Specs() []engine.ParamSpec { return b.specs }

// Params returns a copy of the resolved parameters.
func (b *base) Params() engine.Params { return b.params.Clone() }

func (b *base) Viewport() render.Transform { return b.view }

// tune applies a live parameter. Topology parameters are refused here; they
// only take effect through a fresh Init.
func (b *base) tune(name string, v float64) error {
	spec, ok := engine.FindSpec(b.specs, name)
	if !ok {
		return engine.UnknownParam(name)
	}
	if spec.Topology {
		return errors.Wrapf(engine.ErrLocked, "%q changes model shape", name)
	}
	b.params[name] = spec.Clamp(v)
	return nil
}

func (b *base) plot(s render.Surface) render.Plot {
	return render.Plot{S: s, T: b.view}
}

// drawFrame paints the optional grid and the domain border.
func (b *base) drawFrame(s render.Surface, ov render.Overlay, lines int) {
	p := b.plot(s)
	if ov.Grid {
		p.Grid(b.domain, lines, ov.Theme.Grid)
	}
	x0, y0 := b.view.Apply(b.domain.MinX, b.domain.MaxY)
	x1, y1 := b.view.Apply(b.domain.MaxX, b.domain.MinY)
	s.Rect(x0, y0, x1-x0, y1-y0, render.Alpha(ov.Theme.Background, 0), render.Solid(ov.Theme.Axis, 1))
}

// drawSamples paints every sample as a dot colored by label.
func (b *base) drawSamples(s render.Surface, ov render.Overlay, color func(i int, sm engine.Sample) int) {
	p := b.plot(s)
	for i, sm := range b.samples {
		cls := sm.Label
		if color != nil {
			cls = color(i, sm)
		}
		p.Dot(sm.X, sm.Y, 4, ov.Theme.Class(cls), render.Solid(ov.Theme.Background, 1))
	}
}

// caption writes status lines in the top-left corner.
func caption(s render.Surface, ov render.Overlay, lines ...string) {
	if !ov.Labels {
		return
	}
	for i, l := range lines {
		s.Text(padding+6, float64(padding+16+i*15), l, ov.Theme.Text, render.AlignLeft)
	}
}

func notReady(name string) error {
	return errors.Wrap(engine.ErrNotInitialized, name)
}

func fmtf(v float64) string { return fmt.Sprintf("%.2f", v) }
