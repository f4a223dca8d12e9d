package anim_test

import (
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

var errBoom = errors.New("boom")

var counterSpecs = []engine.ParamSpec{
	{Name: "limit", Min: 1, Max: 50, Step: 1, Default: 5, Topology: true},
	{Name: "gain", Min: 0, Max: 10, Step: 0.5, Default: 1},
}

// counter counts up to a limit. failAt, panicAt and nanAt inject faults at
// the given count.
type counter struct {
	params  engine.Params
	seed    int64
	n       float64
	inits   int
	failAt  int
	panicAt int
	nanAt   int
	placed  engine.Point
}

func (c *counter) Name() string              { return "counter" }
func (c *counter) Specs() []engine.ParamSpec { return counterSpecs }

func (c *counter) Init(env engine.Env) error {
	p, err := engine.Resolve(counterSpecs, env.Params)
	if err != nil {
		return err
	}
	c.params, c.seed, c.n = p, env.Seed, 0
	c.inits++
	return nil
}

func (c *counter) Step() error {
	if c.Terminal() {
		return nil
	}
	next := int(c.n) + 1
	switch next {
	case c.failAt:
		return errors.Wrap(engine.ErrDiverged, "counter")
	case c.panicAt:
		panic("counter exploded")
	case c.nanAt:
		c.n = math.NaN()
		return nil
	}
	c.n++
	return nil
}

func (c *counter) Terminal() bool           { return c.n >= c.params["limit"] }
func (c *counter) Samples() []engine.Sample { return nil }
func (c *counter) State() engine.Vector     { return engine.Vector{c.n} }
func (c *counter) Loss() float64            { return 1 / (1 + c.n) }
func (c *counter) Phase() string            { return "counting" }

func (c *counter) Tune(name string, v float64) error {
	if name != "gain" {
		return engine.ErrLocked
	}
	c.params[name] = v
	return nil
}

func (c *counter) Place(p engine.Point) error {
	if p.X < 0 || p.X > 10 || p.Y < 0 || p.Y > 10 {
		return engine.ErrParameterBounds
	}
	c.placed = p
	return nil
}

func (c *counter) Viewport() render.Transform {
	return render.Fit(render.Rect{MaxX: 10, MaxY: 10}, 100, 100, 0)
}

func (c *counter) Draw(s render.Surface, ov render.Overlay) {
	w, _ := s.Size()
	s.Rect(0, 0, c.n*float64(w)/50, 4, ov.Theme.Accent, render.NoStroke)
	s.Circle(c.placed.X*10, 100-c.placed.Y*10, 3, ov.Theme.Highlight, render.NoStroke)
}

func (c *counter) Legend() []render.LegendEntry { return nil }
