package algorithms

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

const (
	DescentMaxIterations = 100
	DescentTolerance     = 1e-3
	descentBlowup        = 1e6
)

// Objective is a smooth 2D function with a known minimum.
type Objective struct {
	Name    string
	Formula string
	F       func(p engine.Point) float64
	Grad    func(p engine.Point) engine.Point
	Min     engine.Point
}

var (
	Bowl = Objective{
		Name:    "bowl",
		Formula: "f(x,y) = (x-1)² + (y-2)²",
		F: func(p engine.Point) float64 {
			return (p.X-1)*(p.X-1) + (p.Y-2)*(p.Y-2)
		},
		Grad: func(p engine.Point) engine.Point {
			return engine.Point{X: 2 * (p.X - 1), Y: 2 * (p.Y - 2)}
		},
		Min: engine.Point{X: 1, Y: 2},
	}

	Ellipse = Objective{
		Name:    "ellipse",
		Formula: "f(x,y) = (x-1)² + 5(y-2)²",
		F: func(p engine.Point) float64 {
			return (p.X-1)*(p.X-1) + 5*(p.Y-2)*(p.Y-2)
		},
		Grad: func(p engine.Point) engine.Point {
			return engine.Point{X: 2 * (p.X - 1), Y: 10 * (p.Y - 2)}
		},
		Min: engine.Point{X: 1, Y: 2},
	}

	Objectives = []Objective{Bowl, Ellipse}

	DescentStart = engine.Point{X: 3, Y: 3}
)

var descentSpecs = []engine.ParamSpec{
	{Name: "lr", Label: "Learning rate", Min: 0.01, Max: 0.5, Step: 0.01, Default: 0.1},
	{Name: "objective", Label: "Objective (0 bowl, 1 ellipse)", Min: 0, Max: 1, Step: 1, Default: 0, Topology: true},
}

// GradientDescent follows the negative gradient of an objective from a
// fixed start, leaving a trail of visited points.
type GradientDescent struct {
	base
	obj  Objective
	pos  engine.Point
	path []engine.Point
	iter int
}

func NewGradientDescent() *GradientDescent {
	return &GradientDescent{}
}

func (g *GradientDescent) Name() string { return "gradient-descent" }

func (g *GradientDescent) Init(env engine.Env) error {
	if _, err := g.setup(descentSpecs, env, render.Rect{MinX: -1, MinY: -0.5, MaxX: 5, MaxY: 4.5}); err != nil {
		return err
	}
	g.obj = Objectives[g.params.Int("objective")]
	g.pos = DescentStart
	g.path = []engine.Point{g.pos}
	g.iter = 0
	return nil
}

func (g *GradientDescent) Step() error {
	if !g.ready {
		return notReady(g.Name())
	}
	if g.Terminal() {
		return nil
	}
	next := DescentStep(g.obj, g.pos, g.params["lr"])
	if math.Abs(next.X) > descentBlowup || math.Abs(next.Y) > descentBlowup {
		return errors.Wrapf(engine.ErrDiverged, "lr %.2f on %s", g.params["lr"], g.obj.Name)
	}
	g.pos = next
	g.path = append(g.path, next)
	g.iter++
	return nil
}

// DescentStep moves p against the gradient by lr.
func DescentStep(obj Objective, p engine.Point, lr float64) engine.Point {
	d := obj.Grad(p)
	return engine.Point{X: p.X - lr*d.X, Y: p.Y - lr*d.Y}
}

func (g *GradientDescent) Terminal() bool {
	if !g.ready {
		return false
	}
	d := g.obj.Grad(g.pos)
	return math.Hypot(d.X, d.Y) < DescentTolerance || g.iter >= DescentMaxIterations
}

func (g *GradientDescent) Tune(name string, v float64) error { return g.tune(name, v) }

func (g *GradientDescent) Loss() float64 { return g.obj.F(g.pos) }

func (g *GradientDescent) Position() engine.Point { return g.pos }

func (g *GradientDescent) Path() []engine.Point { return g.path }

func (g *GradientDescent) State() engine.Vector { return engine.Vector{g.pos.X, g.pos.Y} }

func (g *GradientDescent) Phase() string {
	d := g.obj.Grad(g.pos)
	return fmt.Sprintf("iteration %d  |∇f| = %.4f", g.iter, math.Hypot(d.X, d.Y))
}

// contour traces the level set f = level as a closed polyline. Both
// objectives are axis-aligned quadratics around Min.
func (g *GradientDescent) contour(p render.Plot, level float64, st render.Stroke) {
	ry := math.Sqrt(level)
	if g.obj.Name == Ellipse.Name {
		ry = math.Sqrt(level / 5)
	}
	rx := math.Sqrt(level)
	const segments = 48
	prev := engine.Point{X: g.obj.Min.X + rx, Y: g.obj.Min.Y}
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		cur := engine.Point{X: g.obj.Min.X + rx*math.Cos(a), Y: g.obj.Min.Y + ry*math.Sin(a)}
		p.Line(prev.X, prev.Y, cur.X, cur.Y, st)
		prev = cur
	}
}

func (g *GradientDescent) Draw(s render.Surface, ov render.Overlay) {
	if !g.ready {
		return
	}
	p := g.plot(s)
	g.drawFrame(s, ov, 6)
	for _, level := range []float64{0.25, 1, 2, 4, 8} {
		g.contour(p, level, render.Solid(render.Alpha(ov.Theme.Class(0), 0x60), 1))
	}
	p.Dot(g.obj.Min.X, g.obj.Min.Y, 5, ov.Theme.Highlight, render.NoStroke)
	for i := 1; i < len(g.path); i++ {
		a, b := g.path[i-1], g.path[i]
		p.Line(a.X, a.Y, b.X, b.Y, render.Solid(ov.Theme.Accent, 2))
	}
	for _, pt := range g.path[:len(g.path)-1] {
		p.Dot(pt.X, pt.Y, 2, ov.Theme.Accent, render.NoStroke)
	}
	p.Dot(g.pos.X, g.pos.Y, 6, ov.Theme.Accent, render.Solid(ov.Theme.Axis, 2))
	caption(s, ov,
		g.obj.Formula,
		fmt.Sprintf("(x, y) = (%.3f, %.3f)  f = %.4f", g.pos.X, g.pos.Y, g.Loss()),
		g.Phase(),
	)
}

func (g *GradientDescent) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "contour", Swatch: 0},
		{Label: "path", Swatch: render.SwatchAccent},
		{Label: "minimum", Swatch: render.SwatchHighlight},
	}
}
