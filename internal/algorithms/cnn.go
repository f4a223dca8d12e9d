package algorithms

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

// Layer describes one stage of the convolutional pipeline.
type Layer struct {
	Name  string
	Kind  string
	Size  int
	Depth int
}

func (l Layer) String() string {
	if l.Kind == "fc" {
		return fmt.Sprintf("%s (%d)", l.Name, l.Size)
	}
	return fmt.Sprintf("%s %dx%dx%d", l.Name, l.Size, l.Size, l.Depth)
}

var CNNLayers = []Layer{
	{Name: "input", Kind: "input", Size: 28, Depth: 1},
	{Name: "conv1", Kind: "conv", Size: 24, Depth: 8},
	{Name: "pool1", Kind: "pool", Size: 12, Depth: 8},
	{Name: "conv2", Kind: "conv", Size: 8, Depth: 16},
	{Name: "pool2", Kind: "pool", Size: 4, Depth: 16},
	{Name: "fc", Kind: "fc", Size: 10, Depth: 1},
}

// CNNTarget is the digit drawn into the input layer.
const CNNTarget = 5

var digitFive = []string{
	".#######",
	".#......",
	".#......",
	".######.",
	".......#",
	".......#",
	".#.....#",
	"..#####.",
}

// CNN steps through fixed layer descriptors, ending on a synthetic class
// probability vector biased toward the input digit.
type CNN struct {
	base
	active int
	probs  []float64
}

func NewCNN() *CNN {
	return &CNN{}
}

func (c *CNN) Name() string { return "cnn" }

func (c *CNN) Init(env engine.Env) error {
	rng, err := c.setup(nil, env, render.Rect{MinX: 0, MinY: 0, MaxX: float64(len(CNNLayers)), MaxY: 1})
	if err != nil {
		return err
	}
	raw := lo.Times(10, func(i int) float64 {
		if i == CNNTarget {
			return 85 + rng.Float64()*10
		}
		return rng.Float64() * 20
	})
	total := lo.Sum(raw)
	c.probs = lo.Map(raw, func(v float64, _ int) float64 { return v / total * 100 })
	c.active = 0
	c.samples = nil
	return nil
}

func (c *CNN) Step() error {
	if !c.ready {
		return notReady(c.Name())
	}
	if c.Terminal() {
		return nil
	}
	c.active++
	return nil
}

func (c *CNN) Terminal() bool { return c.active >= len(CNNLayers)-1 }

func (c *CNN) Active() Layer { return CNNLayers[c.active] }

// Probabilities returns the output distribution in percent.
func (c *CNN) Probabilities() []float64 { return c.probs }

// Prediction is the most probable class.
func (c *CNN) Prediction() int {
	best := 0
	for i, p := range c.probs {
		if p > c.probs[best] {
			best = i
		}
	}
	return best
}

func (c *CNN) State() engine.Vector {
	if c.Terminal() {
		return engine.Vector(c.probs).Clone()
	}
	return engine.Vector{float64(c.active)}
}

func (c *CNN) Phase() string {
	l := CNNLayers[c.active]
	if c.Terminal() {
		return fmt.Sprintf("%s: predicted digit %d (%.1f%%)", l.Name, c.Prediction(), c.probs[c.Prediction()])
	}
	return l.String()
}

func (c *CNN) Draw(s render.Surface, ov render.Overlay) {
	if !c.ready {
		return
	}
	p := c.plot(s)
	for i, l := range CNNLayers {
		cx := float64(i) + 0.5
		color := ov.Theme.Muted
		if i <= c.active {
			color = ov.Theme.Class(0)
		}
		if i == c.active {
			color = ov.Theme.Accent
		}
		switch l.Kind {
		case "input":
			c.drawDigit(s, ov, cx, i <= c.active)
		case "fc":
			c.drawOutput(s, ov, cx)
		default:
			half := 0.05 + 0.35*float64(l.Size)/28
			stack := lo.Min([]int{l.Depth, 4})
			for k := stack - 1; k >= 0; k-- {
				off := float64(k) * 0.02
				x0, y0 := c.view.Apply(cx-half/2+off, 0.5+half+off)
				x1, y1 := c.view.Apply(cx+half/2+off, 0.5-half+off)
				s.Rect(x0, y0, x1-x0, y1-y0, render.Alpha(color, 0x50), render.Solid(color, 1))
			}
		}
		if i > 0 {
			p.Line(float64(i)-0.12, 0.5, float64(i)+0.12, 0.5, render.Solid(ov.Theme.Axis, 1))
		}
		if ov.Labels {
			p.Text(cx, 0.06, l.Name, ov.Theme.Text, render.AlignCenter)
		}
	}
	caption(s, ov, c.Phase())
}

func (c *CNN) drawDigit(s render.Surface, ov render.Overlay, cx float64, lit bool) {
	cell := 0.3 / float64(len(digitFive))
	x0 := cx - 0.15
	y0 := 0.65
	fill := ov.Theme.Muted
	if lit {
		fill = ov.Theme.Text
	}
	for r, row := range digitFive {
		for col, ch := range row {
			if ch != '#' {
				continue
			}
			ax, ay := c.view.Apply(x0+float64(col)*cell, y0-float64(r)*cell)
			bx, by := c.view.Apply(x0+float64(col+1)*cell, y0-float64(r+1)*cell)
			s.Rect(ax, ay, bx-ax, by-ay, fill, render.NoStroke)
		}
	}
}

func (c *CNN) drawOutput(s render.Surface, ov render.Overlay, cx float64) {
	p := c.plot(s)
	for d := 0; d < 10; d++ {
		y := 0.85 - float64(d)*0.07
		p.Dot(cx-0.3, y, 4, ov.Theme.Muted, render.NoStroke)
		if !c.Terminal() {
			continue
		}
		w := 0.5 * c.probs[d] / 100
		ax, ay := c.view.Apply(cx-0.25, y+0.025)
		bx, by := c.view.Apply(cx-0.25+w, y-0.025)
		fill := ov.Theme.Class(0)
		if d == c.Prediction() {
			fill = ov.Theme.Highlight
		}
		s.Rect(ax, ay, bx-ax, by-ay, fill, render.NoStroke)
		if ov.Labels {
			p.Text(cx-0.35, y-0.01, fmt.Sprint(d), ov.Theme.Text, render.AlignRight)
		}
	}
}

func (c *CNN) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "processed", Swatch: 0},
		{Label: "current layer", Swatch: render.SwatchAccent},
		{Label: "prediction", Swatch: render.SwatchHighlight},
	}
}
