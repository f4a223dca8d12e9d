package render

import "image/color"

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Stroke describes an outline. A zero Width draws nothing.
type Stroke struct {
	Color color.RGBA
	Width float64
	Dash  bool
}

var NoStroke = Stroke{}

func Solid(c color.RGBA, w float64) Stroke { return Stroke{Color: c, Width: w} }
func Dashed(c color.RGBA, w float64) Stroke { return Stroke{Color: c, Width: w, Dash: true} }

// Surface is a fixed-size 2D drawing target in pixel coordinates with the
// origin at the top-left corner. A fill with zero alpha is not painted.
type Surface interface {
	Size() (w, h int)
	Clear(bg color.RGBA)
	Line(x0, y0, x1, y1 float64, st Stroke)
	Circle(cx, cy, r float64, fill color.RGBA, st Stroke)
	Rect(x, y, w, h float64, fill color.RGBA, st Stroke)
	Text(x, y float64, s string, c color.RGBA, align Align)
}

// LegendEntry names a color role. Swatch is a class index, or one of the
// Swatch constants for the theme's accent colors.
type LegendEntry struct {
	Label  string
	Swatch int
}

const (
	SwatchMuted     = -1
	SwatchAccent    = -2
	SwatchHighlight = -3
)

// Swatch resolves a legend swatch against a theme.
func (t Theme) Swatch(i int) color.RGBA {
	switch i {
	case SwatchAccent:
		return t.Accent
	case SwatchHighlight:
		return t.Highlight
	}
	return t.Class(i)
}

// Overlay toggles the decorations a scene may draw around its data.
type Overlay struct {
	Theme  Theme
	Grid   bool
	Legend bool
	Labels bool
}

func DefaultOverlay() Overlay {
	return Overlay{Theme: DefaultTheme, Grid: true, Legend: true, Labels: true}
}

// Scene is anything that can paint itself given the current overlay.
type Scene interface {
	Draw(s Surface, ov Overlay)
	Legend() []LegendEntry
}

// Renderer repaints a whole surface from a scene. It keeps no per-frame
// state, so the same scene and overlay always produce the same output.
type Renderer struct {
	Overlay Overlay
}

func NewRenderer(ov Overlay) *Renderer {
	return &Renderer{Overlay: ov}
}

func (r *Renderer) Render(s Surface, sc Scene) {
	theme := r.Overlay.Theme
	s.Clear(theme.Background)
	sc.Draw(s, r.Overlay)
	if r.Overlay.Legend {
		drawLegend(s, sc.Legend(), theme)
	}
}

func drawLegend(s Surface, entries []LegendEntry, theme Theme) {
	if len(entries) == 0 {
		return
	}
	w, _ := s.Size()
	x := float64(w) - 110
	y := 14.0
	for _, e := range entries {
		s.Circle(x, y, 4, theme.Swatch(e.Swatch), NoStroke)
		s.Text(x+10, y+4, e.Label, theme.Text, AlignLeft)
		y += 16
	}
}
