package render

import "image/color"

// Rect is an axis-aligned region in domain coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Transform maps domain coordinates (y up) to pixels (y down):
//
//	px = Ox + Sx*x
//	py = Oy - Sy*y
type Transform struct {
	Sx, Sy float64
	Ox, Oy float64
}

// Fit builds the transform that places domain inside a w x h surface with
// pad pixels on every side.
func Fit(domain Rect, w, h int, pad float64) Transform {
	dw, dh := domain.Width(), domain.Height()
	if dw == 0 {
		dw = 1
	}
	if dh == 0 {
		dh = 1
	}
	sx := (float64(w) - 2*pad) / dw
	sy := (float64(h) - 2*pad) / dh
	return Transform{
		Sx: sx,
		Sy: sy,
		Ox: pad - sx*domain.MinX,
		Oy: pad + sy*domain.MaxY,
	}
}

func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.Ox + t.Sx*x, t.Oy - t.Sy*y
}

// Invert maps a pixel back to domain coordinates.
func (t Transform) Invert(px, py float64) (float64, float64) {
	x, y := 0.0, 0.0
	if t.Sx != 0 {
		x = (px - t.Ox) / t.Sx
	}
	if t.Sy != 0 {
		y = (t.Oy - py) / t.Sy
	}
	return x, y
}

// Len scales a horizontal domain length to pixels.
func (t Transform) Len(d float64) float64 {
	return t.Sx * d
}

// Plot draws with a transform applied, so scenes can work in domain units.
type Plot struct {
	S Surface
	T Transform
}

func (p Plot) Line(x0, y0, x1, y1 float64, st Stroke) {
	a, b := p.T.Apply(x0, y0)
	c, d := p.T.Apply(x1, y1)
	p.S.Line(a, b, c, d, st)
}

func (p Plot) Dot(x, y, r float64, fill color.RGBA, st Stroke) {
	px, py := p.T.Apply(x, y)
	p.S.Circle(px, py, r, fill, st)
}

func (p Plot) Text(x, y float64, s string, c color.RGBA, align Align) {
	px, py := p.T.Apply(x, y)
	p.S.Text(px, py, s, c, align)
}

// Grid draws n evenly spaced lines across the domain in each direction.
func (p Plot) Grid(domain Rect, n int, c color.RGBA) {
	if n <= 0 {
		return
	}
	st := Solid(c, 1)
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		x := domain.MinX + f*domain.Width()
		y := domain.MinY + f*domain.Height()
		p.Line(x, domain.MinY, x, domain.MaxY, st)
		p.Line(domain.MinX, y, domain.MaxX, y, st)
	}
}
