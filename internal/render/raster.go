package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster paints into an in-memory RGBA image. Colors are treated as straight
// (non-premultiplied) alpha when blending.
type Raster struct {
	Img *image.RGBA
}

func NewRaster(w, h int) *Raster {
	return &Raster{Img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (r *Raster) Size() (int, int) {
	b := r.Img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Raster) Clear(bg color.RGBA) {
	bg.A = 0xff
	pix := r.Img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
}

func (r *Raster) blend(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(r.Img.Rect)) || c.A == 0 {
		return
	}
	if c.A == 0xff {
		r.Img.SetRGBA(x, y, c)
		return
	}
	d := r.Img.RGBAAt(x, y)
	a := float64(c.A) / 255
	mix := func(s, t uint8) uint8 { return uint8(float64(s)*a + float64(t)*(1-a) + 0.5) }
	r.Img.SetRGBA(x, y, color.RGBA{mix(c.R, d.R), mix(c.G, d.G), mix(c.B, d.B), 0xff})
}

func (r *Raster) dot(x, y int, c color.RGBA, width float64) {
	if width <= 1.5 {
		r.blend(x, y, c)
		return
	}
	rad := width / 2
	ir := int(math.Ceil(rad))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			if float64(dx*dx+dy*dy) <= rad*rad {
				r.blend(x+dx, y+dy, c)
			}
		}
	}
}

// Line draws using Bresenham's algorithm. Dashed strokes alternate 6 pixels
// on and 4 off.
func (r *Raster) Line(x0f, y0f, x1f, y1f float64, st Stroke) {
	if st.Width <= 0 {
		return
	}
	x0, y0 := int(math.Round(x0f)), int(math.Round(y0f))
	x1, y1 := int(math.Round(x1f)), int(math.Round(y1f))
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	n := 0
	for {
		if !st.Dash || n%10 < 6 {
			r.dot(x0, y0, st.Color, st.Width)
		}
		n++
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Raster) Circle(cx, cy, rad float64, fill color.RGBA, st Stroke) {
	ir := int(math.Ceil(rad + st.Width))
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	inner := rad - st.Width/2
	outer := rad + st.Width/2
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if d <= rad && fill.A > 0 {
				r.blend(x0+dx, y0+dy, fill)
			}
			if st.Width > 0 && d >= inner && d <= outer {
				if st.Dash && int(math.Atan2(float64(dy), float64(dx))*180/math.Pi+180)%20 >= 12 {
					continue
				}
				r.blend(x0+dx, y0+dy, st.Color)
			}
		}
	}
}

func (r *Raster) Rect(x, y, w, h float64, fill color.RGBA, st Stroke) {
	if fill.A > 0 {
		for py := int(math.Round(y)); py < int(math.Round(y+h)); py++ {
			for px := int(math.Round(x)); px < int(math.Round(x+w)); px++ {
				r.blend(px, py, fill)
			}
		}
	}
	if st.Width > 0 {
		r.Line(x, y, x+w, y, st)
		r.Line(x+w, y, x+w, y+h, st)
		r.Line(x+w, y+h, x, y+h, st)
		r.Line(x, y+h, x, y, st)
	}
}

// Text draws s with its baseline at y using the 7x13 bitmap face.
func (r *Raster) Text(x, y float64, s string, c color.RGBA, align Align) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Round()
	switch align {
	case AlignCenter:
		x -= float64(width) / 2
	case AlignRight:
		x -= float64(width)
	}
	c.A = 0xff
	d := font.Drawer{
		Dst:  r.Img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
