package render

import (
	"image/color"
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Braille is a monochrome terminal surface. Each cell holds 2x4 dots, so
// its pixel size is (Cols*2) x (Rows*4). The last color written to a cell
// is kept for Colorize.
type Braille struct {
	Cols, Rows int
	Grid       [][]rune
	colors     [][]color.RGBA
	text       [][]rune
}

func NewBraille(cols, rows int) *Braille {
	b := &Braille{
		Cols:   cols,
		Rows:   rows,
		Grid:   make([][]rune, rows),
		colors: make([][]color.RGBA, rows),
		text:   make([][]rune, rows),
	}
	for i := range b.Grid {
		b.Grid[i] = make([]rune, cols)
		b.colors[i] = make([]color.RGBA, cols)
		b.text[i] = make([]rune, cols)
	}
	b.Clear(color.RGBA{})
	return b
}

func (b *Braille) Size() (int, int) { return b.Cols * 2, b.Rows * 4 }

// Set sets a dot at (x, y) in sub-pixel coordinates.
func (b *Braille) Set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= b.Cols || row >= b.Rows {
		return
	}
	b.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	b.colors[row][col] = c
}

// Unset clears a dot.
func (b *Braille) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= b.Cols || row >= b.Rows {
		return
	}
	b.Grid[row][col] &= ^rune(pixelMap[y%4][x%2])
	if b.Grid[row][col] < brailleBlank {
		b.Grid[row][col] = brailleBlank
	}
}

// Clear resets every dot; the background color is ignored.
func (b *Braille) Clear(color.RGBA) {
	for i := range b.Grid {
		for j := range b.Grid[i] {
			b.Grid[i][j] = brailleBlank
			b.colors[i][j] = color.RGBA{}
			b.text[i][j] = 0
		}
	}
}

// Line draws using Bresenham's algorithm. Width is ignored; dashes skip
// every other pair of dots.
func (b *Braille) Line(x0f, y0f, x1f, y1f float64, st Stroke) {
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
		if !st.Dash || n%4 < 2 {
			b.Set(x0, y0, st.Color)
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

func (b *Braille) Circle(cx, cy, r float64, fill color.RGBA, st Stroke) {
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	if r < 2 {
		c := fill
		if c.A == 0 {
			c = st.Color
		}
		b.Set(x0, y0, c)
		return
	}
	ir := int(math.Ceil(r))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			switch {
			case st.Width > 0 && math.Abs(d-r) <= 0.6:
				b.Set(x0+dx, y0+dy, st.Color)
			case fill.A > 0 && d <= r:
				b.Set(x0+dx, y0+dy, fill)
			}
		}
	}
}

func (b *Braille) Rect(x, y, w, h float64, fill color.RGBA, st Stroke) {
	if st.Width <= 0 && fill.A > 0 {
		st = Solid(fill, 1)
	}
	b.Line(x, y, x+w, y, st)
	b.Line(x+w, y, x+w, y+h, st)
	b.Line(x+w, y+h, x, y+h, st)
	b.Line(x, y+h, x, y, st)
}

// Text writes characters over the dot layer, one per cell.
func (b *Braille) Text(x, y float64, s string, c color.RGBA, align Align) {
	runes := []rune(s)
	col := int(math.Round(x)) / 2
	row := (int(math.Round(y)) - 1) / 4
	switch align {
	case AlignCenter:
		col -= len(runes) / 2
	case AlignRight:
		col -= len(runes)
	}
	if row < 0 || row >= b.Rows {
		return
	}
	for i, ch := range runes {
		cc := col + i
		if cc < 0 || cc >= b.Cols {
			continue
		}
		b.text[row][cc] = ch
		b.colors[row][cc] = c
	}
}

func (b *Braille) cell(row, col int) rune {
	if t := b.text[row][col]; t != 0 {
		return t
	}
	return b.Grid[row][col]
}

func (b *Braille) String() string {
	var sb strings.Builder
	for row := range b.Grid {
		for col := range b.Grid[row] {
			sb.WriteRune(b.cell(row, col))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Colorize renders the canvas, grouping runs of equally colored cells and
// passing each run through paint.
func (b *Braille) Colorize(paint func(c color.RGBA, s string) string) string {
	var sb strings.Builder
	for row := range b.Grid {
		var run strings.Builder
		var cur color.RGBA
		flush := func() {
			if run.Len() == 0 {
				return
			}
			sb.WriteString(paint(cur, run.String()))
			run.Reset()
		}
		for col := range b.Grid[row] {
			ch := b.cell(row, col)
			c := b.colors[row][col]
			if ch == brailleBlank {
				c = color.RGBA{}
			}
			if c != cur {
				flush()
				cur = c
			}
			run.WriteRune(ch)
		}
		flush()
		sb.WriteString("\n")
	}
	return sb.String()
}

// Dot reports whether the sub-pixel at (x, y) is set.
func (b *Braille) Dot(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= b.Cols || y/4 >= b.Rows {
		return false
	}
	return b.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// CellColor is the last color written into the cell at (row, col).
func (b *Braille) CellColor(row, col int) color.RGBA {
	return b.colors[row][col]
}
