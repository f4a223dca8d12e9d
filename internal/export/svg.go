package export

import (
	"fmt"
	"html"
	"image/color"
	"strings"

	"github.com/san-kum/mlviz/internal/metrics"
	"github.com/san-kum/mlviz/internal/render"
)

func hex(c color.RGBA) string { return render.ToHex(c) }

func opacity(c color.RGBA) string {
	return fmt.Sprintf("%.3f", float64(c.A)/255)
}

func strokeAttrs(st render.Stroke) string {
	if st.Width <= 0 || st.Color.A == 0 {
		return `stroke="none"`
	}
	s := fmt.Sprintf(`stroke="%s" stroke-opacity="%s" stroke-width="%.1f"`, hex(st.Color), opacity(st.Color), st.Width)
	if st.Dash {
		s += ` stroke-dasharray="6 4"`
	}
	return s
}

func fillAttrs(c color.RGBA) string {
	if c.A == 0 {
		return `fill="none"`
	}
	return fmt.Sprintf(`fill="%s" fill-opacity="%s"`, hex(c), opacity(c))
}

var anchors = map[render.Align]string{
	render.AlignLeft:   "start",
	render.AlignCenter: "middle",
	render.AlignRight:  "end",
}

// FrameToSVG converts a recorded display list to SVG.
func FrameToSVG(f *render.Frame) string {
	if f == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="12">
`, f.W, f.H, f.W, f.H))

	for _, op := range f.Ops {
		switch op.Kind {
		case render.OpClear:
			sb.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s"/>
`, hex(op.Fill)))
		case render.OpLine:
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" %s/>
`, op.X0, op.Y0, op.X1, op.Y1, strokeAttrs(op.Stroke)))
		case render.OpCircle:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" %s %s/>
`, op.X0, op.Y0, op.R, fillAttrs(op.Fill), strokeAttrs(op.Stroke)))
		case render.OpRect:
			x, y, w, h := op.X0, op.Y0, op.X1, op.Y1
			if w < 0 {
				x, w = x+w, -w
			}
			if h < 0 {
				y, h = y+h, -h
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" %s %s/>
`, x, y, w, h, fillAttrs(op.Fill), strokeAttrs(op.Stroke)))
		case render.OpText:
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="%s" %s>%s</text>
`, op.X0, op.Y0, anchors[op.Align], fillAttrs(op.Fill), html.EscapeString(op.Text)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *render.Braille, scale float64, bg color.RGBA) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Cols) * scale * 2  // 2 sub-pixels per char
	height := float64(canvas.Rows) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, hex(bg)))

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Rows; row++ {
		for col := 0; col < canvas.Cols; col++ {
			c := canvas.CellColor(row, col)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := col*2+dx, row*4+dy
					if !canvas.Dot(x, y) {
						continue
					}
					cx := float64(x)*scale + scale/2
					cy := float64(y)*scale + scale/2
					sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, hex(c)))
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TraceToSVG plots a loss curve.
func TraceToSVG(points []metrics.Point, width, height int, theme render.Theme) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := float64(points[0].Iteration), float64(points[0].Iteration)
	minY, maxY := points[0].Loss, points[0].Loss
	for _, p := range points {
		x := float64(p.Iteration)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if p.Loss < minY {
			minY = p.Loss
		}
		if p.Loss > maxY {
			maxY = p.Loss
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, hex(theme.Background), hex(theme.Accent)))

	for i, p := range points {
		x := (float64(p.Iteration) - minX) / rangeX * float64(width)
		y := float64(height) - (p.Loss-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
