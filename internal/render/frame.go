package render

import "image/color"

type OpKind int

const (
	OpClear OpKind = iota
	OpLine
	OpCircle
	OpRect
	OpText
)

func (k OpKind) String() string {
	switch k {
	case OpClear:
		return "clear"
	case OpLine:
		return "line"
	case OpCircle:
		return "circle"
	case OpRect:
		return "rect"
	case OpText:
		return "text"
	}
	return "unknown"
}

// Op is one recorded drawing command. Field use depends on Kind: lines use
// X0..Y1, circles X0/Y0/R, rects X0/Y0 plus width X1 and height Y1.
type Op struct {
	Kind   OpKind
	X0, Y0 float64
	X1, Y1 float64
	R      float64
	Fill   color.RGBA
	Stroke Stroke
	Text   string
	Align  Align
}

// Frame is a Surface that records a display list instead of painting. It
// is what SVG export and render tests consume.
type Frame struct {
	W, H int
	Ops  []Op
}

func NewFrame(w, h int) *Frame {
	return &Frame{W: w, H: h}
}

func (f *Frame) Size() (int, int) { return f.W, f.H }

// Clear drops every recorded command; a frame always starts from scratch.
func (f *Frame) Clear(bg color.RGBA) {
	f.Ops = f.Ops[:0]
	f.Ops = append(f.Ops, Op{Kind: OpClear, Fill: bg})
}

func (f *Frame) Line(x0, y0, x1, y1 float64, st Stroke) {
	f.Ops = append(f.Ops, Op{Kind: OpLine, X0: x0, Y0: y0, X1: x1, Y1: y1, Stroke: st})
}

func (f *Frame) Circle(cx, cy, r float64, fill color.RGBA, st Stroke) {
	f.Ops = append(f.Ops, Op{Kind: OpCircle, X0: cx, Y0: cy, R: r, Fill: fill, Stroke: st})
}

func (f *Frame) Rect(x, y, w, h float64, fill color.RGBA, st Stroke) {
	f.Ops = append(f.Ops, Op{Kind: OpRect, X0: x, Y0: y, X1: w, Y1: h, Fill: fill, Stroke: st})
}

func (f *Frame) Text(x, y float64, s string, c color.RGBA, align Align) {
	f.Ops = append(f.Ops, Op{Kind: OpText, X0: x, Y0: y, Text: s, Fill: c, Align: align})
}

// Count returns how many commands of the given kind were recorded.
func (f *Frame) Count(kind OpKind) int {
	n := 0
	for _, op := range f.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Replay paints the recorded commands onto another surface.
func (f *Frame) Replay(s Surface) {
	for _, op := range f.Ops {
		switch op.Kind {
		case OpClear:
			s.Clear(op.Fill)
		case OpLine:
			s.Line(op.X0, op.Y0, op.X1, op.Y1, op.Stroke)
		case OpCircle:
			s.Circle(op.X0, op.Y0, op.R, op.Fill, op.Stroke)
		case OpRect:
			s.Rect(op.X0, op.Y0, op.X1, op.Y1, op.Fill, op.Stroke)
		case OpText:
			s.Text(op.X0, op.Y0, op.Text, op.Fill, op.Align)
		}
	}
}
