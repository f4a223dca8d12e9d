package render

import (
	"image/color"
	"math"
	"reflect"
	"strings"
	"testing"
)

type dotScene struct {
	points [][2]float64
	t      Transform
}

func (d dotScene) Draw(s Surface, ov Overlay) {
	p := Plot{S: s, T: d.t}
	for _, pt := range d.points {
		p.Dot(pt[0], pt[1], 3, ov.Theme.Class(0), NoStroke)
	}
}

func (d dotScene) Legend() []LegendEntry {
	return []LegendEntry{{Label: "points", Swatch: 0}}
}

func TestTransformRoundTrip(t *testing.T) {
	domain := Rect{MinX: -5, MinY: -10, MaxX: 5, MaxY: 20}
	tr := Fit(domain, 600, 400, 40)

	tests := [][2]float64{{0, 0}, {-5, -10}, {5, 20}, {1.25, 3.5}}
	for _, tt := range tests {
		px, py := tr.Apply(tt[0], tt[1])
		x, y := tr.Invert(px, py)
		if math.Abs(x-tt[0]) > 1e-9 || math.Abs(y-tt[1]) > 1e-9 {
			t.Errorf("round trip %v -> (%v, %v)", tt, x, y)
		}
	}

	px, py := tr.Apply(domain.MinX, domain.MaxY)
	if math.Abs(px-40) > 1e-9 || math.Abs(py-40) > 1e-9 {
		t.Errorf("top-left corner mapped to (%v, %v), want (40, 40)", px, py)
	}
	_, py = tr.Apply(0, domain.MinY)
	if math.Abs(py-360) > 1e-9 {
		t.Errorf("bottom edge mapped to y=%v, want 360", py)
	}
}

func TestRendererIdempotent(t *testing.T) {
	sc := dotScene{
		points: [][2]float64{{1, 1}, {2, 3}, {4, 2}},
		t:      Fit(Rect{0, 0, 5, 5}, 200, 200, 10),
	}
	r := NewRenderer(DefaultOverlay())

	a := NewFrame(200, 200)
	b := NewFrame(200, 200)
	r.Render(a, sc)
	r.Render(b, sc)
	r.Render(b, sc)

	if !reflect.DeepEqual(a.Ops, b.Ops) {
		t.Error("rendering the same scene twice produced different frames")
	}
	if a.Ops[0].Kind != OpClear {
		t.Errorf("first op should clear the surface, got %s", a.Ops[0].Kind)
	}
	if a.Count(OpClear) != 1 {
		t.Errorf("expected exactly one clear, got %d", a.Count(OpClear))
	}
	// three data points plus one legend swatch
	if a.Count(OpCircle) != 4 {
		t.Errorf("expected 4 circles, got %d", a.Count(OpCircle))
	}
}

func TestRendererLegendToggle(t *testing.T) {
	sc := dotScene{t: Fit(Rect{0, 0, 1, 1}, 100, 100, 0)}
	ov := DefaultOverlay()
	ov.Legend = false
	f := NewFrame(100, 100)
	NewRenderer(ov).Render(f, sc)
	if f.Count(OpText) != 0 {
		t.Error("legend drawn while disabled")
	}
}

func TestBrailleSetUnset(t *testing.T) {
	b := NewBraille(4, 2)
	w, h := b.Size()
	if w != 8 || h != 8 {
		t.Fatalf("expected 8x8 sub-pixels, got %dx%d", w, h)
	}

	b.Set(0, 0, DefaultTheme.Text)
	if b.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1 set, got %U", b.Grid[0][0])
	}
	b.Set(1, 3, DefaultTheme.Text)
	if !b.Dot(1, 3) {
		t.Error("dot 8 not set")
	}
	b.Unset(0, 0)
	if b.Dot(0, 0) {
		t.Error("dot 1 still set after unset")
	}

	b.Set(-1, 0, DefaultTheme.Text)
	b.Set(100, 100, DefaultTheme.Text)

	b.Clear(color.RGBA{})
	if strings.Trim(b.String(), "⠀\n") != "" {
		t.Error("canvas not blank after clear")
	}
}

func TestBrailleLine(t *testing.T) {
	b := NewBraille(10, 1)
	b.Line(0, 0, 19, 0, Solid(DefaultTheme.Text, 1))
	for x := 0; x < 20; x++ {
		if !b.Dot(x, 0) {
			t.Errorf("dot %d not set on horizontal line", x)
		}
	}
}

func TestBrailleText(t *testing.T) {
	b := NewBraille(10, 2)
	b.Text(0, 1, "k=3", DefaultTheme.Text, AlignLeft)
	if !strings.HasPrefix(b.String(), "k=3") {
		t.Errorf("text not written, got %q", b.String())
	}
}

func TestRasterLine(t *testing.T) {
	r := NewRaster(20, 20)
	r.Clear(color.RGBA{255, 255, 255, 255})
	red := color.RGBA{255, 0, 0, 255}
	r.Line(0, 10, 19, 10, Solid(red, 1))

	for x := 0; x < 20; x++ {
		if got := r.Img.RGBAAt(x, 10); got != red {
			t.Errorf("pixel (%d,10) = %v, want red", x, got)
		}
	}
	if got := r.Img.RGBAAt(5, 5); got.R != 255 || got.G != 255 {
		t.Errorf("pixel off the line was painted: %v", got)
	}
}

func TestRasterCircleFill(t *testing.T) {
	r := NewRaster(20, 20)
	r.Clear(color.RGBA{0, 0, 0, 255})
	blue := color.RGBA{0, 0, 255, 255}
	r.Circle(10, 10, 4, blue, NoStroke)
	if got := r.Img.RGBAAt(10, 10); got != blue {
		t.Errorf("center = %v, want blue", got)
	}
	if got := r.Img.RGBAAt(0, 0); got == blue {
		t.Error("corner painted by circle fill")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#3b82f6", color.RGBA{0x3b, 0x82, 0xf6, 0xff}, true},
		{"fff", color.RGBA{0xff, 0xff, 0xff, 0xff}, true},
		{"#12", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseHex(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ToHex(Hex("#10b981")) != "#10b981" {
		t.Error("hex round trip failed")
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("ocean theme not found")
	}
	if GetTheme("missing").Name != DefaultTheme.Name {
		t.Error("unknown theme should fall back to default")
	}
	if DefaultTheme.Class(-1) != DefaultTheme.Muted {
		t.Error("unlabelled class should use muted color")
	}
}
