package export

import (
	"bytes"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/metrics"
	"github.com/san-kum/mlviz/internal/render"
)

func sampleFrame() *render.Frame {
	f := render.NewFrame(200, 100)
	f.Clear(render.Hex("#ffffff"))
	f.Line(0, 0, 10, 10, render.Dashed(render.Hex("#ff0000"), 1))
	f.Circle(50, 50, 4, render.Hex("#3b82f6"), render.NoStroke)
	f.Rect(60, 60, -10, -10, color.RGBA{}, render.Solid(render.Hex("#000000"), 1))
	f.Text(20, 20, "a < b", render.Hex("#111111"), render.AlignCenter)
	return f
}

func TestFrameToSVG(t *testing.T) {
	svg := FrameToSVG(sampleFrame())
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("missing svg envelope")
	}
	for _, want := range []string{
		`width="200" height="100"`,
		`stroke-dasharray="6 4"`,
		`<circle cx="50.0" cy="50.0" r="4.0" fill="#3b82f6"`,
		`<rect x="50.0" y="50.0" width="10.0" height="10.0" fill="none"`,
		`text-anchor="middle"`,
		"a &lt; b",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if FrameToSVG(nil) != "" {
		t.Error("expected empty output for nil frame")
	}
}

func TestCanvasToSVG(t *testing.T) {
	b := render.NewBraille(4, 2)
	b.Set(0, 0, render.Hex("#10b981"))
	b.Set(7, 7, render.Hex("#10b981"))
	svg := CanvasToSVG(b, 2, render.Hex("#000000"))
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `fill="#10b981"`) {
		t.Error("dot color not exported")
	}
}

func TestTraceToSVG(t *testing.T) {
	pts := []metrics.Point{{Iteration: 0, Loss: 4}, {Iteration: 1, Loss: 2}, {Iteration: 2, Loss: 1}}
	svg := TraceToSVG(pts, 300, 100, render.DefaultTheme)
	if strings.Count(svg, " L") != 2 {
		t.Errorf("expected 2 line segments in path")
	}
	if TraceToSVG(pts[:1], 300, 100, render.DefaultTheme) != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestWritePNG(t *testing.T) {
	r := render.NewRaster(40, 30)
	r.Clear(render.Hex("#ffffff"))
	var buf bytes.Buffer
	if err := WritePNG(&buf, r); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestRecorder(t *testing.T) {
	r := render.NewRaster(40, 30)
	r.Clear(render.Hex("#ffffff"))
	rec := NewRecorder(r, 100*time.Millisecond, 3, 0.5)

	rec.OnTick(anim.Status{Iteration: 0})
	rec.OnTick(anim.Status{Iteration: 0, Speed: 2})
	rec.OnTick(anim.Status{Iteration: 1})
	rec.OnTick(anim.Status{Iteration: 2})
	rec.OnTick(anim.Status{Iteration: 3})
	if rec.Frames() != 3 {
		t.Fatalf("expected 3 frames, got %d", rec.Frames())
	}

	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 3 {
		t.Errorf("expected 3 gif frames, got %d", len(g.Image))
	}
	if g.Image[0].Bounds().Dx() != 20 {
		t.Errorf("expected scaled width 20, got %d", g.Image[0].Bounds().Dx())
	}
	if g.Delay[0] != 10 || g.Delay[2] != 200 {
		t.Errorf("unexpected delays %v", g.Delay)
	}
}
