package export

import (
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/render"
	xdraw "golang.org/x/image/draw"
)

func WritePNG(w io.Writer, r *render.Raster) error {
	return png.Encode(w, r.Img)
}

func SavePNG(path string, r *render.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Recorder is an anim.Observer that grabs one GIF frame from a raster for
// every new iteration.
type Recorder struct {
	raster *render.Raster
	scale  float64
	delay  int
	max    int
	last   int

	frames []*image.Paletted
	delays []int
}

// NewRecorder records frames shown for interval each. Frames beyond
// maxFrames are dropped; zero means unlimited. scale resizes the output.
func NewRecorder(r *render.Raster, interval time.Duration, maxFrames int, scale float64) *Recorder {
	delay := int(interval / (10 * time.Millisecond))
	if delay < 2 {
		delay = 2
	}
	if scale <= 0 {
		scale = 1
	}
	return &Recorder{raster: r, scale: scale, delay: delay, max: maxFrames, last: -1}
}

func (rec *Recorder) OnTick(st anim.Status) {
	if st.Iteration == rec.last {
		return
	}
	rec.last = st.Iteration
	rec.Capture()
}

// Capture appends the raster's current content as a frame.
func (rec *Recorder) Capture() {
	if rec.max > 0 && len(rec.frames) >= rec.max {
		return
	}
	src := image.Image(rec.raster.Img)
	b := src.Bounds()
	if rec.scale != 1 {
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*rec.scale), int(float64(b.Dy())*rec.scale)))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
		src, b = dst, dst.Bounds()
	}
	frame := image.NewPaletted(b, palette.Plan9)
	xdraw.FloydSteinberg.Draw(frame, b, src, b.Min)
	rec.frames = append(rec.frames, frame)
	rec.delays = append(rec.delays, rec.delay)
}

func (rec *Recorder) Frames() int { return len(rec.frames) }

// Encode writes the animation, holding the last frame for two seconds.
func (rec *Recorder) Encode(w io.Writer) error {
	delays := append([]int(nil), rec.delays...)
	if n := len(delays); n > 0 {
		delays[n-1] = 200
	}
	return gif.EncodeAll(w, &gif.GIF{Image: rec.frames, Delay: delays, LoopCount: 0})
}

func (rec *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rec.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
