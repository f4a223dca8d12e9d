package algorithms

import (
	"math"
	"math/rand"

	"github.com/san-kum/mlviz/internal/engine"
)

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// UniformBox draws n labelled points uniformly from [x0,x1] x [y0,y1].
func UniformBox(rng *rand.Rand, n int, x0, x1, y0, y1 float64, label int) []engine.Sample {
	out := make([]engine.Sample, n)
	for i := range out {
		out[i] = engine.Sample{
			Point: engine.Point{X: uniform(rng, x0, x1), Y: uniform(rng, y0, y1)},
			Label: label,
		}
	}
	return out
}

// Blob draws n points from an isotropic Gaussian around center. Points are
// clamped to bounds so they always land on the canvas.
func Blob(rng *rand.Rand, n int, center engine.Point, sd float64, bounds [4]float64, label int) []engine.Sample {
	out := make([]engine.Sample, n)
	for i := range out {
		x := center.X + rng.NormFloat64()*sd
		y := center.Y + rng.NormFloat64()*sd
		out[i] = engine.Sample{
			Point: engine.Point{
				X: math.Min(math.Max(x, bounds[0]), bounds[2]),
				Y: math.Min(math.Max(y, bounds[1]), bounds[3]),
			},
			Label: label,
		}
	}
	return out
}

// NoisyLine draws n points on y = slope*x + intercept with uniform noise of
// the given amplitude, x uniform in [x0, x1].
func NoisyLine(rng *rand.Rand, n int, x0, x1, slope, intercept, noise float64) []engine.Sample {
	out := make([]engine.Sample, n)
	for i := range out {
		x := uniform(rng, x0, x1)
		y := slope*x + intercept + uniform(rng, -noise, noise)
		out[i] = engine.Sample{Point: engine.Point{X: x, Y: y}, Label: engine.NoLabel, Value: y}
	}
	return out
}
