package algorithms

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

const (
	// KMeansTolerance is the largest centroid move still counted as converged.
	KMeansTolerance = 1.0
	KMeansMaxRounds = 100
)

var kmeansSpecs = []engine.ParamSpec{
	{Name: "k", Label: "Clusters (K)", Min: 2, Max: 6, Step: 1, Default: 3, Topology: true},
}

var kmeansBlobs = []struct {
	center engine.Point
	spread float64
}{
	{engine.Point{X: 150, Y: 150}, 40},
	{engine.Point{X: 400, Y: 200}, 50},
	{engine.Point{X: 300, Y: 350}, 45},
}

type kmeansPhase int

const (
	phaseAssign kmeansPhase = iota
	phaseUpdate
)

// KMeans alternates an assignment step and a centroid update step, one per
// tick, until no centroid moves by KMeansTolerance or more.
type KMeans struct {
	base
	centroids []engine.Point
	assign    []int
	next      kmeansPhase
	rounds    int
	shift     float64
	converged bool
}

func NewKMeans() *KMeans {
	return &KMeans{}
}

func (km *KMeans) Name() string { return "kmeans" }

func (km *KMeans) Init(env engine.Env) error {
	domain := render.Rect{MinX: 0, MinY: 0, MaxX: 600, MaxY: 450}
	rng, err := km.setup(kmeansSpecs, env, domain)
	if err != nil {
		return err
	}
	bounds := [4]float64{domain.MinX + 5, domain.MinY + 5, domain.MaxX - 5, domain.MaxY - 5}
	km.samples = nil
	for _, b := range kmeansBlobs {
		km.samples = append(km.samples, Blob(rng, 30, b.center, b.spread/3, bounds, engine.NoLabel)...)
	}
	km.centroids = SeedCentroids(km.samples, km.params.Int("k"), rng.Intn(len(km.samples)))
	km.assign = lo.Times(len(km.samples), func(int) int { return -1 })
	km.next = phaseAssign
	km.rounds = 0
	km.shift = math.Inf(1)
	km.converged = false
	return nil
}

// SeedCentroids picks the sample at first, then repeatedly the sample
// farthest from every centroid chosen so far.
func SeedCentroids(samples []engine.Sample, k, first int) []engine.Point {
	if len(samples) == 0 || k <= 0 {
		return nil
	}
	out := []engine.Point{samples[first].Point}
	for len(out) < k {
		best, bestDist := 0, -1.0
		for i, s := range samples {
			d := math.Inf(1)
			for _, c := range out {
				d = math.Min(d, s.Dist2(c))
			}
			if d > bestDist {
				best, bestDist = i, d
			}
		}
		out = append(out, samples[best].Point)
	}
	return out
}

func (km *KMeans) Step() error {
	if !km.ready {
		return notReady(km.Name())
	}
	if km.Terminal() {
		return nil
	}
	switch km.next {
	case phaseAssign:
		km.assign = AssignClusters(km.samples, km.centroids)
		km.next = phaseUpdate
	case phaseUpdate:
		moved := UpdateCentroids(km.samples, km.assign, km.centroids)
		km.shift = 0
		for i := range moved {
			km.shift = math.Max(km.shift, moved[i].Dist(km.centroids[i]))
		}
		km.centroids = moved
		km.rounds++
		km.converged = km.shift < KMeansTolerance
		km.next = phaseAssign
	}
	return nil
}

func (km *KMeans) Terminal() bool {
	return km.converged || km.rounds >= KMeansMaxRounds
}

// AssignClusters returns the index of the nearest centroid for every sample.
// Ties go to the lowest centroid index.
func AssignClusters(samples []engine.Sample, centroids []engine.Point) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		best, bestDist := -1, math.Inf(1)
		for j, c := range centroids {
			if d := s.Dist2(c); d < bestDist {
				best, bestDist = j, d
			}
		}
		out[i] = best
	}
	return out
}

// UpdateCentroids moves every centroid to the mean of its members. A
// centroid with no members keeps its previous position.
func UpdateCentroids(samples []engine.Sample, assign []int, centroids []engine.Point) []engine.Point {
	out := make([]engine.Point, len(centroids))
	for j := range centroids {
		var sx, sy float64
		n := 0
		for i, a := range assign {
			if a == j {
				sx += samples[i].X
				sy += samples[i].Y
				n++
			}
		}
		if n == 0 {
			out[j] = centroids[j]
			continue
		}
		out[j] = engine.Point{X: sx / float64(n), Y: sy / float64(n)}
	}
	return out
}

// Inertia is the sum of squared distances from samples to their centroid.
func Inertia(samples []engine.Sample, assign []int, centroids []engine.Point) float64 {
	sum := 0.0
	for i, a := range assign {
		if a >= 0 && a < len(centroids) {
			sum += samples[i].Dist2(centroids[a])
		}
	}
	return sum
}

func (km *KMeans) Loss() float64 { return Inertia(km.samples, km.assign, km.centroids) }

// Rounds counts completed centroid updates.
func (km *KMeans) Rounds() int { return km.rounds }

func (km *KMeans) Centroids() []engine.Point {
	out := make([]engine.Point, len(km.centroids))
	copy(out, km.centroids)
	return out
}

func (km *KMeans) Assignments() []int {
	out := make([]int, len(km.assign))
	copy(out, km.assign)
	return out
}

// ClusterSizes counts the members of each centroid.
func (km *KMeans) ClusterSizes() []int {
	sizes := make([]int, len(km.centroids))
	for _, a := range km.assign {
		if a >= 0 {
			sizes[a]++
		}
	}
	return sizes
}

func (km *KMeans) State() engine.Vector {
	v := make(engine.Vector, 0, 2*len(km.centroids))
	for _, c := range km.centroids {
		v = append(v, c.X, c.Y)
	}
	return v
}

func (km *KMeans) Phase() string {
	switch {
	case km.Terminal():
		return fmt.Sprintf("converged after %d rounds", km.rounds)
	case km.next == phaseAssign:
		return "assign points to nearest centroid"
	default:
		return "move centroids to cluster means"
	}
}

func (km *KMeans) Draw(s render.Surface, ov render.Overlay) {
	if !km.ready {
		return
	}
	p := km.plot(s)
	km.drawFrame(s, ov, 6)
	if ov.Labels && km.next == phaseUpdate {
		for i, sm := range km.samples {
			if a := km.assign[i]; a >= 0 {
				c := km.centroids[a]
				p.Line(sm.X, sm.Y, c.X, c.Y, render.Solid(render.Alpha(ov.Theme.Class(a), 0x40), 1))
			}
		}
	}
	km.drawSamples(s, ov, func(i int, _ engine.Sample) int { return km.assign[i] })
	for j, c := range km.centroids {
		p.Dot(c.X, c.Y, 9, ov.Theme.Class(j), render.Solid(ov.Theme.Axis, 2))
		if ov.Labels {
			p.Text(c.X, c.Y, fmt.Sprintf("C%d", j+1), ov.Theme.Background, render.AlignCenter)
		}
	}
	caption(s, ov,
		fmt.Sprintf("K = %d  round %d", len(km.centroids), km.rounds),
		"inertia: "+fmtf(km.Loss()),
		km.Phase(),
	)
}

func (km *KMeans) Legend() []render.LegendEntry {
	return lo.Times(len(km.centroids), func(j int) render.LegendEntry {
		return render.LegendEntry{Label: fmt.Sprintf("cluster %d", j+1), Swatch: j}
	})
}
