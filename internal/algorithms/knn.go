package algorithms

import (
	"fmt"
	"sort"

	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

var knnSpecs = []engine.ParamSpec{
	{Name: "k", Label: "Neighbors (K)", Min: 1, Max: 15, Step: 1, Default: 3, Topology: true},
}

// KNN classifies a movable query point by majority vote of its K nearest
// samples. Steps reveal one neighbor at a time; Place reclassifies at once.
type KNN struct {
	base
	query     engine.Point
	neighbors []int
	predicted int
	revealed  int
}

func NewKNN() *KNN {
	return &KNN{}
}

func (k *KNN) Name() string { return "knn" }

func (k *KNN) Init(env engine.Env) error {
	rng, err := k.setup(knnSpecs, env, render.Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	if err != nil {
		return err
	}
	k.samples = append(UniformBox(rng, 30, 0.5, 4.5, 0.5, 4.5, 0), UniformBox(rng, 30, 5.5, 9.5, 5.5, 9.5, 1)...)
	k.query = engine.Point{X: 5, Y: 5}
	k.predicted, k.neighbors = Classify(k.samples, k.query, k.params.Int("k"))
	k.revealed = 0
	return nil
}

func (k *KNN) Step() error {
	if !k.ready {
		return notReady(k.Name())
	}
	if k.Terminal() {
		return nil
	}
	k.revealed++
	return nil
}

func (k *KNN) Terminal() bool { return k.revealed >= len(k.neighbors) }

// Place moves the query point and reveals its full neighborhood. Points
// outside the domain are ignored.
func (k *KNN) Place(p engine.Point) error {
	if !k.ready {
		return notReady(k.Name())
	}
	if !k.domain.Contains(p.X, p.Y) {
		return nil
	}
	k.query = p
	k.predicted, k.neighbors = Classify(k.samples, p, k.params.Int("k"))
	k.revealed = len(k.neighbors)
	return nil
}

// Nearest returns sample indices ordered by distance to q; equal distances
// keep index order. At most k are returned.
func Nearest(samples []engine.Sample, q engine.Point, k int) []int {
	idx := make([]int, len(samples))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return samples[idx[a]].Dist2(q) < samples[idx[b]].Dist2(q)
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// Classify votes among the k nearest samples. A tied vote goes to the label
// that reached the tally first, i.e. the one held by the nearer neighbor.
func Classify(samples []engine.Sample, q engine.Point, k int) (int, []int) {
	nn := Nearest(samples, q, k)
	if len(nn) == 0 {
		return engine.NoLabel, nil
	}
	var order []int
	votes := map[int]int{}
	for _, i := range nn {
		l := samples[i].Label
		if _, seen := votes[l]; !seen {
			order = append(order, l)
		}
		votes[l]++
	}
	best := order[0]
	for _, l := range order[1:] {
		if votes[l] > votes[best] {
			best = l
		}
	}
	return best, nn
}

func (k *KNN) Query() engine.Point { return k.query }

func (k *KNN) Prediction() int { return k.predicted }

func (k *KNN) Neighbors() []int { return k.neighbors }

func (k *KNN) State() engine.Vector {
	return engine.Vector{k.query.X, k.query.Y, float64(k.revealed), float64(k.predicted)}
}

func (k *KNN) Phase() string {
	if k.Terminal() {
		return fmt.Sprintf("predicted class %d", k.predicted)
	}
	return fmt.Sprintf("neighbor %d/%d", k.revealed, len(k.neighbors))
}

func (k *KNN) Draw(s render.Surface, ov render.Overlay) {
	if !k.ready {
		return
	}
	p := k.plot(s)
	k.drawFrame(s, ov, 10)
	shown := k.neighbors[:k.revealed]
	if len(shown) > 0 {
		far := k.samples[shown[len(shown)-1]].Dist(k.query)
		qx, qy := k.view.Apply(k.query.X, k.query.Y)
		s.Circle(qx, qy, k.view.Len(far), render.Alpha(ov.Theme.Muted, 0), render.Dashed(ov.Theme.Muted, 1))
	}
	for _, i := range shown {
		sm := k.samples[i]
		p.Line(k.query.X, k.query.Y, sm.X, sm.Y, render.Solid(ov.Theme.Class(sm.Label), 1))
	}
	k.drawSamples(s, ov, nil)
	for _, i := range shown {
		sm := k.samples[i]
		p.Dot(sm.X, sm.Y, 7, render.Alpha(ov.Theme.Highlight, 0), render.Solid(ov.Theme.Highlight, 2))
	}
	fill := ov.Theme.Muted
	if k.Terminal() {
		fill = ov.Theme.Class(k.predicted)
	}
	p.Dot(k.query.X, k.query.Y, 8, fill, render.Solid(ov.Theme.Axis, 2))
	caption(s, ov,
		fmt.Sprintf("K = %d  query (%.2f, %.2f)", len(k.neighbors), k.query.X, k.query.Y),
		k.Phase(),
	)
}

func (k *KNN) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "class 0", Swatch: 0},
		{Label: "class 1", Swatch: 1},
		{Label: "neighbor", Swatch: render.SwatchHighlight},
	}
}
