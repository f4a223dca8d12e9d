package algorithms

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

const (
	FeatureX = 0
	FeatureY = 1

	treeMinSamples = 5
)

var treeSpecs = []engine.ParamSpec{
	{Name: "max_depth", Label: "Max depth", Min: 2, Max: 4, Step: 1, Default: 3, Topology: true},
}

// Node is one decision tree node. Nodes are stored in pre-order; ID follows
// heap numbering (children of i are 2i+1 and 2i+2).
type Node struct {
	ID        int
	Depth     int
	Leaf      bool
	Feature   int
	Threshold float64
	Label     int
	Left      int
	Right     int
	Region    render.Rect
	Members   []int
}

func (n Node) String() string {
	if n.Leaf {
		return fmt.Sprintf("class %d (%d samples)", n.Label, len(n.Members))
	}
	axis := "x"
	if n.Feature == FeatureY {
		axis = "y"
	}
	return fmt.Sprintf("%s < %.1f", axis, n.Threshold)
}

// DecisionTree builds the whole tree at Init and reveals one node per step.
type DecisionTree struct {
	base
	nodes    []Node
	revealed int
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{}
}

func (t *DecisionTree) Name() string { return "decision-tree" }

func (t *DecisionTree) Init(env engine.Env) error {
	domain := render.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	rng, err := t.setup(treeSpecs, env, domain)
	if err != nil {
		return err
	}
	t.samples = append(UniformBox(rng, 20, 10, 50, 10, 50, 0), UniformBox(rng, 20, 50, 90, 50, 90, 1)...)
	t.nodes = BuildTree(t.samples, t.params.Int("max_depth"), domain)
	t.revealed = 0
	return nil
}

// BuildTree grows a tree of at most maxDepth splits. Each internal node
// splits at the mean of the feature whose split has the lower weighted Gini
// impurity (x wins ties): left takes v < threshold, right v >= threshold.
func BuildTree(samples []engine.Sample, maxDepth int, region render.Rect) []Node {
	b := &treeBuilder{samples: samples}
	all := lo.Range(len(samples))
	b.grow(all, 0, maxDepth, 0, region)
	return b.nodes
}

type treeBuilder struct {
	samples []engine.Sample
	nodes   []Node
}

func (b *treeBuilder) grow(members []int, depth, remaining, id int, region render.Rect) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{ID: id, Depth: depth, Left: -1, Right: -1, Region: region, Members: members})

	leaf := func() int {
		b.nodes[idx].Leaf = true
		b.nodes[idx].Label = majority(b.samples, members)
		return idx
	}
	if remaining == 0 || len(members) < treeMinSamples {
		return leaf()
	}

	feature, threshold, left, right := b.bestSplit(members)
	if len(left) == 0 || len(right) == 0 {
		return leaf()
	}

	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	lr, rr := region, region
	if feature == FeatureX {
		lr.MaxX, rr.MinX = threshold, threshold
	} else {
		lr.MaxY, rr.MinY = threshold, threshold
	}
	l := b.grow(left, depth+1, remaining-1, 2*id+1, lr)
	r := b.grow(right, depth+1, remaining-1, 2*id+2, rr)
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

func (b *treeBuilder) bestSplit(members []int) (int, float64, []int, []int) {
	bestFeature, bestScore := -1, 0.0
	var bestT float64
	var bestL, bestR []int
	for _, f := range []int{FeatureX, FeatureY} {
		t := lo.SumBy(members, func(i int) float64 { return coord(b.samples[i], f) }) / float64(len(members))
		left, right := lo.FilterReject(members, func(i int, _ int) bool { return coord(b.samples[i], f) < t })
		n := float64(len(members))
		score := float64(len(left))/n*gini(b.samples, left) + float64(len(right))/n*gini(b.samples, right)
		if bestFeature < 0 || score < bestScore {
			bestFeature, bestScore, bestT, bestL, bestR = f, score, t, left, right
		}
	}
	return bestFeature, bestT, bestL, bestR
}

func coord(s engine.Sample, feature int) float64 {
	if feature == FeatureY {
		return s.Y
	}
	return s.X
}

func gini(samples []engine.Sample, members []int) float64 {
	if len(members) == 0 {
		return 0
	}
	counts := lo.CountValuesBy(members, func(i int) int { return samples[i].Label })
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(len(members))
		g -= p * p
	}
	return g
}

// majority returns the most frequent label; ties go to the larger label, so
// a binary tie resolves to class 1.
func majority(samples []engine.Sample, members []int) int {
	counts := lo.CountValuesBy(members, func(i int) int { return samples[i].Label })
	best, bestCount := 1, -1
	for label, c := range counts {
		if c > bestCount || (c == bestCount && label > best) {
			best, bestCount = label, c
		}
	}
	return best
}

func (t *DecisionTree) Step() error {
	if !t.ready {
		return notReady(t.Name())
	}
	if t.Terminal() {
		return nil
	}
	t.revealed++
	return nil
}

func (t *DecisionTree) Terminal() bool { return t.revealed >= len(t.nodes) }

func (t *DecisionTree) Nodes() []Node { return t.nodes }

func (t *DecisionTree) Revealed() int { return t.revealed }

// Predict walks the full tree regardless of how much is revealed.
func (t *DecisionTree) Predict(p engine.Point) int {
	if len(t.nodes) == 0 {
		return engine.NoLabel
	}
	i := 0
	for !t.nodes[i].Leaf {
		n := t.nodes[i]
		if coord(engine.Sample{Point: p}, n.Feature) < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.nodes[i].Label
}

func (t *DecisionTree) State() engine.Vector {
	v := engine.Vector{}
	for _, n := range t.nodes[:t.revealed] {
		if !n.Leaf {
			v = append(v, n.Threshold)
		}
	}
	return v
}

func (t *DecisionTree) Phase() string {
	if t.revealed == 0 {
		return "training data"
	}
	n := t.nodes[t.revealed-1]
	return fmt.Sprintf("node %d/%d (depth %d): %s", t.revealed, len(t.nodes), n.Depth, n)
}

func (t *DecisionTree) Draw(s render.Surface, ov render.Overlay) {
	if !t.ready {
		return
	}
	p := t.plot(s)
	for _, n := range t.nodes[:t.revealed] {
		if !n.Leaf {
			continue
		}
		x0, y0 := t.view.Apply(n.Region.MinX, n.Region.MaxY)
		x1, y1 := t.view.Apply(n.Region.MaxX, n.Region.MinY)
		s.Rect(x0, y0, x1-x0, y1-y0, render.Alpha(ov.Theme.Class(n.Label), 0x30), render.NoStroke)
	}
	t.drawFrame(s, ov, 10)
	t.drawSamples(s, ov, nil)
	for _, n := range t.nodes[:t.revealed] {
		if n.Leaf {
			continue
		}
		st := render.Solid(ov.Theme.Accent, 2)
		r := n.Region
		if n.Feature == FeatureX {
			p.Line(n.Threshold, r.MinY, n.Threshold, r.MaxY, st)
			if ov.Labels {
				p.Text(n.Threshold, r.MaxY-3, n.String(), ov.Theme.Text, render.AlignCenter)
			}
		} else {
			p.Line(r.MinX, n.Threshold, r.MaxX, n.Threshold, st)
			if ov.Labels {
				p.Text(r.MinX+2, n.Threshold+1, n.String(), ov.Theme.Text, render.AlignLeft)
			}
		}
	}
	caption(s, ov, t.Phase())
}

func (t *DecisionTree) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "class 0", Swatch: 0},
		{Label: "class 1", Swatch: 1},
		{Label: "split", Swatch: render.SwatchAccent},
	}
}
