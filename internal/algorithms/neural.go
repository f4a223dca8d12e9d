package algorithms

import (
	"fmt"
	"math"

	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
	"gonum.org/v1/gonum/mat"
)

var (
	NetworkLayers = []int{3, 5, 4, 2}
	NetworkInput  = []float64{0.8, 0.6, 0.4}
)

// NeuralNetwork animates a forward pass through a small fully connected
// network, one layer per step. Weights are drawn once per Init.
type NeuralNetwork struct {
	base
	weights     []*mat.Dense
	activations [][]float64
	layer       int
}

func NewNeuralNetwork() *NeuralNetwork {
	return &NeuralNetwork{}
}

func (n *NeuralNetwork) Name() string { return "neural-network" }

func (n *NeuralNetwork) Init(env engine.Env) error {
	rng, err := n.setup(nil, env, render.Rect{MinX: 0, MinY: 0, MaxX: float64(len(NetworkLayers)), MaxY: 1})
	if err != nil {
		return err
	}
	n.weights = make([]*mat.Dense, len(NetworkLayers)-1)
	for l := range n.weights {
		in, out := NetworkLayers[l], NetworkLayers[l+1]
		data := make([]float64, in*out)
		for i := range data {
			data[i] = uniform(rng, -1, 1)
		}
		n.weights[l] = mat.NewDense(in, out, data)
	}
	n.activations = make([][]float64, len(NetworkLayers))
	n.activations[0] = append([]float64(nil), NetworkInput...)
	n.layer = 0
	n.samples = nil
	return nil
}

func (n *NeuralNetwork) Step() error {
	if !n.ready {
		return notReady(n.Name())
	}
	if n.Terminal() {
		return nil
	}
	n.activations[n.layer+1] = Propagate(n.weights[n.layer], n.activations[n.layer])
	n.layer++
	return nil
}

func (n *NeuralNetwork) Terminal() bool { return n.layer >= len(NetworkLayers)-1 }

// Propagate computes sigmoid(Wᵀa) for an (in x out) weight matrix.
func Propagate(w *mat.Dense, a []float64) []float64 {
	_, out := w.Dims()
	z := mat.NewVecDense(out, nil)
	z.MulVec(w.T(), mat.NewVecDense(len(a), a))
	res := make([]float64, out)
	for i := range res {
		res[i] = Sigmoid(z.AtVec(i))
	}
	return res
}

func Sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func (n *NeuralNetwork) Weights() []*mat.Dense { return n.weights }

// Activations returns the computed layers; later layers are nil until
// reached.
func (n *NeuralNetwork) Activations() [][]float64 { return n.activations }

func (n *NeuralNetwork) Output() []float64 { return n.activations[len(NetworkLayers)-1] }

func (n *NeuralNetwork) State() engine.Vector {
	var v engine.Vector
	for _, a := range n.activations[:n.layer+1] {
		v = append(v, a...)
	}
	return v
}

func (n *NeuralNetwork) Phase() string {
	switch {
	case n.layer == 0:
		return "input layer"
	case n.Terminal():
		return "output layer"
	default:
		return fmt.Sprintf("hidden layer %d", n.layer)
	}
}

func (n *NeuralNetwork) neuron(l, i int) (float64, float64) {
	count := NetworkLayers[l]
	return float64(l) + 0.5, 1 - (float64(i)+0.5)/float64(count)
}

func (n *NeuralNetwork) Draw(s render.Surface, ov render.Overlay) {
	if !n.ready {
		return
	}
	p := n.plot(s)
	for l, w := range n.weights {
		active := l < n.layer
		for i := 0; i < NetworkLayers[l]; i++ {
			for j := 0; j < NetworkLayers[l+1]; j++ {
				wt := w.At(i, j)
				c := ov.Theme.Class(0)
				if wt < 0 {
					c = ov.Theme.Accent
				}
				alpha := uint8(0x30)
				if active {
					alpha = uint8(0x40 + 0xbf*math.Min(1, math.Abs(wt)))
				}
				x0, y0 := n.neuron(l, i)
				x1, y1 := n.neuron(l+1, j)
				p.Line(x0, y0, x1, y1, render.Solid(render.Alpha(c, alpha), 1+math.Abs(wt)))
			}
		}
	}
	for l, count := range NetworkLayers {
		for i := 0; i < count; i++ {
			x, y := n.neuron(l, i)
			fill := ov.Theme.Background
			label := ""
			if a := n.activations[l]; a != nil {
				fill = render.Alpha(ov.Theme.Highlight, uint8(0x40+0xbf*a[i]))
				label = fmtf(a[i])
			}
			p.Dot(x, y, 14, fill, render.Solid(ov.Theme.Axis, 2))
			if ov.Labels && label != "" {
				p.Text(x, y-0.02, label, ov.Theme.Text, render.AlignCenter)
			}
		}
		if ov.Labels {
			p.Text(float64(l)+0.5, 0.01, layerName(l), ov.Theme.Muted, render.AlignCenter)
		}
	}
	caption(s, ov, n.Phase())
}

func layerName(l int) string {
	switch {
	case l == 0:
		return "input"
	case l == len(NetworkLayers)-1:
		return "output"
	default:
		return fmt.Sprintf("hidden %d", l)
	}
}

func (n *NeuralNetwork) Legend() []render.LegendEntry {
	return []render.LegendEntry{
		{Label: "positive weight", Swatch: 0},
		{Label: "negative weight", Swatch: render.SwatchAccent},
		{Label: "activation", Swatch: render.SwatchHighlight},
	}
}
