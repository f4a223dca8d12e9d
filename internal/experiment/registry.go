package experiment

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/algorithms"
	"github.com/san-kum/mlviz/internal/engine"
)

// Descriptor describes one registered algorithm.
type Descriptor struct {
	Name     string
	Title    string
	Summary  string
	Interval time.Duration
	New      func() engine.Simulation
}

type Registry struct {
	algorithms map[string]Descriptor
}

func NewRegistry() *Registry {
	r := &Registry{algorithms: make(map[string]Descriptor)}

	r.Register(Descriptor{
		Name: "linear-regression", Title: "Linear Regression",
		Summary:  "gradient descent on slope and intercept against noisy points",
		Interval: 100 * time.Millisecond,
		New:      func() engine.Simulation { return algorithms.NewLinearRegression() },
	})
	r.Register(Descriptor{
		Name: "kmeans", Title: "K-Means Clustering",
		Summary:  "alternating assignment and centroid update",
		Interval: time.Second,
		New:      func() engine.Simulation { return algorithms.NewKMeans() },
	})
	r.Register(Descriptor{
		Name: "decision-tree", Title: "Decision Tree",
		Summary:  "axis-aligned splits revealed node by node",
		Interval: 500 * time.Millisecond,
		New:      func() engine.Simulation { return algorithms.NewDecisionTree() },
	})
	r.Register(Descriptor{
		Name: "svm", Title: "Support Vector Machine",
		Summary:  "separating hyperplane, margin and support vectors",
		Interval: time.Second,
		New:      func() engine.Simulation { return algorithms.NewSVM() },
	})
	r.Register(Descriptor{
		Name: "knn", Title: "K-Nearest Neighbors",
		Summary:  "majority vote among the closest training points",
		Interval: 400 * time.Millisecond,
		New:      func() engine.Simulation { return algorithms.NewKNN() },
	})
	r.Register(Descriptor{
		Name: "neural-network", Title: "Neural Network",
		Summary:  "forward pass through a 3-5-4-2 sigmoid network",
		Interval: time.Second,
		New:      func() engine.Simulation { return algorithms.NewNeuralNetwork() },
	})
	r.Register(Descriptor{
		Name: "gradient-descent", Title: "Gradient Descent",
		Summary:  "descending a 2D quadratic from a fixed start",
		Interval: 300 * time.Millisecond,
		New:      func() engine.Simulation { return algorithms.NewGradientDescent() },
	})
	r.Register(Descriptor{
		Name: "cnn", Title: "Convolutional Neural Network",
		Summary:  "digit through convolution and pooling layers",
		Interval: 1500 * time.Millisecond,
		New:      func() engine.Simulation { return algorithms.NewCNN() },
	})
	r.Register(Descriptor{
		Name: "ml-training-flow", Title: "Training Flow",
		Summary:  "the supervised training pipeline step by step",
		Interval: 800 * time.Millisecond,
		New:      func() engine.Simulation { return algorithms.NewTrainingFlow() },
	})

	return r
}

func (r *Registry) Register(d Descriptor) {
	r.algorithms[d.Name] = d
}

func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.algorithms[name]
	if !ok {
		return Descriptor{}, errors.Wrapf(engine.ErrUnknownAlgorithm, "%q", name)
	}
	return d, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.algorithms[name]
	return ok
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns every registered algorithm sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.algorithms))
	for _, name := range r.List() {
		out = append(out, r.algorithms[name])
	}
	return out
}
