package engine

import (
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/mlviz/internal/render"
)

// NoLabel marks a sample without a categorical class.
const NoLabel = -1

type Point struct {
	X, Y float64
}

func (p Point) Dist2(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

func (p Point) Dist(q Point) float64 {
	return math.Sqrt(p.Dist2(q))
}

// Sample is an immutable data point. Label is a class id or NoLabel, Value a
// real-valued target for regression.
type Sample struct {
	Point
	Label int
	Value float64
}

type Vector []float64

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (v Vector) Sub(other Vector) Vector {
	result := make(Vector, len(v))
	for i := range v {
		if i < len(other) {
			result[i] = v[i] - other[i]
		} else {
			result[i] = v[i]
		}
	}
	return result
}

type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Int reads a parameter rounded to the nearest integer.
func (p Params) Int(name string) int {
	return int(math.Round(p[name]))
}

// Env is everything Init needs to build a fresh ModelState.
type Env struct {
	Seed   int64
	Width  int
	Height int
	Params Params
}

func (e Env) Rand() *rand.Rand {
	return rand.New(rand.NewSource(e.Seed))
}

// ParamSpec declares a user-tunable parameter. Topology parameters change the
// shape of the model state and may only be applied before the first Play.
type ParamSpec struct {
	Name     string
	Label    string
	Min      float64
	Max      float64
	Step     float64
	Default  float64
	Topology bool
}

// Clamp bounds v to [Min, Max] and snaps it to the Step grid.
func (s ParamSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
		// snap away float noise like 0.30000000000000004
		v = math.Round(v*1e9) / 1e9
	}
	if v < s.Min {
		v = s.Min
	}
	if v > s.Max {
		v = s.Max
	}
	return v
}

func (s ParamSpec) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

func FindSpec(specs []ParamSpec, name string) (ParamSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// Defaults returns every declared parameter at its default value.
func Defaults(specs []ParamSpec) Params {
	p := make(Params, len(specs))
	for _, s := range specs {
		p[s.Name] = s.Default
	}
	return p
}

// Resolve fills missing parameters with defaults and clamps the rest. An
// unknown name is rejected.
func Resolve(specs []ParamSpec, in Params) (Params, error) {
	out := Defaults(specs)
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec, ok := FindSpec(specs, name)
		if !ok {
			return nil, UnknownParam(name)
		}
		out[name] = spec.Clamp(in[name])
	}
	return out, nil
}

// Simulation is one steppable algorithm. Init builds ModelState0 and the
// sample set from Env; Step advances exactly one discrete animation step and
// is a no-op once Terminal reports true.
type Simulation interface {
	render.Scene
	Name() string
	Specs() []ParamSpec
	Init(env Env) error
	Step() error
	Terminal() bool
	Samples() []Sample
	State() Vector
}

// Tuner accepts live parameter changes between ticks.
type Tuner interface {
	Tune(name string, value float64) error
}

// Pointer accepts pointer placement in domain coordinates.
type Pointer interface {
	Place(p Point) error
	Viewport() render.Transform
}

// Scorer reports the current objective value, lower is better.
type Scorer interface {
	Loss() float64
}

// Phaser names the stage the simulation is currently showing.
type Phaser interface {
	Phase() string
}
