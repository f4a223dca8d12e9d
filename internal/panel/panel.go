// Package panel is the control surface in front of an anim.Controller:
// play/pause, reset, the speed slider and one slider per parameter.
package panel

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/engine"
)

// SpeedSpec is the playback slider.
var SpeedSpec = engine.ParamSpec{
	Name:    "speed",
	Label:   "Speed",
	Min:     anim.MinSpeed,
	Max:     anim.MaxSpeed,
	Step:    anim.SpeedStep,
	Default: anim.DefaultSpeed,
}

// Slider is one control with its current value.
type Slider struct {
	engine.ParamSpec
	Value   float64
	Enabled bool
}

func (s Slider) String() string {
	return fmt.Sprintf("%s: %g", s.Label, s.Value)
}

type Panel struct {
	ctrl *anim.Controller
}

func New(ctrl *anim.Controller) *Panel {
	return &Panel{ctrl: ctrl}
}

func (p *Panel) Controller() *anim.Controller { return p.ctrl }

func (p *Panel) Toggle() error { return p.ctrl.Toggle() }

func (p *Panel) Reset() error { return p.ctrl.Reset() }

// SetSpeed snaps v to the slider grid before applying it.
func (p *Panel) SetSpeed(v float64) (float64, error) {
	v = SpeedSpec.Clamp(v)
	return v, p.ctrl.SetSpeed(v)
}

// Set clamps v into the parameter's range and applies it. Topology
// parameters re-initialize the simulation and are locked while playing.
func (p *Panel) Set(name string, v float64) (float64, error) {
	spec, ok := engine.FindSpec(p.ctrl.Simulation().Specs(), name)
	if !ok {
		return 0, engine.UnknownParam(name)
	}
	v = spec.Clamp(v)
	if spec.Topology {
		return v, p.ctrl.Configure(name, v)
	}
	return v, p.ctrl.Tune(name, v)
}

// Nudge moves a parameter by steps increments of its grid.
func (p *Panel) Nudge(name string, steps int) (float64, error) {
	if name == SpeedSpec.Name {
		return p.SetSpeed(p.ctrl.Status().Speed + float64(steps)*SpeedSpec.Step)
	}
	spec, ok := engine.FindSpec(p.ctrl.Simulation().Specs(), name)
	if !ok {
		return 0, engine.UnknownParam(name)
	}
	cur := p.ctrl.Params()[name]
	return p.Set(name, cur+float64(steps)*spec.Step)
}

// Enabled reports whether a parameter can be changed right now.
func (p *Panel) Enabled(name string) bool {
	if name == SpeedSpec.Name {
		return true
	}
	spec, ok := engine.FindSpec(p.ctrl.Simulation().Specs(), name)
	if !ok {
		return false
	}
	return !spec.Topology || p.ctrl.Status().State != anim.Playing
}

// Sliders lists the speed slider followed by the simulation's parameters.
func (p *Panel) Sliders() []Slider {
	st := p.ctrl.Status()
	out := []Slider{{ParamSpec: SpeedSpec, Value: st.Speed, Enabled: true}}
	params := p.ctrl.Params()
	for _, spec := range p.ctrl.Simulation().Specs() {
		out = append(out, Slider{
			ParamSpec: spec,
			Value:     params[spec.Name],
			Enabled:   !spec.Topology || st.State != anim.Playing,
		})
	}
	return out
}

// Click maps a surface pixel into domain coordinates and hands it to a
// simulation that accepts pointer input.
func (p *Panel) Click(px, py float64) error {
	tr, ok := p.ctrl.Viewport()
	if !ok {
		return errors.Errorf("%s does not accept pointer input", p.ctrl.Simulation().Name())
	}
	if tr.Sx == 0 || tr.Sy == 0 {
		return errors.Wrap(engine.ErrParameterBounds, "degenerate viewport")
	}
	x, y := tr.Invert(px, py)
	return p.ctrl.Place(engine.Point{X: x, Y: y})
}

// Message is the text shown under the controls: the last error, or empty.
func (p *Panel) Message() string {
	st := p.ctrl.Status()
	if st.Err == nil {
		return ""
	}
	switch {
	case errors.Is(st.Err, engine.ErrDiverged):
		return fmt.Sprintf("%v (lower the learning rate and reset)", st.Err)
	case errors.Is(st.Err, engine.ErrInvalidState):
		return fmt.Sprintf("%v (reset to continue)", st.Err)
	}
	return st.Err.Error()
}
