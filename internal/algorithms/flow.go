package algorithms

import (
	"fmt"

	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

// FlowStage is one box of the supervised training pipeline.
type FlowStage struct {
	Title       string
	Description string
}

var TrainingStages = []FlowStage{
	{Title: "Prepare data", Description: "collect raw examples"},
	{Title: "Label answers", Description: "attach the expected output"},
	{Title: "Extract features", Description: "turn examples into numbers"},
	{Title: "Algorithm learns", Description: "fit parameters to the labels"},
	{Title: "Produce model", Description: "a function ready to predict"},
}

// TrainingFlow reveals the training pipeline one stage per step.
type TrainingFlow struct {
	base
	revealed int
}

func NewTrainingFlow() *TrainingFlow {
	return &TrainingFlow{}
}

func (f *TrainingFlow) Name() string { return "ml-training-flow" }

func (f *TrainingFlow) Init(env engine.Env) error {
	if _, err := f.setup(nil, env, render.Rect{MinX: 0, MinY: 0, MaxX: float64(len(TrainingStages)), MaxY: 1}); err != nil {
		return err
	}
	f.revealed = 0
	return nil
}

func (f *TrainingFlow) Step() error {
	if !f.ready {
		return notReady(f.Name())
	}
	if f.Terminal() {
		return nil
	}
	f.revealed++
	return nil
}

func (f *TrainingFlow) Terminal() bool { return f.revealed >= len(TrainingStages) }

func (f *TrainingFlow) Revealed() int { return f.revealed }

func (f *TrainingFlow) State() engine.Vector { return engine.Vector{float64(f.revealed)} }

func (f *TrainingFlow) Phase() string {
	if f.revealed == 0 {
		return "ready"
	}
	st := TrainingStages[f.revealed-1]
	return fmt.Sprintf("%d. %s: %s", f.revealed, st.Title, st.Description)
}

func (f *TrainingFlow) Draw(s render.Surface, ov render.Overlay) {
	if !f.ready {
		return
	}
	p := f.plot(s)
	for i, st := range TrainingStages {
		lit := i < f.revealed
		fill := render.Alpha(ov.Theme.Muted, 0x20)
		stroke := render.Dashed(ov.Theme.Muted, 1)
		if lit {
			fill = render.Alpha(ov.Theme.Class(i), 0x60)
			stroke = render.Solid(ov.Theme.Class(i), 2)
		}
		x0, y0 := f.view.Apply(float64(i)+0.1, 0.65)
		x1, y1 := f.view.Apply(float64(i)+0.9, 0.35)
		s.Rect(x0, y0, x1-x0, y1-y0, fill, stroke)
		if ov.Labels {
			p.Text(float64(i)+0.5, 0.52, st.Title, ov.Theme.Text, render.AlignCenter)
			if lit {
				p.Text(float64(i)+0.5, 0.25, st.Description, ov.Theme.Muted, render.AlignCenter)
			}
		}
		if i > 0 {
			arrow := render.Solid(ov.Theme.Muted, 1)
			if lit {
				arrow = render.Solid(ov.Theme.Accent, 2)
			}
			p.Line(float64(i)-0.1, 0.5, float64(i)+0.1, 0.5, arrow)
			p.Line(float64(i)+0.06, 0.53, float64(i)+0.1, 0.5, arrow)
			p.Line(float64(i)+0.06, 0.47, float64(i)+0.1, 0.5, arrow)
		}
	}
	caption(s, ov, f.Phase())
}

func (f *TrainingFlow) Legend() []render.LegendEntry { return nil }
