package algorithms

import (
	"reflect"
	"testing"

	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

func allSimulations() []engine.Simulation {
	return []engine.Simulation{
		NewLinearRegression(),
		NewKMeans(),
		NewDecisionTree(),
		NewSVM(),
		NewKNN(),
		NewNeuralNetwork(),
		NewGradientDescent(),
		NewCNN(),
		NewTrainingFlow(),
	}
}

func runToEnd(t *testing.T, sim engine.Simulation, limit int) int {
	t.Helper()
	steps := 0
	for !sim.Terminal() {
		if err := sim.Step(); err != nil {
			t.Fatalf("%s: step %d failed: %v", sim.Name(), steps, err)
		}
		steps++
		if steps > limit {
			t.Fatalf("%s: not terminal after %d steps", sim.Name(), limit)
		}
	}
	return steps
}

func TestInitDeterministic(t *testing.T) {
	for i, a := range allSimulations() {
		b := allSimulations()[i]
		env := engine.Env{Seed: 42}
		if err := a.Init(env); err != nil {
			t.Fatalf("%s: init failed: %v", a.Name(), err)
		}
		if err := b.Init(env); err != nil {
			t.Fatalf("%s: init failed: %v", b.Name(), err)
		}
		if !reflect.DeepEqual(a.Samples(), b.Samples()) {
			t.Errorf("%s: samples differ for the same seed", a.Name())
		}
		if !reflect.DeepEqual(a.State(), b.State()) {
			t.Errorf("%s: initial state differs for the same seed", a.Name())
		}
	}
}

func TestReinitRestoresSamples(t *testing.T) {
	for _, sim := range allSimulations() {
		env := engine.Env{Seed: 7}
		if err := sim.Init(env); err != nil {
			t.Fatalf("%s: init failed: %v", sim.Name(), err)
		}
		first := append([]engine.Sample(nil), sim.Samples()...)
		state0 := sim.State().Clone()
		runToEnd(t, sim, 500)
		if err := sim.Init(env); err != nil {
			t.Fatalf("%s: reinit failed: %v", sim.Name(), err)
		}
		if !reflect.DeepEqual(first, sim.Samples()) && len(first) > 0 {
			t.Errorf("%s: samples changed after reinit", sim.Name())
		}
		if !reflect.DeepEqual(state0, sim.State()) {
			t.Errorf("%s: state not restored after reinit", sim.Name())
		}
	}
}

func TestStepAfterTerminalIsNoop(t *testing.T) {
	for _, sim := range allSimulations() {
		if err := sim.Init(engine.Env{Seed: 3}); err != nil {
			t.Fatalf("%s: init failed: %v", sim.Name(), err)
		}
		runToEnd(t, sim, 500)
		before := sim.State().Clone()
		if err := sim.Step(); err != nil {
			t.Errorf("%s: step after terminal returned %v", sim.Name(), err)
		}
		if !reflect.DeepEqual(before, sim.State()) {
			t.Errorf("%s: state changed after terminal", sim.Name())
		}
	}
}

func TestStepBeforeInit(t *testing.T) {
	for _, sim := range allSimulations() {
		if err := sim.Step(); err == nil {
			t.Errorf("%s: expected error stepping before init", sim.Name())
		}
	}
}

func TestDrawEveryStep(t *testing.T) {
	r := render.NewRenderer(render.DefaultOverlay())
	for _, sim := range allSimulations() {
		if err := sim.Init(engine.Env{Seed: 11, Width: 320, Height: 240}); err != nil {
			t.Fatalf("%s: init failed: %v", sim.Name(), err)
		}
		frame := render.NewFrame(320, 240)
		raster := render.NewRaster(320, 240)
		for {
			r.Render(frame, sim)
			r.Render(raster, sim)
			if frame.Count(render.OpClear) != 1 {
				t.Fatalf("%s: expected one clear per frame", sim.Name())
			}
			if len(frame.Ops) < 2 {
				t.Errorf("%s: nothing drawn", sim.Name())
			}
			if sim.Terminal() {
				break
			}
			if err := sim.Step(); err != nil {
				t.Fatalf("%s: step failed: %v", sim.Name(), err)
			}
		}
	}
}

func TestUnknownParamRejected(t *testing.T) {
	sim := NewKMeans()
	err := sim.Init(engine.Env{Seed: 1, Params: engine.Params{"momentum": 1}})
	if err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestTopologyNotTunable(t *testing.T) {
	g := NewGradientDescent()
	if err := g.Init(engine.Env{Seed: 1}); err != nil {
		t.Fatal(err)
	}
	if err := g.Tune("objective", 1); err == nil {
		t.Error("expected objective to be refused as a live parameter")
	}
	if err := g.Tune("lr", 0.25); err != nil {
		t.Errorf("lr should be tunable: %v", err)
	}
	if g.Params()["lr"] != 0.25 {
		t.Errorf("expected lr 0.25, got %v", g.Params()["lr"])
	}
}
