package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mlviz/internal/anim"
)

func TestTraceRecordsOnePointPerIteration(t *testing.T) {
	tr := NewTrace()
	tr.OnTick(anim.Status{Iteration: 0, Loss: 10, HasLoss: true})
	tr.OnTick(anim.Status{Iteration: 1, Loss: 8, HasLoss: true})
	tr.OnTick(anim.Status{Iteration: 1, Loss: 7, HasLoss: true, Speed: 2})
	tr.OnTick(anim.Status{Iteration: 2, Loss: 5, HasLoss: true})

	if len(tr.Points()) != 3 {
		t.Fatalf("expected 3 points, got %d", len(tr.Points()))
	}
	if tr.Points()[1].Loss != 7 {
		t.Errorf("expected overwritten loss 7, got %f", tr.Points()[1].Loss)
	}
	if tr.Value() != 5 {
		t.Errorf("expected final loss 5, got %f", tr.Value())
	}
}

func TestTraceIgnoresLosslessModels(t *testing.T) {
	tr := NewTrace()
	tr.OnTick(anim.Status{Iteration: 1})
	if !math.IsNaN(tr.Value()) {
		t.Error("expected NaN for an empty trace")
	}
	if _, ok := Collect([]Metric{tr})["final_loss"]; ok {
		t.Error("NaN metrics should be skipped")
	}
}

func TestTraceRestartsOnReset(t *testing.T) {
	tr := NewTrace()
	tr.OnTick(anim.Status{Iteration: 0, Loss: 10, HasLoss: true})
	tr.OnTick(anim.Status{Iteration: 1, Loss: 8, HasLoss: true, State: anim.Playing})
	tr.OnTick(anim.Status{Iteration: 0, Loss: 10, HasLoss: true, State: anim.Idle})
	if len(tr.Points()) != 1 {
		t.Errorf("expected trace to restart, got %d points", len(tr.Points()))
	}
}

func TestReduction(t *testing.T) {
	r := NewReduction()
	r.OnTick(anim.Status{Loss: 10, HasLoss: true})
	r.OnTick(anim.Status{Iteration: 1, Loss: 2.5, HasLoss: true, State: anim.Playing})
	if math.Abs(r.Value()-0.75) > 1e-12 {
		t.Errorf("expected 0.75, got %f", r.Value())
	}
	r.Reset()
	if r.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestConvergence(t *testing.T) {
	c := NewConvergence()
	c.OnTick(anim.Status{Iteration: 3, State: anim.Playing})
	if c.Value() != -1 {
		t.Errorf("expected -1 before terminal, got %f", c.Value())
	}
	c.OnTick(anim.Status{Iteration: 7, State: anim.Terminal})
	c.OnTick(anim.Status{Iteration: 7, State: anim.Terminal})
	if c.Value() != 7 {
		t.Errorf("expected 7, got %f", c.Value())
	}
	c.OnTick(anim.Status{State: anim.Idle})
	if c.Value() != -1 {
		t.Error("expected reset to clear convergence")
	}
}

func TestFailures(t *testing.T) {
	f := NewFailures()
	boom := errors.New("boom")
	f.OnTick(anim.Status{Err: boom})
	f.OnTick(anim.Status{Err: boom})
	f.OnTick(anim.Status{})
	f.OnTick(anim.Status{Err: boom})
	if f.Value() != 2 {
		t.Errorf("expected 2 failures, got %f", f.Value())
	}
}
