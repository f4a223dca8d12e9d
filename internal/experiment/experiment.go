package experiment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/config"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/metrics"
	"github.com/san-kum/mlviz/internal/render"
)

// DefaultMaxIterations caps headless runs of simulations that never reach a
// terminal state on their own.
const DefaultMaxIterations = 1000

type Config struct {
	Algorithm     string
	Seed          int64
	Speed         float64
	Width         int
	Height        int
	MaxIterations int
	Params        map[string]float64
	Overlay       render.Overlay
}

// FromConfig converts a loaded file configuration.
func FromConfig(c *config.Config) Config {
	return Config{
		Algorithm:     c.Algorithm,
		Seed:          c.Seed,
		Speed:         c.Speed,
		Width:         c.Width,
		Height:        c.Height,
		MaxIterations: c.MaxIterations,
		Params:        c.Params,
		Overlay:       c.Overlays(),
	}
}

func (c Config) env() engine.Env {
	return engine.Env{Seed: c.Seed, Width: c.Width, Height: c.Height, Params: engine.Params(c.Params)}
}

type Result struct {
	Algorithm  string
	Seed       int64
	Params     engine.Params
	Iterations int
	State      anim.State
	Phase      string
	Trace      []metrics.Point
	Metrics    map[string]float64
	Elapsed    time.Duration
	Err        error
}

// Terminal reports whether the run finished on its own.
func (r *Result) Terminal() bool { return r.State == anim.Terminal }

type Experiment struct {
	cfg     Config
	desc    Descriptor
	ctrl    *anim.Controller
	trace   *metrics.Trace
	metrics []metrics.Metric
}

func New(cfg Config) *Experiment {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Speed == 0 {
		cfg.Speed = anim.DefaultSpeed
	}
	return &Experiment{cfg: cfg}
}

// Setup builds the simulation and its controller. surface may be nil for
// runs that only need the loss trace.
func (e *Experiment) Setup(desc Descriptor, surface render.Surface, sched anim.Scheduler, observers ...anim.Observer) error {
	if sched == nil {
		sched = anim.NewManualScheduler()
	}
	e.desc = desc
	e.metrics = metrics.Standard()
	e.trace = e.metrics[0].(*metrics.Trace)

	var observe []anim.Observer
	for _, m := range e.metrics {
		observe = append(observe, m)
	}
	observe = append(observe, observers...)

	ctrl, err := anim.New(desc.New(), render.NewRenderer(e.cfg.Overlay), surface, sched, anim.Config{
		Base:  desc.Interval,
		Speed: e.cfg.Speed,
		Env:   e.cfg.env(),
	})
	if err != nil {
		return errors.Wrapf(err, "setup %s", desc.Name)
	}
	for _, o := range observe {
		ctrl.AddObserver(o)
	}
	ctrl.Redraw()
	e.ctrl = ctrl
	return nil
}

func (e *Experiment) Controller() *anim.Controller { return e.ctrl }

func (e *Experiment) Metrics() []metrics.Metric { return e.metrics }

// Run steps the simulation as fast as possible until it reaches its
// terminal state, fails, hits MaxIterations or ctx is cancelled. A step
// failure is returned alongside the partial result.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.ctrl == nil {
		return nil, errors.New("experiment not setup")
	}
	start := time.Now()
	var runErr error
	for i := 0; i < e.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if e.ctrl.Status().State == anim.Terminal {
			break
		}
		if err := e.ctrl.Step(); err != nil {
			if !errors.Is(err, engine.ErrFinished) {
				runErr = err
			}
			break
		}
	}
	return e.result(start), runErr
}

// Watch plays the simulation on the controller's scheduler and blocks until
// it finishes, fails or ctx is cancelled.
func (e *Experiment) Watch(ctx context.Context) (*Result, error) {
	if e.ctrl == nil {
		return nil, errors.New("experiment not setup")
	}
	start := time.Now()
	stopped := make(chan struct{}, 1)
	e.ctrl.AddObserver(anim.ObserverFunc(func(st anim.Status) {
		if st.State == anim.Terminal || st.Err != nil || st.Iteration >= e.cfg.MaxIterations {
			select {
			case stopped <- struct{}{}:
			default:
			}
		}
	}))
	if err := e.ctrl.Play(); err != nil {
		return e.result(start), err
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case <-stopped:
	}
	e.ctrl.Close()
	res := e.result(start)
	if runErr == nil {
		runErr = res.Err
	}
	return res, runErr
}

func (e *Experiment) result(start time.Time) *Result {
	st := e.ctrl.Status()
	return &Result{
		Algorithm:  e.desc.Name,
		Seed:       e.cfg.Seed,
		Params:     e.ctrl.Params(),
		Iterations: st.Iteration,
		State:      st.State,
		Phase:      st.Phase,
		Trace:      append([]metrics.Point(nil), e.trace.Points()...),
		Metrics:    metrics.Collect(e.metrics),
		Elapsed:    time.Since(start),
		Err:        st.Err,
	}
}
