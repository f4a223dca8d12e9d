package anim

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/log"
	"github.com/san-kum/mlviz/internal/render"
	"go.uber.org/zap"
)

type State int

const (
	Idle State = iota
	Playing
	Paused
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Terminal:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
	SpeedStep    = 0.5
	DefaultSpeed = 1.0
)

// Status is a snapshot of the controller, handed to observers after every
// change.
type Status struct {
	Algorithm string
	Iteration int
	State     State
	Speed     float64
	Interval  time.Duration
	Phase     string
	Loss      float64
	HasLoss   bool
	Err       error
}

// Observer is notified synchronously, with the controller lock held.
// Implementations must not call back into the controller.
type Observer interface {
	OnTick(st Status)
}

type ObserverFunc func(st Status)

func (f ObserverFunc) OnTick(st Status) { f(st) }

type Config struct {
	// Base is the step interval at speed 1.
	Base  time.Duration
	Speed float64
	Env   engine.Env
}

// Controller runs the play/pause/reset state machine for one simulation.
type Controller struct {
	mu sync.Mutex

	sim      engine.Simulation
	renderer *render.Renderer
	surface  render.Surface
	sched    Scheduler

	env   engine.Env
	base  time.Duration
	speed float64

	timer     Timer
	retired   []Timer
	gen       uint64
	ready     bool
	state     State
	iteration int
	err       error

	observers []Observer
	logger    *zap.Logger
}

// New initializes sim and paints the first frame. A nil surface runs the
// controller headless.
func New(sim engine.Simulation, r *render.Renderer, s render.Surface, sched Scheduler, cfg Config) (*Controller, error) {
	if cfg.Base <= 0 {
		return nil, errors.Wrapf(engine.ErrParameterBounds, "base interval %v", cfg.Base)
	}
	if cfg.Speed == 0 {
		cfg.Speed = DefaultSpeed
	}
	if r == nil {
		r = render.NewRenderer(render.DefaultOverlay())
	}
	c := &Controller{
		sim:      sim,
		renderer: r,
		surface:  s,
		sched:    sched,
		env:      cfg.Env,
		base:     cfg.Base,
		logger:   log.Logger().With(zap.String("algorithm", sim.Name())),
	}
	if cfg.Env.Params != nil {
		c.env.Params = cfg.Env.Params.Clone()
	}
	speed, err := checkSpeed(cfg.Speed)
	if err != nil {
		return nil, err
	}
	c.speed = speed
	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

func checkSpeed(v float64) (float64, error) {
	if v < MinSpeed || v > MaxSpeed || v != v {
		return 0, errors.Wrapf(engine.ErrParameterBounds, "speed %.2f not in [%.1f, %.1f]", v, MinSpeed, MaxSpeed)
	}
	return v, nil
}

func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Simulation returns the driven simulation. Callers must not step it.
func (c *Controller) Simulation() engine.Simulation { return c.sim }

// Play starts or resumes periodic stepping.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Playing:
		return nil
	case Terminal:
		return engine.ErrFinished
	}
	if !c.ready {
		return engine.ErrNotInitialized
	}
	if c.sim.Terminal() {
		c.state = Terminal
		c.notify()
		return engine.ErrFinished
	}
	c.err = nil
	c.state = Playing
	c.startTimer()
	c.logger.Debug("play", zap.Int("iteration", c.iteration), zap.Duration("interval", c.interval()))
	c.notify()
	return nil
}

// Pause stops the timer and keeps the iteration count.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return
	}
	c.stopTimer()
	c.state = Paused
	c.logger.Debug("pause", zap.Int("iteration", c.iteration))
	c.notify()
}

// Toggle flips between playing and paused. In the terminal state it
// returns ErrFinished.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	playing := c.state == Playing
	c.mu.Unlock()
	if playing {
		c.Pause()
		return nil
	}
	return c.Play()
}

// Reset cancels the timer, regenerates the samples from the configured seed
// and returns to Idle at iteration 0.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reset()
}

// Reseed resets with a new seed, producing a fresh dataset.
func (c *Controller) Reseed(seed int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env.Seed = seed
	return c.reset()
}

func (c *Controller) reset() error {
	c.stopTimer()
	c.iteration = 0
	c.state = Idle
	c.err = nil
	c.ready = false
	if err := c.sim.Init(c.env); err != nil {
		c.err = err
		c.logger.Warn("init failed", zap.Error(err))
		c.notify()
		return err
	}
	c.ready = true
	c.logger.Debug("reset", zap.Int64("seed", c.env.Seed))
	c.draw()
	c.notify()
	return nil
}

// Step advances exactly one iteration while not playing and leaves the
// controller paused.
func (c *Controller) Step() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Playing:
		return nil
	case Terminal:
		return engine.ErrFinished
	}
	if !c.ready {
		return engine.ErrNotInitialized
	}
	c.err = nil
	c.state = Paused
	c.advance()
	return c.err
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != Playing {
		return
	}
	c.advance()
}

func (c *Controller) advance() {
	if c.sim.Terminal() {
		c.finish()
		c.notify()
		return
	}
	err := c.step()
	if err == nil && !c.sim.State().IsValid() {
		err = engine.ErrInvalidState
	}
	if err != nil {
		c.stopTimer()
		c.err = &engine.StepError{Iteration: c.iteration + 1, Err: err}
		c.state = Paused
		c.logger.Warn("step failed", zap.Int("iteration", c.iteration+1), zap.Error(err))
		c.notify()
		return
	}
	c.iteration++
	c.draw()
	if c.sim.Terminal() {
		c.finish()
	}
	c.notify()
}

func (c *Controller) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in %s step: %v", c.sim.Name(), r)
		}
	}()
	return c.sim.Step()
}

func (c *Controller) finish() {
	c.stopTimer()
	if c.state != Terminal {
		c.logger.Debug("finished", zap.Int("iteration", c.iteration))
	}
	c.state = Terminal
}

// SetSpeed changes the playback multiplier. A running timer picks up the
// new interval on its next period.
func (c *Controller) SetSpeed(v float64) error {
	speed, err := checkSpeed(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
	if c.timer != nil {
		c.timer.Reset(c.interval())
	}
	c.notify()
	return nil
}

// Configure changes a parameter that requires re-initialization. It is
// refused while playing.
func (c *Controller) Configure(name string, v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	spec, ok := engine.FindSpec(c.sim.Specs(), name)
	if !ok {
		return engine.UnknownParam(name)
	}
	if c.state == Playing {
		return errors.Wrapf(engine.ErrLocked, "%s", name)
	}
	c.setParam(name, spec.Clamp(v))
	return c.reset()
}

// Tune forwards a live parameter to the simulation between ticks.
func (c *Controller) Tune(name string, v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	spec, ok := engine.FindSpec(c.sim.Specs(), name)
	if !ok {
		return engine.UnknownParam(name)
	}
	if spec.Topology {
		return errors.Wrapf(engine.ErrLocked, "%s requires a reset", name)
	}
	tuner, ok := c.sim.(engine.Tuner)
	if !ok {
		return errors.Errorf("%s has no live parameters", c.sim.Name())
	}
	v = spec.Clamp(v)
	if err := tuner.Tune(name, v); err != nil {
		return err
	}
	c.setParam(name, v)
	c.draw()
	c.notify()
	return nil
}

func (c *Controller) setParam(name string, v float64) {
	if c.env.Params == nil {
		c.env.Params = engine.Params{}
	}
	c.env.Params[name] = v
}

// Params returns the resolved parameter values a reset would use.
func (c *Controller) Params() engine.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := engine.Resolve(c.sim.Specs(), c.env.Params)
	if err != nil {
		return engine.Defaults(c.sim.Specs())
	}
	return p
}

// Place moves the simulation's pointer target and repaints out of band.
func (c *Controller) Place(p engine.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ptr, ok := c.sim.(engine.Pointer)
	if !ok {
		return errors.Errorf("%s does not accept pointer input", c.sim.Name())
	}
	if err := ptr.Place(p); err != nil {
		return err
	}
	c.draw()
	c.notify()
	return nil
}

// Viewport returns the domain transform when the simulation accepts
// pointer input.
func (c *Controller) Viewport() (render.Transform, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ptr, ok := c.sim.(engine.Pointer)
	if !ok {
		return render.Transform{}, false
	}
	return ptr.Viewport(), true
}

// Redraw repaints the surface outside the tick loop.
func (c *Controller) Redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draw()
	c.notify()
}

// SetOverlay swaps theme and overlay toggles, then repaints.
func (c *Controller) SetOverlay(ov render.Overlay) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer.Overlay = ov
	c.draw()
	c.notify()
}

func (c *Controller) Overlay() render.Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Overlay
}

// View runs fn with the surface while holding the lock, so a ticker
// goroutine cannot repaint mid-read.
func (c *Controller) View(fn func(s render.Surface)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil {
		fn(c.surface)
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

func (c *Controller) status() Status {
	st := Status{
		Algorithm: c.sim.Name(),
		Iteration: c.iteration,
		State:     c.state,
		Speed:     c.speed,
		Interval:  c.interval(),
		Err:       c.err,
	}
	if !c.ready {
		return st
	}
	if p, ok := c.sim.(engine.Phaser); ok {
		st.Phase = p.Phase()
	}
	if s, ok := c.sim.(engine.Scorer); ok {
		st.Loss, st.HasLoss = s.Loss(), true
	}
	return st
}

// Close releases the timer and waits for every timer goroutine it started
// to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimer()
	if c.state == Playing {
		c.state = Paused
	}
	pending := c.retired
	c.retired = nil
	c.mu.Unlock()

	for _, t := range pending {
		<-t.(doner).Done()
	}
}

type doner interface {
	Done() <-chan struct{}
}

func (c *Controller) interval() time.Duration {
	return time.Duration(float64(c.base) / c.speed)
}

func (c *Controller) startTimer() {
	c.stopTimer()
	gen := c.gen
	c.timer = c.sched.Every(c.interval(), func() { c.tick(gen) })
}

// stopTimer cancels the current timer and invalidates callbacks already in
// flight.
func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		if _, ok := c.timer.(doner); ok {
			c.retired = append(c.retired, c.timer)
		}
		c.timer = nil
	}
	c.gen++
	live := c.retired[:0]
	for _, t := range c.retired {
		select {
		case <-t.(doner).Done():
		default:
			live = append(live, t)
		}
	}
	c.retired = live
}

func (c *Controller) draw() {
	if c.surface == nil || !c.ready {
		return
	}
	c.renderer.Render(c.surface, c.sim)
}

func (c *Controller) notify() {
	if len(c.observers) == 0 {
		return
	}
	st := c.status()
	for _, o := range c.observers {
		o.OnTick(st)
	}
}
