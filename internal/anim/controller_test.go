package anim_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/engine"
	"github.com/san-kum/mlviz/internal/render"
)

var _ = Describe("Controller", func() {
	var (
		sim    *counter
		sched  *anim.ManualScheduler
		frame  *render.Frame
		ctrl   *anim.Controller
		events []anim.Status
	)

	newController := func(cfg anim.Config) {
		var err error
		ctrl, err = anim.New(sim, render.NewRenderer(render.DefaultOverlay()), frame, sched, cfg)
		Expect(err).NotTo(HaveOccurred())
		ctrl.AddObserver(anim.ObserverFunc(func(st anim.Status) {
			events = append(events, st)
		}))
	}

	BeforeEach(func() {
		sim = &counter{}
		sched = anim.NewManualScheduler()
		frame = render.NewFrame(100, 100)
		events = nil
		newController(anim.Config{Base: 100 * time.Millisecond, Env: engine.Env{Seed: 42}})
	})

	AfterEach(func() {
		ctrl.Close()
	})

	It("starts idle at iteration zero with a painted frame", func() {
		st := ctrl.Status()
		Expect(st.State).To(Equal(anim.Idle))
		Expect(st.Iteration).To(BeZero())
		Expect(st.Speed).To(Equal(anim.DefaultSpeed))
		Expect(frame.Count(render.OpClear)).To(Equal(1))
		Expect(sim.inits).To(Equal(1))
	})

	It("rejects a non-positive base interval", func() {
		_, err := anim.New(&counter{}, nil, nil, sched, anim.Config{})
		Expect(errors.Is(err, engine.ErrParameterBounds)).To(BeTrue())
	})

	Describe("playing", func() {
		BeforeEach(func() {
			Expect(ctrl.Play()).To(Succeed())
		})

		It("acquires one timer at the base interval", func() {
			Expect(sched.Active()).To(Equal(1))
			Expect(sched.Interval()).To(Equal(100 * time.Millisecond))
			Expect(ctrl.Status().State).To(Equal(anim.Playing))
		})

		It("advances one iteration per tick and repaints", func() {
			sched.Fire()
			sched.Fire()
			Expect(ctrl.Status().Iteration).To(Equal(2))
			Expect(sim.n).To(Equal(2.0))
			Expect(frame.Count(render.OpRect)).To(BeNumerically(">=", 1))
		})

		It("is idempotent", func() {
			Expect(ctrl.Play()).To(Succeed())
			Expect(sched.Active()).To(Equal(1))
		})

		It("freezes the iteration while paused", func() {
			sched.Fire()
			ctrl.Pause()
			Expect(sched.Active()).To(BeZero())
			Expect(sched.Fire()).To(BeZero())
			st := ctrl.Status()
			Expect(st.State).To(Equal(anim.Paused))
			Expect(st.Iteration).To(Equal(1))

			Expect(ctrl.Play()).To(Succeed())
			sched.Fire()
			Expect(ctrl.Status().Iteration).To(Equal(2))
		})

		It("reaches the terminal state and releases the timer", func() {
			for i := 0; i < 10; i++ {
				sched.Fire()
			}
			st := ctrl.Status()
			Expect(st.State).To(Equal(anim.Terminal))
			Expect(st.Iteration).To(Equal(5))
			Expect(sched.Active()).To(BeZero())
		})

		It("refuses to play again once finished", func() {
			for i := 0; i < 5; i++ {
				sched.Fire()
			}
			Expect(errors.Is(ctrl.Play(), engine.ErrFinished)).To(BeTrue())
			Expect(errors.Is(ctrl.Toggle(), engine.ErrFinished)).To(BeTrue())
		})

		It("notifies observers with the loss and phase", func() {
			sched.Fire()
			last := events[len(events)-1]
			Expect(last.Iteration).To(Equal(1))
			Expect(last.HasLoss).To(BeTrue())
			Expect(last.Loss).To(BeNumerically("~", 0.5))
			Expect(last.Phase).To(Equal("counting"))
		})
	})

	Describe("reset", func() {
		It("returns to idle at iteration zero from any state", func() {
			Expect(ctrl.Play()).To(Succeed())
			sched.Fire()
			sched.Fire()
			Expect(ctrl.Reset()).To(Succeed())

			st := ctrl.Status()
			Expect(st.State).To(Equal(anim.Idle))
			Expect(st.Iteration).To(BeZero())
			Expect(sched.Active()).To(BeZero())
			Expect(sim.n).To(BeZero())
			Expect(sim.inits).To(Equal(2))
		})

		It("discards a tick that was already in flight", func() {
			Expect(ctrl.Play()).To(Succeed())
			stale := sched
			Expect(ctrl.Reset()).To(Succeed())
			Expect(stale.Fire()).To(BeZero())
			Expect(ctrl.Status().Iteration).To(BeZero())
		})

		It("keeps the seed unless reseeded", func() {
			Expect(ctrl.Reset()).To(Succeed())
			Expect(sim.seed).To(Equal(int64(42)))
			Expect(ctrl.Reseed(7)).To(Succeed())
			Expect(sim.seed).To(Equal(int64(7)))
			Expect(ctrl.Reset()).To(Succeed())
			Expect(sim.seed).To(Equal(int64(7)))
		})

		It("allows playing again after finishing", func() {
			Expect(ctrl.Play()).To(Succeed())
			for i := 0; i < 5; i++ {
				sched.Fire()
			}
			Expect(ctrl.Reset()).To(Succeed())
			Expect(ctrl.Play()).To(Succeed())
		})
	})

	Describe("speed", func() {
		It("divides the base interval", func() {
			Expect(ctrl.Play()).To(Succeed())
			Expect(ctrl.SetSpeed(2)).To(Succeed())
			Expect(sched.Interval()).To(Equal(50 * time.Millisecond))
			Expect(ctrl.SetSpeed(0.5)).To(Succeed())
			Expect(sched.Interval()).To(Equal(200 * time.Millisecond))
		})

		It("rejects values outside the slider range", func() {
			Expect(errors.Is(ctrl.SetSpeed(3), engine.ErrParameterBounds)).To(BeTrue())
			Expect(errors.Is(ctrl.SetSpeed(0), engine.ErrParameterBounds)).To(BeTrue())
			Expect(ctrl.Status().Speed).To(Equal(anim.DefaultSpeed))
		})

		It("applies to the next play", func() {
			Expect(ctrl.SetSpeed(1.5)).To(Succeed())
			Expect(ctrl.Play()).To(Succeed())
			Expect(sched.Interval()).To(BeNumerically("~", 66*time.Millisecond, time.Millisecond))
		})
	})

	Describe("step errors", func() {
		It("pauses with a StepError when the model diverges", func() {
			sim.failAt = 3
			Expect(ctrl.Play()).To(Succeed())
			for i := 0; i < 5; i++ {
				sched.Fire()
			}
			st := ctrl.Status()
			Expect(st.State).To(Equal(anim.Paused))
			Expect(st.Iteration).To(Equal(2))
			var se *engine.StepError
			Expect(errors.As(st.Err, &se)).To(BeTrue())
			Expect(se.Iteration).To(Equal(3))
			Expect(errors.Is(st.Err, engine.ErrDiverged)).To(BeTrue())
			Expect(sched.Active()).To(BeZero())
		})

		It("recovers a panicking step", func() {
			sim.panicAt = 2
			Expect(ctrl.Play()).To(Succeed())
			Expect(func() { sched.Fire(); sched.Fire() }).NotTo(Panic())
			st := ctrl.Status()
			Expect(st.State).To(Equal(anim.Paused))
			Expect(st.Err).To(MatchError(ContainSubstring("exploded")))
		})

		It("treats a non-finite state as invalid", func() {
			sim.nanAt = 1
			Expect(ctrl.Step()).To(MatchError(ContainSubstring("invalid state")))
			Expect(errors.Is(ctrl.Status().Err, engine.ErrInvalidState)).To(BeTrue())
		})

		It("clears the error on reset", func() {
			sim.failAt = 1
			Expect(ctrl.Step()).NotTo(Succeed())
			Expect(ctrl.Reset()).To(Succeed())
			Expect(ctrl.Status().Err).To(BeNil())
		})
	})

	Describe("parameters", func() {
		It("refuses topology changes while playing", func() {
			Expect(ctrl.Play()).To(Succeed())
			err := ctrl.Configure("limit", 10)
			Expect(errors.Is(err, engine.ErrLocked)).To(BeTrue())
			Expect(ctrl.Params()["limit"]).To(Equal(5.0))
		})

		It("re-initializes on a topology change while idle", func() {
			Expect(ctrl.Configure("limit", 2.4)).To(Succeed())
			Expect(ctrl.Params()["limit"]).To(Equal(2.0))
			Expect(sim.inits).To(Equal(2))
			Expect(ctrl.Step()).To(Succeed())
			Expect(ctrl.Step()).To(Succeed())
			Expect(ctrl.Status().State).To(Equal(anim.Terminal))
		})

		It("tunes live parameters without resetting", func() {
			Expect(ctrl.Play()).To(Succeed())
			sched.Fire()
			Expect(ctrl.Tune("gain", 99)).To(Succeed())
			Expect(sim.params["gain"]).To(Equal(10.0))
			Expect(ctrl.Status().Iteration).To(Equal(1))
			Expect(ctrl.Params()["gain"]).To(Equal(10.0))
		})

		It("keeps tuned values across a reset", func() {
			Expect(ctrl.Tune("gain", 2.5)).To(Succeed())
			Expect(ctrl.Reset()).To(Succeed())
			Expect(sim.params["gain"]).To(Equal(2.5))
		})

		It("rejects unknown names", func() {
			Expect(errors.Is(ctrl.Tune("momentum", 1), engine.ErrUnknownParam)).To(BeTrue())
			Expect(errors.Is(ctrl.Configure("momentum", 1), engine.ErrUnknownParam)).To(BeTrue())
		})
	})

	Describe("pointer input", func() {
		It("places and redraws out of band", func() {
			before := len(events)
			Expect(ctrl.Place(engine.Point{X: 3, Y: 4})).To(Succeed())
			Expect(sim.placed).To(Equal(engine.Point{X: 3, Y: 4}))
			Expect(len(events)).To(Equal(before + 1))
			Expect(ctrl.Status().Iteration).To(BeZero())
		})

		It("passes through placement errors", func() {
			err := ctrl.Place(engine.Point{X: 30})
			Expect(errors.Is(err, engine.ErrParameterBounds)).To(BeTrue())
		})

		It("exposes the viewport", func() {
			tr, ok := ctrl.Viewport()
			Expect(ok).To(BeTrue())
			x, y := tr.Invert(50, 50)
			Expect(x).To(BeNumerically("~", 5, 1e-9))
			Expect(y).To(BeNumerically("~", 5, 1e-9))
		})
	})
})

var _ = Describe("TickerScheduler", func() {
	It("steps on its own and stops on close", func() {
		sim := &counter{}
		frame := render.NewFrame(50, 50)
		ctrl, err := anim.New(sim, nil, frame, anim.NewTickerScheduler(), anim.Config{
			Base: 2 * time.Millisecond,
			Env:  engine.Env{Params: engine.Params{"limit": 50}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ctrl.Play()).To(Succeed())
		Eventually(func() int { return ctrl.Status().Iteration }).Should(BeNumerically(">=", 3))
		ctrl.Close()

		frozen := ctrl.Status().Iteration
		Consistently(func() int { return ctrl.Status().Iteration }, 30*time.Millisecond).Should(Equal(frozen))
		Expect(ctrl.Status().State).To(Equal(anim.Paused))
	})

	It("runs to the terminal state", func() {
		sim := &counter{}
		ctrl, err := anim.New(sim, nil, nil, anim.NewTickerScheduler(), anim.Config{Base: time.Millisecond})
		Expect(err).NotTo(HaveOccurred())
		done := make(chan struct{})
		var once sync.Once
		ctrl.AddObserver(anim.ObserverFunc(func(st anim.Status) {
			if st.State == anim.Terminal {
				once.Do(func() { close(done) })
			}
		}))
		Expect(ctrl.Play()).To(Succeed())
		Eventually(done).Should(BeClosed())
		ctrl.Close()
		Expect(ctrl.Status().Iteration).To(Equal(5))
	})
})
