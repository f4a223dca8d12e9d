package anim

import (
	"sync"
	"time"
)

// Timer is a periodic callback owned by exactly one Controller.
type Timer interface {
	// Stop cancels future callbacks. It never blocks.
	Stop()
	// Reset changes the period starting with the next callback.
	Reset(d time.Duration)
}

// Scheduler hands out periodic timers.
type Scheduler interface {
	Every(d time.Duration, fn func()) Timer
}

// TickerScheduler runs each timer on its own goroutine driven by a
// time.Ticker.
type TickerScheduler struct{}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

func (TickerScheduler) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.loop(fn)
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) loop(fn func()) {
	defer close(t.done)
	defer t.ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C:
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		}
	}
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *tickerTimer) Reset(d time.Duration) {
	t.ticker.Reset(d)
}

// Done is closed once the timer goroutine has returned.
func (t *tickerTimer) Done() <-chan struct{} {
	return t.done
}

// ManualScheduler never fires on its own. The owner calls Fire, typically
// from a UI tick message or a test.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Every(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ManualTimer{interval: d, fn: fn, active: true}
	s.timers = append(s.timers, t)
	return t
}

// Fire invokes every active timer once and reports how many fired.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	active := s.timers[:0]
	for _, t := range s.timers {
		if t.Active() {
			active = append(active, t)
		}
	}
	s.timers = active
	fire := append([]*ManualTimer(nil), active...)
	s.mu.Unlock()

	n := 0
	for _, t := range fire {
		if t.Fire() {
			n++
		}
	}
	return n
}

// Active returns the number of timers that have not been stopped.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if t.Active() {
			n++
		}
	}
	return n
}

// Interval reports the period of the most recent active timer, or zero.
func (s *ManualScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.timers) - 1; i >= 0; i-- {
		if s.timers[i].Active() {
			return s.timers[i].Interval()
		}
	}
	return 0
}

// ManualTimer fires only when told to.
type ManualTimer struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	active   bool
}

// Fire runs the callback if the timer is still active.
func (t *ManualTimer) Fire() bool {
	t.mu.Lock()
	ok, fn := t.active, t.fn
	t.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

func (t *ManualTimer) Stop() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

func (t *ManualTimer) Reset(d time.Duration) {
	t.mu.Lock()
	t.interval = d
	t.mu.Unlock()
}

func (t *ManualTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *ManualTimer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
