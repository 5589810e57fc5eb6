// Package progress drives the scan progress indicator. It is presentational:
// the percentage is simulated and only reconciled with the real analysis call
// through Succeed, Fail and Cancel.
package progress

import (
	"errors"
	"sync"
	"time"

	"menu-lens/api/internal/scanerr"
)

type State int

const (
	Idle State = iota
	Running
	Completing
	Done
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completing:
		return "completing"
	case Done:
		return "done"
	case Errored:
		return "errored"
	}
	return "unknown"
}

type Options struct {
	Interval   time.Duration // tick period while Running
	Ceiling    float64       // soft cap until the call resolves
	Rate       float64       // share of the remaining gap covered per tick
	MinStep    float64       // smallest increment below the ceiling
	Hold       time.Duration // Completing -> Done debounce
	ErrorGrace time.Duration // Errored -> cancellation path

	OnChange func(State, float64)
	OnDone   func()
	OnCancel func()
}

func DefaultOptions() Options {
	return Options{
		Interval:   100 * time.Millisecond,
		Ceiling:    95,
		Rate:       0.08,
		MinStep:    0.1,
		Hold:       500 * time.Millisecond,
		ErrorGrace: 2 * time.Second,
	}
}

var ErrBusy = errors.New("progress: scan already running")

type Controller struct {
	opt Options

	mu     sync.Mutex
	state  State
	pct    float64
	status string
	epoch  uint64 // bumped on every transition; stale ticks/timers compare against it
	stop   chan struct{}
	timer  *time.Timer
}

func New(opt Options) *Controller {
	def := DefaultOptions()
	if opt.Interval <= 0 {
		opt.Interval = def.Interval
	}
	if opt.Ceiling <= 0 || opt.Ceiling >= 100 {
		opt.Ceiling = def.Ceiling
	}
	if opt.Rate <= 0 || opt.Rate >= 1 {
		opt.Rate = def.Rate
	}
	if opt.MinStep <= 0 {
		opt.MinStep = def.MinStep
	}
	if opt.Hold < 0 {
		opt.Hold = 0
	}
	if opt.ErrorGrace < 0 {
		opt.ErrorGrace = 0
	}
	return &Controller{opt: opt}
}

// Next is the decelerating schedule: large steps early, small near the ceiling,
// never above it.
func (c *Controller) Next(p float64) float64 {
	if p >= c.opt.Ceiling {
		return c.opt.Ceiling
	}
	step := (c.opt.Ceiling - p) * c.opt.Rate
	if step < c.opt.MinStep {
		step = c.opt.MinStep
	}
	if p+step > c.opt.Ceiling {
		return c.opt.Ceiling
	}
	return p + step
}

func (c *Controller) Snapshot() (State, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.pct
}

func (c *Controller) State() State {
	s, _ := c.Snapshot()
	return s
}

func (c *Controller) Percent() float64 {
	_, p := c.Snapshot()
	return p
}

// Status is the short message for the Errored state, empty otherwise.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start enters Running and starts the tick source.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.state == Running || c.state == Completing {
		c.mu.Unlock()
		return ErrBusy
	}
	c.haltLocked()
	c.state = Running
	c.pct = 0
	c.status = ""
	stop := make(chan struct{})
	c.stop = stop
	ep := c.epoch
	c.mu.Unlock()

	go c.run(stop, ep)
	c.notify(Running, 0)
	return nil
}

func (c *Controller) run(stop <-chan struct{}, ep uint64) {
	t := time.NewTicker(c.opt.Interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if !c.tick(ep) {
				return
			}
		}
	}
}

func (c *Controller) tick(ep uint64) bool {
	c.mu.Lock()
	if c.epoch != ep || c.state != Running {
		c.mu.Unlock()
		return false
	}
	c.pct = c.Next(c.pct)
	p := c.pct
	c.mu.Unlock()
	c.notify(Running, p)
	return true
}

// Succeed forces 100%, enters Completing and hands off to OnDone after Hold.
func (c *Controller) Succeed() bool {
	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return false
	}
	c.haltLocked()
	c.state = Completing
	c.pct = 100
	ep := c.epoch
	c.timer = time.AfterFunc(c.opt.Hold, func() { c.finish(ep) })
	c.mu.Unlock()
	c.notify(Completing, 100)
	return true
}

func (c *Controller) finish(ep uint64) {
	c.mu.Lock()
	if c.epoch != ep || c.state != Completing {
		c.mu.Unlock()
		return
	}
	c.state = Done
	c.timer = nil
	c.mu.Unlock()
	c.notify(Done, 100)
	if c.opt.OnDone != nil {
		c.opt.OnDone()
	}
}

// Fail resets to 0, enters Errored and triggers OnCancel after ErrorGrace.
func (c *Controller) Fail(err error) bool {
	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return false
	}
	c.haltLocked()
	c.state = Errored
	c.pct = 0
	c.status = scanerr.StatusText(err)
	ep := c.epoch
	c.timer = time.AfterFunc(c.opt.ErrorGrace, func() { c.expire(ep) })
	c.mu.Unlock()
	c.notify(Errored, 0)
	return true
}

func (c *Controller) expire(ep uint64) {
	c.mu.Lock()
	if c.epoch != ep || c.state != Errored {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	if c.opt.OnCancel != nil {
		c.opt.OnCancel()
	}
}

// Cancel is the user-initiated stop. It silences the tick source and any
// pending hand-off, and returns to Idle.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	switch c.state {
	case Running, Completing, Errored:
	default:
		c.mu.Unlock()
		return false
	}
	c.haltLocked()
	c.state = Idle
	c.pct = 0
	c.status = ""
	c.mu.Unlock()
	c.notify(Idle, 0)
	return true
}

// haltLocked stops the ticker goroutine and pending timers and invalidates
// anything already in flight. c.mu must be held.
func (c *Controller) haltLocked() {
	c.epoch++
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notify(s State, p float64) {
	if c.opt.OnChange != nil {
		c.opt.OnChange(s, p)
	}
}
