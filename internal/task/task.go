// Package task runs cooperative, time-driven tasks on the simulation
// goroutine. Tasks never block and own no goroutine; the caller resumes
// them by advancing the scheduler with elapsed frame time.
package task

// timeTolerance absorbs float drift from summing many frame deltas so a
// 2.5s timer advanced by 25 × 0.1 fires on the 25th frame.
const timeTolerance = 1e-9

// Generation invalidates outstanding tokens when bumped.
type Generation struct {
	n uint64
}

// Next invalidates every earlier token and returns a fresh one.
func (g *Generation) Next() Token {
	g.n++
	return Token{src: g, gen: g.n}
}

// Invalidate discards all outstanding tokens without issuing a new one.
func (g *Generation) Invalidate() {
	g.n++
}

type Token struct {
	src *Generation
	gen uint64
}

// Valid reports whether no newer token was issued since this one.
func (t Token) Valid() bool {
	return t.src != nil && t.src.n == t.gen
}

// StepFunc is resumed with the total time since the task started and
// returns true once it is finished.
type StepFunc func(elapsed float64) bool

type entry struct {
	token   Token
	elapsed float64
	step    StepFunc
}

// Scheduler resumes tasks once per Advance. A task whose token went stale
// is dropped before it runs again.
type Scheduler struct {
	tasks []*entry
}

func (s *Scheduler) Start(token Token, step StepFunc) {
	if s == nil || step == nil {
		return
	}
	s.tasks = append(s.tasks, &entry{token: token, step: step})
}

// Advance resumes every live task with dt added to its elapsed time.
func (s *Scheduler) Advance(dt float64) {
	if s == nil || len(s.tasks) == 0 {
		return
	}
	if dt < 0 {
		dt = 0
	}
	// Tasks started during this pass run from the next Advance.
	current := s.tasks
	s.tasks = nil
	kept := current[:0]
	for _, e := range current {
		if !e.token.Valid() {
			continue
		}
		e.elapsed += dt
		if e.step(e.elapsed) {
			continue
		}
		// A step may have invalidated its own token.
		if e.token.Valid() {
			kept = append(kept, e)
		}
	}
	s.tasks = append(kept, s.tasks...)
}

// Pending reports the number of live tasks.
func (s *Scheduler) Pending() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, e := range s.tasks {
		if e.token.Valid() {
			n++
		}
	}
	return n
}

// After runs fn once when elapsed reaches delay.
func After(delay float64, fn func()) StepFunc {
	return func(elapsed float64) bool {
		if elapsed+timeTolerance < delay {
			return false
		}
		if fn != nil {
			fn()
		}
		return true
	}
}

// Every runs fn on its first resume and then each time another period
// elapses.
// It never finishes on its own; invalidate its token to stop it.
func Every(period float64, fn func()) StepFunc {
	next := 0.0
	return func(elapsed float64) bool {
		if period <= 0 {
			if fn != nil {
				fn()
			}
			return false
		}
		if elapsed+timeTolerance < next {
			return false
		}
		if fn != nil {
			fn()
		}
		// Missed periods collapse into one run.
		for elapsed+timeTolerance >= next {
			next += period
		}
		return false
	}
}

// Timer is a re-armable one-shot delay. Arming again restarts the delay
// from zero and the earlier run never fires.
type Timer struct {
	sched *Scheduler
	gen   Generation
	delay float64
	fn    func()
	armed bool
}

func NewTimer(sched *Scheduler, delay float64, fn func()) *Timer {
	return &Timer{sched: sched, delay: delay, fn: fn}
}

func (t *Timer) Arm() {
	if t == nil {
		return
	}
	token := t.gen.Next()
	t.armed = true
	t.sched.Start(token, After(t.delay, func() {
		t.armed = false
		if t.fn != nil {
			t.fn()
		}
	}))
}

func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.gen.Invalidate()
	t.armed = false
}

func (t *Timer) Armed() bool {
	return t != nil && t.armed
}

func (t *Timer) Delay() float64 {
	if t == nil {
		return 0
	}
	return t.delay
}
