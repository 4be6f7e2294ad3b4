package eventloop

import (
	"sort"
	"time"
)

// Manual is a Scheduler stepped by hand. Nothing runs until the caller
// flushes, completes tasks or advances the clock.
type Manual struct {
	now    time.Duration
	queue  []func()
	timers []manualTimer
	tasks  []Task
	seq    int
}

type manualTimer struct {
	due time.Duration
	seq int
	fn  func()
}

// NewManual constructs an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Post implements Scheduler.
func (m *Manual) Post(fn func()) {
	if fn != nil {
		m.queue = append(m.queue, fn)
	}
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	m.seq++
	m.timers = append(m.timers, manualTimer{due: m.now + d, seq: m.seq, fn: fn})
}

// Go implements Scheduler. The task is held until RunTasks.
func (m *Manual) Go(task Task) {
	if task != nil {
		m.tasks = append(m.tasks, task)
	}
}

// Flush runs queued callbacks, including ones they queue, and returns how
// many ran.
func (m *Manual) Flush() int {
	ran := 0
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
		ran++
	}
	return ran
}

// RunTasks runs held tasks in submission order and queues their
// completions. It returns how many tasks ran.
func (m *Manual) RunTasks() int {
	tasks := m.tasks
	m.tasks = nil
	for _, task := range tasks {
		if done := task(); done != nil {
			m.queue = append(m.queue, done)
		}
	}
	return len(tasks)
}

// Settle flushes and runs tasks until neither has work left. Timers are
// left alone.
func (m *Manual) Settle() {
	for {
		ran := m.Flush()
		ran += m.RunTasks()
		if ran == 0 {
			return
		}
	}
}

// Advance moves the clock forward by d, queues the timers that fell due
// in due order and settles.
func (m *Manual) Advance(d time.Duration) {
	m.now += d
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].due == m.timers[j].due {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due < m.timers[j].due
	})
	var keep []manualTimer
	for _, timer := range m.timers {
		if timer.due <= m.now {
			m.queue = append(m.queue, timer.fn)
			continue
		}
		keep = append(keep, timer)
	}
	m.timers = keep
	m.Settle()
}

// Timers reports how many timers have not fired yet.
func (m *Manual) Timers() int { return len(m.timers) }

// HeldTasks reports how many tasks wait for RunTasks.
func (m *Manual) HeldTasks() int { return len(m.tasks) }
