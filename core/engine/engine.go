package engine

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
)

// ErrInvalidDelay is returned when a process yields a delay below one tick.
var ErrInvalidDelay = errors.New("process yielded a non-positive delay")

// Process is a resumable state machine.
type Process interface {
	// Resume runs the process at virtual time now. It returns the number of
	// ticks until the next wake-up, or done=true when the process ends.
	Resume(now int64) (delay int64, done bool)
}

type entry struct {
	wake int64
	seq  int
	proc Process
}

type queue []*entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].wake != q[j].wake {
		return q[i].wake < q[j].wake
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(*entry)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Engine advances virtual time and resumes processes in (wake, spawn order).
type Engine struct {
	now   int64
	seq   int
	queue queue
}

// New returns an engine with its clock at zero.
func New() *Engine { return &Engine{} }

// CurrentTime returns the virtual clock.
func (e *Engine) CurrentTime() int64 { return e.now }

// Spawn registers p to be resumed at the current time.
func (e *Engine) Spawn(p Process) { e.SpawnAt(p, e.now) }

// SpawnAt registers p to be resumed at time at. Times in the past are moved to now.
func (e *Engine) SpawnAt(p Process, at int64) {
	if at < e.now {
		at = e.now
	}
	heap.Push(&e.queue, &entry{wake: at, seq: e.seq, proc: p})
	e.seq++
}

// Pending returns the number of processes still scheduled.
func (e *Engine) Pending() int { return len(e.queue) }

// Run resumes processes until the next wake-up would be at or past until, then
// sets the clock to until. No process is resumed at or after the horizon. The
// context is checked each time the clock moves forward.
func (e *Engine) Run(ctx context.Context, until int64) error {
	for len(e.queue) > 0 {
		next := e.queue[0]
		if next.wake >= until {
			break
		}
		if next.wake != e.now {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.now = next.wake
		}
		delay, done := next.proc.Resume(e.now)
		if done {
			heap.Pop(&e.queue)
			continue
		}
		if delay < 1 {
			return fmt.Errorf("%w: %d at t=%d", ErrInvalidDelay, delay, e.now)
		}
		next.wake += delay
		heap.Fix(&e.queue, 0)
	}
	if until > e.now {
		e.now = until
	}
	return nil
}
