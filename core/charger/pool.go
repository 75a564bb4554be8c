// Package charger models the finite pool of charger bays shared by the fleet.
package charger

import (
	"errors"
	"fmt"
)

// ErrNotOccupying is returned when a machine releases a bay it does not hold.
var ErrNotOccupying = errors.New("machine does not occupy a bay")

// Request tracks one machine's claim on a bay.
type Request struct {
	MachineID string
	granted   bool
}

// Granted reports whether the request currently holds a bay.
func (r *Request) Granted() bool { return r.granted }

// Pool is a counting resource with a FIFO wait queue. The number of occupied bays
// never exceeds the capacity. A pool with zero capacity never grants a request.
type Pool struct {
	capacity  int
	occupying []*Request
	queue     []*Request
}

// NewPool returns an empty pool with the given number of bays.
func NewPool(capacity int) (*Pool, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("charger capacity %d must not be negative", capacity)
	}
	return &Pool{capacity: capacity}, nil
}

// Capacity returns the number of bays.
func (p *Pool) Capacity() int { return p.capacity }

// Occupancy returns the number of bays currently held.
func (p *Pool) Occupancy() int { return len(p.occupying) }

// QueueLen returns the number of machines waiting for a bay.
func (p *Pool) QueueLen() int { return len(p.queue) }

// Request grants a bay immediately when one is free, otherwise appends the machine
// to the wait queue. A machine that already holds or waits for a bay gets its
// existing request back.
func (p *Pool) Request(machineID string) *Request {
	if r := p.find(machineID); r != nil {
		return r
	}
	r := &Request{MachineID: machineID}
	if len(p.occupying) < p.capacity {
		r.granted = true
		p.occupying = append(p.occupying, r)
		return r
	}
	p.queue = append(p.queue, r)
	return r
}

// Release frees the bay held by machineID and hands it to the head of the queue.
// It returns the machine that was granted the freed bay, if any.
func (p *Pool) Release(machineID string) (string, error) {
	idx := -1
	for i, r := range p.occupying {
		if r.MachineID == machineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotOccupying, machineID)
	}
	p.occupying[idx].granted = false
	p.occupying = append(p.occupying[:idx], p.occupying[idx+1:]...)
	if len(p.queue) == 0 || len(p.occupying) >= p.capacity {
		return "", nil
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	next.granted = true
	p.occupying = append(p.occupying, next)
	return next.MachineID, nil
}

// Occupying returns the ids of the machines holding a bay, in grant order.
func (p *Pool) Occupying() []string {
	ids := make([]string, len(p.occupying))
	for i, r := range p.occupying {
		ids[i] = r.MachineID
	}
	return ids
}

// Waiting returns the ids of queued machines, head first.
func (p *Pool) Waiting() []string {
	ids := make([]string, len(p.queue))
	for i, r := range p.queue {
		ids[i] = r.MachineID
	}
	return ids
}

func (p *Pool) find(machineID string) *Request {
	for _, r := range p.occupying {
		if r.MachineID == machineID {
			return r
		}
	}
	for _, r := range p.queue {
		if r.MachineID == machineID {
			return r
		}
	}
	return nil
}
