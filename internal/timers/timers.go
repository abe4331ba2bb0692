// Package timers provides cancellable fixed-delay callbacks. Every delayed
// effect in the controller (page transitions, assistant replies) is armed
// through a Scheduler so that teardown can release it deterministically and
// tests can drive time by hand.
package timers

import (
	"sync"
	"time"
)

// Handle is a pending callback.
type Handle interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the callback; false means it already ran or was stopped.
	Stop() bool
}

// Scheduler arms callbacks that run once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

// Real schedules callbacks on the runtime timer heap.
type Real struct{}

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, fn func()) Handle {
	return realHandle{t: time.AfterFunc(d, fn)}
}

type realHandle struct {
	t *time.Timer
}

func (h realHandle) Stop() bool { return h.t.Stop() }

// Group tracks every handle it arms so the owner can release them all at
// once. After StopAll the group is closed: new callbacks are never armed and
// callbacks already in flight are swallowed.
type Group struct {
	mu      sync.Mutex
	sched   Scheduler
	nextID  uint64
	live    map[uint64]Handle
	stopped bool
}

// NewGroup wraps sched. A nil scheduler means Real.
func NewGroup(sched Scheduler) *Group {
	if sched == nil {
		sched = Real{}
	}
	return &Group{sched: sched, live: map[uint64]Handle{}}
}

// AfterFunc arms fn. The returned handle stops only this callback.
func (g *Group) AfterFunc(d time.Duration, fn func()) Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return inert{}
	}
	g.nextID++
	id := g.nextID
	h := g.sched.AfterFunc(d, func() {
		g.mu.Lock()
		_, ok := g.live[id]
		delete(g.live, id)
		closed := g.stopped
		g.mu.Unlock()
		if !ok || closed {
			return
		}
		fn()
	})
	g.live[id] = h
	return &groupHandle{group: g, id: id}
}

// Len reports how many callbacks are still pending.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}

// StopAll cancels every pending callback and closes the group. It is safe to
// call more than once.
func (g *Group) StopAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	stopped := 0
	for id, h := range g.live {
		if h.Stop() {
			stopped++
		}
		delete(g.live, id)
	}
	g.stopped = true
	return stopped
}

// Closed reports whether StopAll has run.
func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

type groupHandle struct {
	group *Group
	id    uint64
}

func (h *groupHandle) Stop() bool {
	h.group.mu.Lock()
	inner, ok := h.group.live[h.id]
	delete(h.group.live, h.id)
	h.group.mu.Unlock()
	if !ok {
		return false
	}
	inner.Stop()
	return true
}

type inert struct{}

func (inert) Stop() bool { return false }
