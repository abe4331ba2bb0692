package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned once a Runtime has been torn down.
var ErrClosed = errors.New("runtime closed")

const mailboxSize = 64

// Runtime owns a Controller on a dedicated goroutine. Intents, snapshot
// reads and timer callbacks are all funnelled through one mailbox, so state
// changes happen strictly one at a time. After every change the new
// snapshot is offered to subscribers.
type Runtime struct {
	ctrl    *Controller
	mailbox chan func()
	done    chan struct{}
	exited  chan struct{}
	log     *zap.Logger
	// seq is only touched by the loop goroutine.
	seq uint64

	closeOnce sync.Once

	mu      sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// NewRuntime starts the owning goroutine and plays the initial transition.
// opts.Post is replaced by the runtime's own mailbox.
func NewRuntime(opts Options) *Runtime {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Runtime{
		mailbox: make(chan func(), mailboxSize),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		log:     opts.Logger.Named("runtime"),
		subs:    map[int]chan Snapshot{},
	}
	opts.Post = r.post
	r.ctrl = NewController(opts)
	go r.loop()
	r.post(r.ctrl.Mount)
	return r
}

func (r *Runtime) loop() {
	defer close(r.exited)
	for {
		select {
		case fn := <-r.mailbox:
			r.seq++
			fn()
			r.publish()
		case <-r.done:
			return
		}
	}
}

// post queues fn for the owning goroutine. It gives up silently once the
// runtime is closed, which is how late timer callbacks get dropped.
func (r *Runtime) post(fn func()) {
	select {
	case r.mailbox <- fn:
	case <-r.done:
	}
}

// Dispatch applies intent and returns the snapshot taken right after it.
func (r *Runtime) Dispatch(ctx context.Context, intent Intent) (Snapshot, error) {
	type result struct {
		snap Snapshot
		err  error
	}
	reply := make(chan result, 1)
	job := func() {
		err := r.ctrl.Apply(intent)
		reply <- result{snap: r.current(), err: err}
	}
	if err := r.enqueue(ctx, job); err != nil {
		return Snapshot{}, err
	}
	select {
	case res := <-reply:
		return res.snap, res.err
	case <-r.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Snapshot reads the current state on the owning goroutine.
func (r *Runtime) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := r.enqueue(ctx, func() { reply <- r.current() }); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-r.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Runtime) enqueue(ctx context.Context, fn func()) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.mailbox <- fn:
		return nil
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that receives the latest snapshot after every
// state change, starting with the current one. Slow readers only miss
// intermediate snapshots, never the newest. The channel is closed by the
// returned cancel func or when the runtime closes.
func (r *Runtime) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	var id int
	register := func() {
		r.mu.Lock()
		r.nextSub++
		id = r.nextSub
		r.subs[id] = ch
		r.mu.Unlock()
		offer(ch, r.current())
	}
	registered := make(chan struct{})
	if err := r.enqueue(ctx, func() { register(); close(registered) }); err != nil {
		return nil, func() {}, err
	}
	select {
	case <-registered:
	case <-r.done:
		return nil, func() {}, ErrClosed
	case <-ctx.Done():
		return nil, func() {}, ctx.Err()
	}
	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel, nil
}

func (r *Runtime) current() Snapshot {
	snap := r.ctrl.Snapshot()
	snap.Version = r.seq
	return snap
}

func (r *Runtime) publish() {
	snap := r.current()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		offer(ch, snap)
	}
}

func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Close stops every pending timer, drops undelivered replies, ends the
// owning goroutine and closes subscriber channels. Safe to call repeatedly.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		finished := make(chan struct{})
		r.mailbox <- func() {
			r.ctrl.Close()
			close(finished)
		}
		<-finished
		close(r.done)
		<-r.exited

		r.mu.Lock()
		for id, ch := range r.subs {
			close(ch)
			delete(r.subs, id)
		}
		r.mu.Unlock()
		r.log.Debug("runtime closed")
	})
}
