package web

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/core"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
)

// Registry maps session ids to their runtimes. Each visitor gets an
// independent runtime, the server-side equivalent of a browser tab.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*core.Runtime
	limit    int
	opts     core.Options
	metrics  *Metrics
	log      *zap.Logger
}

// NewRegistry caps live sessions at limit; zero means unlimited. opts is used
// for every runtime the registry creates.
func NewRegistry(limit int, opts core.Options, metrics *Metrics) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		sessions: map[string]*core.Runtime{},
		limit:    limit,
		opts:     opts,
		metrics:  metrics,
		log:      opts.Logger.Named("registry"),
	}
}

// Create starts a fresh runtime on the home page.
func (reg *Registry) Create() (string, *core.Runtime, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.limit > 0 && len(reg.sessions) >= reg.limit {
		return "", nil, ErrTooManySessions
	}
	id := uuid.NewString()
	opts := reg.opts
	opts.Logger = reg.opts.Logger.With(zap.String("session", id))
	rt := core.NewRuntime(opts)
	reg.sessions[id] = rt
	reg.observeLocked()
	reg.log.Info("session created", zap.String("session", id), zap.Int("live", len(reg.sessions)))
	return id, rt, nil
}

func (reg *Registry) Get(id string) (*core.Runtime, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rt, ok := reg.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return rt, nil
}

// Remove tears the session down. Its pending timers are cancelled and any
// websocket watching it is closed.
func (reg *Registry) Remove(id string) error {
	reg.mu.Lock()
	rt, ok := reg.sessions[id]
	if ok {
		delete(reg.sessions, id)
		reg.observeLocked()
	}
	reg.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	rt.Close()
	reg.log.Info("session removed", zap.String("session", id))
	return nil
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// Close removes every session.
func (reg *Registry) Close() {
	reg.mu.Lock()
	live := reg.sessions
	reg.sessions = map[string]*core.Runtime{}
	reg.observeLocked()
	reg.mu.Unlock()
	for _, rt := range live {
		rt.Close()
	}
}

func (reg *Registry) observeLocked() {
	if reg.metrics != nil {
		reg.metrics.setSessions(len(reg.sessions))
	}
}
