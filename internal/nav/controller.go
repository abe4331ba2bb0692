// Package nav owns the current page, the enter-transition signal and the
// mobile menu flag.
//
// Each successful navigation hides the page and arms a short timer that
// reveals it again, which lets a view replay its enter animation. Only the
// most recently armed reveal may fire: the previous handle is stopped and a
// generation counter discards a callback that was already in flight.
package nav

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/timers"
)

// DefaultTransitionDelay is the pause between hiding and revealing a page.
const DefaultTransitionDelay = 50 * time.Millisecond

var (
	ErrUnknownPage   = errors.New("unknown page")
	ErrLoginRequired = errors.New("chat requires an authenticated session")
)

// Gate answers whether the chat page may be shown.
type Gate interface {
	Authenticated() bool
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Delay     time.Duration
	Scheduler timers.Scheduler
	// Post runs timer callbacks on the owner's event loop. Nil runs them on
	// the timer goroutine, which is only appropriate with timers.Manual.
	Post   func(func())
	Logger *zap.Logger
}

// Controller is not safe for concurrent use; callers serialize access.
type Controller struct {
	gate  Gate
	sched timers.Scheduler
	post  func(func())
	delay time.Duration
	log   *zap.Logger

	page       Page
	visible    bool
	menuOpen   bool
	generation uint64
	pending    timers.Handle
	closed     bool
}

// New returns a controller on the home page with the transition signal
// lowered. Call Mount to play the initial enter transition.
func New(gate Gate, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultTransitionDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timers.Real{}
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		gate:  gate,
		sched: opts.Scheduler,
		post:  opts.Post,
		delay: opts.Delay,
		log:   opts.Logger.Named("nav"),
		page:  PageHome,
	}
}

// Mount arms the enter transition for the current page.
func (c *Controller) Mount() {
	c.armTransition()
}

// GoTo switches to page. The chat page is refused with ErrLoginRequired
// while the gate reports no login; the controller never redirects on its
// own, so callers route such users to the login page themselves.
func (c *Controller) GoTo(page Page) error {
	if !page.Valid() {
		return ErrUnknownPage
	}
	if page == PageChat && (c.gate == nil || !c.gate.Authenticated()) {
		c.log.Warn("chat navigation refused", zap.Stringer("from", c.page))
		return ErrLoginRequired
	}
	c.log.Debug("navigate", zap.Stringer("from", c.page), zap.Stringer("to", page))
	c.page = page
	c.menuOpen = false
	c.armTransition()
	return nil
}

func (c *Controller) armTransition() {
	if c.closed {
		return
	}
	if c.pending != nil {
		c.pending.Stop()
	}
	c.generation++
	gen := c.generation
	c.visible = false
	c.pending = c.sched.AfterFunc(c.delay, func() {
		c.post(func() { c.reveal(gen) })
	})
}

func (c *Controller) reveal(gen uint64) {
	if c.closed || gen != c.generation {
		return
	}
	c.visible = true
	c.pending = nil
}

// ToggleMenu flips the mobile menu.
func (c *Controller) ToggleMenu() {
	c.menuOpen = !c.menuOpen
}

// CloseMenu hides the mobile menu.
func (c *Controller) CloseMenu() {
	c.menuOpen = false
}

// Close stops the pending reveal. The controller keeps its page but no
// longer arms transitions.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) Current() Page { return c.page }

// Visible reports the transition signal.
func (c *Controller) Visible() bool { return c.visible }

func (c *Controller) MenuOpen() bool { return c.menuOpen }

// TransitionPending reports whether a reveal is armed.
func (c *Controller) TransitionPending() bool { return c.pending != nil }
