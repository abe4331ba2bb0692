// Package core composes the session store, navigation controller and chat
// engine behind a single intent entry point, and runs them on one owning
// goroutine so that views on any goroutine observe a sequential model.
package core

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/chat"
	"github.com/csheth/bioengine/internal/nav"
	"github.com/csheth/bioengine/internal/session"
	"github.com/csheth/bioengine/internal/timers"
)

// Snapshot is everything a view needs to render.
type Snapshot struct {
	Page              nav.Page       `json:"page"`
	Authenticated     bool           `json:"authenticated"`
	EmailDraft        string         `json:"emailDraft"`
	PasswordDraft     string         `json:"passwordDraft"`
	TransitionVisible bool           `json:"transitionVisible"`
	Messages          []chat.Message `json:"messages"`
	MessageDraft      string         `json:"messageDraft"`
	MenuOpen          bool           `json:"menuOpen"`
	PendingReplies    int            `json:"pendingReplies"`
	// Version increases with every runtime step. Views drop snapshots older
	// than the one they already show. Zero outside a Runtime.
	Version uint64 `json:"version"`
}

// Hooks observe controller activity. Any field may be nil.
type Hooks struct {
	OnIntent   func(kind string, err error)
	OnLogin    func(ok bool)
	OnNavigate func(page nav.Page)
	OnMessage  func()
}

// Options configures a Controller.
type Options struct {
	TransitionDelay time.Duration
	ReplyDelay      time.Duration
	Scheduler       timers.Scheduler
	// Post runs timer callbacks on the owner's loop. Runtime sets it.
	Post      func(func())
	Responder chat.Responder
	Logger    *zap.Logger
	Hooks     Hooks
}

// Controller owns one visitor's state. It is not safe for concurrent use;
// wrap it in a Runtime when intents arrive from several goroutines.
type Controller struct {
	session *session.Store
	nav     *nav.Controller
	chat    *chat.Engine
	hooks   Hooks
	log     *zap.Logger
}

// NewController builds a fresh controller on the home page.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timers.Real{}
	}
	store := session.New()
	return &Controller{
		session: store,
		nav: nav.New(store, nav.Options{
			Delay:     opts.TransitionDelay,
			Scheduler: opts.Scheduler,
			Post:      opts.Post,
			Logger:    opts.Logger,
		}),
		chat: chat.New(chat.Options{
			Delay:     opts.ReplyDelay,
			Scheduler: opts.Scheduler,
			Post:      opts.Post,
			Responder: opts.Responder,
			Logger:    opts.Logger,
		}),
		hooks: opts.Hooks,
		log:   opts.Logger,
	}
}

// Mount plays the initial enter transition.
func (c *Controller) Mount() {
	c.nav.Mount()
}

// Apply routes one intent. Blank logins and blank messages are silent
// no-ops; navigating to the chat page while signed out returns
// nav.ErrLoginRequired.
func (c *Controller) Apply(intent Intent) error {
	err := c.apply(intent)
	kind := "nil"
	if intent != nil {
		kind = intent.Kind()
	}
	if err != nil {
		c.log.Warn("intent rejected", zap.String("kind", kind), zap.Error(err))
	}
	if c.hooks.OnIntent != nil {
		c.hooks.OnIntent(kind, err)
	}
	return err
}

func (c *Controller) apply(intent Intent) error {
	switch in := intent.(type) {
	case Navigate:
		return c.goTo(in.Page)
	case UpdateEmailDraft:
		c.session.SetEmailDraft(in.Value)
	case UpdatePasswordDraft:
		c.session.SetPasswordDraft(in.Value)
	case SubmitLogin:
		ok := c.session.AttemptLogin()
		if c.hooks.OnLogin != nil {
			c.hooks.OnLogin(ok)
		}
		if !ok {
			c.log.Debug("login ignored: empty credentials")
			return nil
		}
		c.log.Info("login succeeded")
		return c.goTo(nav.PageChat)
	case Logout:
		c.session.Logout()
		c.log.Info("logout")
		return c.goTo(nav.PageHome)
	case UpdateMessageDraft:
		c.chat.SetDraft(in.Value)
	case SubmitMessage:
		if c.chat.SubmitDraft() && c.hooks.OnMessage != nil {
			c.hooks.OnMessage()
		}
	case ToggleMobileMenu:
		c.nav.ToggleMenu()
	case OpenChat:
		return c.goTo(ChatEntryPage(c.session.Authenticated()))
	default:
		return fmt.Errorf("%w: %T", ErrUnknownIntent, intent)
	}
	return nil
}

func (c *Controller) goTo(page nav.Page) error {
	if err := c.nav.GoTo(page); err != nil {
		return err
	}
	if c.hooks.OnNavigate != nil {
		c.hooks.OnNavigate(page)
	}
	return nil
}

// ChatEntryPage is where a "start chatting" button leads.
func ChatEntryPage(authenticated bool) nav.Page {
	if authenticated {
		return nav.PageChat
	}
	return nav.PageLogin
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Page:              c.nav.Current(),
		Authenticated:     c.session.Authenticated(),
		EmailDraft:        c.session.EmailDraft(),
		PasswordDraft:     c.session.PasswordDraft(),
		TransitionVisible: c.nav.Visible(),
		Messages:          c.chat.Messages(),
		MessageDraft:      c.chat.Draft(),
		MenuOpen:          c.nav.MenuOpen(),
		PendingReplies:    c.chat.Pending(),
	}
}

// Close releases every pending timer.
func (c *Controller) Close() {
	c.nav.Close()
	c.chat.Close()
}
