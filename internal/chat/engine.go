// Package chat keeps the conversation transcript and schedules the
// assistant's delayed replies.
package chat

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/timers"
)

// DefaultReplyDelay is how long the assistant "thinks" before answering.
const DefaultReplyDelay = time.Second

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Delay     time.Duration
	Scheduler timers.Scheduler
	// Post runs reply callbacks on the owner's event loop. Nil runs them on
	// the timer goroutine.
	Post      func(func())
	Responder Responder
	Logger    *zap.Logger
	Now       func() time.Time
}

// Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	timers    *timers.Group
	post      func(func())
	delay     time.Duration
	responder Responder
	log       *zap.Logger
	now       func() time.Time

	messages []Message
	draft    string
	pending  int
	closed   bool
}

// New returns an engine with an empty transcript.
func New(opts Options) *Engine {
	if opts.Delay <= 0 {
		opts.Delay = DefaultReplyDelay
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	if opts.Responder == nil {
		opts.Responder = NewScriptedResponder("")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		timers:    timers.NewGroup(opts.Scheduler),
		post:      opts.Post,
		delay:     opts.Delay,
		responder: opts.Responder,
		log:       opts.Logger.Named("chat"),
		now:       opts.Now,
	}
}

// SetDraft replaces the message input buffer.
func (e *Engine) SetDraft(value string) {
	e.draft = value
}

func (e *Engine) Draft() string { return e.draft }

// SubmitDraft sends the current draft.
func (e *Engine) SubmitDraft() bool {
	return e.Send(e.draft)
}

// Send appends text as a user message, clears the draft and schedules one
// assistant reply. Blank text is ignored and reported as false. Every
// accepted send gets its own reply; replies cannot be withdrawn.
func (e *Engine) Send(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	e.messages = append(e.messages, Message{Text: text, Sender: SenderUser, SentAt: e.now()})
	e.draft = ""
	if e.closed {
		return true
	}
	reply := e.responder.Reply(text)
	e.pending++
	e.timers.AfterFunc(e.delay, func() {
		e.post(func() { e.deliver(reply) })
	})
	e.log.Debug("message queued",
		zap.Int("transcript", len(e.messages)),
		zap.Int("pending", e.pending),
		zap.String("responder", e.responder.Name()))
	return true
}

func (e *Engine) deliver(text string) {
	if e.closed {
		e.log.Debug("reply dropped after close")
		return
	}
	e.pending--
	e.messages = append(e.messages, Message{Text: text, Sender: SenderAssistant, SentAt: e.now()})
}

// Close drops every reply that has not been delivered yet.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	stopped := e.timers.StopAll()
	if e.pending > 0 {
		e.log.Debug("pending replies dropped", zap.Int("pending", e.pending), zap.Int("stopped", stopped))
	}
	e.pending = 0
}

// Messages returns a copy of the transcript.
func (e *Engine) Messages() []Message {
	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *Engine) Len() int { return len(e.messages) }

// Pending reports how many replies are scheduled and not yet delivered.
func (e *Engine) Pending() int { return e.pending }
