// Package host provides an in-process Host for running sessions outside a
// viewer: it records every message, answers prompts from a queue and arms
// timers on a clock.
package host

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/wudi/formscript/form"
	"github.com/wudi/formscript/observability"
	"github.com/wudi/formscript/sandbox"
)

// Timeout is a fired timer awaiting delivery to Sandbox.TimeoutCallback.
type Timeout struct {
	ID       int
	Interval bool
}

// Option configures a Local host.
type Option func(*Local)

// WithClock sets the clock timers are armed on. Tests pass a mock.
func WithClock(c clock.Clock) Option {
	return func(h *Local) {
		if c != nil {
			h.clock = c
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(h *Local) {
		if l != nil {
			h.log = l
		}
	}
}

// WithSink forwards every message, alert and prompt to s as it happens.
func WithSink(s form.Sender) Option {
	return func(h *Local) { h.sink = s }
}

// WithAnswers queues prompt answers. Once exhausted, prompts are
// dismissed.
func WithAnswers(answers ...string) Option {
	return func(h *Local) { h.answers = append(h.answers, answers...) }
}

// Local is a Host that keeps everything in memory. Fired timers are queued
// on a channel; the owner delivers them to the sandbox on its own
// goroutine.
type Local struct {
	clock clock.Clock
	log   observability.Logger
	sink  form.Sender

	mu       sync.Mutex
	messages []form.Message
	alerts   []string
	answers  []string
	timers   map[int]*clock.Timer
	fired    chan Timeout
}

var _ sandbox.Host = (*Local)(nil)

func NewLocal(opts ...Option) *Local {
	h := &Local{
		clock:  clock.New(),
		log:    observability.NopLogger{},
		timers: make(map[int]*clock.Timer),
		fired:  make(chan Timeout, 64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Local) Send(msg form.Message) {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
	h.forward(msg)
}

func (h *Local) Alert(msg string) {
	h.mu.Lock()
	h.alerts = append(h.alerts, msg)
	h.mu.Unlock()
	h.forward(form.Message{"command": "alert", "value": msg})
}

func (h *Local) Prompt(question, defaultValue string) (string, bool) {
	h.mu.Lock()
	var answer string
	ok := len(h.answers) > 0
	if ok {
		answer, h.answers = h.answers[0], h.answers[1:]
	}
	h.mu.Unlock()
	h.forward(form.Message{"command": "prompt", "value": question, "default": defaultValue})
	return answer, ok
}

func (h *Local) forward(msg form.Message) {
	if h.sink != nil {
		h.sink.Send(msg)
	}
}

// SetTimer arms id on the clock. Intervals re-arm after each firing until
// cleared.
func (h *Local) SetTimer(id int, d time.Duration, interval bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.timers[id]; ok {
		old.Stop()
	}
	var t *clock.Timer
	t = h.clock.AfterFunc(d, func() {
		h.mu.Lock()
		if h.timers[id] != t {
			h.mu.Unlock()
			return
		}
		if interval {
			t.Reset(d)
		} else {
			delete(h.timers, id)
		}
		h.mu.Unlock()

		select {
		case h.fired <- Timeout{ID: id, Interval: interval}:
		default:
			h.log.Warn("timer queue full, dropping firing", observability.Int("id", id))
		}
	})
	h.timers[id] = t
	h.log.Debug("timer armed",
		observability.Int("id", id),
		observability.Int64("ms", d.Milliseconds()),
		observability.Bool("interval", interval))
}

func (h *Local) ClearTimer(id int, interval bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.timers[id]; ok {
		t.Stop()
		delete(h.timers, id)
	}
}

// Fired delivers timers as they fire.
func (h *Local) Fired() <-chan Timeout { return h.fired }

// Armed reports how many timers are outstanding.
func (h *Local) Armed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

func (h *Local) Messages() []form.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]form.Message(nil), h.messages...)
}

func (h *Local) Alerts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.alerts...)
}

// Stop disarms every timer.
func (h *Local) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
	}
}
