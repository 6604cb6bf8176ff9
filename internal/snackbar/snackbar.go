// Package snackbar holds the single-slot toast shown to the user.
package snackbar

import (
	"sync"

	"github.com/rs/zerolog"
)

// Severity of a toast
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// CloseReasonClickaway is ignored by Close so that clicking elsewhere does not
// dismiss the toast.
const CloseReasonClickaway = "clickaway"

// Message is the current toast
type Message struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
	Open     bool     `json:"open"`
}

// Listener is called with the new message after every change
type Listener func(Message)

// Provider owns the toast slot. A second Show before dismissal replaces the
// first.
type Provider struct {
	mu        sync.RWMutex
	current   Message
	listeners map[int]Listener
	nextID    int
	logger    zerolog.Logger
}

// New creates an empty provider
func New(logger zerolog.Logger) *Provider {
	return &Provider{
		current:   Message{Severity: SeverityError},
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Show opens the toast with text and severity
func (p *Provider) Show(text string, severity Severity) {
	p.mu.Lock()
	if p.current.Open {
		p.logger.Debug().
			Str("replaced", p.current.Text).
			Str("message", text).
			Msg("Toast replaced before dismissal")
	}
	p.current = Message{Text: text, Severity: severity, Open: true}
	msg := p.current
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	notify(listeners, msg)
}

// Close dismisses the toast unless reason is a clickaway
func (p *Provider) Close(reason string) {
	if reason == CloseReasonClickaway {
		return
	}

	p.mu.Lock()
	if !p.current.Open {
		p.mu.Unlock()
		return
	}
	p.current.Open = false
	msg := p.current
	listeners := p.snapshotListeners()
	p.mu.Unlock()

	notify(listeners, msg)
}

// Current returns the toast in the slot
func (p *Provider) Current() Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe registers fn and returns a func that removes it
func (p *Provider) Subscribe(fn Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, msg Message) {
	for _, fn := range listeners {
		fn(msg)
	}
}
