package ambient

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ClassSource exposes the class lists of the host page's root and body
// elements. Subscribe registers fn to run after every change and returns a
// function that removes it.
type ClassSource interface {
	Classes() (root, body []string)
	Subscribe(fn func()) (cancel func())
}

// PreferenceSource exposes the OS-level dark color scheme preference.
type PreferenceSource interface {
	PrefersDark() bool
	Subscribe(fn func()) (cancel func())
}

// subscribers is a set of change callbacks. Callbacks run outside the lock
// so they may call back into the source.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// Preference is a settable OS color scheme preference. The websocket session
// feeds it from the browser's prefers-color-scheme media query; the CLI
// feeds it from config or the terminal background.
type Preference struct {
	mu   sync.RWMutex
	dark bool
	subs subscribers
}

// NewPreference returns a preference with the given initial value.
func NewPreference(dark bool) *Preference {
	return &Preference{dark: dark}
}

// TerminalPreference snapshots whether the controlling terminal has a dark
// background.
func TerminalPreference() *Preference {
	return NewPreference(lipgloss.HasDarkBackground())
}

// PrefersDark implements PreferenceSource.
func (p *Preference) PrefersDark() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dark
}

// Set updates the preference and notifies subscribers if it changed.
func (p *Preference) Set(dark bool) {
	p.mu.Lock()
	changed := p.dark != dark
	p.dark = dark
	p.mu.Unlock()

	if changed {
		p.subs.notify()
	}
}

// Subscribe implements PreferenceSource.
func (p *Preference) Subscribe(fn func()) func() {
	return p.subs.add(fn)
}

// ActiveSubscriptions returns the number of live subscriptions.
func (p *Preference) ActiveSubscriptions() int {
	return p.subs.count()
}
