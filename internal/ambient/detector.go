package ambient

import (
	"log/slog"
	"sync"
)

// Detector tracks the ambient mode for one gauge instance. It subscribes to
// a ClassSource and a PreferenceSource, re-evaluates on every signal from
// either and notifies its own listeners when the mode flips. Dispose
// releases every subscription; a disposed detector keeps reporting its last
// mode but never changes again.
type Detector struct {
	mu     sync.Mutex
	evalMu sync.Mutex // serializes Refresh so listeners see modes in order

	classes ClassSource
	pref    PreferenceSource
	auto    bool
	logger  *slog.Logger

	mode      Mode
	nextID    int
	listeners map[int]func(Mode)
	cancels   []func()
	disposed  bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithAutoDetect turns ambient detection on or off. When off the detector
// reports Light and never subscribes to its sources.
func WithAutoDetect(on bool) Option {
	return func(d *Detector) { d.auto = on }
}

// WithLogger sets the logger used for mode change events.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDetector evaluates the current mode and, when auto-detection is on,
// subscribes to both sources. Either source may be nil; a nil ClassSource
// contributes no classes and a nil PreferenceSource prefers light.
func NewDetector(classes ClassSource, pref PreferenceSource, opts ...Option) *Detector {
	d := &Detector{
		classes:   classes,
		pref:      pref,
		auto:      true,
		logger:    slog.Default(),
		listeners: make(map[int]func(Mode)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if !d.auto {
		d.mode = Light
		return d
	}

	// Subscribe before the first evaluation so no signal falls in between.
	var cancels []func()
	if classes != nil {
		cancels = append(cancels, classes.Subscribe(d.Refresh))
	}
	if pref != nil {
		cancels = append(cancels, pref.Subscribe(d.Refresh))
	}
	d.mu.Lock()
	d.cancels = cancels
	d.mu.Unlock()
	d.Refresh()
	return d
}

// Mode returns the current mode.
func (d *Detector) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// AutoDetect reports whether the detector follows its sources.
func (d *Detector) AutoDetect() bool {
	return d.auto
}

// Refresh re-reads both sources and notifies listeners if the mode changed.
// Sources call it on every signal; calling it directly is harmless.
func (d *Detector) Refresh() {
	if !d.auto {
		return
	}
	d.evalMu.Lock()
	defer d.evalMu.Unlock()

	next := d.evaluate()

	d.mu.Lock()
	if d.disposed || next == d.mode {
		d.mu.Unlock()
		return
	}
	prev := d.mode
	d.mode = next
	fns := make([]func(Mode), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	d.logger.Debug("ambient mode changed", "from", prev.String(), "to", next.String())
	for _, fn := range fns {
		fn(next)
	}
}

// OnChange registers fn to run with the new mode after every change. The
// returned function removes it.
func (d *Detector) OnChange(fn func(Mode)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return func() {}
	}
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}
}

// Listeners returns the number of registered change listeners.
func (d *Detector) Listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// Dispose cancels both source subscriptions and drops all listeners. It is
// safe to call more than once.
func (d *Detector) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	cancels := d.cancels
	d.cancels = nil
	d.listeners = make(map[int]func(Mode))
	d.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (d *Detector) evaluate() Mode {
	var root, body []string
	if d.classes != nil {
		root, body = d.classes.Classes()
	}
	prefersDark := false
	if d.pref != nil {
		prefersDark = d.pref.PrefersDark()
	}
	return Evaluate(root, body, prefersDark)
}
