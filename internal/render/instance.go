package render

import (
	"sync"

	"github.com/seenimoa/gaugekit/internal/ambient"
)

// Gauge is a live gauge bound to an ambient detector. It keeps one instance
// id for its lifetime and re-renders whenever the detector flips mode.
// The gauge owns the detector: Dispose tears both down.
type Gauge struct {
	id string

	mu        sync.Mutex
	det       *ambient.Detector
	opts      Options
	nextID    int
	listeners map[int]func(string)
	cancel    func()
	disposed  bool
}

// NewGauge binds opts to det. A nil detector renders in light mode.
func NewGauge(opts Options, det *ambient.Detector) *Gauge {
	g := &Gauge{
		id:        NewID(),
		det:       det,
		opts:      opts,
		listeners: make(map[int]func(string)),
	}
	if det != nil {
		g.cancel = det.OnChange(func(ambient.Mode) { g.emit() })
	}
	return g
}

// ID returns the instance id used for the outline filter.
func (g *Gauge) ID() string { return g.id }

// Mode returns the mode the gauge currently renders in.
func (g *Gauge) Mode() ambient.Mode {
	g.mu.Lock()
	opts := g.opts
	g.mu.Unlock()
	return opts.EffectiveMode(g.detectorMode())
}

// AutoDetect reports whether the bound detector follows its sources.
func (g *Gauge) AutoDetect() bool {
	g.mu.Lock()
	det := g.det
	g.mu.Unlock()
	return det != nil && det.AutoDetect()
}

// SVG renders the current options in the current mode.
func (g *Gauge) SVG() string {
	g.mu.Lock()
	opts := g.opts
	g.mu.Unlock()
	return SVG(opts, g.detectorMode(), g.id)
}

// Options returns the options currently bound.
func (g *Gauge) Options() Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opts
}

// Update replaces the options and pushes a fresh render to listeners.
func (g *Gauge) Update(opts Options) {
	g.mu.Lock()
	if g.disposed {
		g.mu.Unlock()
		return
	}
	g.opts = opts
	g.mu.Unlock()
	g.emit()
}

// Rebind moves the gauge onto det with opts and pushes a fresh render. The
// previous detector is disposed; the instance id is kept.
func (g *Gauge) Rebind(opts Options, det *ambient.Detector) {
	var cancel func()
	if det != nil {
		cancel = det.OnChange(func(ambient.Mode) { g.emit() })
	}

	g.mu.Lock()
	if g.disposed {
		g.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if det != nil {
			det.Dispose()
		}
		return
	}
	old, oldCancel := g.det, g.cancel
	g.det, g.cancel, g.opts = det, cancel, opts
	g.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
	}
	if old != nil {
		old.Dispose()
	}
	g.emit()
}

// OnRender registers fn to receive the SVG after every mode change or
// update. The returned function removes it.
func (g *Gauge) OnRender(fn func(svg string)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		return func() {}
	}
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

// Dispose releases the detector subscription, disposes the detector and
// drops all listeners. Safe to call more than once.
func (g *Gauge) Dispose() {
	g.mu.Lock()
	if g.disposed {
		g.mu.Unlock()
		return
	}
	g.disposed = true
	cancel, det := g.cancel, g.det
	g.cancel = nil
	g.listeners = make(map[int]func(string))
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if det != nil {
		det.Dispose()
	}
}

func (g *Gauge) detectorMode() ambient.Mode {
	g.mu.Lock()
	det := g.det
	g.mu.Unlock()
	if det == nil {
		return ambient.Light
	}
	return det.Mode()
}

func (g *Gauge) emit() {
	g.mu.Lock()
	if g.disposed || len(g.listeners) == 0 {
		g.mu.Unlock()
		return
	}
	fns := make([]func(string), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	svg := g.SVG()
	for _, fn := range fns {
		fn(svg)
	}
}
