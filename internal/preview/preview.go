// Package preview shows a live gauge in the terminal. The gauge is
// rasterized with the PNG pipeline and drawn with half-block cells, two
// pixels per cell. Keys stand in for a host page's theme switch.
package preview

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/gauge"
	"github.com/seenimoa/gaugekit/internal/raster"
	"github.com/seenimoa/gaugekit/internal/render"
)

// minScale is the smallest raster scale worth drawing.
const minScale = 0.05

const helpText = "[d]ark [l]ight [c]lear  ←/→ value  [q]uit"

// Preview is an interactive terminal view of one gauge.
type Preview struct {
	screen tcell.Screen
	raster *raster.Renderer
	doc    *ambient.Document
	gauge  *render.Gauge
	cancel func()
	logger *slog.Logger
}

// New binds opts to a fresh host document and pref. The preview owns the
// gauge and its detector; Close releases them. The screen must already be
// initialized and stays owned by the caller.
func New(screen tcell.Screen, rr *raster.Renderer, opts render.Options, pref ambient.PreferenceSource, logger *slog.Logger) *Preview {
	if logger == nil {
		logger = slog.Default()
	}
	doc := ambient.NewDocument()
	det := ambient.NewDetector(doc, pref,
		ambient.WithAutoDetect(opts.AutoDetectTheme),
		ambient.WithLogger(logger))

	p := &Preview{
		screen: screen,
		raster: rr,
		doc:    doc,
		gauge:  render.NewGauge(opts, det),
		logger: logger,
	}
	// Wake the event loop so mode changes from any source redraw.
	p.cancel = p.gauge.OnRender(func(string) {
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	return p
}

// Mode returns the mode the gauge is drawn in.
func (p *Preview) Mode() ambient.Mode {
	return p.gauge.Mode()
}

// Options returns the options currently drawn.
func (p *Preview) Options() render.Options {
	return p.gauge.Options()
}

// Close disposes the gauge and its detector.
func (p *Preview) Close() {
	p.cancel()
	p.gauge.Dispose()
}

// HandleKey applies one key press and reports whether the preview should
// quit.
func (p *Preview) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		p.nudge(-1)
	case tcell.KeyRight:
		p.nudge(1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'd':
			p.doc.Replace([]string{ambient.DarkClass}, nil)
		case 'l':
			p.doc.Replace([]string{ambient.LightClass}, nil)
		case 'c':
			p.doc.Replace(nil, nil)
		}
	}
	return false
}

// nudge moves the value a tenth of the range, staying inside it.
func (p *Preview) nudge(dir float64) {
	opts := p.gauge.Options()
	c := opts.Gauge
	step := (c.Max - c.Min) / 10
	c.Value = math.Max(c.Min, math.Min(c.Max, c.Value+dir*step))
	opts.Gauge = c
	p.gauge.Update(opts)
}

// Draw renders the gauge to fit the screen above a one-line status bar.
func (p *Preview) Draw() error {
	p.screen.Clear()
	w, h := p.screen.Size()
	opts := p.gauge.Options()
	mode := p.gauge.Mode()

	geo := gauge.Compute(opts.Gauge)
	scale := math.Min(float64(w)/geo.Width, float64(2*(h-1))/geo.Height)
	scale = math.Min(scale, raster.MaxScale)

	if scale < minScale {
		p.status(h-1, "terminal too small")
	} else {
		img, err := p.raster.Image(opts, mode, scale)
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		p.blit(img, (w-img.Bounds().Dx())/2)
		p.status(h-1, fmt.Sprintf("%s  %s  %s", mode, gauge.FormatDisplay(opts.Gauge, geo), helpText))
	}
	p.screen.Show()
	return nil
}

// blit draws img with '▀' cells: the foreground carries the upper pixel and
// the background the lower one.
func (p *Preview) blit(img image.Image, x0 int) {
	b := img.Bounds()
	for py := b.Min.Y; py < b.Max.Y; py += 2 {
		for px := b.Min.X; px < b.Max.X; px++ {
			top := cellColor(img, px, py)
			bottom := top
			if py+1 < b.Max.Y {
				bottom = cellColor(img, px, py+1)
			}
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			p.screen.SetContent(x0+px-b.Min.X, (py-b.Min.Y)/2, '▀', nil, style)
		}
	}
}

func (p *Preview) status(y int, s string) {
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range s {
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func cellColor(img image.Image, x, y int) tcell.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}

// Run draws and handles input until a quit key or ctx is done.
func (p *Preview) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	if err := p.Draw(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if p.HandleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				p.screen.Sync()
			}
			if err := p.Draw(); err != nil {
				return err
			}
		}
	}
}
