// Package raster draws gauges to bitmaps with gogpu/gg. It consumes the
// same geometry and resolved theme as the SVG renderer, so a PNG and an SVG
// of one configuration agree on every color and angle.
package raster

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/gauge"
	"github.com/seenimoa/gaugekit/internal/render"
	"github.com/seenimoa/gaugekit/internal/theme"
)

const (
	// arcStep is the angular resolution, in degrees, used to flatten arcs.
	arcStep = 1.0

	segmentAlpha = 0.9
	tickWidth    = 2

	tickFontSize  = 14
	valueFontSize = 24
	labelFontSize = 18

	outlineRadius = 3

	// MaxScale bounds the output resolution multiplier.
	MaxScale = 8
)

// Renderer owns the font sources shared by every image it draws. It is safe
// for concurrent use.
type Renderer struct {
	mu      sync.Mutex
	regular *text.FontSource
	bold    *text.FontSource
	logger  *slog.Logger
}

// NewRenderer loads the embedded Go fonts.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("raster: load regular font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		regular.Close()
		return nil, fmt.Errorf("raster: load bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold, logger: logger}, nil
}

// Close releases the font sources.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.regular.Close()
	if berr := r.bold.Close(); err == nil {
		err = berr
	}
	return err
}

// PNG encodes the gauge as a PNG at scale times its nominal size.
func (r *Renderer) PNG(w io.Writer, opts render.Options, mode ambient.Mode, scale float64) error {
	img, err := r.Image(opts, mode, scale)
	if err != nil {
		return err
	}
	return encodePNG(w, img)
}

// Image draws the gauge into a new bitmap. The canvas is filled with the
// resolved background so the result stands on its own.
func (r *Renderer) Image(opts render.Options, mode ambient.Mode, scale float64) (image.Image, error) {
	if !(scale > 0) || scale > MaxScale {
		return nil, fmt.Errorf("raster: scale %v out of range (0, %d]", scale, MaxScale)
	}

	cfg := opts.Gauge
	mode = opts.EffectiveMode(mode)
	geo := gauge.Compute(cfg)
	colors := theme.Resolve(mode.IsDark(), opts.Theme)

	width := int(math.Ceil(geo.Width * scale))
	height := int(math.Ceil(geo.Height * scale))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: empty canvas %dx%d", width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(width, height)
	defer dc.Close()

	p := painter{dc: dc, scale: scale, logger: r.logger}
	dc.ClearWithColor(p.rgba(colors.Background, 1))
	dc.Scale(scale, scale)

	// Segments
	for _, seg := range geo.Segments {
		p.wedge(geo, seg.StartAngle, seg.EndAngle)
		p.fill(seg.Color, segmentAlpha)
	}

	// Inner disc
	p.halfDisc(geo)
	p.fill(colors.Background, 1)

	// Ticks
	tickFace := r.regular.Face(tickFontSize * scale)
	for _, m := range geo.TickMarks() {
		dc.SetLineWidth(tickWidth)
		dc.DrawLine(m.Start.X, m.Start.Y, m.End.X, m.End.Y)
		p.stroke(colors.TickColor)
		p.text(tickFace, m.Text, m.Label, colors.TickColor, 0.5, 0.5)
	}

	// Needle
	n := geo.Needle()
	dc.Push()
	dc.RotateAbout(n.Rotation*math.Pi/180, n.Center.X, n.Center.Y)
	dc.MoveTo(n.Tip.X, n.Tip.Y)
	dc.LineTo(n.BaseTop.X, n.BaseTop.Y)
	dc.LineTo(n.BaseBot.X, n.BaseBot.Y)
	dc.ClosePath()
	p.fill(colors.NeedleColor, 1)
	dc.Pop()
	dc.DrawCircle(n.Center.X, n.Center.Y, gauge.HubOuterRadius)
	p.fill(colors.NeedleColor, 1)
	dc.DrawCircle(n.Center.X, n.Center.Y, gauge.HubInnerRadius)
	p.fill(colors.NeedleCenter, 1)

	// Value
	valueFace := r.bold.Face(valueFontSize * scale)
	value := gauge.FormatDisplay(cfg, geo)
	anchor := geo.ValueTextAnchor()
	if opts.ShowTextOutline {
		p.halo(valueFace, value, anchor, colors.TextOutline)
	}
	p.text(valueFace, value, anchor, colors.ValueTextColor, 0.5, 0)

	// Label
	if cfg.Label != "" {
		p.text(r.regular.Face(labelFontSize*scale), cfg.Label, geo.LabelAnchor(), colors.TickColor, 0.5, 0)
	}

	return dc.Image(), nil
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
	defaultErr      error
)

// Default returns a process-wide renderer, loading fonts on first use.
func Default() (*Renderer, error) {
	defaultOnce.Do(func() {
		defaultRenderer, defaultErr = NewRenderer(nil)
	})
	return defaultRenderer, defaultErr
}

// PNG renders with the default renderer.
func PNG(w io.Writer, opts render.Options, mode ambient.Mode, scale float64) error {
	r, err := Default()
	if err != nil {
		return err
	}
	return r.PNG(w, opts, mode, scale)
}
