package raster

import (
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/seenimoa/gaugekit/internal/gauge"
)

// neutral stands in for colors that cannot be parsed.
var neutral = gauge.FallbackColors[0]

// painter wraps a gg context with the gauge drawing primitives. Paths are
// built in gauge units under the context's scale; text is positioned in
// device pixels because gg draws glyphs without the transform.
type painter struct {
	dc     *gg.Context
	scale  float64
	logger *slog.Logger
}

func (p painter) rgba(s string, alpha float64) gg.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		p.logger.Debug("unparseable color, using neutral", "color", s, "error", err)
		c, _ = ParseColor(neutral)
	}
	return gg.RGBA2(c.R, c.G, c.B, alpha)
}

func (p painter) fill(color string, alpha float64) {
	c := p.rgba(color, alpha)
	p.dc.SetRGBA(c.R, c.G, c.B, c.A)
	if err := p.dc.Fill(); err != nil {
		p.logger.Warn("fill failed", "error", err)
	}
}

func (p painter) stroke(color string) {
	c := p.rgba(color, 1)
	p.dc.SetRGBA(c.R, c.G, c.B, c.A)
	if err := p.dc.Stroke(); err != nil {
		p.logger.Warn("stroke failed", "error", err)
	}
}

// wedge traces the donut segment between two gauge angles: out along the
// outer radius, back along the inner one.
func (p painter) wedge(g gauge.Geometry, start, end float64) {
	outer := arc(g, g.OuterRadius, start, end)
	inner := arc(g, g.InnerRadius, end, start)
	p.dc.MoveTo(outer[0].X, outer[0].Y)
	for _, pt := range outer[1:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	for _, pt := range inner {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.ClosePath()
}

// halfDisc traces the upper half of the inner disc.
func (p painter) halfDisc(g gauge.Geometry) {
	pts := arc(g, g.InnerRadius, 0, 180)
	p.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.ClosePath()
}

func (p painter) text(face text.Face, s string, at gauge.Point, color string, ax, ay float64) {
	if s == "" {
		return
	}
	p.dc.SetFont(face)
	p.dc.SetColor(p.rgba(color, 1).Color())
	p.dc.DrawStringAnchored(s, at.X*p.scale, at.Y*p.scale, ax, ay)
}

// halo approximates the SVG dilate filter by stamping the text in the
// outline color at offsets around its position.
func (p painter) halo(face text.Face, s string, at gauge.Point, color string) {
	for i := 0; i < 8; i++ {
		rad := float64(i) * math.Pi / 4
		off := gauge.Point{
			X: at.X + outlineRadius*math.Cos(rad),
			Y: at.Y + outlineRadius*math.Sin(rad),
		}
		p.text(face, s, off, color, 0.5, 0)
	}
}

// arc samples the circle of radius r between two gauge angles, inclusive
// of both ends, in the direction from start to end.
func arc(g gauge.Geometry, r, start, end float64) []gauge.Point {
	steps := int(math.Ceil(math.Abs(end-start) / arcStep))
	if steps < 1 {
		steps = 1
	}
	pts := make([]gauge.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		deg := start + (end-start)*float64(i)/float64(steps)
		rad := (deg - 180) * math.Pi / 180
		pts = append(pts, gauge.Point{
			X: g.CenterX + r*math.Cos(rad),
			Y: g.CenterY + r*math.Sin(rad),
		})
	}
	return pts
}

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
