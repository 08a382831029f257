// Package render composes gauge geometry and a resolved theme into a
// self-contained SVG document. Output is plain markup built with
// fmt and strings.Builder; colors are written as literal attribute values
// so the result can be inspected without a stylesheet.
package render

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/gauge"
	"github.com/seenimoa/gaugekit/internal/theme"
	"github.com/seenimoa/gaugekit/pkg/utils"
)

// Text styling, in pixels and CSS font weights.
const (
	tickFontSize   = 14
	valueFontSize  = 24
	labelFontSize  = 18
	tickFontWeight = 500
	tickStroke     = 2
	segmentOpacity = "0.9"
	outlineRadius  = 3
	defaultAria    = "Gauge chart"
)

// Options is everything one render needs.
type Options struct {
	Gauge           gauge.Config
	Theme           theme.Overrides
	AutoDetectTheme bool
	ShowTextOutline bool
}

// DefaultOptions returns the default gauge with ambient detection and the
// value outline enabled.
func DefaultOptions() Options {
	return Options{
		Gauge:           gauge.DefaultConfig(),
		AutoDetectTheme: true,
		ShowTextOutline: true,
	}
}

// EffectiveMode returns mode, or Light when ambient detection is off.
func (o Options) EffectiveMode(mode ambient.Mode) ambient.Mode {
	if !o.AutoDetectTheme {
		return ambient.Light
	}
	return mode
}

// Key returns a canonical string identifying the output of rendering o in
// mode, minus the instance id. Options with a custom formatter have no key
// because the function cannot be compared.
func (o Options) Key(mode ambient.Mode) (string, bool) {
	c := o.Gauge
	if c.CustomDisplay != nil {
		return "", false
	}
	return fmt.Sprintf("%v|%v|%v|%q|%s|%v|%v|%q|%v|%v|%+v|%+v|%v|%s",
		c.Value, c.Min, c.Max, c.Label, c.DisplayType, c.TickInterval, c.ShowTicks,
		c.Colors, c.Size, c.Thickness, o.Theme.Light, o.Theme.Dark,
		o.ShowTextOutline, o.EffectiveMode(mode)), true
}

var idCounter atomic.Uint64

// NewID returns a process-unique identifier for one rendered instance.
// Filter ids derive from it so that several gauges can share a page.
func NewID() string {
	return fmt.Sprintf("gauge-%d", idCounter.Add(1))
}

// Render draws opts in mode under a fresh instance id.
func Render(opts Options, mode ambient.Mode) string {
	return SVG(opts, mode, NewID())
}

// templateID is the placeholder id of a Template render.
const templateID = "gauge-template"

// Template draws opts in mode under a placeholder id. The result is meant
// to be cached; every copy handed out goes through Reissue first.
func Template(opts Options, mode ambient.Mode) string {
	return SVG(opts, mode, templateID)
}

// Reissue gives a Template render its own instance id. Every pattern
// includes an attribute quote, which escapeXML never leaves in user text.
func Reissue(tmpl, id string) string {
	id = escapeXML(id)
	return strings.NewReplacer(
		`id="`+templateID+`"`, `id="`+id+`"`,
		`id="outline-`+templateID+`"`, `id="outline-`+id+`"`,
		`filter="url(#outline-`+templateID+`)"`, `filter="url(#outline-`+id+`)"`,
	).Replace(tmpl)
}

// SVG draws opts in mode. Ambient detection off forces light mode. The id
// scopes the outline filter; callers rendering several gauges into one page
// must pass distinct ids.
func SVG(opts Options, mode ambient.Mode, id string) string {
	cfg := opts.Gauge
	mode = opts.EffectiveMode(mode)
	g := gauge.Compute(cfg)
	colors := theme.Resolve(mode.IsDark(), opts.Theme)
	filterID := "outline-" + id

	aria := cfg.Label
	if aria == "" {
		aria = defaultAria
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(g, id, aria))

	if opts.ShowTextOutline {
		sb.WriteString(outlineFilter(filterID, colors.TextOutline))
	}

	// Segments
	for _, seg := range g.Segments {
		sb.WriteString(fmt.Sprintf(`<path class="gauge-segment" d="%s" fill="%s" opacity="%s"/>`,
			g.ArcPath(seg.StartAngle, seg.EndAngle), escapeXML(seg.Color), segmentOpacity))
	}

	// Inner disc
	sb.WriteString(fmt.Sprintf(`<path class="gauge-background" d="%s" fill="%s" stroke="none"/>`,
		g.InnerDiscPath(), escapeXML(colors.Background)))

	// Ticks
	for _, m := range g.TickMarks() {
		sb.WriteString(`<g class="gauge-tick">`)
		sb.WriteString(fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%d"/>`,
			num(m.Start.X), num(m.Start.Y), num(m.End.X), num(m.End.Y),
			escapeXML(colors.TickColor), tickStroke))
		sb.WriteString(fmt.Sprintf(`<text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-size="%d" font-weight="%d" fill="%s">%s</text>`,
			num(m.Label.X), num(m.Label.Y), tickFontSize, tickFontWeight,
			escapeXML(colors.TickColor), escapeXML(m.Text)))
		sb.WriteString(`</g>`)
	}

	// Needle
	n := g.Needle()
	sb.WriteString(fmt.Sprintf(`<g class="gauge-needle" transform="rotate(%s %s %s)">`,
		num(n.Rotation), num(n.Center.X), num(n.Center.Y)))
	sb.WriteString(fmt.Sprintf(`<path d="%s" fill="%s"/>`, n.Path(), escapeXML(colors.NeedleColor)))
	sb.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%d" fill="%s"/>`,
		num(n.Center.X), num(n.Center.Y), gauge.HubOuterRadius, escapeXML(colors.NeedleColor)))
	sb.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%d" fill="%s"/>`,
		num(n.Center.X), num(n.Center.Y), gauge.HubInnerRadius, escapeXML(colors.NeedleCenter)))
	sb.WriteString(`</g>`)

	// Value
	v := g.ValueTextAnchor()
	filter := ""
	if opts.ShowTextOutline {
		filter = fmt.Sprintf(` filter="url(#%s)"`, filterID)
	}
	sb.WriteString(fmt.Sprintf(`<text class="gauge-value" x="%s" y="%s" text-anchor="middle" font-size="%d" font-weight="bold" fill="%s"%s>%s</text>`,
		num(v.X), num(v.Y), valueFontSize, escapeXML(colors.ValueTextColor), filter,
		escapeXML(gauge.FormatDisplay(cfg, g))))

	// Label
	if cfg.Label != "" {
		l := g.LabelAnchor()
		sb.WriteString(fmt.Sprintf(`<text class="gauge-label" x="%s" y="%s" text-anchor="middle" font-size="%d" font-weight="%d" fill="%s">%s</text>`,
			num(l.X), num(l.Y), labelFontSize, tickFontWeight,
			escapeXML(colors.TickColor), escapeXML(cfg.Label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(g gauge.Geometry, id, aria string) string {
	w, h := num(g.Width), num(g.Height)
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" id="%s" width="%s" height="%s" viewBox="0 0 %s %s" overflow="visible" font-family="sans-serif" role="img" aria-label="%s">`,
		escapeXML(id), w, h, w, h, escapeXML(aria))
}

// outlineFilter dilates the glyphs, floods the dilated area with color and
// draws the original glyphs on top.
func outlineFilter(id, color string) string {
	return fmt.Sprintf(`<defs><filter id="%s" x="-50%%" y="-50%%" width="200%%" height="200%%">`+
		`<feMorphology operator="dilate" radius="%d" result="expanded"/>`+
		`<feFlood flood-color="%s" result="outline"/>`+
		`<feComposite in="outline" in2="expanded" operator="in" result="border"/>`+
		`<feMerge><feMergeNode in="border"/><feMergeNode in="SourceGraphic"/></feMerge>`+
		`</filter></defs>`,
		escapeXML(id), outlineRadius, escapeXML(color))
}

func num(v float64) string {
	return utils.FormatCoord(v)
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
