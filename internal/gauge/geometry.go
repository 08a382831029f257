package gauge

import (
	"fmt"
	"math"

	"github.com/seenimoa/gaugekit/pkg/utils"
)

// Layout margins around the arc. The extra height below the center leaves
// room for the label; the edge margin keeps tick labels inside the viewport.
const (
	verticalMargin = 60
	bottomMargin   = 40
	edgeMargin     = 30

	tickHalfLength = 5
	tickLabelGap   = 20

	needleReach     = 0.7
	needleBase      = 0.15
	needleHalfWidth = 6

	// HubOuterRadius and HubInnerRadius size the two needle hub circles.
	HubOuterRadius = 12
	HubInnerRadius = 8

	valueTextRise = 40
	labelDrop     = 30
)

// Point is a position in SVG user space (y grows downward).
type Point struct {
	X, Y float64
}

// Geometry is everything a renderer needs to draw one gauge.
type Geometry struct {
	Width       float64
	Height      float64
	CenterX     float64
	CenterY     float64
	OuterRadius float64
	InnerRadius float64

	ClampedValue float64
	Percentage   float64 // 0-100
	NeedleAngle  float64 // degrees, 0 = left end, 180 = right end

	Ticks    []Tick
	Segments []ColorSegment
}

// TickMark is the radial line and label anchor for one tick.
type TickMark struct {
	Tick  Tick
	Start Point // outside the arc
	End   Point // inside the arc
	Label Point
	Text  string
}

// Needle is the unrotated needle triangle plus the rotation to apply about
// the hub center.
type Needle struct {
	Tip      Point
	BaseTop  Point
	BaseBot  Point
	Center   Point
	Rotation float64 // degrees, clockwise
}

// Compute derives the full geometry for cfg. It never fails: out-of-range
// values are clamped and degenerate ranges collapse to zero angles.
func Compute(cfg Config) Geometry {
	g := Geometry{
		Width:  cfg.Size,
		Height: cfg.Size/2 + verticalMargin,
	}
	g.CenterX = g.Width / 2
	g.CenterY = g.Height - bottomMargin
	g.OuterRadius = math.Max(0, g.Width/2-edgeMargin)
	g.InnerRadius = math.Max(0, g.OuterRadius-cfg.Thickness)

	g.ClampedValue = clamp(cfg.Value, cfg.Min, cfg.Max)
	g.Percentage = ratio(g.ClampedValue, cfg.Min, cfg.Max) * 100
	g.NeedleAngle = g.Percentage / 100 * 180

	if cfg.ShowTicks {
		g.Ticks = GenerateTicks(cfg.Min, cfg.Max, cfg.TickInterval)
	}
	g.Segments = BuildSegments(cfg.Colors, g.Ticks)
	return g
}

// clamp limits v to [lo, hi]. NaN collapses to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ratio maps v within [lo, hi] to [0, 1]; an empty range maps to 0.
func ratio(v, lo, hi float64) float64 {
	span := hi - lo
	if !(span > 0) {
		return 0
	}
	return (v - lo) / span
}

// polar returns the point at radius r and gauge angle deg (0 = left end of
// the arc, 180 = right end, sweeping over the top).
func (g Geometry) polar(r, deg float64) Point {
	rad := (deg - 180) * math.Pi / 180
	return Point{
		X: g.CenterX + r*math.Cos(rad),
		Y: g.CenterY + r*math.Sin(rad),
	}
}

// ArcPoints returns the four corners of the donut wedge between two gauge
// angles: outer start, outer end, inner end, inner start.
func (g Geometry) ArcPoints(startAngle, endAngle float64) [4]Point {
	return [4]Point{
		g.polar(g.OuterRadius, startAngle),
		g.polar(g.OuterRadius, endAngle),
		g.polar(g.InnerRadius, endAngle),
		g.polar(g.InnerRadius, startAngle),
	}
}

// ArcPath returns a closed SVG path for the donut wedge between two gauge
// angles. A wedge never exceeds 180°, so the large-arc flag is always 0;
// the outer arc sweeps clockwise and the inner arc back counter-clockwise.
func (g Geometry) ArcPath(startAngle, endAngle float64) string {
	p := g.ArcPoints(startAngle, endAngle)
	ro, ri := utils.FormatCoord(g.OuterRadius), utils.FormatCoord(g.InnerRadius)
	return fmt.Sprintf("M %s %s A %s %s 0 0 1 %s %s L %s %s A %s %s 0 0 0 %s %s Z",
		utils.FormatCoord(p[0].X), utils.FormatCoord(p[0].Y),
		ro, ro,
		utils.FormatCoord(p[1].X), utils.FormatCoord(p[1].Y),
		utils.FormatCoord(p[2].X), utils.FormatCoord(p[2].Y),
		ri, ri,
		utils.FormatCoord(p[3].X), utils.FormatCoord(p[3].Y))
}

// InnerDiscPath returns the half disc that fills the inside of the arc.
func (g Geometry) InnerDiscPath() string {
	ri := utils.FormatCoord(g.InnerRadius)
	return fmt.Sprintf("M %s %s A %s %s 0 0 1 %s %s",
		utils.FormatCoord(g.CenterX-g.InnerRadius), utils.FormatCoord(g.CenterY),
		ri, ri,
		utils.FormatCoord(g.CenterX+g.InnerRadius), utils.FormatCoord(g.CenterY))
}

// TickMark computes the radial line straddling the outer radius and the
// label anchor further out.
func (g Geometry) TickMark(t Tick) TickMark {
	return TickMark{
		Tick:  t,
		Start: g.polar(g.OuterRadius+tickHalfLength, t.Angle),
		End:   g.polar(g.OuterRadius-tickHalfLength, t.Angle),
		Label: g.polar(g.OuterRadius+tickLabelGap, t.Angle),
		Text:  FormatTickLabel(t.Value),
	}
}

// TickMarks returns a TickMark for every tick, in order.
func (g Geometry) TickMarks() []TickMark {
	marks := make([]TickMark, len(g.Ticks))
	for i, t := range g.Ticks {
		marks[i] = g.TickMark(t)
	}
	return marks
}

// Needle returns the needle triangle laid along the 0° baseline (pointing
// left) and the rotation that brings it to the value.
func (g Geometry) Needle() Needle {
	return Needle{
		Tip:      Point{X: g.CenterX - g.OuterRadius*needleReach, Y: g.CenterY},
		BaseTop:  Point{X: g.CenterX - g.OuterRadius*needleBase, Y: g.CenterY - needleHalfWidth},
		BaseBot:  Point{X: g.CenterX - g.OuterRadius*needleBase, Y: g.CenterY + needleHalfWidth},
		Center:   Point{X: g.CenterX, Y: g.CenterY},
		Rotation: g.NeedleAngle,
	}
}

// Path returns the closed SVG path of the unrotated needle triangle.
func (n Needle) Path() string {
	return fmt.Sprintf("M %s %s L %s %s L %s %s Z",
		utils.FormatCoord(n.Tip.X), utils.FormatCoord(n.Tip.Y),
		utils.FormatCoord(n.BaseTop.X), utils.FormatCoord(n.BaseTop.Y),
		utils.FormatCoord(n.BaseBot.X), utils.FormatCoord(n.BaseBot.Y))
}

// ValueTextAnchor is where the formatted value is drawn, above the hub.
func (g Geometry) ValueTextAnchor() Point {
	return Point{X: g.CenterX, Y: g.CenterY - valueTextRise}
}

// LabelAnchor is where the optional label is drawn, below the hub.
func (g Geometry) LabelAnchor() Point {
	return Point{X: g.CenterX, Y: g.CenterY + labelDrop}
}
