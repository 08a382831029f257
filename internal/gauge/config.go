// Package gauge turns a gauge configuration into drawable geometry: the
// clamped value and needle angle, the tick scale, the colored arc segments
// and the SVG path data for each piece. Everything here is a pure function
// of Config; nothing is cached between calls.
package gauge

import (
	"errors"
	"fmt"
	"math"
)

// DisplayType selects how the value text is formatted.
type DisplayType string

const (
	DisplayPercentage DisplayType = "percentage"
	DisplayValue      DisplayType = "value"
	DisplayCustom     DisplayType = "custom"
)

// DefaultColors is the green-to-red palette used when the caller supplies none.
var DefaultColors = []string{"#22c55e", "#10b981", "#84cc16", "#eab308", "#f59e0b", "#ef4444"}

// FallbackColors substitutes for an explicitly empty color list so that at
// least one segment is drawn.
var FallbackColors = []string{"#9ca3af"}

// MaxTicks bounds the tick scale. Configurations that would produce more are
// rejected by Validate and truncated by GenerateTicks.
const MaxTicks = 1000

// Configuration errors reported by Validate.
var (
	ErrInvalidRange        = errors.New("gauge: min must be less than max")
	ErrInvalidValue        = errors.New("gauge: value must be a number")
	ErrInvalidTickInterval = errors.New("gauge: tick interval must be positive")
	ErrTooManyTicks        = errors.New("gauge: tick interval produces too many ticks")
	ErrInvalidSize         = errors.New("gauge: size must be positive")
	ErrInvalidThickness    = errors.New("gauge: thickness must be positive and smaller than the arc radius")
)

// Config describes one gauge render. It is passed by value and never mutated.
type Config struct {
	Value         float64
	Min           float64
	Max           float64
	Label         string
	DisplayType   DisplayType
	CustomDisplay func(float64) string // when set, always wins over DisplayType
	TickInterval  float64
	ShowTicks     bool
	Colors        []string
	Size          float64 // width in pixels
	Thickness     float64 // arc thickness in pixels
}

// DefaultConfig returns the default gauge: 0-5 range, percentage display.
func DefaultConfig() Config {
	colors := make([]string, len(DefaultColors))
	copy(colors, DefaultColors)
	return Config{
		Value:        2.5,
		Min:          0,
		Max:          5,
		DisplayType:  DisplayPercentage,
		TickInterval: 1,
		ShowTicks:    true,
		Colors:       colors,
		Size:         300,
		Thickness:    40,
	}
}

// Validate reports structurally invalid configurations. Compute never fails,
// so callers that accept untrusted input (CLI flags, API bodies) check here
// first and refuse what would otherwise render as degenerate geometry.
func (c Config) Validate() error {
	if math.IsNaN(c.Min) || math.IsNaN(c.Max) || math.IsInf(c.Min, 0) || math.IsInf(c.Max, 0) || c.Min >= c.Max {
		return fmt.Errorf("%w (min=%v, max=%v)", ErrInvalidRange, c.Min, c.Max)
	}
	if math.IsNaN(c.Value) {
		return ErrInvalidValue
	}
	if c.ShowTicks {
		if math.IsNaN(c.TickInterval) || c.TickInterval <= 0 {
			return fmt.Errorf("%w (tick_interval=%v)", ErrInvalidTickInterval, c.TickInterval)
		}
		if (c.Max-c.Min)/c.TickInterval > MaxTicks {
			return fmt.Errorf("%w (range=%v, tick_interval=%v)", ErrTooManyTicks, c.Max-c.Min, c.TickInterval)
		}
	}
	if math.IsNaN(c.Size) || c.Size <= 0 {
		return fmt.Errorf("%w (size=%v)", ErrInvalidSize, c.Size)
	}
	outer := c.Size/2 - edgeMargin
	if math.IsNaN(c.Thickness) || c.Thickness <= 0 || c.Thickness >= outer {
		return fmt.Errorf("%w (thickness=%v, radius=%v)", ErrInvalidThickness, c.Thickness, outer)
	}
	return nil
}
