// Package theme resolves the colors a gauge is drawn with. Each mode has a
// built-in default table; caller overrides are laid over it field by field,
// and the value text color falls back to a contrast pick against the
// background when nothing supplies it.
package theme

import "strings"

// Colors is a partial theme. An empty field means "not set" and inherits
// from the layer below it.
type Colors struct {
	Background     string `json:"background,omitempty"       mapstructure:"background"       yaml:"background,omitempty"`
	TickColor      string `json:"tick_color,omitempty"       mapstructure:"tick_color"       yaml:"tick_color,omitempty"`
	NeedleColor    string `json:"needle_color,omitempty"     mapstructure:"needle_color"     yaml:"needle_color,omitempty"`
	NeedleCenter   string `json:"needle_center,omitempty"    mapstructure:"needle_center"    yaml:"needle_center,omitempty"`
	TextOutline    string `json:"text_outline,omitempty"     mapstructure:"text_outline"     yaml:"text_outline,omitempty"`
	ValueTextColor string `json:"value_text_color,omitempty" mapstructure:"value_text_color" yaml:"value_text_color,omitempty"`
}

// Overrides holds the caller's partial themes for each mode.
type Overrides struct {
	Light Colors `json:"light" mapstructure:"light" yaml:"light"`
	Dark  Colors `json:"dark"  mapstructure:"dark"  yaml:"dark"`
}

// Resolved is a theme with every field populated.
type Resolved struct {
	Background     string `json:"background"`
	TickColor      string `json:"tick_color"`
	NeedleColor    string `json:"needle_color"`
	NeedleCenter   string `json:"needle_center"`
	TextOutline    string `json:"text_outline"`
	ValueTextColor string `json:"value_text_color"`
}

// Palette entries referenced by the default tables.
const (
	White     = "white"
	NearWhite = "#f9fafb"
	LightGray = "#e5e7eb"
	MidGray   = "#9ca3af"
	Slate     = "#374151"
	DarkSlate = "#1f2937"
)

// DefaultLight is the built-in light mode table.
func DefaultLight() Colors {
	return Colors{
		Background:     White,
		TickColor:      Slate,
		NeedleColor:    DarkSlate,
		NeedleCenter:   White,
		TextOutline:    White,
		ValueTextColor: DarkSlate,
	}
}

// DefaultDark is the built-in dark mode table.
func DefaultDark() Colors {
	return Colors{
		Background:     DarkSlate,
		TickColor:      MidGray,
		NeedleColor:    LightGray,
		NeedleCenter:   Slate,
		TextOutline:    DarkSlate,
		ValueTextColor: NearWhite,
	}
}

// Defaults returns the built-in table for the given mode.
func Defaults(dark bool) Colors {
	if dark {
		return DefaultDark()
	}
	return DefaultLight()
}

// For returns the override layer for the given mode.
func (o Overrides) For(dark bool) Colors {
	if dark {
		return o.Dark
	}
	return o.Light
}

// IsZero reports whether no field is set.
func (c Colors) IsZero() bool {
	return c == Colors{}
}

// Overlay lays over on top of base: every non-empty field of over replaces
// the matching field of base, everything else is kept.
func Overlay(base, over Colors) Colors {
	out := base
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&out.Background, over.Background)
	set(&out.TickColor, over.TickColor)
	set(&out.NeedleColor, over.NeedleColor)
	set(&out.NeedleCenter, over.NeedleCenter)
	set(&out.TextOutline, over.TextOutline)
	set(&out.ValueTextColor, over.ValueTextColor)
	return out
}

// Resolve picks the default table and override layer for the mode, merges
// them and fills in whatever is still missing.
func Resolve(dark bool, o Overrides) Resolved {
	return ResolveWith(Defaults(dark), o.For(dark))
}

// ResolveWith merges over onto an explicit base table. Fields left empty by
// both layers come from the light defaults, except the value text color,
// which is picked by ContrastText against the resolved background.
func ResolveWith(base, over Colors) Resolved {
	c := Overlay(base, over)
	filled := Overlay(DefaultLight(), c)

	r := Resolved{
		Background:     filled.Background,
		TickColor:      filled.TickColor,
		NeedleColor:    filled.NeedleColor,
		NeedleCenter:   filled.NeedleCenter,
		TextOutline:    filled.TextOutline,
		ValueTextColor: c.ValueTextColor,
	}
	if r.ValueTextColor == "" {
		r.ValueTextColor = ContrastText(r.Background)
	}
	return r
}
