package gauge

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func tickValues(ticks []Tick) []float64 {
	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = t.Value
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

// ════════════════════════════════════════════════════════════════════
// Clamp & Percentage
// ════════════════════════════════════════════════════════════════════

func TestCompute_ClampsValue(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantPct float64
	}{
		{"below_min", -100, 0},
		{"at_min", 0, 0},
		{"middle", 2.5, 50},
		{"at_max", 5, 100},
		{"above_max", 1e9, 100},
		{"negative_infinity", math.Inf(-1), 0},
		{"positive_infinity", math.Inf(1), 100},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Value = tt.value
			g := Compute(cfg)
			if math.Abs(g.Percentage-tt.wantPct) > 1e-9 {
				t.Errorf("Percentage = %v, want %v", g.Percentage, tt.wantPct)
			}
			if g.Percentage < 0 || g.Percentage > 100 {
				t.Errorf("Percentage out of bounds: %v", g.Percentage)
			}
			if want := tt.wantPct / 100 * 180; math.Abs(g.NeedleAngle-want) > 1e-9 {
				t.Errorf("NeedleAngle = %v, want %v", g.NeedleAngle, want)
			}
		})
	}
}

func TestCompute_Layout(t *testing.T) {
	g := Compute(DefaultConfig())

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"width", g.Width, 300},
		{"height", g.Height, 210},
		{"centerX", g.CenterX, 150},
		{"centerY", g.CenterY, 170},
		{"outerRadius", g.OuterRadius, 120},
		{"innerRadius", g.InnerRadius, 80},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestCompute_DegenerateInputDoesNotPanic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Min, cfg.Max = 5, 5
	cfg.TickInterval = 0
	cfg.Thickness = 1000

	g := Compute(cfg)
	if g.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0 for empty range", g.Percentage)
	}
	if g.InnerRadius != 0 {
		t.Errorf("InnerRadius = %v, want clamped to 0", g.InnerRadius)
	}
	if math.IsNaN(g.NeedleAngle) {
		t.Error("NeedleAngle is NaN")
	}
}

// ════════════════════════════════════════════════════════════════════
// Ticks
// ════════════════════════════════════════════════════════════════════

func TestGenerateTicks(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		interval float64
		want     []float64
	}{
		{"uneven_interval", 0, 10, 3, []float64{0, 3, 6, 9, 10}},
		{"even_interval", 0, 10, 2, []float64{0, 2, 4, 6, 8, 10}},
		{"negative_min", -5, 5, 3, []float64{-5, -3, 0, 3, 5}},
		{"unit_steps", 0, 5, 1, []float64{0, 1, 2, 3, 4, 5}},
		{"offset_min", 1, 5, 1, []float64{1, 2, 3, 4, 5}},
		{"interval_larger_than_range", 0, 5, 10, []float64{0, 5}},
		{"fractional_interval", 0, 1, 0.1, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}},
		{"non_multiple_bounds", 0.5, 3.5, 1, []float64{0.5, 1, 2, 3, 3.5}},
		{"zero_interval", 0, 5, 0, []float64{0, 5}},
		{"negative_interval", 0, 5, -1, []float64{0, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tickValues(GenerateTicks(tt.min, tt.max, tt.interval))
			if !equalFloats(got, tt.want) {
				t.Errorf("GenerateTicks(%v, %v, %v) = %v, want %v", tt.min, tt.max, tt.interval, got, tt.want)
			}
		})
	}
}

func TestGenerateTicks_EndpointsExactlyOnce(t *testing.T) {
	intervals := []float64{0.3, 0.7, 1, 1.5, 2, 2.5, 3, 4, 7}
	for _, iv := range intervals {
		ticks := GenerateTicks(-2, 11, iv)
		if ticks[0].Value != -2 || ticks[0].Angle != 0 {
			t.Errorf("interval %v: first tick = %+v", iv, ticks[0])
		}
		last := ticks[len(ticks)-1]
		if last.Value != 11 || last.Angle != 180 {
			t.Errorf("interval %v: last tick = %+v", iv, last)
		}
		counts := map[float64]int{}
		for _, tk := range ticks {
			counts[tk.Value]++
		}
		if counts[-2] != 1 || counts[11] != 1 {
			t.Errorf("interval %v: endpoints duplicated: %v", iv, tickValues(ticks))
		}
		for i := 1; i < len(ticks); i++ {
			if ticks[i].Value <= ticks[i-1].Value {
				t.Errorf("interval %v: ticks not ascending: %v", iv, tickValues(ticks))
				break
			}
		}
	}
}

func TestGenerateTicks_Angles(t *testing.T) {
	ticks := GenerateTicks(0, 10, 2)
	for _, tk := range ticks {
		want := tk.Value / 10 * 180
		if math.Abs(tk.Angle-want) > 1e-9 {
			t.Errorf("tick %v angle = %v, want %v", tk.Value, tk.Angle, want)
		}
	}
}

func TestCompute_HiddenTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShowTicks = false
	g := Compute(cfg)
	if len(g.Ticks) != 0 {
		t.Errorf("expected no ticks, got %d", len(g.Ticks))
	}
	if len(g.Segments) != 0 {
		t.Errorf("expected no segments without ticks, got %d", len(g.Segments))
	}
}

// ════════════════════════════════════════════════════════════════════
// Segments
// ════════════════════════════════════════════════════════════════════

func TestBuildSegments_Count(t *testing.T) {
	tests := []struct {
		name      string
		colors    int
		ticks     []Tick
		wantCount int
	}{
		{"more_colors_than_gaps", 6, GenerateTicks(0, 3, 1), 3},
		{"fewer_colors_than_gaps", 2, GenerateTicks(0, 10, 1), 2},
		{"equal", 5, GenerateTicks(0, 10, 2), 5},
		{"single_tick", 3, []Tick{{Value: 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colors := make([]string, tt.colors)
			for i := range colors {
				colors[i] = "#000000"
			}
			segs := BuildSegments(colors, tt.ticks)
			if len(segs) != tt.wantCount {
				t.Fatalf("len(segments) = %d, want %d", len(segs), tt.wantCount)
			}
			for i, s := range segs {
				width := s.EndAngle - s.StartAngle
				if want := 180 / float64(tt.wantCount); math.Abs(width-want) > 1e-9 {
					t.Errorf("segment %d width = %v, want %v", i, width, want)
				}
				if i > 0 && s.StartAngle != segs[i-1].EndAngle {
					t.Errorf("segment %d not contiguous", i)
				}
			}
			if tt.wantCount > 0 {
				if segs[0].StartAngle != 0 || segs[len(segs)-1].EndAngle != 180 {
					t.Errorf("segments do not span 0-180: %+v", segs)
				}
			}
		})
	}
}

func TestBuildSegments_NotTickAligned(t *testing.T) {
	// Ticks at 0 3 6 9 10: five ticks, four gaps of unequal width.
	segs := BuildSegments([]string{"a", "b", "c", "d"}, GenerateTicks(0, 10, 3))
	if len(segs) != 4 {
		t.Fatalf("len(segments) = %d, want 4", len(segs))
	}
	if segs[3].StartAngle != 135 {
		t.Errorf("last segment starts at %v, want 135", segs[3].StartAngle)
	}
}

func TestBuildSegments_EmptyColors(t *testing.T) {
	segs := BuildSegments(nil, GenerateTicks(0, 5, 1))
	if len(segs) != 1 {
		t.Fatalf("len(segments) = %d, want 1", len(segs))
	}
	if segs[0].Color != FallbackColors[0] {
		t.Errorf("color = %q, want fallback %q", segs[0].Color, FallbackColors[0])
	}
	if segs[0].StartAngle != 0 || segs[0].EndAngle != 180 {
		t.Errorf("fallback segment = %+v", segs[0])
	}
}

// ════════════════════════════════════════════════════════════════════
// Paths
// ════════════════════════════════════════════════════════════════════

func TestArcPath_FullSweep(t *testing.T) {
	g := Compute(DefaultConfig())
	got := g.ArcPath(0, 180)
	want := "M 30 170 A 120 120 0 0 1 270 170 L 230 170 A 80 80 0 0 0 70 170 Z"
	if got != want {
		t.Errorf("ArcPath(0, 180)\n got  %s\n want %s", got, want)
	}
}

func TestArcPath_QuarterSweep(t *testing.T) {
	g := Compute(DefaultConfig())
	got := g.ArcPath(0, 90)
	want := "M 30 170 A 120 120 0 0 1 150 50 L 150 90 A 80 80 0 0 0 70 170 Z"
	if got != want {
		t.Errorf("ArcPath(0, 90)\n got  %s\n want %s", got, want)
	}
}

func TestArcPath_Flags(t *testing.T) {
	g := Compute(DefaultConfig())
	for _, seg := range g.Segments {
		p := g.ArcPath(seg.StartAngle, seg.EndAngle)
		if !strings.Contains(p, " 0 0 1 ") || !strings.Contains(p, " 0 0 0 ") {
			t.Errorf("unexpected arc flags in %s", p)
		}
		if !strings.HasSuffix(p, "Z") {
			t.Errorf("path not closed: %s", p)
		}
	}
}

func TestInnerDiscPath(t *testing.T) {
	g := Compute(DefaultConfig())
	want := "M 70 170 A 80 80 0 0 1 230 170"
	if got := g.InnerDiscPath(); got != want {
		t.Errorf("InnerDiscPath() = %s, want %s", got, want)
	}
}

func TestTickMark(t *testing.T) {
	g := Compute(DefaultConfig())
	m := g.TickMark(Tick{Value: 0, Angle: 0})
	if math.Abs(m.Start.X-25) > 1e-9 || math.Abs(m.End.X-35) > 1e-9 || math.Abs(m.Label.X-10) > 1e-9 {
		t.Errorf("tick at 0°: start=%v end=%v label=%v", m.Start, m.End, m.Label)
	}
	if math.Abs(m.Start.Y-170) > 1e-9 {
		t.Errorf("tick at 0° should sit on the baseline, got y=%v", m.Start.Y)
	}

	top := g.TickMark(Tick{Value: 2.5, Angle: 90})
	if math.Abs(top.Label.X-150) > 1e-9 || math.Abs(top.Label.Y-30) > 1e-9 {
		t.Errorf("tick at 90° label = %v, want (150, 30)", top.Label)
	}
	if top.Text != "2.5" {
		t.Errorf("tick text = %q, want 2.5", top.Text)
	}
}

func TestNeedle(t *testing.T) {
	g := Compute(DefaultConfig())
	n := g.Needle()
	if got, want := n.Path(), "M 66 170 L 132 164 L 132 176 Z"; got != want {
		t.Errorf("needle path = %s, want %s", got, want)
	}
	if n.Rotation != 90 {
		t.Errorf("needle rotation = %v, want 90", n.Rotation)
	}
	if n.Center != (Point{X: 150, Y: 170}) {
		t.Errorf("needle center = %v", n.Center)
	}
}

// ════════════════════════════════════════════════════════════════════
// Display value
// ════════════════════════════════════════════════════════════════════

func TestFormatDisplay(t *testing.T) {
	score := func(v float64) string { return "Score: " + FormatTickLabel(v) }

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"percentage_half", func(c *Config) { c.Value = 2.5 }, "50%"},
		{"percentage_rounds", func(c *Config) { c.Value = 3.33 }, "67%"},
		{"value_integer", func(c *Config) { c.DisplayType = DisplayValue; c.Value = 4 }, "4"},
		{"value_fraction", func(c *Config) { c.DisplayType = DisplayValue; c.Value = 3.7 }, "3.7"},
		{"value_two_decimals", func(c *Config) { c.DisplayType = DisplayValue; c.Value = 3.14159 }, "3.1"},
		{"value_clamped", func(c *Config) { c.DisplayType = DisplayValue; c.Value = 12; c.Max = 10 }, "10"},
		{"value_binary_below_half", func(c *Config) { c.DisplayType = DisplayValue; c.Value = 0.15 }, "0.1"},
		{"value_exact_tie", func(c *Config) { c.DisplayType = DisplayValue; c.Value = 3.75 }, "3.8"},
		{"value_negative_near_zero", func(c *Config) { c.DisplayType = DisplayValue; c.Min = -1; c.Value = -0.04 }, "-0.0"},
		{"custom", func(c *Config) { c.DisplayType = DisplayCustom; c.CustomDisplay = score; c.Value = 4 }, "Score: 4"},
		{"custom_wins_over_percentage", func(c *Config) { c.CustomDisplay = score; c.Value = 4 }, "Score: 4"},
		{"custom_without_formatter", func(c *Config) { c.DisplayType = DisplayCustom; c.Value = 2.5 }, "50%"},
		{"unknown_type", func(c *Config) { c.DisplayType = "gibberish"; c.Value = 5 }, "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := FormatDisplay(cfg, Compute(cfg)); got != tt.want {
				t.Errorf("FormatDisplay = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTickLabel_FractionalInterval(t *testing.T) {
	want := []string{"0", "0.1", "0.2", "0.3", "0.4", "0.5", "0.6", "0.7", "0.8", "0.9", "1"}
	ticks := GenerateTicks(0, 1, 0.1)
	if len(ticks) != len(want) {
		t.Fatalf("got %d ticks, want %d", len(ticks), len(want))
	}
	for i, tk := range ticks {
		if got := FormatTickLabel(tk.Value); got != want[i] {
			t.Errorf("tick %d label = %q, want %q", i, got, want[i])
		}
	}
	if got := FormatTickLabel(0.1 + 0.2); got != "0.3" {
		t.Errorf("FormatTickLabel(0.1+0.2) = %q", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// Validation
// ════════════════════════════════════════════════════════════════════

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"default_ok", func(c *Config) {}, nil},
		{"min_equals_max", func(c *Config) { c.Min, c.Max = 3, 3 }, ErrInvalidRange},
		{"min_above_max", func(c *Config) { c.Min, c.Max = 10, 0 }, ErrInvalidRange},
		{"nan_value", func(c *Config) { c.Value = math.NaN() }, ErrInvalidValue},
		{"zero_interval", func(c *Config) { c.TickInterval = 0 }, ErrInvalidTickInterval},
		{"zero_interval_hidden_ticks", func(c *Config) { c.TickInterval = 0; c.ShowTicks = false }, nil},
		{"too_many_ticks", func(c *Config) { c.TickInterval = 0.0001 }, ErrTooManyTicks},
		{"zero_size", func(c *Config) { c.Size = 0 }, ErrInvalidSize},
		{"zero_thickness", func(c *Config) { c.Thickness = 0 }, ErrInvalidThickness},
		{"thickness_exceeds_radius", func(c *Config) { c.Thickness = 120 }, ErrInvalidThickness},
		{"out_of_range_value_ok", func(c *Config) { c.Value = -50 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDefaultConfig_ColorsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Colors[0] = "#000000"
	if DefaultColors[0] == "#000000" {
		t.Error("DefaultConfig shares its color slice with DefaultColors")
	}
}
