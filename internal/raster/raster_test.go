package raster

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/gauge"
	"github.com/seenimoa/gaugekit/internal/render"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func rgb8(img image.Image, x, y int) (r, g, b uint8) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
}

// isRGB compares a pixel against an expected color, allowing for rounding
// in the premultiplied pipeline.
func isRGB(img image.Image, x, y int, r, g, b uint8) bool {
	cr, cg, cb := rgb8(img, x, y)
	near := func(a, b uint8) bool { return math.Abs(float64(a)-float64(b)) <= 2 }
	return near(cr, r) && near(cg, g) && near(cb, b)
}

// ════════════════════════════════════════════════════════════════════
// Colors
// ════════════════════════════════════════════════════════════════════

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b uint8
		wantErr bool
	}{
		{"white", 255, 255, 255, false},
		{" WHITE ", 255, 255, 255, false},
		{"#fff", 255, 255, 255, false},
		{"#1F2937", 31, 41, 55, false},
		{"#22c55e", 34, 197, 94, false},
		{"teal", 0, 128, 128, false},
		{"", 0, 0, 0, true},
		{"not-a-color", 0, 0, 0, true},
		{"#zzzzzz", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) = %v, want error", tt.in, c)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tt.in, err)
			}
			r, g, b := c.RGB255()
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("ParseColor(%q) = %d,%d,%d, want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Images
// ════════════════════════════════════════════════════════════════════

func TestImage_Size(t *testing.T) {
	r := testRenderer(t)
	for _, scale := range []float64{1, 2, 0.5} {
		img, err := r.Image(render.DefaultOptions(), ambient.Light, scale)
		if err != nil {
			t.Fatalf("scale %v: %v", scale, err)
		}
		b := img.Bounds()
		wantW, wantH := int(math.Ceil(300*scale)), int(math.Ceil(210*scale))
		if b.Dx() != wantW || b.Dy() != wantH {
			t.Errorf("scale %v: size %dx%d, want %dx%d", scale, b.Dx(), b.Dy(), wantW, wantH)
		}
	}
}

func TestImage_RejectsBadScale(t *testing.T) {
	r := testRenderer(t)
	for _, scale := range []float64{0, -1, MaxScale + 1, math.NaN()} {
		if _, err := r.Image(render.DefaultOptions(), ambient.Light, scale); err == nil {
			t.Errorf("scale %v accepted", scale)
		}
	}
}

func TestImage_BackgroundFollowsMode(t *testing.T) {
	r := testRenderer(t)

	light, err := r.Image(render.DefaultOptions(), ambient.Light, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !isRGB(light, 1, 1, 255, 255, 255) {
		t.Errorf("light corner = %v, want white", light.At(1, 1))
	}

	dark, err := r.Image(render.DefaultOptions(), ambient.Dark, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !isRGB(dark, 1, 1, 31, 41, 55) {
		t.Errorf("dark corner = %v, want #1f2937", dark.At(1, 1))
	}
	// Inside the inner disc, clear of the needle and text.
	if !isRGB(dark, 110, 160, 31, 41, 55) {
		t.Errorf("dark disc = %v, want #1f2937", dark.At(110, 160))
	}

	opts := render.DefaultOptions()
	opts.AutoDetectTheme = false
	fixed, err := r.Image(opts, ambient.Dark, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !isRGB(fixed, 1, 1, 255, 255, 255) {
		t.Errorf("auto-detect off corner = %v, want white", fixed.At(1, 1))
	}
}

func TestImage_FirstSegmentIsGreen(t *testing.T) {
	r := testRenderer(t)
	img, err := r.Image(render.DefaultOptions(), ambient.Light, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 18° along the arc, mid-thickness.
	cr, cg, cb := rgb8(img, 55, 139)
	if !(cg > cr && cg > cb) {
		t.Errorf("first segment pixel = %d,%d,%d, want green-dominant", cr, cg, cb)
	}
}

func TestImage_UnknownColorFallsBack(t *testing.T) {
	r := testRenderer(t)
	opts := render.DefaultOptions()
	opts.Gauge.Colors = []string{"var(--brand)"}
	if _, err := r.Image(opts, ambient.Light, 1); err != nil {
		t.Errorf("unparseable segment color should degrade, got %v", err)
	}
}

func TestPNG_Decodes(t *testing.T) {
	var buf bytes.Buffer
	opts := render.DefaultOptions()
	opts.Gauge.Label = "CPU"
	if err := PNG(&buf, opts, ambient.Dark, 1); err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 210 {
		t.Errorf("decoded size %dx%d", b.Dx(), b.Dy())
	}
}

func TestArc_Endpoints(t *testing.T) {
	geo := gauge.Compute(gauge.DefaultConfig())
	pts := arc(geo, geo.OuterRadius, 0, 180)
	if len(pts) != 181 {
		t.Fatalf("points = %d, want 181", len(pts))
	}
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	if first := pts[0]; !near(first.X, 30) || !near(first.Y, 170) {
		t.Errorf("first = %+v, want (30,170)", first)
	}
	if mid := pts[90]; !near(mid.X, 150) || !near(mid.Y, 50) {
		t.Errorf("mid = %+v, want (150,50)", mid)
	}
	if last := pts[180]; !near(last.X, 270) || !near(last.Y, 170) {
		t.Errorf("last = %+v, want (270,170)", last)
	}

	if back := arc(geo, geo.InnerRadius, 36, 0); back[0].X <= back[len(back)-1].X {
		t.Error("reverse arc should run right to left")
	}
	if one := arc(geo, 10, 5, 5); len(one) != 2 {
		t.Errorf("zero sweep points = %d, want 2", len(one))
	}
}
