package raster

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor understands the color strings a gauge theme may carry: SVG
// color keywords ("white", "rebeccapurple") and #rgb / #rrggbb hex.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return colorful.Color{}, fmt.Errorf("raster: empty color")
	}
	if named, ok := colornames.Map[s]; ok {
		c, _ := colorful.MakeColor(named)
		return c, nil
	}
	if len(s) == 4 && s[0] == '#' {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("raster: unsupported color %q: %w", s, err)
	}
	return c, nil
}
