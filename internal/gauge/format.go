package gauge

import "github.com/seenimoa/gaugekit/pkg/utils"

// FormatDisplay formats the value text for cfg. A custom formatter always
// wins, whatever DisplayType says. Without one, "value" prints whole numbers
// bare and everything else with one decimal; any other type, including
// "custom" with no formatter, prints the rounded percentage.
func FormatDisplay(cfg Config, g Geometry) string {
	if cfg.CustomDisplay != nil {
		return cfg.CustomDisplay(g.ClampedValue)
	}
	switch cfg.DisplayType {
	case DisplayValue:
		if utils.IsWhole(g.ClampedValue) {
			return utils.FormatShortest(g.ClampedValue)
		}
		return utils.FormatFixed(g.ClampedValue, 1)
	default:
		return utils.FormatPercent(g.Percentage)
	}
}

// FormatTickLabel prints a tick value with the fewest digits needed, after
// rounding away the float noise that fractional intervals leave behind.
func FormatTickLabel(v float64) string {
	return utils.FormatLabel(v)
}
