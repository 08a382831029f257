package gauge

import "math"

// Tick is a labeled graduation at Value, placed at Angle degrees along the arc.
type Tick struct {
	Value float64 `json:"value"`
	Angle float64 `json:"angle"`
}

// ColorSegment is one colored wedge of the arc.
type ColorSegment struct {
	Color      string  `json:"color"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
}

// GenerateTicks builds the tick scale for [min, max] stepping by interval
// from the first multiple of interval at or above min. The scale always
// starts at min and ends at max; an endpoint that a regular step already
// hit exactly is not duplicated.
//
// e.g., (0, 10, 3) → 0 3 6 9 10; (-5, 5, 3) → -5 -3 0 3 5
func GenerateTicks(min, max, interval float64) []Tick {
	if !(max > min) {
		return []Tick{{Value: min, Angle: 0}}
	}

	var ticks []Tick
	if interval > 0 && !math.IsInf(interval, 0) {
		eps := interval * 1e-9
		start := math.Ceil(min/interval) * interval
		if start < min {
			start = min
		}
		for i := 0; len(ticks) < MaxTicks; i++ {
			v := start + float64(i)*interval
			if v > max+eps {
				break
			}
			v = snap(v, min, max, eps)
			ticks = append(ticks, Tick{Value: v, Angle: ratio(v, min, max) * 180})
		}
	}

	if len(ticks) == 0 || ticks[0].Value != min {
		ticks = append([]Tick{{Value: min, Angle: 0}}, ticks...)
	}
	if ticks[len(ticks)-1].Value != max {
		ticks = append(ticks, Tick{Value: max, Angle: 180})
	}
	return ticks
}

// snap pulls values within eps of a bound (or of zero) onto it, absorbing
// float error from start + i*interval.
func snap(v, min, max, eps float64) float64 {
	switch {
	case math.Abs(v-min) <= eps:
		return min
	case math.Abs(v-max) <= eps:
		return max
	case math.Abs(v) <= eps:
		return 0
	}
	return v
}

// BuildSegments partitions the 180° sweep into min(len(colors), len(ticks)-1)
// equal wedges. Boundaries are count-aligned to the ticks, not placed on
// them. With fewer than two ticks there is nothing to partition.
func BuildSegments(colors []string, ticks []Tick) []ColorSegment {
	if len(ticks) < 2 {
		return nil
	}
	if len(colors) == 0 {
		colors = FallbackColors
	}

	n := min(len(colors), len(ticks)-1)
	segments := make([]ColorSegment, n)
	for i := range segments {
		segments[i] = ColorSegment{
			Color:      colors[i],
			StartAngle: float64(i) / float64(n) * 180,
			EndAngle:   float64(i+1) / float64(n) * 180,
		}
	}
	return segments
}
