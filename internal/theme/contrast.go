package theme

import "strings"

// lightBackgrounds are the canonical color strings treated as light.
var lightBackgrounds = map[string]bool{
	"white":   true,
	"#fff":    true,
	"#ffffff": true,
	"#fafafa": true,
	"#f9fafb": true,
	"#f5f5f5": true,
	"#f3f4f6": true,
	"#f0f0f0": true,
	"#e5e7eb": true,
}

// IsLight reports whether color is one of the known light backgrounds.
func IsLight(color string) bool {
	return lightBackgrounds[strings.ToLower(strings.TrimSpace(color))]
}

// ContrastText picks a readable text color for background: dark slate on a
// known light background, near-white on anything else. An empty background
// is classified as the light default.
func ContrastText(background string) string {
	if strings.TrimSpace(background) == "" {
		background = DefaultLight().Background
	}
	if IsLight(background) {
		return DarkSlate
	}
	return NearWhite
}
